package quiz

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is the single live quiz round. It composes the question store, the
// participant registry and the answer ledger behind one lock: every mutating
// operation holds the write lock for its whole duration, reads take the read
// lock and return copies.
type Session struct {
	mu sync.RWMutex

	questions *QuestionStore
	registry  *Registry
	ledger    *Ledger

	current  *Question
	revealed bool
	reveal   *RevealResult // cached by the first reveal of current

	now func() time.Time
}

// NewSession creates an idle session.
func NewSession() *Session {
	return NewSessionWithClock(time.Now)
}

// NewSessionWithClock is used by tests for deterministic timestamps.
func NewSessionWithClock(now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{
		questions: NewQuestionStore(now),
		registry:  NewRegistry(now),
		ledger:    newLedger(),
		now:       now,
	}
}

// SetQuestion makes q current, clearing answers and the reveal flag.
func (s *Session) SetQuestion(q Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setQuestionLocked(q)
}

func (s *Session) setQuestionLocked(q Question) {
	s.current = &q
	s.revealed = false
	s.reveal = nil
	s.ledger.clear()
}

// PublishQuestion creates a question and makes it current in one step.
func (s *Session) PublishQuestion(text string, options []string, correctAnswer string) (Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, err := s.questions.Create(text, options, correctAnswer)
	if err != nil {
		return Question{}, err
	}
	s.setQuestionLocked(q)
	return q, nil
}

// SubmitAnswer records participantID's answer for the current question.
func (s *Session) SubmitAnswer(participantID uuid.UUID, selectedOption string) (Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.acceptingLocked(); err != nil {
		return Answer{}, err
	}
	p, ok := s.registry.ByID(participantID)
	if !ok {
		return Answer{}, invalid("participant", "unknown participant")
	}
	return s.submitLocked(p, selectedOption)
}

// SubmitFromConnection resolves connID's participant and records their answer
// under one lock. Session state is checked before the connection is resolved.
func (s *Session) SubmitFromConnection(connID uuid.UUID, selectedOption string) (Participant, Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.acceptingLocked(); err != nil {
		return Participant{}, Answer{}, err
	}
	p, ok := s.registry.Lookup(connID)
	if !ok {
		return Participant{}, Answer{}, invalid("participant", "join before answering")
	}
	a, err := s.submitLocked(p, selectedOption)
	if err != nil {
		return Participant{}, Answer{}, err
	}
	return p, a, nil
}

func (s *Session) acceptingLocked() error {
	if s.current == nil {
		return illegal(ErrNoActiveQuestion)
	}
	if s.revealed {
		return illegal(ErrAlreadyRevealed)
	}
	return nil
}

func (s *Session) submitLocked(p Participant, selectedOption string) (Answer, error) {
	if !s.current.HasOption(selectedOption) {
		return Answer{}, invalid("selectedOption", "is not one of the question's options")
	}
	if _, exists := s.ledger.Get(p.ID); exists {
		return Answer{}, illegal(ErrDuplicateAnswer)
	}

	a := Answer{
		ParticipantID:   p.ID,
		ParticipantName: p.Name,
		QuestionID:      s.current.ID,
		SelectedOption:  selectedOption,
		IsCorrect:       selectedOption == s.current.CorrectAnswer,
		SubmittedAt:     s.now(),
	}
	s.ledger.record(a)
	return a, nil
}

// Reveal freezes the current question and returns the correct answer with all
// answers and statistics. Revealing again returns the first result unchanged.
func (s *Session) Reveal() (RevealResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return RevealResult{}, illegal(ErrNoActiveQuestion)
	}
	if s.revealed && s.reveal != nil {
		return cloneReveal(*s.reveal), nil
	}

	s.revealed = true
	res := RevealResult{
		QuestionID:    s.current.ID,
		CorrectAnswer: s.current.CorrectAnswer,
		Answers:       s.ledger.All(),
		Statistics:    s.statsLocked(),
	}
	s.reveal = &res
	return cloneReveal(res), nil
}

// Join registers a participant for the connection.
func (s *Session) Join(connID uuid.UUID, name string) (Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Join(connID, name)
}

// Remove unregisters the connection's participant and drops their answer for
// the current question. Unknown connections are a no-op.
func (s *Session) Remove(connID uuid.UUID) (Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.registry.Remove(connID)
	if !ok {
		return Participant{}, false
	}
	s.ledger.drop(p.ID)
	return p, true
}

// Lookup returns the participant bound to connID.
func (s *Session) Lookup(connID uuid.UUID) (Participant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.Lookup(connID)
}

// Participants returns live participants in join order.
func (s *Session) Participants() []Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.All()
}

func (s *Session) ParticipantCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.Len()
}

// Answer returns participantID's answer for the current question.
func (s *Session) Answer(participantID uuid.UUID) (Answer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Get(participantID)
}

// Answers returns answers for the current question in submission order.
func (s *Session) Answers() []Answer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.All()
}

// Statistics is available in every state; it is all zeros in idle with no participants.
func (s *Session) Statistics() Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statsLocked()
}

func (s *Session) statsLocked() Statistics {
	st := s.ledger.stats()
	st.TotalParticipants = s.registry.Len()
	return st
}

// CurrentQuestion returns the current question, if any.
func (s *Session) CurrentQuestion() (Question, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Question{}, false
	}
	return *s.current, true
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	switch {
	case s.current == nil:
		return StateIdle
	case s.revealed:
		return StateRevealed
	default:
		return StateActive
	}
}

// Snapshot reads state, current question and statistics under one lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		State:            s.stateLocked(),
		Statistics:       s.statsLocked(),
		ParticipantCount: s.registry.Len(),
	}
	if s.current != nil {
		q := *s.current
		snap.Question = &q
	}
	return snap
}

// Questions returns every question published during the process lifetime.
func (s *Session) Questions() []Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.questions.All()
}

func cloneReveal(r RevealResult) RevealResult {
	r.Answers = slices.Clone(r.Answers)
	return r
}
