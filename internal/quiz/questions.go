package quiz

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuestionStore creates questions and keeps them for the process lifetime.
// It is not safe for concurrent use; Session serializes access to it.
type QuestionStore struct {
	byID  map[uuid.UUID]Question
	order []uuid.UUID
	now   func() time.Time
}

// NewQuestionStore creates an empty, append-only question store.
func NewQuestionStore(now func() time.Time) *QuestionStore {
	if now == nil {
		now = time.Now
	}
	return &QuestionStore{
		byID: make(map[uuid.UUID]Question),
		now:  now,
	}
}

// Create validates the input and stores a new question.
// Options must be exactly four non-empty strings and correctAnswer must equal one of them.
func (s *QuestionStore) Create(text string, options []string, correctAnswer string) (Question, error) {
	if err := validateQuestion(text, options, correctAnswer); err != nil {
		return Question{}, err
	}

	// v7 ids sort by generation time.
	id, err := uuid.NewV7()
	if err != nil {
		return Question{}, fmt.Errorf("generate question id: %w", err)
	}

	q := Question{
		ID:            id,
		Text:          strings.TrimSpace(text),
		CorrectAnswer: correctAnswer,
		CreatedAt:     s.now(),
	}
	copy(q.Options[:], options)

	s.byID[q.ID] = q
	s.order = append(s.order, q.ID)
	return q, nil
}

// Get returns a previously created question.
func (s *QuestionStore) Get(id uuid.UUID) (Question, bool) {
	q, ok := s.byID[id]
	return q, ok
}

// All returns questions in creation order.
func (s *QuestionStore) All() []Question {
	out := make([]Question, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

func (s *QuestionStore) Len() int {
	return len(s.order)
}
