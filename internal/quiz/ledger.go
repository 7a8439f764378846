package quiz

import (
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Ledger holds at most one answer per participant for the current question.
// It is not safe for concurrent use; Session serializes access to it.
type Ledger struct {
	byParticipant map[uuid.UUID]Answer
	order         []uuid.UUID
}

func newLedger() *Ledger {
	return &Ledger{byParticipant: make(map[uuid.UUID]Answer)}
}

// Get returns the answer held by participantID, if any.
func (l *Ledger) Get(participantID uuid.UUID) (Answer, bool) {
	a, ok := l.byParticipant[participantID]
	return a, ok
}

// All returns answers in submission order.
func (l *Ledger) All() []Answer {
	return lo.Map(l.order, func(id uuid.UUID, _ int) Answer {
		return l.byParticipant[id]
	})
}

func (l *Ledger) Len() int {
	return len(l.order)
}

// record stores a; the caller has already ruled out a duplicate.
func (l *Ledger) record(a Answer) {
	l.byParticipant[a.ParticipantID] = a
	l.order = append(l.order, a.ParticipantID)
}

func (l *Ledger) drop(participantID uuid.UUID) bool {
	if _, ok := l.byParticipant[participantID]; !ok {
		return false
	}
	delete(l.byParticipant, participantID)
	l.order = lo.Without(l.order, participantID)
	return true
}

func (l *Ledger) clear() {
	l.byParticipant = make(map[uuid.UUID]Answer)
	l.order = nil
}

// stats fills the answer counts; TotalParticipants is left to the caller.
func (l *Ledger) stats() Statistics {
	correct := lo.CountBy(lo.Values(l.byParticipant), func(a Answer) bool {
		return a.IsCorrect
	})
	return Statistics{
		TotalAnswers:   len(l.order),
		CorrectCount:   correct,
		IncorrectCount: len(l.order) - correct,
	}
}
