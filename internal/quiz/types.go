package quiz

import (
	"time"

	"github.com/google/uuid"
)

// OptionCount is the number of options every question carries.
const OptionCount = 4

// State of the session lifecycle.
type State string

const (
	StateIdle     State = "idle"
	StateActive   State = "active"
	StateRevealed State = "revealed"
)

// Question is immutable once created.
type Question struct {
	ID            uuid.UUID
	Text          string
	Options       [OptionCount]string
	CorrectAnswer string
	CreatedAt     time.Time
}

// HasOption reports whether option is one of the question's options (case-sensitive).
func (q Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// Participant is a joined, named quiz-taker. ConnectionID is the volatile transport handle.
type Participant struct {
	ID           uuid.UUID
	Name         string
	ConnectionID uuid.UUID
	JoinedAt     time.Time
}

// Answer is one participant's submission for one question.
type Answer struct {
	ParticipantID   uuid.UUID
	ParticipantName string
	QuestionID      uuid.UUID
	SelectedOption  string
	IsCorrect       bool
	SubmittedAt     time.Time
}

// Statistics summarizes the answer ledger against the live participant count.
type Statistics struct {
	TotalParticipants int
	TotalAnswers      int
	CorrectCount      int
	IncorrectCount    int
}

// RevealResult is the payload produced by revealing the current question.
type RevealResult struct {
	QuestionID    uuid.UUID
	CorrectAnswer string
	Answers       []Answer
	Statistics    Statistics
}

// Snapshot is a consistent read of the whole session.
type Snapshot struct {
	State            State
	Question         *Question
	Statistics       Statistics
	ParticipantCount int
}
