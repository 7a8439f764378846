package ws

import (
	"encoding/json"
	"time"
)

// MessageType constants for WebSocket protocol.
const (
	// Client -> Server
	TypeAdminJoin    = "admin-join"
	TypeAddQuestion  = "add-question"
	TypeRevealAnswer = "reveal-answer"
	TypeUserJoin     = "user-join"
	TypeSubmitAnswer = "submit-answer"

	// Server -> Client
	TypeAdminStatus         = "admin-status"
	TypeQuestionCreated     = "question-created"
	TypeNewQuestion         = "new-question"
	TypeAnswerRevealed      = "answer-revealed"
	TypeAnswerRevealSuccess = "answer-reveal-success"
	TypeUserJoinedAck       = "user-joined-ack"
	TypeJoinError           = "join-error"
	TypeUserJoined          = "user-joined"
	TypeUserAnswered        = "user-answered"
	TypeAnswerSubmitted     = "answer-submitted"
	TypeUserLeft            = "user-left"
	TypeError               = "error"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// Client Messages (incoming)

type AddQuestionPayload struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

type UserJoinPayload struct {
	Name string `json:"name"`
}

type SubmitAnswerPayload struct {
	SelectedOption string `json:"selectedOption"`
}

// Server Messages (outgoing)

// Ack acknowledges the caller's request. Message is set on failure.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// QuestionPayload is a question as shown to participants; the answer is omitted.
type QuestionPayload struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Options   []string  `json:"options"`
	CreatedAt time.Time `json:"createdAt"`
}

// AdminQuestionPayload includes the correct answer and only goes to the creating admin.
type AdminQuestionPayload struct {
	QuestionPayload
	CorrectAnswer string `json:"correctAnswer"`
}

type StatisticsPayload struct {
	TotalUsers       int `json:"totalUsers"`
	TotalAnswers     int `json:"totalAnswers"`
	CorrectAnswers   int `json:"correctAnswers"`
	IncorrectAnswers int `json:"incorrectAnswers"`
}

type AdminStatusPayload struct {
	CurrentQuestion *QuestionPayload  `json:"currentQuestion"`
	Revealed        bool              `json:"revealed"`
	Statistics      StatisticsPayload `json:"statistics"`
	ConnectedUsers  int               `json:"connectedUsers"`
}

type UserPayload struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joinedAt"`
}

type UserJoinedPayload struct {
	User       UserPayload `json:"user"`
	TotalUsers int         `json:"totalUsers"`
}

type UserLeftPayload struct {
	User       UserPayload `json:"user"`
	TotalUsers int         `json:"totalUsers"`
}

type UserAnsweredPayload struct {
	UserID       string `json:"userId"`
	UserName     string `json:"userName"`
	Answer       string `json:"answer"`
	TotalAnswers int    `json:"totalAnswers"`
}

type AnswerPayload struct {
	UserID         string    `json:"userId"`
	UserName       string    `json:"userName"`
	QuestionID     string    `json:"questionId"`
	SelectedOption string    `json:"selectedOption"`
	IsCorrect      bool      `json:"isCorrect"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

type AnswerRevealedPayload struct {
	QuestionID    string            `json:"questionId"`
	CorrectAnswer string            `json:"correctAnswer"`
	UserAnswers   []AnswerPayload   `json:"userAnswers"`
	Statistics    StatisticsPayload `json:"statistics"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
