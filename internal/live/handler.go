package live

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/livequiz/internal/quiz"
	httperrors "github.com/gokatarajesh/livequiz/pkg/http/errors"
	ws "github.com/gokatarajesh/livequiz/pkg/http/ws"
)

// Broadcaster delivers outbound events. *ws.Hub satisfies it.
type Broadcaster interface {
	JoinGroup(group string, connID uuid.UUID)
	ToAll(msgType string, payload any)
	ToAdmins(msgType string, payload any)
	ToCaller(connID uuid.UUID, requestID, msgType string, payload any)
}

// Observer is notified of handled events. *metrics.Metrics satisfies it.
type Observer interface {
	EventHandled(msgType, outcome string)
	QuestionPublished()
	SessionSize(participants, answers int)
}

type nopObserver struct{}

func (nopObserver) EventHandled(string, string) {}
func (nopObserver) QuestionPublished()          {}
func (nopObserver) SessionSize(int, int)        {}

const outcomeOK = "ok"

// Metric labels for events that never travel on the wire under these names.
const (
	TypeDisconnect = "disconnect"
	TypeUnknown    = "unknown"
	TypeMalformed  = "malformed"
)

// Handler applies inbound events to the session and emits the resulting
// broadcasts. Mutation and enqueueing happen under one dispatch lock so
// outbound events leave in the order their mutations committed.
type Handler struct {
	mu       sync.Mutex
	session  *quiz.Session
	out      Broadcaster
	observer Observer
	logger   zerolog.Logger
}

// NewHandler creates the live event handler. observer may be nil.
func NewHandler(session *quiz.Session, out Broadcaster, observer Observer, logger zerolog.Logger) *Handler {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Handler{
		session:  session,
		out:      out,
		observer: observer,
		logger:   logger.With().Str("component", "live_handler").Logger(),
	}
}

// Dispatch routes one inbound message from connID.
func (h *Handler) Dispatch(connID uuid.UUID, msg ws.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	label := msg.Type
	var outcome string
	switch msg.Type {
	case ws.TypeAdminJoin:
		outcome = h.handleAdminJoin(connID, msg)
	case ws.TypeAddQuestion:
		outcome = h.handleAddQuestion(connID, msg)
	case ws.TypeRevealAnswer:
		outcome = h.handleRevealAnswer(connID, msg)
	case ws.TypeUserJoin:
		outcome = h.handleUserJoin(connID, msg)
	case ws.TypeSubmitAnswer:
		outcome = h.handleSubmitAnswer(connID, msg)
	default:
		// client-chosen types must not become metric labels
		label = TypeUnknown
		outcome = h.sendError(connID, msg.RequestID, httperrors.ErrCodeUnknownMessageType,
			fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
	h.observer.EventHandled(label, outcome)
}

// Malformed reports a frame that could not be decoded as a message envelope.
func (h *Handler) Malformed(connID uuid.UUID, err error) {
	h.logger.Debug().Err(err).Str("conn_id", connID.String()).Msg("malformed frame")

	h.mu.Lock()
	defer h.mu.Unlock()
	outcome := h.sendError(connID, "", httperrors.ErrCodeInvalidPayload, "Invalid message")
	h.observer.EventHandled(TypeMalformed, outcome)
}

// Disconnect removes the connection's participant, if any, and notifies admins.
func (h *Handler) Disconnect(connID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.session.Remove(connID)
	if !ok {
		h.logger.Debug().Str("conn_id", connID.String()).Msg("disconnect without participant")
		return
	}

	total := h.session.ParticipantCount()
	h.out.ToAdmins(ws.TypeUserLeft, ws.UserLeftPayload{User: userPayload(p), TotalUsers: total})
	h.recordSize()
	h.observer.EventHandled(TypeDisconnect, outcomeOK)
	h.logger.Info().
		Str("participant_id", p.ID.String()).
		Str("name", p.Name).
		Int("total_users", total).
		Msg("participant left")
}

func (h *Handler) handleAdminJoin(connID uuid.UUID, msg ws.Message) string {
	h.out.JoinGroup(ws.GroupAdmins, connID)
	h.out.ToCaller(connID, msg.RequestID, ws.TypeAdminStatus, adminStatusPayload(h.session.Snapshot()))
	h.logger.Info().Str("conn_id", connID.String()).Msg("admin joined")
	return outcomeOK
}

func (h *Handler) handleAddQuestion(connID uuid.UUID, msg ws.Message) string {
	var req ws.AddQuestionPayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return h.sendError(connID, msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid add-question payload")
	}

	q, err := h.session.PublishQuestion(req.Question, req.Options, req.CorrectAnswer)
	if err != nil {
		return h.nack(connID, msg.RequestID, ws.TypeQuestionCreated, err)
	}

	h.out.ToCaller(connID, msg.RequestID, ws.TypeQuestionCreated, ws.Ack{Success: true, Data: adminQuestionPayload(q)})
	h.out.ToAll(ws.TypeNewQuestion, questionPayload(q))
	h.observer.QuestionPublished()
	h.recordSize()
	h.logger.Info().Str("question_id", q.ID.String()).Str("question", q.Text).Msg("question published")
	return outcomeOK
}

func (h *Handler) handleRevealAnswer(connID uuid.UUID, msg ws.Message) string {
	res, err := h.session.Reveal()
	if err != nil {
		return h.nack(connID, msg.RequestID, ws.TypeAnswerRevealSuccess, err)
	}

	h.out.ToAll(ws.TypeAnswerRevealed, revealPayload(res))
	h.out.ToCaller(connID, msg.RequestID, ws.TypeAnswerRevealSuccess, ws.Ack{Success: true})
	h.logger.Info().
		Str("question_id", res.QuestionID.String()).
		Int("answers", res.Statistics.TotalAnswers).
		Int("correct", res.Statistics.CorrectCount).
		Msg("answer revealed")
	return outcomeOK
}

func (h *Handler) handleUserJoin(connID uuid.UUID, msg ws.Message) string {
	var req ws.UserJoinPayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		h.out.ToCaller(connID, msg.RequestID, ws.TypeJoinError, ws.Ack{
			Success: false,
			Message: "Invalid user-join payload",
			Code:    httperrors.ErrCodeInvalidPayload,
		})
		return httperrors.ErrCodeInvalidPayload
	}

	p, err := h.session.Join(connID, req.Name)
	if err != nil {
		return h.nack(connID, msg.RequestID, ws.TypeJoinError, err)
	}

	snap := h.session.Snapshot()
	h.out.ToCaller(connID, msg.RequestID, ws.TypeUserJoinedAck, ws.Ack{Success: true, Data: userPayload(p)})
	if snap.State == quiz.StateActive && snap.Question != nil {
		h.out.ToCaller(connID, "", ws.TypeNewQuestion, questionPayload(*snap.Question))
	}
	h.out.ToAdmins(ws.TypeUserJoined, ws.UserJoinedPayload{User: userPayload(p), TotalUsers: snap.ParticipantCount})
	h.recordSize()
	h.logger.Info().
		Str("participant_id", p.ID.String()).
		Str("name", p.Name).
		Int("total_users", snap.ParticipantCount).
		Msg("participant joined")
	return outcomeOK
}

func (h *Handler) handleSubmitAnswer(connID uuid.UUID, msg ws.Message) string {
	var req ws.SubmitAnswerPayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return h.sendError(connID, msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid submit-answer payload")
	}

	p, a, err := h.session.SubmitFromConnection(connID, req.SelectedOption)
	if err != nil {
		return h.nack(connID, msg.RequestID, ws.TypeAnswerSubmitted, err)
	}

	total := h.session.Statistics().TotalAnswers
	h.out.ToAdmins(ws.TypeUserAnswered, ws.UserAnsweredPayload{
		UserID:       p.ID.String(),
		UserName:     p.Name,
		Answer:       a.SelectedOption,
		TotalAnswers: total,
	})
	h.out.ToCaller(connID, msg.RequestID, ws.TypeAnswerSubmitted, ws.Ack{Success: true})
	h.recordSize()
	h.logger.Debug().
		Str("participant_id", p.ID.String()).
		Str("question_id", a.QuestionID.String()).
		Bool("correct", a.IsCorrect).
		Msg("answer recorded")
	return outcomeOK
}

// nack sends a failure acknowledgment of ackType for err and returns its code.
func (h *Handler) nack(connID uuid.UUID, requestID, ackType string, err error) string {
	code, message := classify(err)
	if code == httperrors.ErrCodeInternalError {
		h.logger.Error().Err(err).Str("conn_id", connID.String()).Str("type", ackType).Msg("unexpected handler error")
	}
	h.out.ToCaller(connID, requestID, ackType, ws.Ack{Success: false, Message: message, Code: code})
	return code
}

func (h *Handler) sendError(connID uuid.UUID, requestID, code, message string) string {
	h.out.ToCaller(connID, requestID, ws.TypeError, ws.ErrorPayload{Code: code, Message: message})
	return code
}

func (h *Handler) recordSize() {
	st := h.session.Statistics()
	h.observer.SessionSize(st.TotalParticipants, st.TotalAnswers)
}

// classify maps session errors to a wire code and a human-readable message.
func classify(err error) (code, message string) {
	switch {
	case quiz.IsValidation(err):
		return httperrors.ErrCodeValidationFailed, err.Error()
	case quiz.IsState(err):
		return httperrors.ErrCodeInvalidState, err.Error()
	default:
		return httperrors.ErrCodeInternalError, "internal error"
	}
}
