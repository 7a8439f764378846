package live

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/livequiz/internal/admission"
	"github.com/gokatarajesh/livequiz/internal/quiz"
	ws "github.com/gokatarajesh/livequiz/pkg/http/ws"
)

func newTestServer(t *testing.T, gate *admission.Gate) *httptest.Server {
	t.Helper()
	hub := ws.NewHub(zerolog.Nop(), nil)
	handler := NewHandler(quiz.NewSession(), hub, nil, zerolog.Nop())
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	wsHandler := NewWSHandler(handler, hub, gate, upgrader, ws.ConnectionOptions{}, zerolog.Nop())

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.HandleWebSocket)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, resp, err := dialRaw(srv)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func dialRaw(srv *httptest.Server) (*websocket.Conn, *http.Response, error) {
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	header := http.Header{"User-Agent": []string{"livequiz-test"}}
	return websocket.DefaultDialer.Dial(u, header)
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	msg := ws.Message{Type: msgType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		msg.Payload = raw
	}
	require.NoError(t, conn.WriteJSON(msg))
}

func receive(t *testing.T, conn *websocket.Conn, want string) ws.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg ws.Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, want, msg.Type, "payload: %s", msg.Payload)
	return msg
}

func decode[T any](t *testing.T, msg ws.Message) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(msg.Payload, &v))
	return v
}

func TestWebSocket_QuizRound(t *testing.T) {
	srv := newTestServer(t, nil)

	admin := dial(t, srv)
	send(t, admin, ws.TypeAdminJoin, nil)
	receive(t, admin, ws.TypeAdminStatus)

	player := dial(t, srv)
	send(t, player, ws.TypeUserJoin, ws.UserJoinPayload{Name: "Ada"})
	joinAck := decode[ws.Ack](t, receive(t, player, ws.TypeUserJoinedAck))
	assert.True(t, joinAck.Success)
	joined := decode[ws.UserJoinedPayload](t, receive(t, admin, ws.TypeUserJoined))
	assert.Equal(t, "Ada", joined.User.Name)
	assert.Equal(t, 1, joined.TotalUsers)

	send(t, admin, ws.TypeAddQuestion, ws.AddQuestionPayload{
		Question:      "Capital of France?",
		Options:       []string{"Paris", "Rome", "Madrid", "Berlin"},
		CorrectAnswer: "Paris",
	})
	receive(t, admin, ws.TypeQuestionCreated)
	receive(t, admin, ws.TypeNewQuestion)
	question := receive(t, player, ws.TypeNewQuestion)
	assert.NotContains(t, string(question.Payload), "correctAnswer")

	send(t, player, ws.TypeSubmitAnswer, ws.SubmitAnswerPayload{SelectedOption: "Paris"})
	answered := decode[ws.UserAnsweredPayload](t, receive(t, admin, ws.TypeUserAnswered))
	assert.Equal(t, 1, answered.TotalAnswers)
	assert.True(t, decode[ws.Ack](t, receive(t, player, ws.TypeAnswerSubmitted)).Success)

	send(t, admin, ws.TypeRevealAnswer, nil)
	revealed := decode[ws.AnswerRevealedPayload](t, receive(t, player, ws.TypeAnswerRevealed))
	assert.Equal(t, "Paris", revealed.CorrectAnswer)
	assert.Equal(t, 1, revealed.Statistics.CorrectAnswers)
	receive(t, admin, ws.TypeAnswerRevealed)
	receive(t, admin, ws.TypeAnswerRevealSuccess)

	require.NoError(t, player.Close())
	left := decode[ws.UserLeftPayload](t, receive(t, admin, ws.TypeUserLeft))
	assert.Equal(t, "Ada", left.User.Name)
	assert.Zero(t, left.TotalUsers)
}

func TestWebSocket_MalformedFrameKeepsConnection(t *testing.T) {
	srv := newTestServer(t, nil)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	errMsg := decode[ws.ErrorPayload](t, receive(t, conn, ws.TypeError))
	assert.Equal(t, "invalid_payload", errMsg.Code)

	send(t, conn, ws.TypeAdminJoin, nil)
	receive(t, conn, ws.TypeAdminStatus)
}

func TestWebSocket_AdmissionRateLimit(t *testing.T) {
	gate := admission.NewGate(admission.NewMemoryLimiter(1, time.Minute), admission.Options{RequireUserAgent: true}, nil, zerolog.Nop())
	srv := newTestServer(t, gate)

	dial(t, srv)

	_, resp, err := dialRaw(srv)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestWebSocket_PlainHTTPRequestIsRejected(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
