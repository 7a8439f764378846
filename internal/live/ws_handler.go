package live

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/livequiz/internal/admission"
	"github.com/gokatarajesh/livequiz/internal/logging"
	ws "github.com/gokatarajesh/livequiz/pkg/http/ws"
)

// WSHandler admits, upgrades and serves WebSocket connections.
type WSHandler struct {
	handler  *Handler
	hub      *ws.Hub
	gate     *admission.Gate
	upgrader websocket.Upgrader
	opts     ws.ConnectionOptions
	logger   zerolog.Logger
}

// NewWSHandler creates the /ws endpoint. gate may be nil to admit everyone.
func NewWSHandler(handler *Handler, hub *ws.Hub, gate *admission.Gate, upgrader websocket.Upgrader, opts ws.ConnectionOptions, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		handler:  handler,
		hub:      hub,
		gate:     gate,
		upgrader: upgrader,
		opts:     opts,
		logger:   logger.With().Str("component", "ws_handler").Logger(),
	}
}

// HandleWebSocket runs admission checks, then upgrades the HTTP connection.
func (s *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.gate != nil && !s.gate.Admit(w, r) {
		return
	}

	// Upgrade writes its own HTTP error on failure.
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger := logging.FromContext(r.Context())
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	s.HandleConnection(conn)
}

// HandleConnection serves conn until the peer goes away, then runs disconnect handling.
func (s *WSHandler) HandleConnection(conn *websocket.Conn) {
	wsConn := ws.NewConnection(conn, s.opts, s.logger)
	connID := wsConn.ID()
	s.hub.Register(wsConn)
	s.logger.Info().Str("conn_id", connID.String()).Str("remote_addr", conn.RemoteAddr().String()).Msg("client connected")

	go wsConn.WritePump()

	wsConn.ReadPump(
		func(msg ws.Message) { s.handler.Dispatch(connID, msg) },
		func(err error) { s.handler.Malformed(connID, err) },
	)

	s.handler.Disconnect(connID)
	s.hub.Unregister(connID)
	s.logger.Info().Str("conn_id", connID.String()).Msg("client disconnected")
}
