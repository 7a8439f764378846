package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// GroupAdmins is the administrator channel.
const GroupAdmins = "admins"

// Recorder observes hub activity. The metrics package provides the production implementation.
type Recorder interface {
	ConnectionOpened()
	ConnectionClosed()
	MessageSent(msgType string)
	MessageDropped(msgType string)
}

type nopRecorder struct{}

func (nopRecorder) ConnectionOpened()     {}
func (nopRecorder) ConnectionClosed()     {}
func (nopRecorder) MessageSent(string)    {}
func (nopRecorder) MessageDropped(string) {}

// Hub tracks live connections and fans messages out to them. Delivery is
// fire-and-forget per recipient: a full or closed queue only affects that recipient.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]*Connection         // conn_id -> connection
	groups      map[string]map[uuid.UUID]struct{} // group -> conn_ids
	recorder    Recorder
	logger      zerolog.Logger
}

// NewHub creates a new WebSocket hub. recorder may be nil.
func NewHub(logger zerolog.Logger, recorder Recorder) *Hub {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Hub{
		connections: make(map[uuid.UUID]*Connection),
		groups:      make(map[string]map[uuid.UUID]struct{}),
		recorder:    recorder,
		logger:      logger.With().Str("component", "ws_hub").Logger(),
	}
}

// Register adds a connection under its id.
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, exists := h.connections[conn.ID()]; exists {
		old.Close()
	}
	h.connections[conn.ID()] = conn
	h.recorder.ConnectionOpened()
	h.logger.Debug().Str("conn_id", conn.ID().String()).Msg("connection registered")
}

// Unregister removes a connection from the hub and from every group.
func (h *Hub) Unregister(connID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, exists := h.connections[connID]
	if !exists {
		return
	}
	conn.Close()
	delete(h.connections, connID)
	for _, members := range h.groups {
		delete(members, connID)
	}
	h.recorder.ConnectionClosed()
	h.logger.Debug().Str("conn_id", connID.String()).Msg("connection unregistered")
}

// JoinGroup associates a connection with a named group for targeted broadcasts.
func (h *Hub) JoinGroup(group string, connID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.connections[connID]; !ok {
		return
	}
	members, ok := h.groups[group]
	if !ok {
		members = make(map[uuid.UUID]struct{})
		h.groups[group] = members
	}
	members[connID] = struct{}{}
}

// InGroup reports whether connID belongs to group.
func (h *Hub) InGroup(group string, connID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.groups[group][connID]
	return ok
}

// ToAll sends a message to every registered connection.
func (h *Hub) ToAll(msgType string, payload any) {
	msg, ok := h.encode(msgType, payload, "")
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID, conn := range h.connections {
		h.deliver(connID, conn, msg)
	}
}

// ToAdmins sends a message to every connection in the administrator channel.
func (h *Hub) ToAdmins(msgType string, payload any) {
	h.ToGroup(GroupAdmins, msgType, payload)
}

// ToGroup sends a message to every member of group.
func (h *Hub) ToGroup(group, msgType string, payload any) {
	msg, ok := h.encode(msgType, payload, "")
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID := range h.groups[group] {
		if conn, exists := h.connections[connID]; exists {
			h.deliver(connID, conn, msg)
		}
	}
}

// ToCaller sends a message to a single connection, echoing requestID.
func (h *Hub) ToCaller(connID uuid.UUID, requestID, msgType string, payload any) {
	msg, ok := h.encode(msgType, payload, requestID)
	if !ok {
		return
	}

	h.mu.RLock()
	conn, exists := h.connections[connID]
	h.mu.RUnlock()
	if !exists {
		h.logger.Debug().Str("conn_id", connID.String()).Str("type", msgType).Msg("caller already gone")
		return
	}
	h.deliver(connID, conn, msg)
}

// Count returns the number of registered connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

func (h *Hub) encode(msgType string, payload any, requestID string) (Message, bool) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msgType).Msg("encode outbound payload")
		return Message{}, false
	}
	return Message{Type: msgType, Payload: raw, RequestID: requestID}, true
}

func (h *Hub) deliver(connID uuid.UUID, conn *Connection, msg Message) {
	if err := conn.Send(msg); err != nil {
		h.recorder.MessageDropped(msg.Type)
		h.logger.Warn().Err(err).Str("conn_id", connID.String()).Str("type", msg.Type).Msg("outbound message dropped")
		return
	}
	h.recorder.MessageSent(msg.Type)
}

// ConnectionOptions tunes per-connection limits.
type ConnectionOptions struct {
	QueueSize int
	ReadLimit int64
	PongWait  time.Duration
	WriteWait time.Duration
}

func (o ConnectionOptions) withDefaults() ConnectionOptions {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = 4096
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	return o
}

// Connection represents a WebSocket connection with send queue.
type Connection struct {
	id     uuid.UUID
	conn   *websocket.Conn
	sendCh chan Message
	opts   ConnectionOptions
	mu     sync.Mutex
	closed bool
	logger zerolog.Logger
}

// NewConnection wraps a WebSocket connection under a fresh connection id.
func NewConnection(conn *websocket.Conn, opts ConnectionOptions, logger zerolog.Logger) *Connection {
	opts = opts.withDefaults()
	id := uuid.New()
	return &Connection{
		id:     id,
		conn:   conn,
		sendCh: make(chan Message, opts.QueueSize),
		opts:   opts,
		logger: logger.With().Str("conn_id", id.String()).Logger(),
	}
}

func (c *Connection) ID() uuid.UUID {
	return c.id
}

// Send queues a message for delivery without blocking.
func (c *Connection) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.sendCh <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close shuts down the connection.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.sendCh)
	if c.conn != nil {
		c.conn.Close()
	}
}

// WritePump sends messages from the send queue and keeps the peer alive with pings.
func (c *Connection) WritePump() {
	pingPeriod := (c.opts.PongWait * 9) / 10
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.sendCh:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Warn().Err(err).Msg("write error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump receives messages and calls the handler until the peer goes away.
// Frames that are not a valid Message envelope are passed to onMalformed and
// the connection stays open.
func (c *Connection) ReadPump(handler func(Message), onMalformed func(error)) {
	c.conn.SetReadLimit(c.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn().Err(err).Msg("read error")
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			onMalformed(err)
			continue
		}
		handler(msg)
	}
}

var (
	ErrConnectionClosed = &Error{Code: "connection_closed", Message: "Connection is closed"}
	ErrSendQueueFull    = &Error{Code: "send_queue_full", Message: "Send queue is full"}
)

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
