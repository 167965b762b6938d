package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/logq"
	"github.com/nerrad567/logq/internal/infrastructure/config"
)

// Message types.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeResponse    = "response"
	WSTypeError       = "error"
)

// Per-client outbound buffer. Events beyond it are dropped.
const wsSendBufferSize = 256

// WSMessage is the envelope for every frame in both directions.
type WSMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// WSSubscribePayload is the payload of subscribe and unsubscribe requests.
//
// On subscribe, Level and Module set the client's log.all filter: only
// lines at Level or more severe, from modules starting with Module, are
// sent. Omitting both clears the filter.
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
	Level    string   `json:"level,omitempty"`
	Module   string   `json:"module,omitempty"`
}

// wsRequest is an inbound WSMessage with the payload left undecoded.
type wsRequest struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

var errNoChannels = errors.New("channels required")

// WSClient is one live-tail connection. A nil conn is allowed for clients
// that only consume the send channel.
type WSClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu       sync.RWMutex
	channels map[string]struct{}
	tail     tailFilter
}

func newWSClient(hub *Hub, conn *websocket.Conn) *WSClient {
	return &WSClient{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, wsSendBufferSize),
		channels: make(map[string]struct{}),
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS middleware.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleWebSocket upgrades GET /ws. With auth enabled the client presents
// a bearer token or a single-use ticket from POST /auth/ws-ticket, since
// browsers cannot set headers on WebSocket requests.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.authEnabled() && !s.authorizeWebSocket(r) {
		fail(w, http.StatusUnauthorized, "bearer token or ticket required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := newWSClient(s.hub, conn)
	s.hub.Register(client)
	go client.writePump(s.wsCfg)
	go client.readPump(s.wsCfg)
}

func (s *Server) authorizeWebSocket(r *http.Request) bool {
	if token, ok := bearerToken(r); ok {
		_, err := ValidateToken(s.secCfg.JWT.Secret, token)
		return err == nil
	}
	ticket := r.URL.Query().Get("ticket")
	return ticket != "" && s.validateTicket(ticket)
}

// readPump handles requests until the connection fails, then unregisters
// the client.
func (c *WSClient) readPump(cfg config.WebSocketConfig) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close() //nolint:errcheck // Already failing
	}()

	// Any frame, including a pong, extends the deadline.
	idle := time.Duration(cfg.PingInterval+cfg.PongTimeout) * time.Second
	extend := func() error { return c.conn.SetReadDeadline(time.Now().Add(idle)) }

	c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	extend() //nolint:errcheck // Read error surfaces below
	c.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		extend() //nolint:errcheck // Read error surfaces on next iteration
		c.handle(data)
	}
}

// writePump drains the send channel and pings the client. It returns when
// the hub closes the channel or a write fails.
func (c *WSClient) writePump(cfg config.WebSocketConfig) {
	ping := time.NewTicker(time.Duration(cfg.PingInterval) * time.Second)
	defer func() {
		ping.Stop()
		c.conn.Close() //nolint:errcheck // Done writing
	}()

	writeWait := time.Duration(cfg.PongTimeout) * time.Second
	write := func(kind int, data []byte) error {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // Write error surfaces below
		return c.conn.WriteMessage(kind, data)
	}

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				write(websocket.CloseMessage, nil) //nolint:errcheck // Closing anyway
				return
			}
			if write(websocket.TextMessage, data) != nil {
				return
			}
		case <-ping.C:
			if write(websocket.PingMessage, nil) != nil {
				return
			}
		}
	}
}

// handle answers one inbound frame.
func (c *WSClient) handle(data []byte) {
	var req wsRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.reply("", WSTypeError, errorPayload("invalid JSON message"))
		return
	}

	switch req.Type {
	case WSTypePing:
		c.reply(req.ID, WSTypePong, nil)
	case WSTypeSubscribe:
		sub, err := decodeSubscribe(req.Payload)
		if err != nil {
			c.reply(req.ID, WSTypeError, errorPayload(err.Error()))
			return
		}
		filter, err := newTailFilter(sub)
		if err != nil {
			c.reply(req.ID, WSTypeError, errorPayload(err.Error()))
			return
		}
		c.mu.Lock()
		for _, ch := range sub.Channels {
			c.channels[ch] = struct{}{}
		}
		c.tail = filter
		c.mu.Unlock()
		c.reply(req.ID, WSTypeResponse, map[string]any{"subscribed": sub.Channels})
	case WSTypeUnsubscribe:
		sub, err := decodeSubscribe(req.Payload)
		if err != nil {
			c.reply(req.ID, WSTypeError, errorPayload(err.Error()))
			return
		}
		c.mu.Lock()
		for _, ch := range sub.Channels {
			delete(c.channels, ch)
		}
		c.mu.Unlock()
		c.reply(req.ID, WSTypeResponse, map[string]any{"unsubscribed": sub.Channels})
	default:
		c.reply(req.ID, WSTypeError, errorPayload("unknown message type: "+req.Type))
	}
}

func decodeSubscribe(raw json.RawMessage) (WSSubscribePayload, error) {
	var sub WSSubscribePayload
	if len(raw) == 0 {
		return sub, errNoChannels
	}
	if err := json.Unmarshal(raw, &sub); err != nil {
		return sub, errors.New("invalid subscribe payload")
	}
	if len(sub.Channels) == 0 {
		return sub, errNoChannels
	}
	return sub, nil
}

func newTailFilter(sub WSSubscribePayload) (tailFilter, error) {
	f := tailFilter{module: sub.Module}
	if sub.Level == "" {
		return f, nil
	}
	level, err := logq.ParseLevel(sub.Level)
	if err != nil {
		return f, err
	}
	f.threshold, f.limited = level, true
	return f, nil
}

func errorPayload(message string) map[string]string {
	return map[string]string{"message": message}
}

func (c *WSClient) subscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.channels[channel]
	return ok
}

func (c *WSClient) filter() tailFilter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tail
}

// reply queues a response frame.
func (c *WSClient) reply(id, msgType string, payload any) {
	data, err := json.Marshal(WSMessage{
		Type:      msgType,
		ID:        id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err != nil {
		return
	}
	c.trySend(data)
}

// trySend queues data without blocking. It reports false when the buffer
// is full or the client has been unregistered.
func (c *WSClient) trySend(data []byte) (sent bool) {
	defer func() {
		if recover() != nil {
			sent = false
		}
	}()

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}
