package api

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/logq"
	"github.com/nerrad567/logq/internal/control"
	"github.com/nerrad567/logq/internal/infrastructure/config"
	"github.com/nerrad567/logq/internal/infrastructure/logging"
)

// Live-tail channels.
const (
	// ChannelAllLogs carries every line that passes the client's filter.
	ChannelAllLogs = "log.all"

	// ChannelLevelChanges carries applied level changes.
	ChannelLevelChanges = "levels.changed"
)

// LevelChannel returns the channel carrying lines of exactly one level,
// e.g. "log.WARNING".
func LevelChannel(level logq.Level) string {
	return "log." + level.String()
}

// LogEvent is the payload of a line event. Lines that do not parse carry
// only Line.
type LogEvent struct {
	Line   string `json:"line"`
	Time   string `json:"time,omitempty"`
	Level  string `json:"level,omitempty"`
	Origin string `json:"origin,omitempty"`
	PID    int    `json:"pid,omitempty"`
	Module string `json:"module,omitempty"`
	Text   string `json:"text,omitempty"`
}

func newLogEvent(message string) (LogEvent, logq.Line, bool) {
	line, ok := logq.ParseLine(message)
	if !ok {
		return LogEvent{Line: message}, line, false
	}
	return LogEvent{
		Line:   message,
		Time:   line.Time,
		Level:  line.Level.String(),
		Origin: line.Origin,
		PID:    line.PID,
		Module: line.Module,
		Text:   line.Text,
	}, line, true
}

// LevelChangeEvent is the payload of a levels.changed event.
type LevelChangeEvent struct {
	Module string     `json:"module"`
	Level  logq.Level `json:"level"`
	Final  bool       `json:"final"`
	Source string     `json:"source"`
}

// Hub fans lines and level changes out to live-tail clients.
//
// Hub is a logq.Sink. It runs on the dispatch worker, so Write never
// blocks: an event for a client whose send buffer is full is dropped and
// counted.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logging.Logger

	mu      sync.RWMutex
	clients map[*WSClient]struct{}

	dropped atomic.Uint64
}

// NewHub creates an empty hub.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*WSClient]struct{}),
	}
}

// Run blocks until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
		if client.conn != nil {
			client.conn.Close() //nolint:errcheck // Shutting down
		}
	}
}

// Register adds a client.
func (h *Hub) Register(client *WSClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("live-tail client connected", "clients", n)
}

// Unregister removes a client and closes its send channel. Repeated calls
// are no-ops.
func (h *Hub) Unregister(client *WSClient) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		close(client.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.logger.Debug("live-tail client disconnected", "clients", n)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns the number of events discarded for slow clients.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Write implements logq.Sink.
func (h *Hub) Write(message string) bool {
	if h.ClientCount() == 0 {
		return true
	}

	event, line, parsed := newLogEvent(message)
	h.broadcast(ChannelAllLogs, event, func(c *WSClient) bool {
		return c.filter().match(line, parsed)
	})
	if parsed {
		h.broadcast(LevelChannel(line.Level), event, nil)
	}
	return true
}

// PublishChange broadcasts an applied level change. It has the signature
// of a control.Service listener.
func (h *Hub) PublishChange(c control.Change) {
	h.broadcast(ChannelLevelChanges, LevelChangeEvent{
		Module: c.Module,
		Level:  c.Level,
		Final:  c.Final,
		Source: c.Source,
	}, nil)
}

// broadcast sends one event to every client subscribed to channel for
// which match (if non-nil) holds. The hub lock is not held while sending.
func (h *Hub) broadcast(channel string, payload any, match func(*WSClient) bool) {
	data, err := json.Marshal(WSMessage{
		Type:      WSTypeEvent,
		EventType: channel,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err != nil {
		h.logger.Error("encoding live-tail event", "channel", channel, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*WSClient, 0, len(h.clients))
	for client := range h.clients {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		if !client.subscribed(channel) || (match != nil && !match(client)) {
			continue
		}
		if !client.trySend(data) {
			h.dropped.Add(1)
		}
	}
}

// tailFilter narrows the log.all channel for one client. The zero value
// passes every line.
type tailFilter struct {
	threshold logq.Level
	limited   bool
	module    string
}

// match reports whether a line passes. Unparsed lines pass only an empty
// filter.
func (f tailFilter) match(line logq.Line, parsed bool) bool {
	if !parsed {
		return !f.limited && f.module == ""
	}
	if f.limited && !line.Level.Passes(f.threshold) {
		return false
	}
	return strings.HasPrefix(line.Module, f.module)
}
