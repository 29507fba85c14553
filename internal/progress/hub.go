// Package progress streams rewrite progress events to the session's browser
// over WebSocket. Purely advisory: losing a subscriber never affects the
// rewrite itself.
package progress

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is one rewrite progress update.
type Event struct {
	Type  string `json:"type"` // rewrite_started | chunk | rewrite_completed | rewrite_failed
	Chunk int    `json:"chunk,omitempty"`
	Total int    `json:"total,omitempty"`
	Error string `json:"error,omitempty"`
}

// Hub maintains session_id -> set of subscribers and fans events out.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[string]*subscriber
	logger   *zap.Logger
}

type subscriber struct {
	id   string
	send chan Event
}

// NewHub creates a progress hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		sessions: make(map[string]map[string]*subscriber),
		logger:   logger,
	}
}

// Subscribe registers a listener for a session's events. The returned cancel
// must be called when the listener goes away.
func (h *Hub) Subscribe(sessionID string) (<-chan Event, func()) {
	sub := &subscriber{id: uuid.New().String(), send: make(chan Event, 16)}

	h.mu.Lock()
	if h.sessions[sessionID] == nil {
		h.sessions[sessionID] = make(map[string]*subscriber)
	}
	h.sessions[sessionID][sub.id] = sub
	h.mu.Unlock()

	h.logger.Debug("progress subscriber joined", zap.String("session_id", sessionID))

	cancel := func() {
		h.mu.Lock()
		if m, ok := h.sessions[sessionID]; ok {
			if _, ok := m[sub.id]; ok {
				delete(m, sub.id)
				close(sub.send)
			}
			if len(m) == 0 {
				delete(h.sessions, sessionID)
			}
		}
		h.mu.Unlock()
	}
	return sub.send, cancel
}

// Publish sends an event to all of a session's subscribers. Slow subscribers
// drop events rather than blocking the rewrite loop.
func (h *Hub) Publish(sessionID string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.sessions[sessionID] {
		select {
		case sub.send <- ev:
		default:
		}
	}
}
