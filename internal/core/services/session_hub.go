package services

import (
	"sync"

	"healthmate/internal/core/domain"

	"go.uber.org/zap"
)

// Session event names
const (
	EventSessionChanged = "session_changed"
	EventSessionExpired = "session_expired"
)

// SessionEvent is a server-sent session event
type SessionEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// SessionClient is a connected subscriber
type SessionClient struct {
	ID      string
	Channel chan SessionEvent
}

// SessionHub fans session events out to subscribers. Sends never block:
// a subscriber with a full channel misses the event.
type SessionHub struct {
	mu      sync.RWMutex
	clients map[string]*SessionClient
	logger  *zap.Logger
}

// NewSessionHub creates a new session hub
func NewSessionHub(logger *zap.Logger) *SessionHub {
	return &SessionHub{
		clients: make(map[string]*SessionClient),
		logger:  logger.Named("session_hub"),
	}
}

// Register adds a subscriber
func (h *SessionHub) Register(client *SessionClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Debug("subscriber registered", zap.String("client_id", client.ID), zap.Int("total", len(h.clients)))
}

// Unregister removes a subscriber and closes its channel
func (h *SessionHub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Channel)
		delete(h.clients, clientID)
		h.logger.Debug("subscriber unregistered", zap.String("client_id", clientID), zap.Int("total", len(h.clients)))
	}
}

// Broadcast sends an event to every subscriber
func (h *SessionHub) Broadcast(event SessionEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.Channel <- event:
		default:
			h.logger.Warn("subscriber channel full, skipping", zap.String("client_id", client.ID), zap.String("event", event.Event))
		}
	}
}

// ClientCount returns the number of subscribers
func (h *SessionHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SessionChanged implements Notifier
func (h *SessionHub) SessionChanged(session domain.Session) {
	h.Broadcast(SessionEvent{Event: EventSessionChanged, Data: session})
}

// SessionExpired implements Notifier
func (h *SessionHub) SessionExpired(notice domain.SessionNotice) {
	h.Broadcast(SessionEvent{Event: EventSessionExpired, Data: notice})
}
