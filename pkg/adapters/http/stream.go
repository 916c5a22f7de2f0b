package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/adwizard"
	"github.com/aretw0/adwizard/internal/logging"
	"github.com/aretw0/adwizard/pkg/domain"
)

// EventDiff is the SSE event name for session diffs.
const EventDiff = "diff"

// Message is one server-sent event.
type Message struct {
	Event string
	Data  []byte
}

// StreamManager fans out session events to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Message]struct{}
	logger      *slog.Logger
}

// NewStreamManager creates an empty manager. A nil logger discards.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan Message]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a buffered channel for a session. The returned func
// unregisters and closes it.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan Message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Message, 16)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan Message]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[sessionID]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, sessionID)
				}
			}
		})
	}
}

// Subscribers reports how many streams are open for a session.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

// Publish encodes data as JSON and broadcasts it. It implements notify.Publisher.
func (sm *StreamManager) Publish(sessionID, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		sm.logger.Error("failed to encode stream event", "event", event, "err", err)
		return
	}
	sm.Broadcast(sessionID, Message{Event: event, Data: payload})
}

// Broadcast delivers msg to every subscriber of the session. Slow clients
// whose buffer is full miss the message.
func (sm *StreamManager) Broadcast(sessionID string, msg Message) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping message", "session_id", sessionID, "event", msg.Event)
		}
	}
}

// Listener adapts the manager to adwizard.WithChangeListener.
func (sm *StreamManager) Listener() adwizard.ChangeListener {
	return func(_ context.Context, diff *domain.SessionDiff) {
		sm.Publish(diff.SessionID, EventDiff, diff)
	}
}
