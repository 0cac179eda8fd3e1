package http

import (
	"log/slog"
	"sync"
)

// StreamManager handles active SSE connections, keyed by template id.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{}
	logger      *slog.Logger
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a buffered channel for a template. The returned function
// unregisters and closes it.
func (sm *StreamManager) Subscribe(templateID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[templateID]; !ok {
		sm.subscribers[templateID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[templateID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[templateID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, templateID)
			}
		}
	}
}

// Broadcast sends msg to every subscriber of the template without blocking.
func (sm *StreamManager) Broadcast(templateID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sm.logger.Debug("StreamManager: Broadcasting", "template_id", templateID, "payload_size", len(msg))

	for ch := range sm.subscribers[templateID] {
		select {
		case ch <- msg:
		default:
			// Slow client.
			sm.logger.Warn("SSE: Client buffer full, dropping message", "template_id", templateID)
		}
	}
}

// Subscribers counts the open streams of a template.
func (sm *StreamManager) Subscribers(templateID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[templateID])
}
