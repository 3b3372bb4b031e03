package http

import (
	"log/slog"
	"sync"
)

// StreamManager handles active SSE connections, keyed by model key.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // ModelKey -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a channel for events of modelKey. The returned func
// unregisters and closes it.
func (sm *StreamManager) Subscribe(modelKey string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[modelKey]; !ok {
		sm.subscribers[modelKey] = make(map[chan<- string]struct{})
	}
	sm.subscribers[modelKey][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[modelKey]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, modelKey)
			}
		}
	}
}

// Subscribers reports how many channels listen on modelKey.
func (sm *StreamManager) Subscribers(modelKey string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[modelKey])
}

// Broadcast sends msg to every subscriber of modelKey without blocking.
func (sm *StreamManager) Broadcast(modelKey string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	subs, ok := sm.subscribers[modelKey]
	if !ok {
		return
	}
	sm.logger.Debug("StreamManager: Broadcasting", "model_key", modelKey, "subscribers", len(subs), "payload_size", len(msg))
	for ch := range subs {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "model_key", modelKey)
		}
	}
}
