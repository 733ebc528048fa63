package event

import (
	"slices"
	"sync"

	"github.com/playhub/backend/internal/domain/shared"
)

// anyEvent is the subscription key of handlers that receive every event
const anyEvent = "*"

// subscriptions maps event types to their handlers in subscription order
type subscriptions struct {
	mu     sync.RWMutex
	byType map[string][]shared.EventHandler
}

func newSubscriptions() *subscriptions {
	return &subscriptions{byType: make(map[string][]shared.EventHandler)}
}

// add subscribes h to eventTypes, or to every event when none are given
func (s *subscriptions) add(h shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = []string{anyEvent}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range eventTypes {
		if !slices.Contains(s.byType[t], h) {
			s.byType[t] = append(s.byType[t], h)
		}
	}
}

func (s *subscriptions) remove(h shared.EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for t, hs := range s.byType {
		hs = slices.DeleteFunc(hs, func(x shared.EventHandler) bool { return x == h })
		if len(hs) == 0 {
			delete(s.byType, t)
			continue
		}
		s.byType[t] = hs
	}
}

// handlers returns a snapshot: handlers of eventType, then catch-all handlers
func (s *subscriptions) handlers(eventType string) []shared.EventHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.byType[eventType])
	if eventType != anyEvent {
		out = append(out, s.byType[anyEvent]...)
	}
	return out
}
