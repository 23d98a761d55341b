package api

import (
	"sync"
)

// Event is one route lifecycle notification fanned out to SSE and
// WebSocket subscribers.
type Event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Broker is the in-process fanout used when no Redis is configured.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{} // routeId -> set of channels
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan Event]struct{}{}}
}

func (b *Broker) Subscribe(routeID string) chan Event {
	ch := make(chan Event, 8)
	b.mu.Lock()
	if b.subs[routeID] == nil {
		b.subs[routeID] = map[chan Event]struct{}{}
	}
	b.subs[routeID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(routeID string, ch chan Event) {
	b.mu.Lock()
	if m := b.subs[routeID]; m != nil {
		delete(m, ch)
		if len(m) == 0 {
			delete(b.subs, routeID)
		}
	}
	b.mu.Unlock()
	close(ch)
}

// Publish delivers to every subscriber without blocking; a slow consumer
// misses events rather than stalling the route operation.
func (b *Broker) Publish(routeID string, evt Event) {
	b.mu.Lock()
	for ch := range b.subs[routeID] {
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.Unlock()
}
