package netio

import (
	"log"

	"github.com/kestrel-io/reactorcore/reactor"
)

// ListenerManager consumes reactor.PollerEvents for registered listeners
// and accepts one connection per readable event (spec §4.7).
type ListenerManager struct {
	r         *reactor.Reactor
	listeners map[reactor.PollableId]*reactor.Listener
}

// NewListenerManager constructs a ListenerManager bound to r.
func NewListenerManager(r *reactor.Reactor) *ListenerManager {
	return &ListenerManager{
		r:         r,
		listeners: make(map[reactor.PollableId]*reactor.Listener),
	}
}

// Add registers l for event processing.
func (m *ListenerManager) Add(l *reactor.Listener) {
	m.listeners[l.ID()] = l
}

// Remove deregisters l.
func (m *ListenerManager) Remove(l *reactor.Listener) {
	delete(m.listeners, l.ID())
}

func (m *ListenerManager) process(events []reactor.PollerEvent) []connectionResult {
	var results []connectionResult

	for _, ev := range events {
		if ev.Kind != reactor.KindListener || ev.Readiness&reactor.Readable == 0 {
			continue
		}
		l, ok := m.listeners[ev.ID]
		if !ok {
			continue
		}

		s, err := m.r.Accept(l)
		if err != nil {
			log.Printf("netio: accept on listener %d: %v", l.ID(), err)
			continue
		}
		if s == nil {
			continue
		}
		results = append(results, connectionResult{newSocket: s})
	}

	return results
}
