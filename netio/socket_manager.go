package netio

import (
	"github.com/kestrel-io/reactorcore/pool"
	"github.com/kestrel-io/reactorcore/reactor"
)

// SocketManager consumes reactor.PollerEvents for registered sockets and
// produces socketResults, then reconciles POLLOUT interest for every
// socket it tracks (spec §4.6). Socket.write never touches the Reactor
// directly — this end-of-tick pass is the only place that does.
type SocketManager struct {
	r       *reactor.Reactor
	pool    *pool.BufferPool
	sockets map[reactor.PollableId]*reactor.Socket
}

// NewSocketManager constructs a SocketManager bound to r, reading new
// socket payloads from pool.
func NewSocketManager(r *reactor.Reactor, p *pool.BufferPool) *SocketManager {
	return &SocketManager{
		r:       r,
		pool:    p,
		sockets: make(map[reactor.PollableId]*reactor.Socket),
	}
}

// Add registers s for event processing.
func (m *SocketManager) Add(s *reactor.Socket) {
	m.sockets[s.ID()] = s
}

// Remove deregisters s. Does not close it — callers schedule Reactor
// removal separately (spec §4.8's remove_closed_sockets path).
func (m *SocketManager) Remove(s *reactor.Socket) {
	delete(m.sockets, s.ID())
}

// process implements spec §4.6 steps 1-3 plus the end-of-tick POLLOUT
// reconciliation pass.
func (m *SocketManager) process(events []reactor.PollerEvent) []socketResult {
	var results []socketResult

	for _, ev := range events {
		if ev.Kind != reactor.KindSocket {
			continue
		}
		s, ok := m.sockets[ev.ID]
		if !ok {
			continue
		}

		if ev.Readiness&(reactor.Err|reactor.Hup) != 0 {
			results = append(results, socketResult{kind: resultError, socket: s})
			continue
		}

		if ev.Readiness&reactor.Readable != 0 {
			n, closed, err := s.DoRead(m.pool)
			switch {
			case err != nil:
				results = append(results, socketResult{kind: resultError, socket: s})
				continue
			case closed:
				results = append(results, socketResult{kind: resultClosed, socket: s})
				continue
			case n > 0:
				results = append(results, socketResult{kind: resultData, socket: s})
			}
		}

		if ev.Readiness&reactor.Writable != 0 && s.HasPendingWrites() {
			if _, err := s.DoWrite(); err != nil {
				results = append(results, socketResult{kind: resultError, socket: s})
				continue
			}
		}
	}

	for id, s := range m.sockets {
		if s.HasPendingWrites() {
			m.r.EnablePollout(id)
		} else {
			m.r.DisablePollout(id)
		}
	}

	return results
}
