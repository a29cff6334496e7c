package reactor

import (
	"github.com/kestrel-io/reactorcore/clock"
)

// defaultMaxIdleTimeoutMs bounds how long poll() may block when no caller
// timeout and no armed timer constrain it, so a Reactor with nothing to
// wait for still wakes periodically (grounded on original_source's
// Poller::setMaxPollTimeout, clamped to a 2000ms floor there).
const defaultMaxIdleTimeoutMs = 5000

// Reactor is the single-threaded readiness multiplexer and timer wheel
// (spec §4.4–§4.5). Exactly one goroutine may call Poll; every other method
// except Notify must be called from that same goroutine.
type Reactor struct {
	reg *registry

	epfd int

	wakeR, wakeW int

	// fdToID maps a raw OS fd back to its owning pollable, used to resolve
	// epoll_wait's Fd-keyed events into PollableIds.
	fdToID map[int]pollableRef

	// pollout tracks which sockets currently have POLLOUT armed at the
	// epoll layer, so EnablePollout/DisablePollout are idempotent no-ops
	// when already in the requested state.
	pollout map[PollableId]bool

	timers *timerWheel

	pendingRemove []PollableId

	maxIdleTimeoutMs int64

	running bool
}

type pollableRef struct {
	id   PollableId
	kind Kind
}

// New constructs a Reactor with its self-pipe and epoll instance ready.
func New() (*Reactor, error) {
	return newReactor()
}

// SetMaxIdleTimeout bounds how long a Poll call with no competing timeout
// or armed timer may block.
func (r *Reactor) SetMaxIdleTimeout(ms int64) {
	if ms < 1 {
		ms = 1
	}
	r.maxIdleTimeoutMs = ms
}

// CreateListener allocates a PollableId and registers a new, not-yet-bound
// Listener with this Reactor.
func (r *Reactor) CreateListener() *Listener {
	id := r.reg.allocID()
	l := &Listener{id: id, fd: -1, reactor: r, closed: true}
	r.reg.listeners[id] = l
	return l
}

// StartListener binds and listens l on port, then registers its fd for
// POLLIN with the Reactor.
func (r *Reactor) StartListener(l *Listener, port, backlog int) error {
	if err := l.start(port, backlog); err != nil {
		return err
	}
	return r.registerFD(l.fd, l.id, KindListener, false)
}

// CreateSocket allocates a PollableId and an empty, unconnected Socket.
func (r *Reactor) CreateSocket() *Socket {
	id := r.reg.allocID()
	s := &Socket{
		id:      id,
		fd:      -1,
		closed:  true,
		reactor: r,
	}
	s.pendingReads = newQueue()
	s.pendingWrites = newQueue()
	r.reg.sockets[id] = s
	return s
}

// RegisterConnectedSocket registers an already-connected (or connecting)
// socket's fd for POLLIN with the Reactor. Used by Connect; Accept
// registers its new socket directly.
func (r *Reactor) RegisterConnectedSocket(s *Socket) error {
	return r.registerFD(s.fd, s.id, KindSocket, false)
}

// Connect allocates a Socket and issues a non-blocking connect(2) to
// addr:port, then registers it for POLLIN. EINPROGRESS is not an error
// (spec §6): the connection completes asynchronously.
func (r *Reactor) Connect(addr [4]byte, port uint16) (*Socket, error) {
	s := r.CreateSocket()
	if err := s.connect(addr, port); err != nil {
		r.reg.removeSocket(s.id)
		return nil, err
	}
	if err := r.RegisterConnectedSocket(s); err != nil {
		s.doClose()
		r.reg.removeSocket(s.id)
		return nil, err
	}
	return s, nil
}

// Accept performs one non-blocking accept(2) on l (spec §4.7). A nil
// Socket with a nil error means EAGAIN/EWOULDBLOCK — the caller should
// skip silently. The returned Socket is already registered for POLLIN.
func (r *Reactor) Accept(l *Listener) (*Socket, error) {
	res, err := l.accept()
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}

	id := r.reg.allocID()
	s := &Socket{
		id:         id,
		fd:         res.fd,
		remoteAddr: res.remoteAddr,
		remotePort: res.remotePort,
		reactor:    r,
	}
	s.pendingReads = newQueue()
	s.pendingWrites = newQueue()
	r.reg.sockets[id] = s

	if err := r.registerFD(s.fd, s.id, KindSocket, false); err != nil {
		delete(r.reg.sockets, id)
		s.doClose()
		return nil, err
	}
	return s, nil
}

// Remove schedules removal of the pollable identified by id. Removal is
// deferred to the end of the current Poll call (spec §5): synchronous
// destruction during dispatch is forbidden. Idempotent — repeated calls
// with the same id before the pending batch is flushed collapse to one
// removal.
func (r *Reactor) Remove(id PollableId) {
	for _, existing := range r.pendingRemove {
		if existing == id {
			return
		}
	}
	r.pendingRemove = append(r.pendingRemove, id)
}

// Listener looks up a registered Listener by id.
func (r *Reactor) Listener(id PollableId) (*Listener, bool) {
	return r.reg.listener(id)
}

// Socket looks up a registered Socket by id.
func (r *Reactor) Socket(id PollableId) (*Socket, bool) {
	return r.reg.socket(id)
}

// CreateTimer arms a new timer, one-shot or repeating, expiring ms
// milliseconds from now.
func (r *Reactor) CreateTimer(ms int64, repeat bool) TimerId {
	return r.timers.create(clock.Now(), ms, repeat)
}

// IsTimerExpired reports whether id's expired flag is currently set.
// Unknown ids report false (spec §4.5/§7: timer misuse is a no-op).
func (r *Reactor) IsTimerExpired(id TimerId) bool {
	return r.timers.isExpired(id)
}

// ResetTimer clears id's expired flag, re-arming repeating timers to
// now+interval.
func (r *Reactor) ResetTimer(id TimerId) {
	r.timers.reset(clock.Now(), id)
}

// DestroyTimer removes a timer. Idempotent.
func (r *Reactor) DestroyTimer(id TimerId) {
	r.timers.destroy(id)
}

func (r *Reactor) applyPendingRemovals() {
	if len(r.pendingRemove) == 0 {
		return
	}
	for _, id := range r.pendingRemove {
		if l, ok := r.reg.listener(id); ok {
			r.unregisterFD(l.fd)
			l.stop()
			r.reg.removeListener(id)
			delete(r.pollout, id)
			continue
		}
		if s, ok := r.reg.socket(id); ok {
			r.unregisterFD(s.fd)
			s.doClose()
			r.reg.removeSocket(id)
			delete(r.pollout, id)
		}
	}
	r.pendingRemove = r.pendingRemove[:0]
}

func (r *Reactor) computeTimeout(callerTimeoutMs int) int {
	timeout := callerTimeoutMs
	if timeout < 0 {
		timeout = int(r.maxIdleTimeoutMs)
	}
	if next := r.timers.nextExpiryMs(clock.Now()); next >= 0 && int64(timeout) > next {
		timeout = int(next)
	}
	if int64(timeout) > r.maxIdleTimeoutMs {
		timeout = int(r.maxIdleTimeoutMs)
	}
	return timeout
}

