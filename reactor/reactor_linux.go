//go:build linux

// Linux epoll(7) backend for the Reactor, grounded on
// momentics-hioload-ws/reactor/reactor_linux.go and
// aungmyooo2k17-whisper-chat/internal/ws/epoll.go's Register/Wait/Close
// shape, extended with the self-pipe wakeup and level-triggered timer wheel
// that spec §4.4 requires and neither grounding example carries.
package reactor

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/kestrel-io/reactorcore/clock"
)

const maxEpollEvents = 256

func newReactor() (*Reactor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("reactor: epoll_create1: %w", err)
	}

	fds, err := pipe2NonblockCloexec()
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("reactor: self-pipe: %w", err)
	}

	r := &Reactor{
		reg:              newRegistry(),
		epfd:             epfd,
		wakeR:            fds[0],
		wakeW:            fds[1],
		fdToID:           make(map[int]pollableRef),
		pollout:          make(map[PollableId]bool),
		timers:           newTimerWheel(),
		maxIdleTimeoutMs: defaultMaxIdleTimeoutMs,
	}

	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, r.wakeR, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(r.wakeR),
	}); err != nil {
		unix.Close(epfd)
		unix.Close(r.wakeR)
		unix.Close(r.wakeW)
		return nil, fmt.Errorf("reactor: register self-pipe: %w", err)
	}

	return r, nil
}

func pipe2NonblockCloexec() ([2]int, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return fds, err
	}
	return fds, nil
}

func setCloexec(fd int) {
	unix.CloseOnExec(fd)
}

func (r *Reactor) registerFD(fd int, id PollableId, kind Kind, writable bool) error {
	events := uint32(unix.EPOLLIN)
	if writable {
		events |= unix.EPOLLOUT
	}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
		Events: events,
		Fd:     int32(fd),
	}); err != nil {
		return fmt.Errorf("reactor: epoll_ctl add fd=%d: %w", fd, err)
	}
	r.fdToID[fd] = pollableRef{id: id, kind: kind}
	return nil
}

func (r *Reactor) unregisterFD(fd int) {
	if fd < 0 {
		return
	}
	unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	delete(r.fdToID, fd)
}

// EnablePollout arms POLLOUT interest for socket id. Called only by
// SocketManager's end-of-tick reconciliation (spec §4.6) — Socket never
// calls this directly.
func (r *Reactor) EnablePollout(id PollableId) {
	if r.pollout[id] {
		return
	}
	s, ok := r.reg.socket(id)
	if !ok || s.closed {
		return
	}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, s.fd, &unix.EpollEvent{
		Events: unix.EPOLLIN | unix.EPOLLOUT,
		Fd:     int32(s.fd),
	}); err == nil {
		r.pollout[id] = true
	}
}

// DisablePollout withdraws POLLOUT interest for socket id.
func (r *Reactor) DisablePollout(id PollableId) {
	if !r.pollout[id] {
		return
	}
	s, ok := r.reg.socket(id)
	if !ok || s.closed {
		delete(r.pollout, id)
		return
	}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, s.fd, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(s.fd),
	}); err == nil {
		r.pollout[id] = false
	}
}

// Notify is the only thread-safe Reactor method: a background thread may
// call it to wake a blocked Poll call by writing one byte to the self-pipe.
// A no-op when called from the Reactor's own thread in spirit — Go does not
// expose the caller's goroutine identity, so it is simply cheap and
// idempotent to call even from the reactor goroutine itself.
func (r *Reactor) Notify() {
	var b [1]byte
	b[0] = 1
	unix.Write(r.wakeW, b[:])
}

func (r *Reactor) drainWakePipe() {
	var buf [256]byte
	for {
		n, err := unix.Read(r.wakeR, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

// Poll runs one reactor tick (spec §4.4). It returns a well-formed empty
// event list on EINTR and recovers silently from transient errno values.
func (r *Reactor) Poll(timeoutMs int) ([]PollerEvent, error) {
	r.timers.tick(clock.Now())

	timeout := r.computeTimeout(timeoutMs)

	var raw [maxEpollEvents]unix.EpollEvent
	n, err := unix.EpollWait(r.epfd, raw[:], timeout)
	if err != nil {
		if err == unix.EINTR {
			r.applyPendingRemovals()
			return nil, nil
		}
		return nil, fmt.Errorf("reactor: epoll_wait: %w", err)
	}

	events := make([]PollerEvent, 0, n)
	for i := 0; i < n; i++ {
		fd := int(raw[i].Fd)
		if fd == r.wakeR {
			r.drainWakePipe()
			continue
		}
		ref, ok := r.fdToID[fd]
		if !ok {
			continue
		}
		events = append(events, PollerEvent{
			ID:        ref.id,
			Kind:      ref.kind,
			Readiness: translateEpollMask(raw[i].Events),
		})
	}

	r.applyPendingRemovals()
	return events, nil
}

func translateEpollMask(m uint32) uint32 {
	var out uint32
	if m&unix.EPOLLIN != 0 {
		out |= Readable
	}
	if m&unix.EPOLLOUT != 0 {
		out |= Writable
	}
	if m&unix.EPOLLERR != 0 {
		out |= Err
	}
	if m&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
		out |= Hup
	}
	return out
}

// Close releases the epoll instance and self-pipe. Registered pollables are
// not individually closed; callers should Remove them first if a clean
// per-socket teardown is required.
func (r *Reactor) Close() error {
	unix.Close(r.wakeR)
	unix.Close(r.wakeW)
	return unix.Close(r.epfd)
}
