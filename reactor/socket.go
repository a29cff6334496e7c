//go:build linux

package reactor

import (
	"fmt"

	"github.com/eapache/queue"
	"golang.org/x/sys/unix"

	"github.com/kestrel-io/reactorcore/pool"
)

func newQueue() *queue.Queue {
	return queue.New()
}

const readChunk = 4096

// UserKind tags the fixed-at-creation protocol association carried by a
// Socket (spec §9: replaces the Any-typed trick with a typed slot).
type UserKind int32

const (
	UserNone UserKind = iota
	UserHTTP
	UserWebSocket
	UserRaw
)

// Socket is a connected TCP socket, client or server side (spec §3). Its
// two buffer queues are owned exclusively by the Reactor thread; the
// invariant pending_writes non-empty ⇔ reactor watches POLLOUT is enforced
// by the Reactor's EnablePollout/DisablePollout, called only from
// SocketManager's end-of-tick reconciliation (spec §4.6), never from here.
type Socket struct {
	id         PollableId
	fd         int
	remoteAddr string
	remotePort uint16

	pendingReads  *queue.Queue
	pendingWrites *queue.Queue

	reactor *Reactor
	closed  bool

	userKind UserKind
	userData any
}

// ID returns this socket's stable PollableId.
func (s *Socket) ID() PollableId { return s.id }

// FD returns the underlying OS file descriptor, or -1 if closed.
func (s *Socket) FD() int {
	if s.closed {
		return -1
	}
	return s.fd
}

// RemoteAddr returns the peer's IPv4 address string.
func (s *Socket) RemoteAddr() string { return s.remoteAddr }

// RemotePort returns the peer's TCP port.
func (s *Socket) RemotePort() uint16 { return s.remotePort }

// SetUser fixes this socket's protocol association. May only be called
// once per socket (spec §9: fixed at creation time, no placement-new
// reuse across protocol kinds).
func (s *Socket) SetUser(kind UserKind, data any) {
	if s.userKind != UserNone {
		panic("reactor: Socket user kind already set")
	}
	s.userKind = kind
	s.userData = data
}

// User returns the fixed protocol kind and its associated data.
func (s *Socket) User() (UserKind, any) {
	return s.userKind, s.userData
}

// HasPendingWrites reports whether the write queue is non-empty — the
// predicate the POLLOUT invariant (spec §3, §8) is defined over.
func (s *Socket) HasPendingWrites() bool {
	return s.pendingWrites.Length() > 0
}

// QueueWrite enqueues buf for writing; ownership transfers to the socket.
// Does not touch the Reactor directly (spec §4.6/§9) — SocketManager's
// end-of-tick reconciliation is the only path that arms POLLOUT.
func (s *Socket) QueueWrite(buf *pool.Buffer) {
	s.pendingWrites.Add(buf)
}

// TakeReads transfers ownership of all queued read buffers to the caller,
// draining the queue.
func (s *Socket) TakeReads() []*pool.Buffer {
	n := s.pendingReads.Length()
	if n == 0 {
		return nil
	}
	out := make([]*pool.Buffer, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, s.pendingReads.Remove().(*pool.Buffer))
	}
	return out
}

// CurrentReadBuffer peeks the tail read buffer without removing it, or nil
// if none is queued.
func (s *Socket) CurrentReadBuffer() *pool.Buffer {
	if s.pendingReads.Length() == 0 {
		return nil
	}
	return s.pendingReads.Get(s.pendingReads.Length() - 1).(*pool.Buffer)
}

// DoRead performs one bounded, non-blocking read into the tail read buffer,
// obtaining a fresh buffer from p when the tail is missing or already past
// the soft threshold (spec §4.6 step 2). Returns (bytesRead, closed, err):
// closed is true on EOF; err is non-nil only for fatal (non-transient)
// errno values, in which case bytesRead/closed are meaningless.
func (s *Socket) DoRead(p *pool.BufferPool) (n int, closed bool, err error) {
	var buf *pool.Buffer
	if s.pendingReads.Length() == 0 || s.pendingReads.Get(s.pendingReads.Length()-1).(*pool.Buffer).Len() >= readChunk {
		buf = p.Acquire(readChunk)
		s.pendingReads.Add(buf)
	} else {
		buf = s.pendingReads.Get(s.pendingReads.Length() - 1).(*pool.Buffer)
	}

	spare := buf.Grow(readChunk)
	nr, rerr := unix.Read(s.fd, spare)
	switch {
	case rerr == nil && nr > 0:
		buf.Commit(nr)
		return nr, false, nil
	case rerr == nil && nr == 0:
		return 0, true, nil
	case rerr == unix.EAGAIN || rerr == unix.EWOULDBLOCK:
		return 0, false, nil
	case rerr == unix.EINTR:
		return 0, false, nil
	default:
		return 0, false, fmt.Errorf("reactor: socket read: %w", rerr)
	}
}

// DoWrite writes as many bytes as the kernel accepts from the head of the
// write queue, handling partial writes by dropping the written prefix from
// the head buffer (spec §4.6 step 3, §9 — corrects the source's whole-buffer-drain
// assumption). Returns the number of buffers fully drained and popped.
func (s *Socket) DoWrite() (drained int, err error) {
	for s.pendingWrites.Length() > 0 {
		head := s.pendingWrites.Peek().(*pool.Buffer)
		if head.Len() == 0 {
			s.pendingWrites.Remove()
			head.Release()
			drained++
			continue
		}

		nw, werr := unix.Write(s.fd, head.Bytes())
		if nw > 0 {
			head.Drop(nw)
		}
		if werr != nil {
			if werr == unix.EAGAIN || werr == unix.EWOULDBLOCK || werr == unix.EINTR {
				return drained, nil
			}
			return drained, fmt.Errorf("reactor: socket write: %w", werr)
		}
		if head.Len() == 0 {
			s.pendingWrites.Remove()
			head.Release()
			drained++
			continue
		}
		// Kernel accepted fewer bytes than offered; wait for next POLLOUT.
		return drained, nil
	}
	return drained, nil
}

// doClose releases all queued buffers and closes the file descriptor.
func (s *Socket) doClose() {
	if s.closed {
		return
	}
	for s.pendingReads.Length() > 0 {
		s.pendingReads.Remove().(*pool.Buffer).Release()
	}
	for s.pendingWrites.Length() > 0 {
		s.pendingWrites.Remove().(*pool.Buffer).Release()
	}
	unix.Close(s.fd)
	s.fd = -1
	s.closed = true
}

// connect issues a non-blocking TCP connect to addr:port. EINPROGRESS is
// treated as success (spec §6): the connection completes asynchronously and
// its readiness is observed as a later POLLOUT/POLLIN event.
func (s *Socket) connect(addr [4]byte, port uint16) error {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return fmt.Errorf("reactor: socket: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return fmt.Errorf("reactor: set nonblock: %w", err)
	}
	setCloexec(fd)

	sa := &unix.SockaddrInet4{Port: int(port), Addr: addr}
	if err := unix.Connect(fd, sa); err != nil && err != unix.EINPROGRESS {
		unix.Close(fd)
		return fmt.Errorf("reactor: connect: %w", err)
	}

	s.fd = fd
	s.closed = false
	return nil
}
