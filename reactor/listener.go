//go:build linux

package reactor

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Listener is a bound, listening TCP socket (spec §3). While open, its file
// descriptor is non-blocking and carries SO_REUSEADDR.
type Listener struct {
	id   PollableId
	fd   int
	port int

	reactor *Reactor
	closed  bool
}

// ID returns this listener's stable PollableId.
func (l *Listener) ID() PollableId { return l.id }

// FD returns the underlying OS file descriptor, or -1 if closed.
func (l *Listener) FD() int {
	if l.closed {
		return -1
	}
	return l.fd
}

// Port returns the bound TCP port.
func (l *Listener) Port() int { return l.port }

// start binds and listens on port (spec §3's Listener.start). Sets
// SO_REUSEADDR, O_NONBLOCK, and O_CLOEXEC where available.
func (l *Listener) start(port, backlog int) error {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return fmt.Errorf("reactor: listener socket: %w", err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return fmt.Errorf("reactor: setsockopt SO_REUSEADDR: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return fmt.Errorf("reactor: set nonblock: %w", err)
	}
	setCloexec(fd)

	sa := &unix.SockaddrInet4{Port: port}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return fmt.Errorf("reactor: bind :%d: %w", port, err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return fmt.Errorf("reactor: listen :%d: %w", port, err)
	}

	if port == 0 {
		sn, err := unix.Getsockname(fd)
		if err == nil {
			if in4, ok := sn.(*unix.SockaddrInet4); ok {
				port = in4.Port
			}
		}
	}

	l.fd = fd
	l.port = port
	l.closed = false
	return nil
}

// stop closes the listening socket.
func (l *Listener) stop() {
	if l.closed {
		return
	}
	unix.Close(l.fd)
	l.fd = -1
	l.closed = true
}

// acceptResult carries the raw outcome of a non-blocking accept(2).
type acceptResult struct {
	fd         int
	remoteAddr string
	remotePort uint16
}

// accept performs one non-blocking accept(2). A nil result with nil error
// means EAGAIN/EWOULDBLOCK (spec §4.7: skip silently).
func (l *Listener) accept() (*acceptResult, error) {
	fd, sa, err := unix.Accept4(l.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return nil, nil
		}
		return nil, fmt.Errorf("reactor: accept: %w", err)
	}

	res := &acceptResult{fd: fd}
	if in4, ok := sa.(*unix.SockaddrInet4); ok {
		res.remoteAddr = fmt.Sprintf("%d.%d.%d.%d", in4.Addr[0], in4.Addr[1], in4.Addr[2], in4.Addr[3])
		res.remotePort = uint16(in4.Port)
	}
	return res, nil
}
