package reactor

// Readiness mask bits, mirroring poll(2)'s POLLIN/POLLOUT/POLLERR/POLLHUP so
// that SocketManager/ListenerManager (package netio) can test them without
// importing x/sys/unix or epoll directly.
const (
	Readable uint32 = 1 << 0
	Writable uint32 = 1 << 1
	Err      uint32 = 1 << 2
	Hup      uint32 = 1 << 3
)

// PollerEvent is the internal readiness notification the Reactor yields
// from one poll() call (spec §3).
type PollerEvent struct {
	ID       PollableId
	Kind     Kind
	Readiness uint32
}
