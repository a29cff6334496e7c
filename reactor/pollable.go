// Package reactor implements the readiness multiplexer and timer wheel at
// the heart of this networking core (spec §4.3–§4.5): a PollableRegistry
// handing out stable ids for Listeners and Sockets, an epoll-backed Reactor
// that owns them exclusively for their whole lifetime, and a level-triggered
// timer wheel applications poll rather than receive callbacks from.
package reactor

// PollableId is an opaque, monotonically allocated identifier, stable for
// the lifetime of a Listener or Socket. Never reused while the pollable is
// alive.
type PollableId uint32

// Kind distinguishes the two pollable flavors the registry tracks.
type Kind int

const (
	KindListener Kind = iota
	KindSocket
)

// registry maintains the two pollable pools (listeners, sockets) plus the
// monotonically increasing id allocator. It is owned by, and only ever
// mutated from, the Reactor's thread.
type registry struct {
	nextID    PollableId
	listeners map[PollableId]*Listener
	sockets   map[PollableId]*Socket
}

func newRegistry() *registry {
	return &registry{
		nextID:    1,
		listeners: make(map[PollableId]*Listener),
		sockets:   make(map[PollableId]*Socket),
	}
}

func (r *registry) allocID() PollableId {
	id := r.nextID
	r.nextID++
	return id
}

func (r *registry) listener(id PollableId) (*Listener, bool) {
	l, ok := r.listeners[id]
	return l, ok
}

func (r *registry) socket(id PollableId) (*Socket, bool) {
	s, ok := r.sockets[id]
	return s, ok
}

func (r *registry) removeListener(id PollableId) {
	delete(r.listeners, id)
}

func (r *registry) removeSocket(id PollableId) {
	delete(r.sockets, id)
}
