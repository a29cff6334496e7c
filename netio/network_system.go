package netio

import (
	"fmt"
	"net"

	"github.com/kestrel-io/reactorcore/pool"
	"github.com/kestrel-io/reactorcore/reactor"
)

// NetworkSystem composes a Reactor, ListenerManager, and SocketManager into
// the single facade applications drive (spec §4.8), grounded on
// original_source/include/websrv/network_system.hpp.
type NetworkSystem struct {
	Reactor *reactor.Reactor

	cfg       *Config
	listeners *ListenerManager
	sockets   *SocketManager
}

// NewNetworkSystem constructs a NetworkSystem with its own Reactor, reading
// into the process-wide pool.Default() BufferPool, applying opts over DefaultConfig (spec §2's Ambient Stack,
// grounded on lowlevel/server.Server's NewServer(cfg, opts...) idiom).
func NewNetworkSystem(opts ...Option) (*NetworkSystem, error) {
	r, err := reactor.New()
	if err != nil {
		return nil, fmt.Errorf("netio: new reactor: %w", err)
	}
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &NetworkSystem{
		Reactor:   r,
		cfg:       cfg,
		listeners: NewListenerManager(r),
		sockets:   NewSocketManager(r, pool.Default()),
	}, nil
}

// CreateListener binds and listens on port with the configured backlog,
// registering the result with the internal ListenerManager. Returns an
// error on bind/listen failure.
func (n *NetworkSystem) CreateListener(port int) (*reactor.Listener, error) {
	l := n.Reactor.CreateListener()
	if err := n.Reactor.StartListener(l, port, n.cfg.ListenBacklog); err != nil {
		return nil, err
	}
	n.listeners.Add(l)
	return l, nil
}

// CreateSocket resolves host:port to an IPv4 address and issues a
// non-blocking connect, registering the result with the internal
// SocketManager. Per spec §6, EINPROGRESS is not treated as failure — the
// returned Socket may still be connecting.
func (n *NetworkSystem) CreateSocket(host string, port uint16) (*reactor.Socket, error) {
	addr, err := resolveIPv4(host)
	if err != nil {
		return nil, fmt.Errorf("netio: resolve %s: %w", host, err)
	}
	s, err := n.Reactor.Connect(addr, port)
	if err != nil {
		return nil, err
	}
	n.sockets.Add(s)
	return s, nil
}

// resolveIPv4 resolves host to its first IPv4 address. A narrow use of the
// standard library's net package for DNS/literal-address parsing only — no
// example in the corpus does name resolution independently of net.Dial or
// net.Listen, and this Reactor's raw-socket path still performs the actual
// connect(2) itself via x/sys/unix.
func resolveIPv4(host string) ([4]byte, error) {
	var out [4]byte
	ipAddr, err := net.ResolveIPAddr("ip4", host)
	if err != nil {
		return out, err
	}
	ip4 := ipAddr.IP.To4()
	if ip4 == nil {
		return out, fmt.Errorf("%s did not resolve to an IPv4 address", host)
	}
	copy(out[:], ip4)
	return out, nil
}

// Poll runs one reactor tick and maps ListenerManager/SocketManager results
// into a flat NetworkEvent list (spec §4.8).
func (n *NetworkSystem) Poll(timeoutMs int) ([]NetworkEvent, error) {
	if timeoutMs < 0 {
		timeoutMs = n.cfg.PollTimeoutMs
	}
	pollerEvents, err := n.Reactor.Poll(timeoutMs)
	if err != nil {
		return nil, err
	}

	var events []NetworkEvent

	for _, conn := range n.listeners.process(pollerEvents) {
		n.sockets.Add(conn.newSocket)
		events = append(events, NetworkEvent{Type: Accepted, Socket: conn.newSocket})
	}

	for _, res := range n.sockets.process(pollerEvents) {
		var t EventType
		switch res.kind {
		case resultData:
			t = SocketData
		case resultClosed:
			t = SocketClosed
		case resultError:
			t = SocketError
		}
		events = append(events, NetworkEvent{Type: t, Socket: res.socket})
	}

	return events, nil
}

// RemoveClosedSockets deregisters and schedules Reactor removal for every
// socket named in a SocketClosed or SocketError event (spec §4.8).
func (n *NetworkSystem) RemoveClosedSockets(events []NetworkEvent) {
	for _, ev := range events {
		if ev.Type == SocketClosed || ev.Type == SocketError {
			n.sockets.Remove(ev.Socket)
			n.Reactor.Remove(ev.Socket.ID())
		}
	}
}

// CreateTimer, IsTimerExpired, ResetTimer, and DestroyTimer delegate to the
// internal Reactor (spec §4.8).
func (n *NetworkSystem) CreateTimer(ms int64, repeat bool) reactor.TimerId {
	return n.Reactor.CreateTimer(ms, repeat)
}

func (n *NetworkSystem) IsTimerExpired(id reactor.TimerId) bool {
	return n.Reactor.IsTimerExpired(id)
}

func (n *NetworkSystem) ResetTimer(id reactor.TimerId) {
	n.Reactor.ResetTimer(id)
}

func (n *NetworkSystem) DestroyTimer(id reactor.TimerId) {
	n.Reactor.DestroyTimer(id)
}
