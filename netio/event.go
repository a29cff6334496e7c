// Package netio composes the Reactor with ListenerManager and SocketManager
// into the flat NetworkEvent facade (spec §4.6–§4.8), grounded on
// original_source/include/websrv/{socket_manager,listener_manager,network_system}.hpp.
package netio

import "github.com/kestrel-io/reactorcore/reactor"

// EventType tags the four outcomes a NetworkSystem.Poll tick can report.
type EventType int

const (
	Accepted EventType = iota
	SocketData
	SocketClosed
	SocketError
)

func (t EventType) String() string {
	switch t {
	case Accepted:
		return "Accepted"
	case SocketData:
		return "SocketData"
	case SocketClosed:
		return "SocketClosed"
	case SocketError:
		return "SocketError"
	default:
		return "Unknown"
	}
}

// NetworkEvent is the unified, flat event NetworkSystem.Poll yields (spec
// §4.8). It is never enqueued — produced synchronously from one Poll call
// and consumed imperatively by the caller.
type NetworkEvent struct {
	Type   EventType
	Socket *reactor.Socket
}

// socketResult is SocketManager's internal per-socket outcome (spec §4.6),
// kept unexported since NetworkSystem is the only consumer.
type socketResult struct {
	kind   socketResultKind
	socket *reactor.Socket
}

type socketResultKind int

const (
	resultData socketResultKind = iota
	resultClosed
	resultError
)

// connectionResult is ListenerManager's internal per-accept outcome (spec
// §4.7).
type connectionResult struct {
	newSocket *reactor.Socket
}
