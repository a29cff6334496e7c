//go:build linux

package netio

import (
	"testing"
)

func TestCreateListenerAndSocketEcho(t *testing.T) {
	n, err := NewNetworkSystem()
	if err != nil {
		t.Fatalf("NewNetworkSystem: %v", err)
	}
	defer n.Reactor.Close()

	l, err := n.CreateListener(0)
	if err != nil {
		t.Fatalf("CreateListener: %v", err)
	}
	if l.Port() == 0 {
		t.Fatal("expected an ephemeral port to be assigned")
	}

	client, err := n.CreateSocket("127.0.0.1", uint16(l.Port()))
	if err != nil {
		t.Fatalf("CreateSocket: %v", err)
	}
	if client.FD() < 0 {
		t.Fatal("expected connecting client socket to have a valid fd")
	}

	var accepted bool
	for i := 0; i < 20 && !accepted; i++ {
		events, err := n.Poll(50)
		if err != nil {
			t.Fatalf("Poll: %v", err)
		}
		for _, ev := range events {
			if ev.Type == Accepted {
				accepted = true
			}
		}
	}
	if !accepted {
		t.Fatal("expected an Accepted event within the poll budget")
	}
}

func TestRemoveClosedSocketsDeregisters(t *testing.T) {
	n, err := NewNetworkSystem()
	if err != nil {
		t.Fatalf("NewNetworkSystem: %v", err)
	}
	defer n.Reactor.Close()

	l, err := n.CreateListener(0)
	if err != nil {
		t.Fatalf("CreateListener: %v", err)
	}
	_ = l

	fakeSocket := n.Reactor.CreateSocket()
	n.sockets.Add(fakeSocket)

	events := []NetworkEvent{{Type: SocketClosed, Socket: fakeSocket}}
	n.RemoveClosedSockets(events)

	if _, ok := n.sockets.sockets[fakeSocket.ID()]; ok {
		t.Error("expected socket to be deregistered from SocketManager")
	}
}
