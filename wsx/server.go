package wsx

import (
	"github.com/kestrel-io/reactorcore/httpx"
	"github.com/kestrel-io/reactorcore/pool"
	"github.com/kestrel-io/reactorcore/reactor"
)

// Server upgrades HTTP requests into WebSocket connections and dispatches
// frames for them, keyed by the path used at upgrade time (spec §4.10's
// dispatch rule, original_source's WebSocketServer.routes). It implements
// httpx.Upgrader so an httpx.Server can hand off matching requests to it
// without httpx importing wsx.
type Server struct {
	pool   *pool.BufferPool
	routes map[string]func(*Connection)
	conns  map[reactor.PollableId]*Connection
}

// NewServer returns a Server with no routes registered, using p for
// outbound frame buffers.
func NewServer(p *pool.BufferPool) *Server {
	return &Server{
		pool:   p,
		routes: make(map[string]func(*Connection)),
		conns:  make(map[reactor.PollableId]*Connection),
	}
}

// Route registers handler to run once, immediately after a successful
// upgrade on path, so the caller can attach OnMessage/OnBinary/OnClose.
func (s *Server) Route(path string, handler func(*Connection)) {
	s.routes[path] = handler
}

// TryUpgrade implements httpx.Upgrader.
func (s *Server) TryUpgrade(req *httpx.Request, socket *reactor.Socket) bool {
	handler, ok := s.routes[req.Path]
	if !ok {
		return false
	}

	clientKey := req.Headers.Get("Sec-WebSocket-Key")
	raw := buildUpgradeResponse(clientKey)
	buf := s.pool.Acquire(len(raw))
	buf.Append(raw)
	socket.QueueWrite(buf)

	conn := newConnection(socket, s.pool, req.Path, false)
	s.conns[socket.ID()] = conn
	handler(conn)
	return true
}

// HandleSocketData feeds newly read bytes into socket's Connection, if any
// is registered. Returns false if socket is not a WebSocket connection
// managed by this Server.
func (s *Server) HandleSocketData(socket *reactor.Socket) bool {
	conn, ok := s.conns[socket.ID()]
	if !ok {
		return false
	}
	for _, buf := range socket.TakeReads() {
		data := append([]byte(nil), buf.Bytes()...)
		buf.Release()
		conn.feed(data)
	}
	return true
}

// Forget drops connection state for socket, called once it closes.
func (s *Server) Forget(socket *reactor.Socket) {
	delete(s.conns, socket.ID())
}
