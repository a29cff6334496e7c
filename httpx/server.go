package httpx

import (
	"strings"

	"github.com/kestrel-io/reactorcore/pool"
	"github.com/kestrel-io/reactorcore/reactor"
)

// Upgrader lets a higher protocol layer (wsx.Server) claim a connection
// once an HTTP request is detected as a WebSocket upgrade (spec §4.9's
// "control transfers to WebSocketServer" rule). httpx never imports wsx —
// this interface is the one seam between the two layers.
type Upgrader interface {
	// TryUpgrade inspects req; if it names a registered WebSocket route it
	// completes the handshake on socket and returns true, in which case
	// httpx must not write any HTTP response of its own. Returns false if
	// req is not a recognized upgrade for this Upgrader.
	TryUpgrade(req *Request, socket *reactor.Socket) bool
}

type routeHandler func(*Request, *Response)

// Server dispatches parsed requests to routes keyed by "<METHOD>:<path>"
// (spec §4.9, original_source's findRoute). One Server instance is shared
// across all connections; per-connection parse state lives in conns.
type Server struct {
	routes   map[string]routeHandler
	upgrader Upgrader
	conns    map[reactor.PollableId]*RequestParser
}

// NewServer returns a Server with no routes registered.
func NewServer() *Server {
	return &Server{
		routes: make(map[string]routeHandler),
		conns:  make(map[reactor.PollableId]*RequestParser),
	}
}

// EnableWebSocketUpgrade installs u as the handler for requests spec
// §4.9's upgrade predicate matches.
func (s *Server) EnableWebSocketUpgrade(u Upgrader) {
	s.upgrader = u
}

func (s *Server) Get(path string, h func(*Request, *Response)) {
	s.routes["GET:"+path] = h
}

func (s *Server) Post(path string, h func(*Request, *Response)) {
	s.routes["POST:"+path] = h
}

func (s *Server) Put(path string, h func(*Request, *Response)) {
	s.routes["PUT:"+path] = h
}

func (s *Server) Delete(path string, h func(*Request, *Response)) {
	s.routes["DELETE:"+path] = h
}

// isWebSocketUpgrade implements spec §4.9's detection predicate.
func isWebSocketUpgrade(req *Request) bool {
	return req.Method == MethodGet &&
		req.Headers.ContainsToken("Upgrade", "websocket") &&
		req.Headers.ContainsToken("Connection", "upgrade") &&
		req.Headers.Get("Sec-WebSocket-Key") != "" &&
		req.Headers.Get("Sec-WebSocket-Version") == "13"
}

// HandleSocketData feeds newly arrived bytes from socket into that
// connection's parser, dispatches every request the feed completes, and
// reports whether the caller should close the connection (Connection:
// close requested, or the request was malformed).
func (s *Server) HandleSocketData(socket *reactor.Socket, p *pool.BufferPool) (shouldClose bool) {
	parser, ok := s.conns[socket.ID()]
	if !ok {
		parser = NewRequestParser()
		s.conns[socket.ID()] = parser
	}

	for _, buf := range socket.TakeReads() {
		data := append([]byte(nil), buf.Bytes()...)
		buf.Release()

		for {
			req, complete, err := parser.Feed(data)
			data = nil
			if err != nil {
				s.writeResponse(socket, p, badRequestResponse(err.Error()))
				return true
			}
			if !complete {
				break
			}

			req.RemoteAddr = socket.RemoteAddr()
			req.RemotePort = socket.RemotePort()

			if isWebSocketUpgrade(req) {
				if s.upgrader != nil && s.upgrader.TryUpgrade(req, socket) {
					delete(s.conns, socket.ID())
					return false
				}
			}

			resp := s.dispatch(req)
			s.writeResponse(socket, p, resp)

			if strings.EqualFold(req.Headers.Get("Connection"), "close") ||
				strings.EqualFold(resp.Headers.Get("Connection"), "close") {
				return true
			}
		}
	}

	return false
}

func (s *Server) dispatch(req *Request) *Response {
	handler, ok := s.routes[string(req.Method)+":"+req.Path]
	if !ok {
		return notFoundResponse()
	}
	resp := NewResponse()
	handler(req, resp)
	return resp
}

func (s *Server) writeResponse(socket *reactor.Socket, p *pool.BufferPool, resp *Response) {
	raw := BuildResponse(resp)
	buf := p.Acquire(len(raw))
	buf.Append(raw)
	socket.QueueWrite(buf)
}

// Forget drops per-connection parser state, called when socket closes.
func (s *Server) Forget(socket *reactor.Socket) {
	delete(s.conns, socket.ID())
}
