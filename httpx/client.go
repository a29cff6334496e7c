package httpx

import (
	"fmt"

	"github.com/kestrel-io/reactorcore/pool"
	"github.com/kestrel-io/reactorcore/reactor"
)

// Client drives one HTTP/1.1 connection over an already-connected
// reactor.Socket (spec §4.9, §6's create_socket facade). It is not
// goroutine-safe — like every component above the Reactor, it is driven
// from the single reactor thread.
type Client struct {
	socket *reactor.Socket
	pool   *pool.BufferPool
	host   string
	parser *ResponseParser
}

// NewClient wraps an already-connecting socket for request/response use.
// host is sent as the Host header on every request.
func NewClient(socket *reactor.Socket, p *pool.BufferPool, host string) *Client {
	return &Client{socket: socket, pool: p, host: host, parser: NewResponseParser()}
}

// Send builds and queues req for writing. The caller drives actual I/O by
// polling the owning NetworkSystem and routing SocketData events to Feed.
func (c *Client) Send(req *Request) {
	raw := BuildRequest(req, c.host)
	buf := c.pool.Acquire(len(raw))
	buf.Append(raw)
	c.socket.QueueWrite(buf)
}

// Feed drains newly queued read buffers and attempts to complete one
// response. Returns (nil, false, nil) if more data is needed; bytes past
// a completed response stay buffered for the next call.
func (c *Client) Feed() (*Response, bool, error) {
	var data []byte
	for _, buf := range c.socket.TakeReads() {
		data = append(data, buf.Bytes()...)
		buf.Release()
	}

	resp, complete, err := c.parser.Feed(data)
	if err != nil {
		return nil, false, fmt.Errorf("httpx: client parse: %w", err)
	}
	if complete {
		return resp, true, nil
	}
	return nil, false, nil
}
