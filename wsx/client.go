package wsx

import (
	"fmt"

	"github.com/kestrel-io/reactorcore/httpx"
	"github.com/kestrel-io/reactorcore/pool"
	"github.com/kestrel-io/reactorcore/reactor"
)

// Client drives the client side of one WebSocket connection over an
// already-connected reactor.Socket: it performs the HTTP Upgrade
// handshake itself, then hands frame traffic to an embedded Connection
// (spec §4.10's client-side handshake).
type Client struct {
	socket    *reactor.Socket
	pool      *pool.BufferPool
	host      string
	path      string
	clientKey string

	handshakeDone bool
	respParser    *httpx.ResponseParser

	Conn *Connection
}

// NewClient wraps socket for a handshake to path on host. Call Start to
// send the upgrade request.
func NewClient(socket *reactor.Socket, p *pool.BufferPool, host, path string) *Client {
	return &Client{
		socket:     socket,
		pool:       p,
		host:       host,
		path:       path,
		respParser: httpx.NewResponseParser(),
	}
}

// Start sends the GET Upgrade request.
func (c *Client) Start() {
	c.clientKey = NewClientKey()
	raw := buildUpgradeRequest(c.host, c.path, c.clientKey)
	buf := c.pool.Acquire(len(raw))
	buf.Append(raw)
	c.socket.QueueWrite(buf)
}

// Feed drains newly read buffers. Before the handshake completes it parses
// the 101 response; afterward it forwards bytes to the embedded
// Connection's frame parser. Returns an error if the handshake response is
// invalid.
func (c *Client) Feed() error {
	if c.handshakeDone {
		for _, buf := range c.socket.TakeReads() {
			data := append([]byte(nil), buf.Bytes()...)
			buf.Release()
			c.Conn.feed(data)
		}
		return nil
	}

	for _, buf := range c.socket.TakeReads() {
		data := append([]byte(nil), buf.Bytes()...)
		buf.Release()

		if c.handshakeDone {
			c.Conn.feed(data)
			continue
		}

		resp, complete, err := c.respParser.Feed(data)
		if err != nil {
			return fmt.Errorf("wsx: client handshake: %w", err)
		}
		if !complete {
			continue
		}
		if err := validateUpgradeResponse(resp, c.clientKey); err != nil {
			return err
		}
		c.handshakeDone = true
		c.Conn = newConnection(c.socket, c.pool, c.path, true)
		if leftover := c.respParser.Leftover(); len(leftover) > 0 {
			c.Conn.feed(leftover)
		}
	}
	return nil
}
