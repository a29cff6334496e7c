package wsx

import (
	"github.com/kestrel-io/reactorcore/pool"
	"github.com/kestrel-io/reactorcore/reactor"
)

// State is a WebSocket connection's lifecycle stage (spec §4.10,
// original_source's WebSocketConnectionStatus).
type State int

const (
	Connecting State = iota
	Open
	Closing
	Closed
)

// Connection is one upgraded WebSocket endpoint, server or client side
// (spec §4.10). Fragmented Text/Binary messages are reassembled here
// before OnMessage/OnBinary fires once per complete message.
type Connection struct {
	socket *reactor.Socket
	pool   *pool.BufferPool
	state  State
	path   string

	parser *FrameParser

	fragOpcode  Opcode
	fragPayload []byte
	fragmenting bool

	// mask is true for client connections (client-to-server frames must
	// be masked) and false for server connections.
	mask bool

	OnMessage func(c *Connection, text string)
	OnBinary  func(c *Connection, data []byte)
	OnClose   func(c *Connection, code uint16, reason string)
	OnError   func(c *Connection, err error)
}

func newConnection(socket *reactor.Socket, p *pool.BufferPool, path string, mask bool) *Connection {
	return &Connection{
		socket: socket,
		pool:   p,
		state:  Open,
		path:   path,
		parser: NewFrameParser(),
		mask:   mask,
	}
}

// Socket returns the underlying reactor socket.
func (c *Connection) Socket() *reactor.Socket { return c.socket }

// Path returns the upgrade path this connection was routed on.
func (c *Connection) Path() string { return c.path }

// State returns the connection's current lifecycle stage.
func (c *Connection) State() State { return c.state }

// SendText queues a single-frame TEXT message.
func (c *Connection) SendText(message string) {
	c.queueFrame(OpcodeText, []byte(message))
}

// SendBinary queues a single-frame BINARY message.
func (c *Connection) SendBinary(data []byte) {
	c.queueFrame(OpcodeBinary, data)
}

// Close sends a Close frame carrying code/reason and transitions to
// Closing (spec §4.10's proactive-close path). Connection neither closes
// the TCP connection nor arms a close timeout; tearing it down after the
// peer's echo or a timeout is left to the caller.
func (c *Connection) Close(code uint16, reason string) {
	if c.state != Open {
		return
	}
	raw := EncodeCloseFrame(code, reason, c.mask)
	buf := c.pool.Acquire(len(raw))
	buf.Append(raw)
	c.socket.QueueWrite(buf)
	c.state = Closing
}

func (c *Connection) queueFrame(opcode Opcode, payload []byte) {
	if c.state != Open {
		return
	}
	raw := EncodeFrame(opcode, payload, c.mask)
	buf := c.pool.Acquire(len(raw))
	buf.Append(raw)
	c.socket.QueueWrite(buf)
}

// feed processes newly read buffers, decoding as many complete frames as
// are available and dispatching each (spec §4.10's dispatch rule).
func (c *Connection) feed(data []byte) {
	for {
		frame, complete, err := c.parser.Feed(data)
		data = nil
		if err != nil {
			if c.OnError != nil {
				c.OnError(c, err)
			}
			c.Close(CloseProtocolError, "")
			return
		}
		if !complete {
			return
		}
		c.dispatch(frame)
	}
}

func (c *Connection) dispatch(frame *Frame) {
	switch frame.Opcode {
	case OpcodePing:
		c.queueFrame(OpcodePong, frame.Payload)
	case OpcodePong:
		// no-op: nothing in this layer currently tracks outstanding pings.
	case OpcodeClose:
		code, reason := decodeClosePayload(frame.Payload)
		if c.state == Open {
			echoPayload := frame.Payload
			if len(echoPayload) > 2 {
				echoPayload = echoPayload[:2]
			}
			c.queueFrame(OpcodeClose, echoPayload)
			c.state = Closing
		}
		c.state = Closed
		if c.OnClose != nil {
			c.OnClose(c, code, reason)
		}
	case OpcodeText, OpcodeBinary:
		if frame.Fin {
			c.deliverMessage(frame.Opcode, frame.Payload)
			return
		}
		c.fragmenting = true
		c.fragOpcode = frame.Opcode
		c.fragPayload = append([]byte(nil), frame.Payload...)
	case OpcodeContinuation:
		if !c.fragmenting {
			return
		}
		c.fragPayload = append(c.fragPayload, frame.Payload...)
		if frame.Fin {
			c.fragmenting = false
			c.deliverMessage(c.fragOpcode, c.fragPayload)
			c.fragPayload = nil
		}
	}
}

func (c *Connection) deliverMessage(opcode Opcode, payload []byte) {
	if opcode == OpcodeText {
		if c.OnMessage != nil {
			c.OnMessage(c, string(payload))
		}
		return
	}
	if c.OnBinary != nil {
		c.OnBinary(c, payload)
	}
}

func decodeClosePayload(payload []byte) (uint16, string) {
	if len(payload) < 2 {
		return CloseNormal, ""
	}
	code := uint16(payload[0])<<8 | uint16(payload[1])
	return code, string(payload[2:])
}
