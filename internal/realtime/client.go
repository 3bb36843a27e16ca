package realtime

import (
	"sync"
	"time"
)

const (
	sendBufferSize = 32
	writeWait      = 10 * time.Second
)

// wsConn is the slice of *websocket.Conn the client needs. Narrowed to
// an interface so tests can substitute a fake connection.
type wsConn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Client is one connected participant. Writes go through a buffered
// channel drained by a single write pump, so concurrent broadcasts never
// interleave on the socket.
type Client struct {
	conn      wsConn
	send      chan Envelope
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(conn wsConn) *Client {
	c := &Client{
		conn: conn,
		send: make(chan Envelope, sendBufferSize),
		done: make(chan struct{}),
	}
	go c.writePump()
	return c
}

// Send queues an event for this connection only (caller-directed
// replies). Like broadcasts, it drops rather than blocks when the
// client cannot keep up.
func (c *Client) Send(event string, payload interface{}) {
	c.enqueue(Envelope{Event: event, Payload: payload})
}

// enqueue reports false when the buffer is full or the client closed.
func (c *Client) enqueue(env Envelope) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- env:
		return true
	default:
		return false
	}
}

func (c *Client) writePump() {
	for {
		select {
		case env := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(env); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// Close stops the write pump and closes the underlying connection.
// Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}
