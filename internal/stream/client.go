package stream

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// Client is one live websocket connection. It satisfies session.Transport:
// Emit wraps payloads in the event envelope and queues them on the send
// channel drained by the write pump.
type Client struct {
	id   string
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func newClient() *Client {
	return &Client{
		id:   uuid.NewString(),
		send: make(chan []byte, 64),
	}
}

func (c *Client) ID() string { return c.id }

func (c *Client) Emit(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return err
	}
	c.enqueue(msg)
	return nil
}

// enqueue drops the message when the connection is closed or the buffer is
// full; a slow reader must not block the emitter.
func (c *Client) enqueue(msg []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// writePump drains the send channel onto the socket until the channel
// closes or a write fails.
func (c *Client) writePump(conn *websocket.Conn) {
	for msg := range c.send {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
