package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

var (
	// ErrConnectionClosed is returned when writing to a closed connection.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrWriteTimeout is returned when the send buffer stays full too long.
	ErrWriteTimeout = errors.New("write timeout")
)

// Conn wraps a websocket connection behind a single writer goroutine so that
// concurrent publishers never interleave frames.
type Conn struct {
	ws           *websocket.Conn
	writeCh      chan []byte
	writeTimeout time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
	closeOnce    sync.Once
}

// NewConn wraps the raw connection and starts its writer.
func NewConn(wsConn *websocket.Conn, bufferSize int, writeTimeout time.Duration) *Conn {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Conn{
		ws:           wsConn,
		writeCh:      make(chan []byte, bufferSize),
		writeTimeout: writeTimeout,
		ctx:          ctx,
		cancel:       cancel,
	}
	go c.writeLoop()
	return c
}

func (c *Conn) writeLoop() {
	for {
		select {
		case data := <-c.writeCh:
			if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				c.cancel()
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.cancel()
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// WriteJSON queues a JSON frame for delivery.
func (c *Conn) WriteJSON(v interface{}) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	select {
	case c.writeCh <- data:
		return nil
	case <-time.After(c.writeTimeout):
		return ErrWriteTimeout
	case <-c.ctx.Done():
		return ErrConnectionClosed
	}
}

// ReadMessage blocks on the next inbound frame.
func (c *Conn) ReadMessage() (int, []byte, error) {
	return c.ws.ReadMessage()
}

// Open reports whether the connection still accepts writes.
func (c *Conn) Open() bool {
	select {
	case <-c.ctx.Done():
		return false
	default:
		return true
	}
}

// Done is closed once the connection shuts down.
func (c *Conn) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close tears the connection down exactly once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		if c.ws != nil {
			err = c.ws.Close()
		}
	})
	return err
}
