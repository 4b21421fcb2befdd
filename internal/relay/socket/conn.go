package socket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"fleetrelay.io/fleetrelay/pkg/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	// sendBufferSize bounds per-connection outbound buffering. A full
	// buffer drops the event rather than blocking the dispatcher.
	sendBufferSize = 64
)

// Conn is one live websocket connection. The send channel is never
// closed; writers race only against the done signal.
type Conn struct {
	id string
	ws *websocket.Conn

	send chan []byte
	done chan struct{}

	closeOnce sync.Once
	logger    log.Logger
}

func newConn(id string, ws *websocket.Conn) *Conn {
	return &Conn{
		id:     id,
		ws:     ws,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
		logger: log.WithName("socket").WithValues("conn", id),
	}
}

// ID returns the connection's unique identifier.
func (c *Conn) ID() string {
	return c.id
}

func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.ws != nil {
			_ = c.ws.Close()
		}
	})
}

// enqueue hands a frame to the write pump without blocking. It reports
// false when the connection is gone or its buffer is full.
func (c *Conn) enqueue(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- msg:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

// readPump reads frames until the peer goes away, handing each one to
// onMessage.
func (c *Conn) readPump(onMessage func(*Conn, []byte)) {
	defer c.close()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("Connection closed unexpectedly", "err", err)
			}
			return
		}
		onMessage(c, msg)
	}
}

// writePump drains the send channel onto the socket and keeps the
// connection alive with pings.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
