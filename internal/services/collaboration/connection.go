package collaboration

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 256
)

// Connection is a live WebSocket client. It implements Peer.
type Connection struct {
	id          string
	conn        *websocket.Conn
	send        chan []byte // Buffered channel for outbound frames
	closed      chan struct{}
	closeOnce   sync.Once
	manager     *SessionManager
	connectedAt time.Time
}

func newConnection(conn *websocket.Conn, manager *SessionManager) *Connection {
	return &Connection{
		id:          uuid.NewString(),
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		closed:      make(chan struct{}),
		manager:     manager,
		connectedAt: time.Now(),
	}
}

func (c *Connection) ID() string {
	return c.id
}

// Deliver queues a frame for the write pump without blocking.
func (c *Connection) Deliver(msg []byte) bool {
	select {
	case <-c.closed:
		return false
	default:
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Close tears down the socket. The read pump then reports the disconnect.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.conn.Close()
	})
}

// ReadPump reads frames from the socket and hands them to the manager.
// It reports the disconnect when the socket fails or closes.
func (c *Connection) ReadPump() {
	defer func() {
		c.manager.Disconnect(c.id)
		c.Close()
		log.Printf("  Connection %s closed after %s", c.id, time.Since(c.connectedAt).Round(time.Second))
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error on %s: %v", c.id, err)
			}
			return
		}
		c.manager.Dispatch(c.id, message)
	}
}

// WritePump writes queued frames to the socket, one frame per message, and
// keeps the connection alive with pings.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.closed:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
