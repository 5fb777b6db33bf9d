package ws

import (
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/Musanse/shiteni-sub006/internal/broadcast"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
)

// Connection pumps broker events out to one websocket client. Inbound frames
// are drained only to detect disconnect; sends go through the REST send path.
type Connection struct {
	ws   *websocket.Conn
	send chan broadcast.Event
	done chan struct{}
	once sync.Once
}

func newConnection(ws *websocket.Conn) *Connection {
	return &Connection{
		ws:   ws,
		send: make(chan broadcast.Event, 256),
		done: make(chan struct{}),
	}
}

// forward drains one subscription into the connection's send queue until the
// subscription is closed.
func (c *Connection) forward(sub *broadcast.Subscription) {
	for ev := range sub.C() {
		select {
		case c.send <- ev:
		case <-c.done:
			return
		default:
			// slow client; this is a wake-up channel, dropping is fine
		}
	}
}

func (c *Connection) close() {
	c.once.Do(func() { close(c.done) })
}

func (c *Connection) readPump() {
	defer c.close()
	c.ws.SetReadLimit(1024)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case ev := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.ws.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(time.Second))
			return
		}
	}
}
