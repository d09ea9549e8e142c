package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/RiceCakess/holoclips/internal/config"
	"github.com/RiceCakess/holoclips/internal/domain"
	"github.com/RiceCakess/holoclips/pkg/log"
)

// Viewer tracks the per-connection state: the author name announced at
// upgrade time and the room currently subscribed.
type Viewer struct {
	mu          sync.RWMutex
	Name        string
	CurrentRoom domain.Room
}

func NewViewer(name string) *Viewer {
	return &Viewer{Name: name}
}

func (v *Viewer) Join(room domain.Room) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.CurrentRoom = room
}

func (v *Viewer) Leave() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.CurrentRoom = domain.Room{}
}

func (v *Viewer) Room() domain.Room {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.CurrentRoom
}

func (v *Viewer) InRoom() bool {
	return !v.Room().IsZero()
}

// Client is one websocket connection to the relay.
type Client struct {
	ID     string
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	Viewer *Viewer
	config config.WebSocketConfig
}

func NewClient(id, name string, hub *Hub, conn *websocket.Conn, cfg config.WebSocketConfig) *Client {
	return &Client{
		ID:     id,
		Hub:    hub,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		Viewer: NewViewer(name),
		config: cfg,
	}
}

// ReadPump reads client messages until the connection drops, forwarding
// each to handler. onDisconnect runs once the read loop exits, before the
// client is unregistered. Runs in its own goroutine per connection.
func (c *Client) ReadPump(handler func(*Client, []byte), onDisconnect func(*Client)) {
	defer func() {
		if onDisconnect != nil {
			onDisconnect(c)
		}
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				l := log.L()
				l.Warn().Str(log.FieldClientID, c.ID).Err(err).Msg("websocket read error")
			}
			break
		}

		handler(c, message)
	}
}

// WritePump drains the send channel onto the wire and keeps the connection
// alive with pings. Runs in its own goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage marshals and queues one message for this client. A full send
// buffer drops the message rather than blocking the hub.
func (c *Client) SendMessage(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	select {
	case c.Send <- data:
	default:
	}
	return nil
}
