// Package hub fans live transcript entries out to the websocket
// subscribers of each room. One hub serves every room on the relay; rooms
// are keyed by videoId/lang.
package hub

import (
	"encoding/json"
	"sync"

	"github.com/RiceCakess/holoclips/internal/config"
	"github.com/RiceCakess/holoclips/internal/domain"
	"github.com/RiceCakess/holoclips/pkg/log"
)

type Hub struct {
	clients    map[string]*Client            // clientID -> client
	rooms      map[string]map[string]*Client // room key -> clientID -> client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *RoomMessage
	mu         sync.RWMutex
	config     config.WebSocketConfig
}

// RoomMessage is one payload addressed to every subscriber of a room,
// optionally excluding the originating client.
type RoomMessage struct {
	Room    string
	Message []byte
	Exclude string
}

func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *RoomMessage, 256),
		config:     cfg,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldClientID, client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				for key, members := range h.rooms {
					delete(members, client.ID)
					if len(members) == 0 {
						delete(h.rooms, key)
					}
				}
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldClientID, client.ID).Msg("client unregistered")

		case msg := <-h.broadcast:
			h.mu.RLock()
			if members, ok := h.rooms[msg.Room]; ok {
				for clientID, client := range members {
					if clientID == msg.Exclude {
						continue
					}
					select {
					case client.Send <- msg.Message:
					default:
						go h.removeClient(client)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) JoinRoom(client *Client, room domain.Room) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := room.Key()
	if _, ok := h.rooms[key]; !ok {
		h.rooms[key] = make(map[string]*Client)
	}
	h.rooms[key][client.ID] = client
	l := log.L()
	l.Info().Str(log.FieldClientID, client.ID).Str(log.FieldRoom, key).Msg("client joined room")
}

func (h *Hub) LeaveRoom(client *Client, room domain.Room) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := room.Key()
	if members, ok := h.rooms[key]; ok {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.rooms, key)
		}
	}
	l := log.L()
	l.Info().Str(log.FieldClientID, client.ID).Str(log.FieldRoom, key).Msg("client left room")
}

// BroadcastToRoom sends message to every subscriber of room.
func (h *Hub) BroadcastToRoom(room domain.Room, message interface{}, exclude string) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.broadcast <- &RoomMessage{
		Room:    room.Key(),
		Message: data,
		Exclude: exclude,
	}
	return nil
}

// RoomClientCount returns the number of subscribers in a room.
func (h *Hub) RoomClientCount(room domain.Room) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if members, ok := h.rooms[room.Key()]; ok {
		return len(members)
	}
	return 0
}

func (h *Hub) removeClient(client *Client) {
	h.unregister <- client
}
