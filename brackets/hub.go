package brackets

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Update event types pushed to bracket subscribers.
const (
	UpdateBracketSeeded   = "BRACKET_SEEDED"
	UpdateBracketAdvanced = "BRACKET_ADVANCED"
	UpdateBracketFinished = "BRACKET_FINISHED"
)

// Update is the message broadcast to everyone watching a bracket.
type Update struct {
	Type    string      `json:"type"`
	Bracket string      `json:"bracket"`
	Payload interface{} `json:"payload,omitempty"`
}

// Client is one websocket subscriber, bound to a single bracket room.
type Client struct {
	Hub     *Hub
	Conn    *websocket.Conn
	Send    chan []byte
	Bracket string

	mu     sync.Mutex
	closed bool
}

// Hub fans bracket updates out to per-bracket rooms.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	mu     sync.RWMutex
	rooms  map[string]map[*Client]bool
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.rooms[client.Bracket]; !ok {
				h.rooms[client.Bracket] = make(map[*Client]bool)
			}
			h.rooms[client.Bracket][client] = true
			h.logger.Info("bracket subscriber registered",
				slog.String("bracket", client.Bracket),
				slog.Int("subscribers", len(h.rooms[client.Bracket])))
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if room, ok := h.rooms[client.Bracket]; ok {
				if _, member := room[client]; member {
					client.close()
					delete(room, client)
					if len(room) == 0 {
						delete(h.rooms, client.Bracket)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends an update to every subscriber of the update's bracket.
// Slow clients are skipped rather than blocking the caller.
func (h *Hub) Broadcast(update Update) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, ok := h.rooms[update.Bracket]
	if !ok {
		return
	}

	message, err := json.Marshal(update)
	if err != nil {
		h.logger.Error("failed to marshal bracket update",
			slog.String("bracket", update.Bracket), slog.Any("error", err))
		return
	}

	for client := range room {
		client.mu.Lock()
		if client.closed {
			client.mu.Unlock()
			continue
		}
		select {
		case client.Send <- message:
		default:
			h.logger.Warn("bracket subscriber send buffer full, skipping",
				slog.String("bracket", update.Bracket))
		}
		client.mu.Unlock()
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.Send)
		c.closed = true
	}
}

// ReadPump drains and discards inbound frames, keeping the connection's
// pong deadline fresh. Subscribers are read-only.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
