package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/kmahoney/robotourney/brackets"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Scoring displays run on venue LANs with unpredictable origins.
		return true
	},
}

type WebsocketHandler struct {
	hub    *brackets.Hub
	logger *slog.Logger
}

func NewWebsocketHandler(hub *brackets.Hub, logger *slog.Logger) *WebsocketHandler {
	return &WebsocketHandler{hub: hub, logger: logger}
}

// Subscribe upgrades the connection and joins the bracket's update room.
// GET /ws/brackets/{bracket}
func (h *WebsocketHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	bracket, err := getBracketName(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed",
			slog.String("bracket", bracket),
			slog.Any("error", err))
		return
	}

	client := &brackets.Client{
		Hub:     h.hub,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		Bracket: bracket,
	}
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
