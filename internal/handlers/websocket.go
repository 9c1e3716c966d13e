package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"photobooth-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // gallery pages are served from other origins
	},
}

const (
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
)

// WebSocketHandler upgrades feed viewers onto the push channel. The feed
// socket is server-push only; client frames are drained solely to observe
// pongs and the close handshake.
type WebSocketHandler struct {
	hub *services.FeedHub
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.FeedHub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// HandleFeed handles GET /ws
func (h *WebSocketHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade feed connection")
		return
	}

	sessionID := uuid.New().String()
	h.hub.Register(sessionID, conn)
	defer h.hub.Unregister(sessionID)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go h.pingLoop(conn, done)
	defer close(done)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("session_id", sessionID).Msg("Feed connection error")
			}
			return
		}
		// Inbound frames carry no meaning on the feed socket.
	}
}

func (h *WebSocketHandler) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
