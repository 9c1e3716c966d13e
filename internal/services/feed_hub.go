package services

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"photobooth-backend/internal/models"
)

// Feed message types pushed to viewers
const (
	FeedMessageNewPhoto     = "new_photo"
	FeedMessagePhotoUpdated = "photo_updated"
)

// FeedMessage is the envelope pushed over the feed WebSocket
type FeedMessage struct {
	Type  string            `json:"type"`
	Photo *models.FeedPhoto `json:"photo,omitempty"`
}

// feedSession is one connected viewer. gorilla conns do not allow
// concurrent writers, hence the per-session write lock.
type feedSession struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *feedSession) send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// FeedHub broadcasts newly created photo records to every connected
// viewer. Delivery is fire-and-forget: no acknowledgments, no retries and
// no queue for absent viewers; clients recover missed pushes through the
// polling fallback. Broadcast must only be called after the corresponding
// database insert has committed.
type FeedHub struct {
	mu       sync.RWMutex
	sessions map[string]*feedSession
}

// NewFeedHub creates a new feed hub
func NewFeedHub() *FeedHub {
	return &FeedHub{
		sessions: make(map[string]*feedSession),
	}
}

// Register adds a viewer connection under a session id
func (h *FeedHub) Register(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, exists := h.sessions[sessionID]; exists {
		existing.conn.Close()
	}
	h.sessions[sessionID] = &feedSession{id: sessionID, conn: conn}

	log.Info().Str("session_id", sessionID).Msg("Feed viewer connected")
}

// Unregister removes and closes a viewer connection
func (h *FeedHub) Unregister(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if session, exists := h.sessions[sessionID]; exists {
		session.conn.Close()
		delete(h.sessions, sessionID)
		log.Info().Str("session_id", sessionID).Msg("Feed viewer disconnected")
	}
}

// Count returns the number of connected viewers
func (h *FeedHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// BroadcastNewPhoto pushes a freshly created record to all viewers
func (h *FeedHub) BroadcastNewPhoto(photo *models.FeedPhoto) {
	h.broadcast(FeedMessage{Type: FeedMessageNewPhoto, Photo: photo})
}

// BroadcastPhotoUpdated pushes an updated copy of a known record (a like
// increment) to all viewers
func (h *FeedHub) BroadcastPhotoUpdated(photo *models.FeedPhoto) {
	h.broadcast(FeedMessage{Type: FeedMessagePhotoUpdated, Photo: photo})
}

// broadcast sends a message to every session. A failed send only drops
// that session; remaining viewers and the caller are unaffected.
func (h *FeedHub) broadcast(message FeedMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Str("type", message.Type).Msg("Failed to marshal feed message")
		return
	}

	h.mu.RLock()
	sessions := make([]*feedSession, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, session := range sessions {
		if err := session.send(data); err != nil {
			log.Warn().
				Err(err).
				Str("session_id", session.id).
				Str("type", message.Type).
				Msg("Failed to push feed message, dropping session")
			h.Unregister(session.id)
		}
	}
}

// Close disconnects every viewer, used on server shutdown
func (h *FeedHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, session := range h.sessions {
		session.conn.Close()
		delete(h.sessions, id)
	}
}
