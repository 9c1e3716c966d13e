package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photobooth-backend/internal/models"
)

func dialFeedViewer(t *testing.T, hub *FeedHub, sessionID string) *websocket.Conn {
	t.Helper()

	registered := make(chan struct{})
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(sessionID, conn)
		close(registered)
	}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	select {
	case <-registered:
	case <-time.After(2 * time.Second):
		t.Fatal("viewer was not registered")
	}
	return conn
}

func readFeedMessage(t *testing.T, conn *websocket.Conn) FeedMessage {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg FeedMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestFeedHub_BroadcastReachesAllViewers(t *testing.T) {
	hub := NewFeedHub()
	defer hub.Close()

	viewerA := dialFeedViewer(t, hub, "session-a")
	viewerB := dialFeedViewer(t, hub, "session-b")
	require.Equal(t, 2, hub.Count())

	photo := &models.FeedPhoto{
		ID:        7,
		Path:      "https://storage.example/generated-abc.png",
		Kind:      models.PhotoKindGenerated,
		CreatedAt: time.Now().UTC(),
	}
	hub.BroadcastNewPhoto(photo)

	for _, viewer := range []*websocket.Conn{viewerA, viewerB} {
		msg := readFeedMessage(t, viewer)
		assert.Equal(t, FeedMessageNewPhoto, msg.Type)
		require.NotNil(t, msg.Photo)
		assert.Equal(t, int64(7), msg.Photo.ID)
	}
}

func TestFeedHub_FailedSessionDoesNotAffectOthers(t *testing.T) {
	hub := NewFeedHub()
	defer hub.Close()

	gone := dialFeedViewer(t, hub, "session-gone")
	alive := dialFeedViewer(t, hub, "session-alive")

	// Kill one viewer out from under the hub
	gone.Close()

	photo := &models.FeedPhoto{ID: 1, Kind: models.PhotoKindOriginal, CreatedAt: time.Now().UTC()}

	// The first broadcast may still land in the dead socket's buffers;
	// broadcast until the hub notices and drops the session.
	require.Eventually(t, func() bool {
		hub.BroadcastNewPhoto(photo)
		return hub.Count() == 1
	}, 2*time.Second, 20*time.Millisecond)

	hub.BroadcastNewPhoto(photo)
	msg := readFeedMessage(t, alive)
	assert.Equal(t, FeedMessageNewPhoto, msg.Type)
}

func TestFeedHub_RegisterReplacesExistingSession(t *testing.T) {
	hub := NewFeedHub()
	defer hub.Close()

	dialFeedViewer(t, hub, "session-a")
	dialFeedViewer(t, hub, "session-a")

	assert.Equal(t, 1, hub.Count())
}

func TestFeedHub_UpdatedBroadcastCarriesMutableFields(t *testing.T) {
	hub := NewFeedHub()
	defer hub.Close()

	viewer := dialFeedViewer(t, hub, "session-a")

	now := time.Now().UTC()
	hub.BroadcastPhotoUpdated(&models.FeedPhoto{
		ID:        3,
		Likes:     5,
		Kind:      models.PhotoKindGenerated,
		CreatedAt: now.Add(-time.Minute),
		UpdatedAt: now,
	})

	msg := readFeedMessage(t, viewer)
	assert.Equal(t, FeedMessagePhotoUpdated, msg.Type)
	require.NotNil(t, msg.Photo)
	assert.Equal(t, 5, msg.Photo.Likes)
}
