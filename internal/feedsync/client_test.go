package feedsync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photobooth-backend/internal/models"
	"photobooth-backend/internal/services"
)

// fakeBoothServer serves the two feed endpoints and the push channel the
// client depends on.
type fakeBoothServer struct {
	t *testing.T

	mu     sync.Mutex
	photos []models.FeedPhoto
	conns  []*websocket.Conn

	failBootstrap bool
	refuseWS      bool

	srv      *httptest.Server
	upgrader websocket.Upgrader
}

func newFakeBoothServer(t *testing.T, photos ...models.FeedPhoto) *fakeBoothServer {
	f := &fakeBoothServer{t: t, photos: photos}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/photos", f.handleList)
	mux.HandleFunc("/api/photos/since/", f.handleSince)
	mux.HandleFunc("/ws", f.handleWS)

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeBoothServer) handleList(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failBootstrap {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"photos": f.photos})
}

func (f *fakeBoothServer) handleSince(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, "/api/photos/since/")
	since, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		http.Error(w, "bad timestamp", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.FeedPhoto
	for _, p := range f.photos {
		if p.CreatedAt.After(since) {
			out = append(out, p)
		}
	}
	json.NewEncoder(w).Encode(map[string]any{"photos": out})
}

func (f *fakeBoothServer) handleWS(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	refuse := f.refuseWS
	f.mu.Unlock()
	if refuse {
		http.Error(w, "no ws", http.StatusNotFound)
		return
	}

	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	f.mu.Lock()
	f.conns = append(f.conns, conn)
	f.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// add stores a photo without pushing it, simulating a missed push
func (f *fakeBoothServer) add(p models.FeedPhoto) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = append(f.photos, p)
}

// push stores a photo and delivers it to every connected viewer
func (f *fakeBoothServer) push(msgType string, p models.FeedPhoto) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if msgType == services.FeedMessageNewPhoto {
		f.photos = append(f.photos, p)
	}
	data, err := json.Marshal(services.FeedMessage{Type: msgType, Photo: &p})
	require.NoError(f.t, err)
	for _, conn := range f.conns {
		conn.WriteMessage(websocket.TextMessage, data)
	}
}

// pushRaw delivers an arbitrary frame, for malformed-message cases
func (f *fakeBoothServer) pushRaw(data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, conn := range f.conns {
		conn.WriteMessage(websocket.TextMessage, data)
	}
}

// dropConns closes every viewer connection server-side
func (f *fakeBoothServer) dropConns() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, conn := range f.conns {
		conn.Close()
	}
	f.conns = nil
}

func newTestClient(srv *fakeBoothServer, pollInterval time.Duration, backupProbability float64) *Client {
	return NewClient(Config{
		BaseURL:               srv.srv.URL,
		PollInterval:          pollInterval,
		BackupPollProbability: backupProbability,
		HTTPTimeout:           2 * time.Second,
		ReconnectDelay:        10 * time.Millisecond,
	})
}

func snapshotHas(c *Client, id int64) func() bool {
	return func() bool {
		for _, p := range c.Snapshot() {
			if p.ID == id {
				return true
			}
		}
		return false
	}
}

func TestClient_BootstrapFailureIsFatal(t *testing.T) {
	srv := newFakeBoothServer(t)
	srv.failBootstrap = true

	client := newTestClient(srv, time.Second, 0.1)
	err := client.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial feed fetch failed")
}

func TestClient_BootstrapAndPush(t *testing.T) {
	a := photoAt(1, 10*time.Second)
	b := photoAt(2, 20*time.Second)
	srv := newFakeBoothServer(t, a, b)

	client := newTestClient(srv, time.Second, 0.1)

	updates := make(chan []models.FeedPhoto, 16)
	unsubscribe := client.Subscribe(func(feed []models.FeedPhoto) {
		updates <- feed
	})
	defer unsubscribe()

	require.NoError(t, client.Start(context.Background()))
	defer client.Close()

	// Bootstrap snapshot, newest first
	select {
	case feed := <-updates:
		assert.Equal(t, []int64{2, 1}, ids(feed))
	case <-time.After(2 * time.Second):
		t.Fatal("no bootstrap update")
	}
	assert.Equal(t, feedEpoch.Add(20*time.Second), client.Cursor())

	require.Eventually(t, client.Connected, 2*time.Second, 10*time.Millisecond)

	srv.push(services.FeedMessageNewPhoto, photoAt(3, 30*time.Second))
	require.Eventually(t, snapshotHas(client, 3), 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []int64{3, 2, 1}, ids(client.Snapshot()))
}

func TestClient_UpdateWinsViaPush(t *testing.T) {
	a := photoAt(1, 10*time.Second)
	srv := newFakeBoothServer(t, a)

	client := newTestClient(srv, time.Second, 0.1)
	require.NoError(t, client.Start(context.Background()))
	defer client.Close()

	require.Eventually(t, client.Connected, 2*time.Second, 10*time.Millisecond)

	liked := a
	liked.Likes = 1
	liked.UpdatedAt = a.UpdatedAt.Add(time.Minute)
	srv.push(services.FeedMessagePhotoUpdated, liked)

	require.Eventually(t, func() bool {
		snapshot := client.Snapshot()
		return len(snapshot) == 1 && snapshot[0].Likes == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestClient_BackupPollRecoversMissedPush(t *testing.T) {
	a := photoAt(1, 10*time.Second)
	srv := newFakeBoothServer(t, a)

	// Backup probability 1: the safety-net poll fires on every tick even
	// while the channel is healthy.
	client := newTestClient(srv, 25*time.Millisecond, 1)
	require.NoError(t, client.Start(context.Background()))
	defer client.Close()

	require.Eventually(t, client.Connected, 2*time.Second, 10*time.Millisecond)

	// The record lands in the store but its push is lost.
	srv.add(photoAt(2, 20*time.Second))

	require.Eventually(t, snapshotHas(client, 2), 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []int64{2, 1}, ids(client.Snapshot()))
}

func TestClient_PollsWhileChannelUnavailable(t *testing.T) {
	a := photoAt(1, 10*time.Second)
	srv := newFakeBoothServer(t, a)
	srv.refuseWS = true

	client := newTestClient(srv, 25*time.Millisecond, 0.1)
	require.NoError(t, client.Start(context.Background()))
	defer client.Close()

	assert.False(t, client.Connected())

	srv.add(photoAt(2, 20*time.Second))
	require.Eventually(t, snapshotHas(client, 2), 2*time.Second, 10*time.Millisecond)

	srv.add(photoAt(3, 30*time.Second))
	require.Eventually(t, snapshotHas(client, 3), 2*time.Second, 10*time.Millisecond)

	// Duplicate-free even though successive polls overlap
	assert.Len(t, client.Snapshot(), 3)
}

func TestClient_ReconnectsAfterDrop(t *testing.T) {
	srv := newFakeBoothServer(t, photoAt(1, 10*time.Second))

	client := newTestClient(srv, time.Second, 0.1)
	require.NoError(t, client.Start(context.Background()))
	defer client.Close()

	require.Eventually(t, client.Connected, 2*time.Second, 10*time.Millisecond)

	srv.dropConns()

	// The client dials right back in and push delivery resumes.
	require.Eventually(t, func() bool {
		srv.mu.Lock()
		defer srv.mu.Unlock()
		return len(srv.conns) > 0
	}, 2*time.Second, 10*time.Millisecond)

	srv.push(services.FeedMessageNewPhoto, photoAt(2, 20*time.Second))
	require.Eventually(t, snapshotHas(client, 2), 2*time.Second, 10*time.Millisecond)
}

func TestClient_MalformedPushIsDropped(t *testing.T) {
	srv := newFakeBoothServer(t, photoAt(1, 10*time.Second))

	client := newTestClient(srv, time.Second, 0.1)
	require.NoError(t, client.Start(context.Background()))
	defer client.Close()

	require.Eventually(t, client.Connected, 2*time.Second, 10*time.Millisecond)

	srv.pushRaw([]byte("{not json"))
	srv.pushRaw([]byte(`{"type":"new_photo"}`)) // no photo payload

	// The channel survives and valid records still come through
	srv.push(services.FeedMessageNewPhoto, photoAt(2, 20*time.Second))
	require.Eventually(t, snapshotHas(client, 2), 2*time.Second, 10*time.Millisecond)
	assert.Len(t, client.Snapshot(), 2)
}

func TestClient_ForceRefreshBypassesCursor(t *testing.T) {
	srv := newFakeBoothServer(t, photoAt(2, 20*time.Second))

	client := newTestClient(srv, time.Hour, 0.1)
	require.NoError(t, client.Start(context.Background()))
	defer client.Close()

	// A record older than the cursor appears (say, restored by an
	// operator); the cursor-bounded poll can never see it.
	srv.add(photoAt(1, 10*time.Second))

	client.ForceRefresh()
	require.Eventually(t, snapshotHas(client, 1), 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []int64{2, 1}, ids(client.Snapshot()))
	// Older record must not drag the cursor back
	assert.Equal(t, feedEpoch.Add(20*time.Second), client.Cursor())
}

func TestClient_CloseStopsLoops(t *testing.T) {
	srv := newFakeBoothServer(t, photoAt(1, 10*time.Second))

	client := newTestClient(srv, 25*time.Millisecond, 1)
	require.NoError(t, client.Start(context.Background()))
	require.Eventually(t, client.Connected, 2*time.Second, 10*time.Millisecond)

	client.Close()

	// Feed stays readable after teardown
	assert.Equal(t, []int64{1}, ids(client.Snapshot()))
}
