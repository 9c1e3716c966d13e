package feedsync

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"photobooth-backend/internal/models"
	"photobooth-backend/internal/services"
)

// Config tunes a feed client
type Config struct {
	// BaseURL is the server root, e.g. http://localhost:8080
	BaseURL string
	// PollInterval is the fallback poll period. Default 10s.
	PollInterval time.Duration
	// BackupPollProbability is the chance of polling on a tick while the
	// push channel is healthy. Polling is unconditional while
	// disconnected; while connected it only bounds staleness from missed
	// pushes, so a low probability keeps redundant load off the server.
	// Default 0.1.
	BackupPollProbability float64
	// HTTPTimeout bounds a single fetch. Default 15s.
	HTTPTimeout time.Duration
	// ReconnectDelay is the initial delay between dial attempts; it backs
	// off up to maxReconnectDelay and resets on a successful connect.
	// Default 500ms.
	ReconnectDelay time.Duration
}

const maxReconnectDelay = 10 * time.Second

type eventKind int

const (
	eventPush eventKind = iota
	eventBatch
	eventStatus
)

// feedEvent funnels all three trigger sources (push record, fallback
// batch, channel status change) into the one goroutine that is allowed to
// touch the feed, so merges are never concurrent.
type feedEvent struct {
	kind      eventKind
	record    *models.FeedPhoto
	batch     []models.FeedPhoto
	connected bool
}

// Client synchronizes a local photo feed with the server. Construct with
// NewClient, call Start once, then read through Subscribe/Snapshot.
type Client struct {
	cfg        Config
	httpClient *http.Client

	mu          sync.Mutex
	feed        *Feed
	subscribers map[int]func([]models.FeedPhoto)
	nextSubID   int

	connected atomic.Bool
	events    chan feedEvent
	refresh   chan struct{}
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	// randFloat is swapped out in tests to make backup polls deterministic
	randFloat func() float64
}

// NewClient creates a feed client; it does nothing until Start
func NewClient(cfg Config) *Client {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.BackupPollProbability <= 0 {
		cfg.BackupPollProbability = 0.1
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 15 * time.Second
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 500 * time.Millisecond
	}

	return &Client{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: cfg.HTTPTimeout},
		feed:        NewFeed(),
		subscribers: make(map[int]func([]models.FeedPhoto)),
		events:      make(chan feedEvent, 64),
		refresh:     make(chan struct{}, 1),
		randFloat:   rand.Float64,
	}
}

// Start bootstraps the feed and launches the push and poll loops. A failed
// bootstrap is the only error surfaced to the caller; after a successful
// Start all delivery failures are contained and recovered internally.
func (c *Client) Start(ctx context.Context) error {
	items, err := c.fetchAll(ctx)
	if err != nil {
		return fmt.Errorf("initial feed fetch failed: %w", err)
	}
	c.apply(items)

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(3)
	go c.runLoop(runCtx)
	go c.channelLoop(runCtx)
	go c.pollLoop(runCtx)

	return nil
}

// Close tears the client down: the poll timer stops and the push channel
// closes. The feed remains readable.
func (c *Client) Close() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

// Subscribe registers a callback invoked with the sorted feed whenever it
// changes. The returned function unsubscribes.
func (c *Client) Subscribe(fn func([]models.FeedPhoto)) func() {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

// Snapshot returns the current sorted feed
func (c *Client) Snapshot() []models.FeedPhoto {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.feed.Snapshot()
}

// Cursor returns the current sync cursor
func (c *Client) Cursor() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.feed.Cursor()
}

// Connected reports whether the push channel is up
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// ForceRefresh schedules an immediate full refetch that bypasses the
// cursor. No-op if a refresh is already pending.
func (c *Client) ForceRefresh() {
	select {
	case c.refresh <- struct{}{}:
	default:
	}
}

// runLoop is the single consumer of feed events; all merges happen here
func (c *Client) runLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.events:
			switch ev.kind {
			case eventPush:
				c.apply([]models.FeedPhoto{*ev.record})
			case eventBatch:
				c.apply(ev.batch)
			case eventStatus:
				c.connected.Store(ev.connected)
			}
		case <-c.refresh:
			items, err := c.fetchAll(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("Feed refresh failed")
				continue
			}
			c.apply(items)
		}
	}
}

// apply merges a batch and notifies subscribers when the view changed
func (c *Client) apply(items []models.FeedPhoto) {
	if len(items) == 0 {
		return
	}

	c.mu.Lock()
	changed := c.feed.Merge(items)
	if !changed {
		c.mu.Unlock()
		return
	}
	snapshot := c.feed.Snapshot()
	subscribers := make([]func([]models.FeedPhoto), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subscribers = append(subscribers, fn)
	}
	c.mu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
}

// channelLoop keeps the push channel alive, reconnecting with backoff.
// A drop is never surfaced as an error; the poll loop covers the gap.
func (c *Client) channelLoop(ctx context.Context) {
	defer c.wg.Done()

	delay := c.cfg.ReconnectDelay
	for {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.wsURL(), nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Debug().Err(err).Msg("Feed channel dial failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			if delay *= 2; delay > maxReconnectDelay {
				delay = maxReconnectDelay
			}
			continue
		}

		delay = c.cfg.ReconnectDelay
		c.emit(ctx, feedEvent{kind: eventStatus, connected: true})
		c.readMessages(ctx, conn)
		c.emit(ctx, feedEvent{kind: eventStatus, connected: false})

		if ctx.Err() != nil {
			return
		}
		// Reconnect immediately after a drop; backoff only applies to
		// consecutive failed dials.
	}
}

// readMessages pumps push records until the connection dies
func (c *Client) readMessages(ctx context.Context, conn *websocket.Conn) {
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()
	defer close(stop)
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Debug().Err(err).Msg("Feed channel closed")
			}
			return
		}

		var msg services.FeedMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warn().Err(err).Msg("Dropping malformed feed message")
			continue
		}

		switch msg.Type {
		case services.FeedMessageNewPhoto, services.FeedMessagePhotoUpdated:
			if msg.Photo == nil {
				log.Warn().Str("type", msg.Type).Msg("Dropping feed message without photo")
				continue
			}
			c.emit(ctx, feedEvent{kind: eventPush, record: msg.Photo})
		}
	}
}

// pollLoop runs the fallback poll: every tick while disconnected, with
// BackupPollProbability while connected.
func (c *Client) pollLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.connected.Load() && c.randFloat() >= c.cfg.BackupPollProbability {
				continue
			}
			items, err := c.fetchSince(ctx, c.Cursor())
			if err != nil {
				// Transient; the feed stays intact and the next tick retries.
				log.Warn().Err(err).Msg("Feed poll failed")
				continue
			}
			if len(items) > 0 {
				c.emit(ctx, feedEvent{kind: eventBatch, batch: items})
			}
		}
	}
}

func (c *Client) emit(ctx context.Context, ev feedEvent) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

type photosResponse struct {
	Photos []models.FeedPhoto `json:"photos"`
}

// fetchAll performs the bootstrap (and force-refresh) fetch
func (c *Client) fetchAll(ctx context.Context) ([]models.FeedPhoto, error) {
	return c.fetch(ctx, c.cfg.BaseURL+"/api/photos")
}

// fetchSince fetches records created after the cursor
func (c *Client) fetchSince(ctx context.Context, cursor time.Time) ([]models.FeedPhoto, error) {
	endpoint := fmt.Sprintf("%s/api/photos/since/%s",
		c.cfg.BaseURL, url.PathEscape(cursor.UTC().Format(time.RFC3339Nano)))
	return c.fetch(ctx, endpoint)
}

func (c *Client) fetch(ctx context.Context, endpoint string) ([]models.FeedPhoto, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed request returned status %d", resp.StatusCode)
	}

	var payload photosResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode feed response: %w", err)
	}
	return payload.Photos, nil
}

func (c *Client) wsURL() string {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return c.cfg.BaseURL + "/ws"
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	return u.String()
}
