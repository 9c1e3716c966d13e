// Package feedsync keeps a client-side photo feed consistent with the
// server. Records arrive over two paths, a WebSocket push channel and a
// periodic cursor-bounded poll, and are merged into one deduplicated,
// time-ordered view. Neither path is trusted to be complete on its own:
// pushes are fire-and-forget and polls only cover records newer than the
// cursor, so the merge has to be idempotent under redelivery from either
// side.
package feedsync

import (
	"sort"
	"time"

	"photobooth-backend/internal/models"
)

// Feed is the owned, deduplicated record set of one synchronizer. It is
// not safe for concurrent use; the Client serializes all access.
type Feed struct {
	records map[int64]models.FeedPhoto
	cursor  time.Time
}

// NewFeed creates an empty feed
func NewFeed() *Feed {
	return &Feed{
		records: make(map[int64]models.FeedPhoto),
	}
}

// Merge folds a batch of incoming records into the feed and reports
// whether the visible feed changed.
//
// Per record: unknown ids are inserted; known ids are replaced only when
// the incoming copy carries a strictly newer updatedAt, and then only the
// mutable fields move; the stored createdAt keeps the record's position.
// The cursor advances to the largest createdAt observed in a batch that
// inserted at least one new record, and never moves backward.
func (f *Feed) Merge(items []models.FeedPhoto) bool {
	changed := false
	inserted := false
	var batchMax time.Time

	for _, item := range items {
		if item.CreatedAt.After(batchMax) {
			batchMax = item.CreatedAt
		}

		existing, known := f.records[item.ID]
		if known {
			if item.UpdatedAt.After(existing.UpdatedAt) {
				existing.Path = item.Path
				existing.Likes = item.Likes
				existing.UpdatedAt = item.UpdatedAt
				existing.Prompt = item.Prompt
				f.records[item.ID] = existing
				changed = true
			}
			continue
		}

		f.records[item.ID] = item
		changed = true
		inserted = true
	}

	if inserted && batchMax.After(f.cursor) {
		f.cursor = batchMax
	}

	return changed
}

// Snapshot returns the display projection: all records sorted by
// createdAt descending, id descending on ties so the order is stable.
func (f *Feed) Snapshot() []models.FeedPhoto {
	out := make([]models.FeedPhoto, 0, len(f.records))
	for _, record := range f.records {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// Cursor returns the lower bound for the next fallback poll
func (f *Feed) Cursor() time.Time {
	return f.cursor
}

// Len returns the number of known records
func (f *Feed) Len() int {
	return len(f.records)
}
