// Package editor maintains an editable, offset-ordered collection of
// transcript entries for manual subtitle curation. Once a transcript is
// loaded for editing it is independent of live delivery; all mutation
// happens through the operations below, each of which preserves the offset
// ordering the timeline relies on.
package editor

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RiceCakess/holoclips/internal/domain"
)

// Fallback duration for a merge source that never carried one, and the
// duration given to freshly inserted lines. Millisecond values.
const (
	mergeDefaultDuration  = 1000
	insertDefaultDuration = 3000
)

// Collection is an ordered set of subtitle entries under manual edit.
// Entries are addressed by their stable key.
type Collection struct {
	mu      sync.Mutex
	entries []domain.TranscriptEntry
}

// NewCollection loads entries for editing. The input is re-sorted by offset
// so later midpoint inserts have trustworthy neighbors.
func NewCollection(entries []domain.TranscriptEntry) *Collection {
	c := &Collection{entries: make([]domain.TranscriptEntry, len(entries))}
	copy(c.entries, entries)
	sort.SliceStable(c.entries, func(i, j int) bool {
		return c.entries[i].OffsetSeconds < c.entries[j].OffsetSeconds
	})
	return c
}

// Entries returns a copy of the current collection in display order.
func (c *Collection) Entries() []domain.TranscriptEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.TranscriptEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of entries.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Get returns the entry with the given key.
func (c *Collection) Get(key string) (domain.TranscriptEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(key); i >= 0 {
		return c.entries[i], true
	}
	return domain.TranscriptEntry{}, false
}

// Delete removes one entry. Returns false when the key is unknown.
func (c *Collection) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(key)
	if i < 0 {
		return false
	}
	c.entries = append(c.entries[:i], c.entries[i+1:]...)
	return true
}

// Merge absorbs the immediate successor into the entry with the given key.
// The merged line keeps the earlier start, joins the texts with a single
// space, and stretches its duration to cover the gap plus the original
// duration (1000ms when the source had none). The rendered text is set to
// the merged raw text; markup re-expansion is the caller's business.
// Without a successor this is a no-op.
func (c *Collection) Merge(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(key)
	if i < 0 || i+1 >= len(c.entries) {
		return false
	}

	cur := c.entries[i]
	next := c.entries[i+1]

	merged := cur.Message + " " + next.Message
	// The offset delta is added to the millisecond duration unscaled; the
	// editing timeline has always read durations produced this way.
	duration := (next.OffsetSeconds - cur.OffsetSeconds) + cur.DurationOr(mergeDefaultDuration)

	cur.Message = merged
	cur.Parsed = merged
	cur.DurationMillis = &duration

	c.entries[i] = cur
	c.entries = append(c.entries[:i+1], c.entries[i+2:]...)
	return true
}

// InsertBetween creates an empty entry halfway between the keyed entry and
// its immediate successor. Without a successor this is a no-op.
func (c *Collection) InsertBetween(key string) (domain.TranscriptEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(key)
	if i < 0 || i+1 >= len(c.entries) {
		return domain.TranscriptEntry{}, false
	}

	cur := c.entries[i]
	next := c.entries[i+1]

	entry := domain.TranscriptEntry{
		Key:            "subtitle-" + uuid.New().String(),
		OffsetSeconds:  (cur.OffsetSeconds + next.OffsetSeconds) / 2,
		DurationMillis: domain.Millis(insertDefaultDuration),
		Name:           "New Subtitle",
		Timestamp:      time.Now().UnixMilli(),
	}

	c.entries = append(c.entries, domain.TranscriptEntry{})
	copy(c.entries[i+2:], c.entries[i+1:])
	c.entries[i+1] = entry
	return entry, true
}

// Edit replaces the entry's text in place. Raw and rendered text move
// together; offset and duration are untouched.
func (c *Collection) Edit(key, text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(key)
	if i < 0 {
		return false
	}
	c.entries[i].Message = text
	c.entries[i].Parsed = text
	return true
}

// indexOf returns the position of key, or -1. Caller holds the lock.
func (c *Collection) indexOf(key string) int {
	for i := range c.entries {
		if c.entries[i].Key == key {
			return i
		}
	}
	return -1
}
