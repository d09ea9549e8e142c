package cache

import (
	"context"
	"errors"
	"time"

	"github.com/RiceCakess/holoclips/internal/domain"
)

// ErrCacheMiss is returned when a key is not in the cache.
var ErrCacheMiss = errors.New("cache miss")

// PageResult is one cached history page.
type PageResult struct {
	Entries    []domain.TranscriptEntry `json:"entries"`
	NextCursor string                   `json:"next_cursor"`
	HasMore    bool                     `json:"has_more"`
}

// PageCache caches history pages keyed by room, cursor and limit.
type PageCache interface {
	BuildKey(room domain.Room, cursor string, limit int) string
	Get(ctx context.Context, key string) (*PageResult, error)
	Set(ctx context.Context, key string, result *PageResult, ttl time.Duration) error
	Close() error
}
