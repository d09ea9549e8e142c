package history

import (
	"context"

	"github.com/RiceCakess/holoclips/internal/domain"
)

// Page is one slice of a room's transcript, ordered by offset ascending.
// NextCursor addresses the adjacent older page; HasMore reports whether
// that page exists.
type Page struct {
	Entries    []domain.TranscriptEntry `json:"entries"`
	NextCursor string                   `json:"next_cursor,omitempty"`
	HasMore    bool                     `json:"has_more"`
}

// Service serves backward pagination over a room's stored transcript.
type Service interface {
	GetPage(ctx context.Context, room domain.Room, cursor string, limit int) (*Page, error)
}
