package repository

import (
	"context"

	"github.com/RiceCakess/holoclips/internal/domain"
)

// MessageRepository is the durable store of transcript entries.
type MessageRepository interface {
	// GetPage returns up to limit entries older than the cursor (all of
	// them when the cursor is empty), ordered by offset ascending, plus
	// the cursor for the next older page and whether one exists.
	GetPage(ctx context.Context, room domain.Room, cursor string, limit int) ([]domain.TranscriptEntry, string, bool, error)

	// SaveEntry persists one entry under its room.
	SaveEntry(ctx context.Context, room domain.Room, entry domain.TranscriptEntry) error

	Close() error
}
