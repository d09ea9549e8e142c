package kafka

import (
	"context"

	"github.com/RiceCakess/holoclips/internal/domain"
)

// EntryProducer publishes live transcript entries for the persist
// pipeline. Messages are keyed by room so a room's entries stay ordered
// within one partition.
type EntryProducer interface {
	ProduceEntry(ctx context.Context, msg *domain.EntryMessage) error
	Close() error
}
