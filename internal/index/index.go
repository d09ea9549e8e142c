// Package index maps playback timestamps to positions in an offset-ordered
// transcript. Lookups are floor-preferring: for a timestamp between two
// entries the earlier one wins, so the highlighted line never runs ahead of
// the audio.
package index

import "github.com/RiceCakess/holoclips/internal/domain"

// Index is a snapshot over one revision of a transcript sequence. It must
// be rebuilt whenever the sequence identity changes; Revision lets callers
// detect stale snapshots cheaply.
type Index struct {
	entries  []domain.TranscriptEntry
	revision uint64
}

// New builds an index over entries, which must be ordered by OffsetSeconds
// non-decreasing. The slice is not copied; the caller hands over a snapshot.
func New(entries []domain.TranscriptEntry, revision uint64) *Index {
	return &Index{entries: entries, revision: revision}
}

// Revision identifies the sequence snapshot this index was built over.
func (ix *Index) Revision() uint64 {
	return ix.revision
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Lookup returns the position of the entry whose offset is closest to
// target without exceeding it when possible. Degenerate inputs degrade to
// position 0; targets past either end clamp to the nearest end.
func (ix *Index) Lookup(target float64) int {
	return Lookup(ix.entries, target)
}

// Lookup is the pure form of Index.Lookup over any offset-ascending slice.
func Lookup(entries []domain.TranscriptEntry, target float64) int {
	left := 0
	right := len(entries) - 1

	if right < 0 {
		return 0
	}
	if target <= entries[0].OffsetSeconds {
		return 0
	}
	if target >= entries[right].OffsetSeconds {
		return right
	}

	for left <= right {
		mid := (left + right) / 2
		midOffset := entries[mid].OffsetSeconds

		if midOffset == target {
			return mid
		}

		if midOffset < target {
			left = mid + 1
		} else {
			right = mid - 1
		}
	}

	// left and right have crossed; right sits on the floor candidate.
	if entries[right].OffsetSeconds <= target {
		return right
	}
	return left
}
