package stream

import (
	"sort"
	"sync"

	"github.com/RiceCakess/holoclips/internal/domain"
)

// Sequence is the time-ordered transcript for one room. Live entries append
// at the tail, history pages merge in from the front, and every effective
// mutation bumps the revision so consumers can tell snapshots apart.
//
// Entries stay ordered by OffsetSeconds non-decreasing. Network delivery is
// not trusted to be sorted: anything that would land out of order is
// insertion-sorted instead of blindly appended, and duplicates are dropped
// by key.
type Sequence struct {
	mu       sync.RWMutex
	entries  []domain.TranscriptEntry
	keys     map[string]struct{}
	revision uint64
}

func NewSequence() *Sequence {
	return &Sequence{keys: make(map[string]struct{})}
}

// newSequenceAt starts the revision counter at rev. Room switches swap in a
// fresh sequence and carry the counter forward, so a revision can never
// repeat across the switch.
func newSequenceAt(rev uint64) *Sequence {
	return &Sequence{keys: make(map[string]struct{}), revision: rev}
}

// Append adds a live entry at the tail, or at its sorted position when the
// stream delivered it late. Returns false for duplicates.
func (s *Sequence) Append(e domain.TranscriptEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.keys[e.Key]; dup {
		return false
	}

	n := len(s.entries)
	if n == 0 || s.entries[n-1].OffsetSeconds <= e.OffsetSeconds {
		s.entries = append(s.entries, e)
	} else {
		s.insertSorted(e)
	}

	s.keys[e.Key] = struct{}{}
	s.revision++
	return true
}

// Merge folds a history page into the sequence, skipping duplicates and
// placing each entry at its sorted position. Returns how many entries were
// actually added.
func (s *Sequence) Merge(page []domain.TranscriptEntry) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, e := range page {
		if _, dup := s.keys[e.Key]; dup {
			continue
		}
		s.insertSorted(e)
		s.keys[e.Key] = struct{}{}
		added++
	}

	if added > 0 {
		s.revision++
	}
	return added
}

// insertSorted places e before the first entry with a greater offset, so
// equal offsets keep arrival order. Caller holds the lock.
func (s *Sequence) insertSorted(e domain.TranscriptEntry) {
	i := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].OffsetSeconds > e.OffsetSeconds
	})
	s.entries = append(s.entries, domain.TranscriptEntry{})
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = e
}

// Snapshot returns the current entries and the revision they belong to.
// The slice is a copy; callers may hold it across further mutations.
func (s *Sequence) Snapshot() ([]domain.TranscriptEntry, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.TranscriptEntry, len(s.entries))
	copy(out, s.entries)
	return out, s.revision
}

// Len returns the number of held entries.
func (s *Sequence) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Revision returns the current revision counter.
func (s *Sequence) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Reset discards everything in place. The revision keeps counting up so an
// index built over the old contents can never be mistaken for one built
// over the new. Callers shared across goroutines should prefer swapping in
// a fresh sequence (see Client.beginRoomLocked) over resetting a shared one.
func (s *Sequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.keys = make(map[string]struct{})
	s.revision++
}
