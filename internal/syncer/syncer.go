// Package syncer keeps the visible transcript position consistent with
// video playback. It consumes player status updates, resolves them to a
// transcript position through the timestamp index, and drives an injected
// virtualized list, while the list itself owns smooth-follow animation.
package syncer

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/RiceCakess/holoclips/internal/blocklist"
	"github.com/RiceCakess/holoclips/internal/domain"
	"github.com/RiceCakess/holoclips/internal/index"
	"github.com/RiceCakess/holoclips/pkg/log"
)

// DefaultHistoryPage is how many older entries one top-of-viewport trigger
// requests.
const DefaultHistoryPage = 30

// Alignment selects which viewport edge a scroll target lands on.
type Alignment string

const AlignEnd Alignment = "end"

// ScrollTarget addresses a list position. Last wins over Index.
type ScrollTarget struct {
	Index int
	Last  bool
	Align Alignment
}

// VirtualList is the virtualization surface the syncer drives.
type VirtualList interface {
	ScrollToIndex(target ScrollTarget)
}

// PlayerControl is the player surface used for click-to-seek.
type PlayerControl interface {
	SeekTo(offsetSeconds float64)
}

// RenderEntry is a transcript entry with its derived display flags.
type RenderEntry struct {
	domain.TranscriptEntry
	ShowHeader bool
}

// ComputeHeaders derives the per-entry author header flags over the whole
// sequence. A header shows when the entry opens the list, when the author
// changed from the previous entry, or when a run of the same author has
// kept the floor for five entries. Stateless by intent: every refresh
// recomputes from scratch.
func ComputeHeaders(entries []domain.TranscriptEntry) []RenderEntry {
	out := make([]RenderEntry, len(entries))
	for i, e := range entries {
		show := i == 0 ||
			entries[i-1].Name != e.Name ||
			(i > 5 && entries[i-5].Name == e.Name)
		out[i] = RenderEntry{TranscriptEntry: e, ShowHeader: show}
	}
	return out
}

// Syncer tracks one room's transcript against one player.
type Syncer struct {
	list      VirtualList
	player    PlayerControl
	blocks    *blocklist.Store
	loadOlder func(partial int)
	logger    zerolog.Logger

	mu       sync.Mutex
	entries  []domain.TranscriptEntry
	ix       *index.Index
	atBottom bool
}

// New creates a syncer. loadOlder may be nil when pagination is not wired;
// it is invoked when the viewport reaches the top of loaded history.
func New(list VirtualList, player PlayerControl, blocks *blocklist.Store, loadOlder func(partial int)) *Syncer {
	return &Syncer{
		list:      list,
		player:    player,
		blocks:    blocks,
		loadOlder: loadOlder,
		logger:    log.L().With().Str("component", "syncer").Logger(),
		ix:        index.New(nil, 0),
		atBottom:  true,
	}
}

// SetSequence installs a new sequence snapshot and rebuilds the timestamp
// index over it. Arrivals never force a scroll here; follow-on-append is
// the virtualization layer's job and the syncer stays out of its way.
func (s *Syncer) SetSequence(entries []domain.TranscriptEntry, revision uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
	s.ix = index.New(entries, revision)
}

// SetAtBottom records whether the user is parked at the bottom of the list.
// The virtualization layer reports this; while the user has scrolled away,
// playback-driven jumps are suspended so the syncer does not fight the
// manual position.
func (s *Syncer) SetAtBottom(atBottom bool) {
	s.mu.Lock()
	s.atBottom = atBottom
	s.mu.Unlock()
}

// OnStatus reacts to one player status update. Anything other than an
// actively playing position freezes tracking. Position 0 falls through to a
// tail scroll; see DESIGN.md for why that quirk is kept.
func (s *Syncer) OnStatus(status domain.PlaybackStatus) {
	if !status.Playing() {
		return
	}

	s.mu.Lock()
	if !s.atBottom {
		s.mu.Unlock()
		return
	}
	idx := s.ix.Lookup(*status.Progress)
	s.mu.Unlock()

	if idx == 0 {
		s.list.ScrollToIndex(ScrollTarget{Last: true, Align: AlignEnd})
		return
	}
	s.list.ScrollToIndex(ScrollTarget{Index: idx, Align: AlignEnd})
}

// OnStartReached fires when the viewport hits the top of loaded history and
// asks for one more page of older entries.
func (s *Syncer) OnStartReached() {
	if s.loadOlder != nil {
		s.loadOlder(DefaultHistoryPage)
	}
}

// Render returns the entries to draw: headers derived over the full
// sequence first, blocked authors dropped afterwards so a block never
// perturbs header placement, and the stored sequence untouched either way.
func (s *Syncer) Render() []RenderEntry {
	s.mu.Lock()
	entries := s.entries
	s.mu.Unlock()

	withHeaders := ComputeHeaders(entries)
	out := make([]RenderEntry, 0, len(withHeaders))
	for _, re := range withHeaders {
		if s.blocks != nil && s.blocks.IsBlocked(re.Name) {
			continue
		}
		out = append(out, re)
	}
	return out
}

// Click jumps playback to the clicked entry's timestamp.
func (s *Syncer) Click(e domain.TranscriptEntry) {
	if s.player == nil {
		return
	}
	s.player.SeekTo(e.OffsetSeconds)
}
