// Package blocklist holds the user-curated set of author names whose
// messages are suppressed from rendering. One store is shared by every room;
// it is passed by reference to whatever needs filtering instead of living in
// a global.
package blocklist

import (
	"sort"
	"sync"
)

// Store is a single-writer, many-reader set of blocked author names.
// Mutations notify subscribers synchronously, so a read issued after a
// Block call always sees the new state.
type Store struct {
	mu     sync.RWMutex
	names  map[string]struct{}
	subs   map[int]func()
	nextID int
}

// New creates a store, optionally pre-seeded with blocked names.
func New(initial ...string) *Store {
	s := &Store{
		names: make(map[string]struct{}, len(initial)),
		subs:  make(map[int]func()),
	}
	for _, n := range initial {
		s.names[n] = struct{}{}
	}
	return s
}

// Block adds a name to the set. Blocking an already-blocked name is a no-op
// and does not notify.
func (s *Store) Block(name string) {
	s.mu.Lock()
	if _, ok := s.names[name]; ok {
		s.mu.Unlock()
		return
	}
	s.names[name] = struct{}{}
	s.mu.Unlock()
	s.notify()
}

// Unblock removes a name from the set.
func (s *Store) Unblock(name string) {
	s.mu.Lock()
	if _, ok := s.names[name]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.names, name)
	s.mu.Unlock()
	s.notify()
}

// IsBlocked reports whether name is currently blocked.
func (s *Store) IsBlocked(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.names[name]
	return ok
}

// Names returns the blocked names in stable sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Subscribe registers fn to run after every effective mutation. The
// returned func cancels the subscription.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify() {
	s.mu.RLock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}
