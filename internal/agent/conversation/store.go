package conversation

import (
	"context"
	"sync"
)

// DefaultMaxHistory is the per-conversation cap on user+assistant pairs.
const DefaultMaxHistory = 50

// Store owns all conversation histories. A history may only be mutated by
// the single in-flight loop that holds the conversation's lock; Acquire and
// Release enforce that by construction.
type Store struct {
	mu         sync.Mutex
	entries    map[string]*entry
	maxHistory int
}

type entry struct {
	sem   chan struct{} // buffered 1, held by the in-flight loop
	turns []Turn
}

// NewStore creates a store capping each conversation at 2×maxHistory turns.
// maxHistory <= 0 selects DefaultMaxHistory.
func NewStore(maxHistory int) *Store {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Store{
		entries:    make(map[string]*entry),
		maxHistory: maxHistory,
	}
}

func (s *Store) entryFor(id string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		e.sem <- struct{}{} // initially unlocked
		s.entries[id] = e
	}
	return e
}

// Acquire blocks until the caller holds the conversation's lock, serializing
// concurrent inbound messages for the same conversation id. Returns false if
// the context is cancelled first.
func (s *Store) Acquire(ctx context.Context, id string) bool {
	e := s.entryFor(id)
	select {
	case <-e.sem:
		return true
	case <-ctx.Done():
		return false
	}
}

// Release returns the conversation's lock.
func (s *Store) Release(id string) {
	e := s.entryFor(id)
	select {
	case e.sem <- struct{}{}:
	default: // double release is a bug, but must not deadlock
	}
}

// Append adds a turn and trims the oldest user+assistant pairs once the
// history exceeds 2×maxHistory, keeping eviction pair-aligned so the
// remaining sequence stays coherent.
func (s *Store) Append(id string, turn Turn) {
	e := s.entryFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	e.turns = append(e.turns, turn)
	limit := 2 * s.maxHistory
	for len(e.turns) > limit {
		e.turns = e.turns[2:]
	}
}

// Get returns a snapshot of the conversation's turns in append order.
// Callers treat it as immutable for the duration of one loop execution.
func (s *Store) Get(id string) []Turn {
	e := s.entryFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(e.turns))
	copy(out, e.turns)
	return out
}

// Len returns the number of turns currently held for the conversation.
func (s *Store) Len(id string) int {
	e := s.entryFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(e.turns)
}

// Clear drops all turns for the conversation id.
func (s *Store) Clear(id string) {
	e := s.entryFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	e.turns = nil
}
