package requestlog

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxEntries is the capacity used when none is given.
const DefaultMaxEntries = 1000

// InMemory is a ServiceStore backed by a bounded FIFO buffer.
type InMemory struct {
	mu         sync.RWMutex
	entries    []*Entry
	maxEntries int
}

var _ ServiceStore = (*InMemory)(nil)

// NewInMemory creates a store holding at most maxEntries entries. Older entries are evicted
// first.
func NewInMemory(maxEntries int) *InMemory {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &InMemory{
		entries:    make([]*Entry, 0, min(maxEntries, 64)),
		maxEntries: maxEntries,
	}
}

// Log records an entry, assigning an ID and timestamp when missing.
func (s *InMemory) Log(entry *Entry) {
	if entry == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) >= s.maxEntries {
		s.entries = s.entries[1:]
	}
	s.entries = append(s.entries, entry)
}

// Get retrieves an entry by ID.
func (s *InMemory) Get(id string) *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.entries {
		if entry.ID == id {
			return entry
		}
	}
	return nil
}

// List returns matching entries, newest first.
func (s *InMemory) List(filter *Filter) []*Entry {
	m, err := newMatcher(filter)
	if err != nil {
		return []*Entry{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Entry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		if m.matches(s.entries[i]) {
			result = append(result, s.entries[i])
		}
	}
	return page(result, filter)
}

// Clear removes all entries.
func (s *InMemory) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = s.entries[:0]
}

// Count returns the number of entries.
func (s *InMemory) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// ClearByService removes the entries of one service.
func (s *InMemory) ClearByService(service string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.entries[:0]
	for _, entry := range s.entries {
		if entry.Service != service {
			kept = append(kept, entry)
		}
	}
	clear(s.entries[len(kept):])
	s.entries = kept
}

// CountByService returns the number of entries of one service.
func (s *InMemory) CountByService(service string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, entry := range s.entries {
		if entry.Service == service {
			n++
		}
	}
	return n
}
