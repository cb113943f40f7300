package state

import (
	"sort"
	"strings"
	"sync"

	"github.com/getmockd/oasmock/pkg/dsl"
)

// EndpointKey identifies one stored state slot.
type EndpointKey struct {
	// Method is a lower-case HTTP method or "any".
	Method string `json:"method"`
	// Endpoint is a normalized endpoint such as "/pets/{}", or "**".
	Endpoint string `json:"endpoint"`
}

// Key builds an EndpointKey, lower-casing method and defaulting empty parts.
func Key(method, endpoint string) EndpointKey {
	method = strings.ToLower(method)
	if method == "" {
		method = AnyMethod
	}
	if endpoint == "" {
		endpoint = AllEndpoints
	}
	return EndpointKey{Method: method, Endpoint: endpoint}
}

func (k EndpointKey) String() string {
	return k.Method + " " + k.Endpoint
}

// Store holds the compiled state of one service, one entry per EndpointKey.
type Store struct {
	mu      sync.RWMutex
	entries map[EndpointKey]*Compiled
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[EndpointKey]*Compiled)}
}

// Update replaces the entry for key.
func (s *Store) Update(key EndpointKey, c *Compiled) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = c
}

// Get returns the state for a request to endpoint with method, or the empty state.
func (s *Store) Get(method, endpoint string) *Compiled {
	if _, c, ok := s.Lookup(method, endpoint); ok {
		return c
	}
	return Empty()
}

// Lookup returns the most specific entry for method and endpoint. Entries are tried in the
// order (method, endpoint), (any, endpoint), (method, **), (any, **).
func (s *Store) Lookup(method, endpoint string) (EndpointKey, *Compiled, bool) {
	method = strings.ToLower(method)
	candidates := []EndpointKey{
		{Method: method, Endpoint: endpoint},
		{Method: AnyMethod, Endpoint: endpoint},
		{Method: method, Endpoint: AllEndpoints},
		{Method: AnyMethod, Endpoint: AllEndpoints},
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, key := range candidates {
		if c, ok := s.entries[key]; ok {
			return key, c, true
		}
	}
	return EndpointKey{}, nil, false
}

// Consume applies a $times transition to the entry for key: the entry is replaced with a copy
// carrying remaining, or deleted when remaining is Absent. Nothing happens when the entry is no
// longer from, so a concurrent Update wins over the decrement. Reports whether the entry changed.
func (s *Store) Consume(key EndpointKey, from *Compiled, remaining dsl.Times) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries[key] != from {
		return false
	}
	if !remaining.IsActive() {
		delete(s.entries, key)
		return true
	}
	s.entries[key] = from.WithTimes(remaining)
	return true
}

// Delete removes the entry for key.
func (s *Store) Delete(key EndpointKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Reset removes every entry.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[EndpointKey]*Compiled)
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Entry is a stored state with its key.
type Entry struct {
	Key   EndpointKey `json:"key"`
	State *Compiled   `json:"state"`
}

// Entries returns a snapshot of the store ordered by endpoint then method.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	out := make([]Entry, 0, len(s.entries))
	for key, c := range s.entries {
		out = append(out, Entry{Key: key, State: c})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Endpoint != out[j].Key.Endpoint {
			return out[i].Key.Endpoint < out[j].Key.Endpoint
		}
		return out[i].Key.Method < out[j].Key.Method
	})
	return out
}
