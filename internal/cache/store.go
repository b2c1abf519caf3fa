// Package cache provides the generation-tagged content store shared by the
// text and image passes of the pipeline.
//
// Every entry carries the generation in which it was last created or hit.
// Sweep removes entries that have gone unused for longer than the configured
// maximum age and then advances the generation, which gives an LRU-by-run
// policy: an entry survives as long as at least one run in every window of
// maxAge+1 runs touches it.
//
// Keys embed a content fingerprint (text) or a modification timestamp
// (images), so a changed source always maps to a new key and never needs
// explicit invalidation.
package cache

import (
	"sort"
	"sync"

	"github.com/ironsheep/inline-resize/internal/variant"
)

// Entry is a cached payload.
type Entry struct {
	// Key is the derived cache key the entry is stored under.
	Key string

	// Data is the rewritten text buffer or the resized image bytes.
	Data []byte

	// Variants is the request fragment a scanned text asset produced. It is
	// nil for image entries.
	Variants variant.Request

	// Generation is the run in which the entry was last created or hit.
	Generation uint64
}

// Store is a generation-tagged key/value store. It is safe for concurrent
// use; resize jobs read and write it from their own goroutines.
//
// One Store is typically constructed per process and handed to every
// pipeline run so repeated runs over unchanged sources stay cheap.
type Store struct {
	mu         sync.RWMutex
	entries    map[string]*Entry
	generation uint64
	maxAge     int
}

// Option configures a Store.
type Option func(*Store)

// WithMaxAge sets the number of consecutive unused generations an entry
// survives before a sweep evicts it.
func WithMaxAge(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxAge = n
		}
	}
}

// New returns an empty store at generation zero.
func New(opts ...Option) *Store {
	s := &Store{entries: make(map[string]*Entry)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a copy of the entry stored under key. It does not restamp the
// entry; use Touch for that.
func (s *Store) Get(key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Put stores entry under key, stamped with the current generation.
func (s *Store) Put(key string, entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.Key = key
	entry.Generation = s.generation
	s.entries[key] = &entry
}

// Touch restamps an existing entry with the current generation. It reports
// whether the key was present.
func (s *Store) Touch(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return false
	}
	e.Generation = s.generation
	return true
}

// Lookup is Get followed by Touch on a hit.
func (s *Store) Lookup(key string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return Entry{}, false
	}
	e.Generation = s.generation
	return *e, true
}

// Sweep evicts every entry whose generation plus the maximum age is below
// the current generation, then advances the generation. It returns the
// evicted keys, sorted.
func (s *Store) Sweep() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted []string
	for key, e := range s.entries {
		if e.Generation+uint64(s.maxAge) < s.generation {
			evicted = append(evicted, key)
			delete(s.entries, key)
		}
	}
	s.generation++
	sort.Strings(evicted)
	return evicted
}

// Keys returns every key currently stored, sorted.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Entries returns copies of every entry, sorted by key.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Len reports the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Generation returns the current generation counter.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// MaxAge returns the configured maximum age.
func (s *Store) MaxAge() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxAge
}

// SetMaxAge changes the maximum age at runtime. Negative values are treated
// as zero.
func (s *Store) SetMaxAge(n int) {
	if n < 0 {
		n = 0
	}
	s.mu.Lock()
	s.maxAge = n
	s.mu.Unlock()
}

// Clear removes every entry without touching the generation counter.
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]*Entry)
	s.mu.Unlock()
}
