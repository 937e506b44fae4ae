// Package transcript keeps a bounded history of finalized transcripts.
package transcript

import (
	"sync"
	"time"
)

// DefaultMaxEntries bounds the history.
const DefaultMaxEntries = 50

// Entry is one finalized transcript.
type Entry struct {
	Timestamp time.Time `json:"ts"`
	Text      string    `json:"text"`
	Command   string    `json:"command,omitempty"`
}

// Store is an in-memory transcript history, safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries []Entry
	maxSize int
}

// NewStore creates a store holding at most maxEntries.
func NewStore(maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Store{entries: make([]Entry, 0, maxEntries), maxSize: maxEntries}
}

// Add stores a transcript. command names the voice command it matched, if any.
func (s *Store) Add(at time.Time, text, command string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, Entry{Timestamp: at, Text: text, Command: command})
	if len(s.entries) > s.maxSize {
		s.entries = s.entries[len(s.entries)-s.maxSize:]
	}
}

// Since returns entries at or after cutoff, oldest first.
func (s *Store) Since(cutoff time.Time) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Entry
	for _, e := range s.entries {
		if !e.Timestamp.Before(cutoff) {
			result = append(result, e)
		}
	}
	return result
}

// Entries returns a copy of all entries.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]Entry, len(s.entries))
	copy(result, s.entries)
	return result
}
