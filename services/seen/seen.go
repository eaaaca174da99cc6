// Package seen keeps the durable set of listing URLs that have already been
// selected for dispatch.
//
// Every backend is write-through: Add returns only after the URL is persisted,
// and rolls the in-memory mark back when persistence fails. The set is never
// pruned and grows for as long as the board produces new listings; an
// age-based compaction would have to be added if that ever matters.
package seen

import (
	"context"
	"sync"
)

// Store represents the set of already-processed listing URLs
type Store interface {
	// Contains reports whether url has been marked seen
	Contains(url string) bool

	// Add marks url seen and persists it before returning
	Add(ctx context.Context, url string) error

	// Len returns the number of seen URLs
	Len() int

	// Close releases backend resources
	Close() error
}

// memberSet is the in-memory mirror every backend keeps. Lookups never hit
// the backend.
type memberSet struct {
	mu      sync.RWMutex
	members map[string]struct{}
}

func (s *memberSet) load(urls []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = make(map[string]struct{}, len(urls))
	for _, u := range urls {
		s.members[u] = struct{}{}
	}
}

func (s *memberSet) Contains(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.members[url]
	return ok
}

func (s *memberSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members)
}

// add inserts url and runs persist while holding the write lock, so
// insertions and their persistence are serialized. The insertion is undone if
// persist fails.
func (s *memberSet) add(url string, persist func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.members[url]; ok {
		return nil
	}

	s.members[url] = struct{}{}
	if err := persist(); err != nil {
		delete(s.members, url)
		return err
	}
	return nil
}

// snapshotLocked returns the members; the caller must hold mu
func (s *memberSet) snapshotLocked() []string {
	urls := make([]string, 0, len(s.members))
	for u := range s.members {
		urls = append(urls, u)
	}
	return urls
}
