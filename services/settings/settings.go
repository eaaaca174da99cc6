// Package settings holds the runtime filter the pipeline applies on every
// cycle and the catalog of destinations the notifier can deliver to.
package settings

import (
	"slices"
	"strings"
	"sync"
)

// Date buckets offered by the control surface
const (
	DateToday     = "сегодня"
	DateYesterday = "вчера"
	DateAny       = ""
)

// DateBuckets lists the selectable date buckets in display order
var DateBuckets = []string{DateToday, DateYesterday, DateAny}

// Filter is an immutable snapshot of the runtime criteria
type Filter struct {
	MinPrice    int    `json:"min_price"`
	MaxPrice    int    `json:"max_price"`
	DateBucket  string `json:"date_bucket"`
	Destination string `json:"destination,omitempty"`
}

// Configured reports whether a destination is set
func (f Filter) Configured() bool {
	return f.Destination != ""
}

// MatchesPrice reports whether price lies within [MinPrice, MaxPrice]
func (f Filter) MatchesPrice(price int) bool {
	return price >= f.MinPrice && price <= f.MaxPrice
}

// MatchesDate reports whether label contains the bucket, case-insensitively.
// The empty bucket matches every label.
func (f Filter) MatchesDate(label string) bool {
	bucket := strings.ToLower(strings.TrimSpace(f.DateBucket))
	if bucket == DateAny || bucket == "any" {
		return true
	}
	return strings.Contains(strings.ToLower(label), bucket)
}

// Destination is a send target offered by the notifier
type Destination struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Store guards the current Filter and the destination catalog
type Store struct {
	mu       sync.RWMutex
	filter   Filter
	catalog  []Destination
	ready    bool
	defaults Filter
}

// NewStore creates a store whose current filter is defaults
func NewStore(defaults Filter) *Store {
	defaults = normalize(defaults)
	return &Store{
		filter:   defaults,
		defaults: defaults,
	}
}

// Snapshot returns a copy of the current filter
func (s *Store) Snapshot() Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// Defaults returns the filter the store was created with
func (s *Store) Defaults() Filter {
	return s.defaults
}

// Replace swaps the whole filter at once and returns what was stored
func (s *Store) Replace(f Filter) Filter {
	f = normalize(f)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
	return f
}

// SetCatalog stores the destination catalog and marks the store ready
func (s *Store) SetCatalog(destinations []Destination) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = slices.Clone(destinations)
	s.ready = true
}

// Catalog returns a copy of the destination catalog
func (s *Store) Catalog() []Destination {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.catalog)
}

// Ready reports whether the catalog has been received from the notifier
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// HasDestination reports whether id is in the catalog
func (s *Store) HasDestination(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.ContainsFunc(s.catalog, func(d Destination) bool { return d.ID == id })
}

// normalize enforces 0 <= MinPrice <= MaxPrice and canonical date buckets
func normalize(f Filter) Filter {
	f.MinPrice = max(f.MinPrice, 0)
	f.MaxPrice = max(f.MaxPrice, 0)
	if f.MinPrice > f.MaxPrice {
		f.MinPrice, f.MaxPrice = f.MaxPrice, f.MinPrice
	}

	f.DateBucket = strings.ToLower(strings.TrimSpace(f.DateBucket))
	if f.DateBucket == "any" {
		f.DateBucket = DateAny
	}
	f.Destination = strings.TrimSpace(f.Destination)
	return f
}
