package dispatchlog

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"sjsage522/listingwatcher/internal/crawler"
)

// DefaultCapacity is the number of entries kept by New
const DefaultCapacity = 50

// Entry is a dispatched listing with the time it was sent
type Entry struct {
	ID           string          `json:"id"`
	Listing      crawler.Listing `json:"listing"`
	DispatchedAt time.Time       `json:"dispatched_at"`
}

// Log is a fixed-size ring of the most recent dispatches
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	next    int
	size    int
}

// New creates a log holding DefaultCapacity entries
func New() *Log {
	return NewWithCapacity(DefaultCapacity)
}

// NewWithCapacity creates a log holding at most capacity entries
func NewWithCapacity(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{entries: make([]Entry, capacity)}
}

// Append records a dispatch, dropping the oldest entry when full
func (l *Log) Append(listing crawler.Listing, at time.Time) Entry {
	entry := Entry{
		ID:           uuid.NewString(),
		Listing:      listing,
		DispatchedAt: at,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[l.next] = entry
	l.next = (l.next + 1) % len(l.entries)
	if l.size < len(l.entries) {
		l.size++
	}
	return entry
}

// Entries returns the log most-recent-first
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, 0, l.size)
	for i := 1; i <= l.size; i++ {
		idx := (l.next - i + len(l.entries)) % len(l.entries)
		out = append(out, l.entries[idx])
	}
	return out
}

// Len returns the number of entries held
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.size
}
