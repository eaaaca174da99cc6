// Package cache stores short-lived keys shared between fetches, such as the
// block the page source sets after the site rate-limits it.
package cache

import (
	"errors"
	"strconv"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired
var ErrMiss = errors.New("cache miss")

// CacheService represents a key/value cache with expiry
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}

// Block marks key as blocked until now+d. The expiry itself is stored so
// the remaining time can be reported.
func Block(c CacheService, key string, d time.Duration, now time.Time) error {
	until := now.Add(d).Unix()
	return c.Set(key, []byte(strconv.FormatInt(until, 10)), d)
}

// BlockedFor returns how long key stays blocked, or zero when it is not. A
// value that holds no timestamp counts as blocked for one second.
func BlockedFor(c CacheService, key string, now time.Time) time.Duration {
	value, err := c.Get(key)
	if err != nil {
		return 0
	}

	until, err := strconv.ParseInt(string(value), 10, 64)
	if err != nil || until < 1_000_000_000 {
		return time.Second
	}
	if remaining := time.Unix(until, 0).Sub(now); remaining > 0 {
		return remaining
	}
	return 0
}
