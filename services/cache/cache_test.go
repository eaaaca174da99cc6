package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheExpiry(t *testing.T) {
	clock := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return clock }

	require.NoError(t, c.Set("k", []byte("v"), time.Minute))
	value, err := c.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(value))

	clock = clock.Add(time.Minute)
	_, err = c.Get("k")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Set("forever", []byte("v"), 0))
	clock = clock.Add(24 * time.Hour)
	_, err = c.Get("forever")
	assert.NoError(t, err)

	require.NoError(t, c.Delete("forever"))
	_, err = c.Get("forever")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestBlockAndBlockedFor(t *testing.T) {
	clock := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return clock }

	assert.Zero(t, BlockedFor(c, "doska_rate_limited", clock))

	require.NoError(t, Block(c, "doska_rate_limited", 10*time.Minute, clock))
	assert.Equal(t, 10*time.Minute, BlockedFor(c, "doska_rate_limited", clock))
	assert.Equal(t, 4*time.Minute, BlockedFor(c, "doska_rate_limited", clock.Add(6*time.Minute)))

	clock = clock.Add(10 * time.Minute)
	assert.Zero(t, BlockedFor(c, "doska_rate_limited", clock))
}

func TestBlockedForValueWithoutTimestamp(t *testing.T) {
	c := NewMemoryCache()
	require.NoError(t, c.Set("doska_rate_limited", []byte("600"), time.Minute))
	assert.Equal(t, time.Second, BlockedFor(c, "doska_rate_limited", time.Now()))
}
