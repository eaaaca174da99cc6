package cache

import (
	"errors"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// MemcacheService implements CacheService on memcached. Keys are namespaced
// so several watchers can share one memcached.
type MemcacheService struct {
	client    *memcache.Client
	namespace string
}

// NewMemcacheService creates a memcache-backed cache; namespace may be empty
func NewMemcacheService(serverAddr, namespace string) *MemcacheService {
	client := memcache.New(serverAddr)
	client.Timeout = 2 * time.Second

	return &MemcacheService{
		client:    client,
		namespace: namespace,
	}
}

func (m *MemcacheService) key(k string) string {
	if m.namespace == "" {
		return k
	}
	return m.namespace + ":" + k
}

// Ping checks that every configured server answers
func (m *MemcacheService) Ping() error {
	return m.client.Ping()
}

// Get retrieves a value; a missing key is reported as ErrMiss
func (m *MemcacheService) Get(key string) ([]byte, error) {
	item, err := m.client.Get(m.key(key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return item.Value, nil
}

// Set stores a value in memcache with an expiration time
func (m *MemcacheService) Set(key string, value []byte, expiration time.Duration) error {
	return m.client.Set(&memcache.Item{
		Key:        m.key(key),
		Value:      value,
		Expiration: int32(expiration.Seconds()),
	})
}

// Delete removes a value. Deleting a missing key is not an error.
func (m *MemcacheService) Delete(key string) error {
	err := m.client.Delete(m.key(key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil
	}
	return err
}
