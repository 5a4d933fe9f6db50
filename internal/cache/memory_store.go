package cache

import "unifeed/internal/providers"

// MemoryStore adapts the process-local byte cache. Snapshots do not survive a restart.
type MemoryStore struct {
	cache providers.CacheProviderInterface
}

func NewMemoryStore(cache providers.CacheProviderInterface) *MemoryStore {
	return &MemoryStore{cache: cache}
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	value, ok := m.cache.Get(key)
	if !ok {
		return "", false, nil
	}
	return string(value), true, nil
}

func (m *MemoryStore) Set(key, value string) error {
	return m.cache.Set(key, []byte(value))
}

func (m *MemoryStore) Close() error { return nil }
