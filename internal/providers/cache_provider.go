package providers

import (
	"fmt"
	"math"
	"unifeed/internal/structures"
	"unsafe"

	"github.com/coocood/freecache"
)

// CacheProviderInterface is the process-local byte cache behind the memory
// snapshot store.
type CacheProviderInterface interface {
	Get(key string) ([]byte, bool)
	// Set fails when value exceeds the largest entry the cache can hold.
	Set(key string, value []byte) error
}

type CacheProvider struct {
	cache    *freecache.Cache
	ttl      int
	maxEntry int
}

// NewCacheProvider sizes the cache from cache.size (MB). Entries expire after
// cache.ttl rounded up to whole seconds; a timeline snapshot larger than
// 1/1024 of the cache is refused by freecache.
func NewCacheProvider(conf *structures.Config, logger Logger) CacheProviderInterface {
	if !conf.Cache.Enabled || conf.Cache.Size <= 0 {
		logger.Infof(TypeCache, "Snapshot cache disabled")
		return &noopCache{}
	}

	sizeBytes := conf.Cache.Size * 1024 * 1024
	ttl := max(int(math.Ceil(conf.Cache.TTL.Seconds())), 1)
	maxEntry := sizeBytes / 1024

	logger.Infof(TypeCache, "Snapshot cache initialized: %dMB, TTL=%ds, max snapshot %dKB", conf.Cache.Size, ttl, maxEntry/1024)

	return &CacheProvider{
		cache:    freecache.NewCache(sizeBytes),
		ttl:      ttl,
		maxEntry: maxEntry,
	}
}

// keyBytes avoids copying the key; freecache copies keys before storing them.
func keyBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

func (c *CacheProvider) Get(key string) ([]byte, bool) {
	val, err := c.cache.Get(keyBytes(key))
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *CacheProvider) Set(key string, value []byte) error {
	if err := c.cache.Set(keyBytes(key), value, c.ttl); err != nil {
		return fmt.Errorf("cache %s (%d bytes, limit %d): %w", key, len(value), c.maxEntry, err)
	}
	return nil
}

type noopCache struct{}

func (n *noopCache) Get(_ string) ([]byte, bool)  { return nil, false }
func (n *noopCache) Set(_ string, _ []byte) error { return nil }
