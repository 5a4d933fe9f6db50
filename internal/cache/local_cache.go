// Package cache persists a short-lived snapshot of the last rendered timeline so
// a session can paint before its first refresh returns.
package cache

import (
	"time"
	"unifeed/internal/models"
	"unifeed/internal/providers"
	"unifeed/internal/structures"

	json "github.com/goccy/go-json"
)

const (
	DefaultKey = "unifeed:timeline"
	DefaultTTL = 5 * time.Minute
)

// LocalCache reads and writes one viewer's snapshot. Every failure is logged
// and absorbed; callers only ever see a hit or a miss.
type LocalCache struct {
	store   KVStore
	key     string
	ttl     time.Duration
	now     func() time.Time
	metrics providers.MetricsProviderInterface
	logger  providers.Logger
}

func NewLocalCache(conf *structures.Config, store KVStore, viewerID string, metrics providers.MetricsProviderInterface, logger providers.Logger) *LocalCache {
	key := conf.Cache.Key
	if key == "" {
		key = DefaultKey
	}
	ttl := conf.Cache.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LocalCache{
		store:   store,
		key:     key + ":" + viewerID,
		ttl:     ttl,
		now:     time.Now,
		metrics: metrics,
		logger:  logger,
	}
}

func (c *LocalCache) Key() string {
	return c.key
}

// Load returns the stored snapshot unless it is absent, unreadable or older than the TTL.
func (c *LocalCache) Load() (*models.CacheSnapshot, bool) {
	raw, ok, err := c.store.Get(c.key)
	if err != nil {
		c.logger.Warnf(providers.TypeCache, "Snapshot read %s failed: %v", c.key, err)
		c.metrics.IncCacheMisses()
		return nil, false
	}
	if !ok {
		c.metrics.IncCacheMisses()
		return nil, false
	}

	var snapshot models.CacheSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		c.logger.Warnf(providers.TypeCache, "Snapshot %s is corrupt: %v", c.key, err)
		c.metrics.IncCacheMisses()
		return nil, false
	}
	if snapshot.Expired(c.now(), c.ttl) {
		c.logger.Debugf(providers.TypeCache, "Snapshot %s expired (captured %s)", c.key, snapshot.CapturedAt)
		c.metrics.IncCacheMisses()
		return nil, false
	}

	c.metrics.IncCacheHits()
	return &snapshot, true
}

// Save stores entries stamped with the current time. It is best effort.
func (c *LocalCache) Save(entries []models.TimelineEntry) {
	data, err := json.Marshal(models.CacheSnapshot{Entries: entries, CapturedAt: c.now()})
	if err != nil {
		c.logger.Warnf(providers.TypeCache, "Snapshot encode %s failed: %v", c.key, err)
		return
	}
	if err := c.store.Set(c.key, string(data)); err != nil {
		c.logger.Warnf(providers.TypeCache, "Snapshot write %s failed: %v", c.key, err)
		return
	}
	c.logger.Debugf(providers.TypeCache, "Saved %d entries to %s", len(entries), c.key)
}
