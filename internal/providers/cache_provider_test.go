package providers

import (
	"strings"
	"testing"
	"time"
	"unifeed/internal/structures"

	"github.com/coocood/freecache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// local mock logger to avoid import cycle with testutil
type cacheTestLogger struct{}

func (m *cacheTestLogger) Errorf(_ TypeEnum, _ string, _ ...interface{}) {}
func (m *cacheTestLogger) Warnf(_ TypeEnum, _ string, _ ...interface{})  {}
func (m *cacheTestLogger) Debugf(_ TypeEnum, _ string, _ ...interface{}) {}
func (m *cacheTestLogger) Infof(_ TypeEnum, _ string, _ ...interface{})  {}
func (m *cacheTestLogger) Fatalf(_ TypeEnum, _ string, _ ...interface{}) {}
func (m *cacheTestLogger) Close()                                        {}

func cacheConfig(enabled bool, size int, ttl time.Duration) *structures.Config {
	return &structures.Config{
		Cache: structures.CacheConfig{
			Enabled: enabled,
			Size:    size,
			TTL:     ttl,
		},
	}
}

func TestCacheProvider_DisabledReturnsNoop(t *testing.T) {
	c := NewCacheProvider(cacheConfig(false, 10, 5*time.Second), &cacheTestLogger{})
	_, ok := c.Get("any")
	assert.False(t, ok)
	assert.IsType(t, &noopCache{}, c)
}

func TestCacheProvider_ZeroSizeReturnsNoop(t *testing.T) {
	c := NewCacheProvider(cacheConfig(true, 0, 5*time.Second), &cacheTestLogger{})
	assert.IsType(t, &noopCache{}, c)
}

func TestCacheProvider_TTLRoundsUpToSeconds(t *testing.T) {
	logger := &cacheTestLogger{}
	c := NewCacheProvider(cacheConfig(true, 1, 1500*time.Millisecond), logger)
	assert.Equal(t, 2, c.(*CacheProvider).ttl)

	c = NewCacheProvider(cacheConfig(true, 1, 0), logger)
	assert.Equal(t, 1, c.(*CacheProvider).ttl)
}

func TestCacheProvider_SnapshotRoundTrip(t *testing.T) {
	c := NewCacheProvider(cacheConfig(true, 1, 5*time.Second), &cacheTestLogger{})
	snapshot := []byte(`{"entries":[{"id":"1","kind":"post"}],"capturedAt":1714557600000}`)

	require.NoError(t, c.Set("unifeed:timeline:v1", snapshot))
	val, ok := c.Get("unifeed:timeline:v1")
	assert.True(t, ok)
	assert.Equal(t, snapshot, val)

	_, ok = c.Get("unifeed:timeline:v2")
	assert.False(t, ok)
}

func TestCacheProvider_Overwrite(t *testing.T) {
	c := NewCacheProvider(cacheConfig(true, 1, 5*time.Second), &cacheTestLogger{})

	require.NoError(t, c.Set("key1", []byte("v1")))
	require.NoError(t, c.Set("key1", []byte("v2")))

	val, ok := c.Get("key1")
	assert.True(t, ok)
	assert.Equal(t, []byte("v2"), val)
}

func TestCacheProvider_OversizedSnapshotIsRefused(t *testing.T) {
	c := NewCacheProvider(cacheConfig(true, 1, 5*time.Second), &cacheTestLogger{})
	big := []byte(strings.Repeat("x", 2*1024))

	err := c.Set("unifeed:timeline:big", big)
	require.Error(t, err)
	assert.ErrorIs(t, err, freecache.ErrLargeEntry)
	assert.Contains(t, err.Error(), "unifeed:timeline:big")

	_, ok := c.Get("unifeed:timeline:big")
	assert.False(t, ok)
}

func TestNoopCache_AlwaysMiss(t *testing.T) {
	c := &noopCache{}
	assert.NoError(t, c.Set("key1", []byte("value1")))

	val, ok := c.Get("key1")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestCacheProvider_TTLExpiry(t *testing.T) {
	c := NewCacheProvider(cacheConfig(true, 1, 1*time.Second), &cacheTestLogger{})

	require.NoError(t, c.Set("key1", []byte("value1")))
	_, ok := c.Get("key1")
	assert.True(t, ok)

	time.Sleep(2100 * time.Millisecond)

	_, ok = c.Get("key1")
	assert.False(t, ok)
}
