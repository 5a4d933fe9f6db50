package cache

import (
	"fmt"
	"unifeed/internal/providers"
	"unifeed/internal/structures"
)

// KVStore is the local persistent key-value store snapshots are written to.
type KVStore interface {
	// Get reports false with a nil error when the key is absent.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Close() error
}

// NewKVStore opens the driver named by store.driver. The memory driver keeps
// snapshots in the process-local byte cache. The returned cleanup closes the store.
func NewKVStore(conf *structures.Config, memory providers.CacheProviderInterface, logger providers.Logger) (KVStore, func(), error) {
	var (
		store KVStore
		err   error
	)
	switch conf.Store.Driver {
	case "", "file":
		var compressor Compressor
		compressor, err = NewZstdCompressor()
		if err != nil {
			return nil, nil, err
		}
		store, err = NewFileStore(conf.Store.Dir, compressor, logger)
		if err != nil {
			compressor.Close()
		}
	case "sqlite":
		store, err = NewSqliteStore(conf.Store.DSN)
	case "redis":
		store, err = NewRedisStore(conf.Store.RedisAddr, conf.Cache.TTL)
	case "memory":
		store = NewMemoryStore(memory)
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", conf.Store.Driver)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", conf.Store.Driver, err)
	}

	logger.Infof(providers.TypeCache, "Snapshot store ready (driver=%s)", driverName(conf.Store.Driver))
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Errorf(providers.TypeCache, "Closing snapshot store: %v", err)
		}
	}
	return store, cleanup, nil
}

func driverName(driver string) string {
	if driver == "" {
		return "file"
	}
	return driver
}
