package providers

import (
	"errors"
	"unifeed/internal/structures"

	"github.com/gookit/validate"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

// Validate checks struct tag rules first, then the rules that depend on the
// selected drivers.
func (cv *CnfValidator) Validate() error {
	v := validate.Struct(cv.conf)
	if !v.Validate() {
		return v.Errors
	}

	c := cv.conf
	switch c.Store.Driver {
	case "file":
		if c.Store.Dir == "" {
			return errors.New("store.dir is required for the file driver")
		}
	case "sqlite":
		if c.Store.DSN == "" {
			return errors.New("store.dsn is required for the sqlite driver")
		}
	case "redis":
		if c.Store.RedisAddr == "" {
			return errors.New("store.redisAddr is required for the redis driver")
		}
	}

	if c.ChangeFeed.Transport != "none" {
		if c.ChangeFeed.URL == "" {
			return errors.New("changeFeed.url is required unless transport is none")
		}
		if c.ChangeFeed.QuietPeriod <= 0 || c.ChangeFeed.Cooldown <= 0 {
			return errors.New("changeFeed.quietPeriod and changeFeed.cooldown must be positive")
		}
	}

	if c.Notify.Transport == "nats" && c.Notify.URL == "" {
		return errors.New("notify.url is required for the nats transport")
	}

	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return errors.New("cache.ttl must be positive when the cache is enabled")
	}
	return nil
}
