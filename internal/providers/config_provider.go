package providers

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unifeed/internal/structures"

	"github.com/spf13/viper"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	v := viper.New()
	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")

	setDefaults(v)

	v.BindEnv("logger.level", "UNIFEED_LOG_LEVEL")
	v.BindEnv("backend.databaseURL", "UNIFEED_DATABASE_URL")
	v.BindEnv("store.driver", "UNIFEED_STORE_DRIVER")
	v.BindEnv("store.redisAddr", "UNIFEED_REDIS_ADDR")
	v.BindEnv("changeFeed.transport", "UNIFEED_CHANGEFEED_TRANSPORT")
	v.BindEnv("changeFeed.url", "UNIFEED_CHANGEFEED_URL")
	v.BindEnv("notify.url", "UNIFEED_NOTIFY_URL")
	v.BindEnv("cache.ttl", "UNIFEED_CACHE_TTL")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "UnifiedTimeline"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("webServer.host", "0.0.0.0")
	v.SetDefault("webServer.port", 8090)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.mode", 0644)
	v.SetDefault("timeline.pageLimit", 20)
	v.SetDefault("timeline.aboveFold", 8)
	v.SetDefault("timeline.sourceTimeout", 8*time.Second)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.size", 16)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.key", "unifeed:timeline")
	v.SetDefault("store.driver", "file")
	v.SetDefault("changeFeed.transport", "none")
	v.SetDefault("changeFeed.subjectPrefix", "changes")
	v.SetDefault("changeFeed.quietPeriod", 5*time.Second)
	v.SetDefault("changeFeed.cooldown", 30*time.Second)
	v.SetDefault("changeFeed.reconnectDelay", 5*time.Second)
	v.SetDefault("notify.transport", "log")
	v.SetDefault("notify.subject", "notifications.dispatch")
}
