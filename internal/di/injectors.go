//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"unifeed/internal"
	"unifeed/internal/backend"
	"unifeed/internal/cache"
	"unifeed/internal/changefeed"
	"unifeed/internal/controllers"
	"unifeed/internal/notify"
	"unifeed/internal/providers"
	"unifeed/internal/scheduler"
	"unifeed/internal/services"
	"unifeed/internal/sources"
	"unifeed/internal/structures"
	"unifeed/internal/timeline"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, func(), error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewCacheProvider,

		services.NewSessionRegistry,
		wire.Bind(new(providers.SessionCounter), new(*services.SessionRegistry)),

		backend.NewPostgresBackend,
		wire.Bind(new(backend.Reader), new(*backend.PostgresBackend)),
		wire.Bind(new(backend.Writer), new(*backend.PostgresBackend)),

		sources.NewAdapters,
		timeline.NewAggregator,
		wire.Bind(new(timeline.AggregatorInterface), new(*timeline.Aggregator)),

		cache.NewKVStore,
		notify.NewNotifier,
		changefeed.NewSubscriber,

		services.NewSessionManager,
		wire.Bind(new(services.SessionManagerInterface), new(*services.SessionManager)),

		scheduler.NewScheduler,
		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil, nil
}
