package scheduler

import (
	"context"
	"sync"
	"time"
	"unifeed/internal/providers"
	"unifeed/internal/services"
	"unifeed/internal/structures"

	"github.com/roylee0704/gron"
	"golang.org/x/sync/errgroup"
)

const (
	refreshParallelism = 4
	refreshTimeout     = 30 * time.Second
)

type SchedulerInterface interface {
	Init()
	Stop()
	RefreshAll(ctx context.Context)
}

// Scheduler periodically refreshes every open session.
type Scheduler struct {
	config   *structures.Config
	logger   providers.Logger
	sessions services.SessionManagerInterface
	cron     *gron.Cron
	opsMu    sync.Mutex
}

func (s *Scheduler) Init() {
	interval := s.config.Scheduler.RefreshInterval
	if interval <= 0 {
		s.logger.Infof(providers.TypeApp, "Periodic refresh disabled")
		return
	}

	s.cron = gron.New()
	s.cron.AddFunc(gron.Every(interval), func() { s.RefreshAll(context.Background()) })
	s.cron.Start()
	s.logger.Infof(providers.TypeApp, "Refreshing open sessions every %s", interval)
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// RefreshAll refreshes open sessions a few at a time, each bounded by
// refreshTimeout under ctx. Runs never overlap; a failed refresh is logged and
// leaves that session's timeline as it was.
func (s *Scheduler) RefreshAll(ctx context.Context) {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	var g errgroup.Group
	g.SetLimit(refreshParallelism)
	count := 0
	s.sessions.Each(func(session *services.Session) {
		count++
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
			defer cancel()
			if err := session.Refresh(ctx); err != nil {
				s.logger.Warnf(providers.TypeFeed, "Scheduled refresh for %s failed: %v", session.Viewer().ID, err)
			}
			return nil
		})
	})
	_ = g.Wait()
	if count > 0 {
		s.logger.Debugf(providers.TypeFeed, "Scheduled refresh of %d sessions done", count)
	}
}

func NewScheduler(config *structures.Config, logger providers.Logger, sessions services.SessionManagerInterface) SchedulerInterface {
	return &Scheduler{
		config:   config,
		logger:   logger,
		sessions: sessions,
	}
}
