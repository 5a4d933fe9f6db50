package services

import (
	"context"
	"errors"
	"sync"
	"time"
	"unifeed/internal/backend"
	"unifeed/internal/cache"
	"unifeed/internal/changefeed"
	"unifeed/internal/models"
	"unifeed/internal/mutations"
	"unifeed/internal/notify"
	"unifeed/internal/providers"
	"unifeed/internal/structures"
	"unifeed/internal/timeline"

	"go.uber.org/atomic"
)

const backgroundRefreshTimeout = 30 * time.Second

var errSessionClosed = errors.New("session closed")

// SessionDeps are the shared collaborators every session is built from.
type SessionDeps struct {
	Aggregator timeline.AggregatorInterface
	Writer     backend.Writer
	Store      cache.KVStore
	Notifier   notify.Notifier
	Subscriber changefeed.Subscriber
	Clock      changefeed.Clock
	Metrics    providers.MetricsProviderInterface
	Logger     providers.Logger
}

// Session is one viewer's timeline together with the machinery that keeps it
// current: the aggregator for refreshes, the coordinator for mutations, the
// local cache for instant paint and the change-feed listener.
type Session struct {
	viewer      models.Viewer
	aboveFold   int
	timeline    *timeline.Timeline
	aggregator  timeline.AggregatorInterface
	coordinator mutations.CoordinatorInterface
	cache       *cache.LocalCache
	listener    *changefeed.Listener
	logger      providers.Logger

	tokens        atomic.Uint64
	lastRefreshed atomic.Time
	openedAt      time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
	closed  bool

	// saveMu orders snapshot writes so an older refresh never lands over a newer one.
	saveMu sync.Mutex
}

func NewSession(conf *structures.Config, viewer models.Viewer, deps SessionDeps) *Session {
	tl := timeline.NewTimeline()
	ctx, cancel := context.WithCancel(context.Background())

	aboveFold := conf.Timeline.AboveFold
	if aboveFold <= 0 {
		aboveFold = timeline.DefaultAboveFold
	}
	clock := deps.Clock
	if clock == nil {
		clock = changefeed.RealClock()
	}

	s := &Session{
		viewer:      viewer,
		aboveFold:   aboveFold,
		timeline:    tl,
		aggregator:  deps.Aggregator,
		coordinator: mutations.NewCoordinator(tl, deps.Writer, deps.Notifier, deps.Metrics, deps.Logger),
		cache:       cache.NewLocalCache(conf, deps.Store, viewer.ID, deps.Metrics, deps.Logger),
		logger:      deps.Logger,
		openedAt:    time.Now(),
		ctx:         ctx,
		cancel:      cancel,
	}
	s.listener = changefeed.NewListener(conf, deps.Subscriber, tl, s.RefreshAsync, clock, deps.Metrics, deps.Logger)
	return s
}

// Start paints the cached snapshot, if any is still fresh, and subscribes to
// the change feed. The cache is consulted exactly once per session.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errSessionClosed
	}
	if s.started {
		return nil
	}
	s.started = true

	if snapshot, ok := s.cache.Load(); ok {
		s.timeline.Replace(0, snapshot.Entries, min(s.aboveFold, len(snapshot.Entries)))
		s.logger.Debugf(providers.TypeFeed, "Painted %d cached entries for %s", len(snapshot.Entries), s.viewer.ID)
	}
	return s.listener.Start(s.ctx)
}

func (s *Session) Viewer() models.Viewer {
	return s.viewer
}

func (s *Session) GetTimeline() []models.TimelineEntry {
	return s.timeline.Snapshot()
}

func (s *Session) AboveFold() int {
	return s.timeline.AboveFold()
}

func (s *Session) LastRefreshed() time.Time {
	return s.lastRefreshed.Load()
}

func (s *Session) OpenedAt() time.Time {
	return s.openedAt
}

// Refresh rebuilds the timeline from every source. A refresh that completes
// after a newer one has already been applied is discarded silently. When all
// sources fail the previous timeline stays in place and
// models.ErrFeedUnavailable is returned.
func (s *Session) Refresh(ctx context.Context) error {
	return s.refresh(ctx, s.tokens.Inc())
}

// refresh applies the aggregator result under token. Tokens are issued when a
// refresh is requested, so request order decides which result is newest.
func (s *Session) refresh(ctx context.Context, token uint64) error {
	result, err := s.aggregator.Refresh(ctx, s.viewer)
	if err != nil {
		return err
	}
	if !s.timeline.Replace(token, result.Entries, len(result.AboveFold)) {
		s.logger.Debugf(providers.TypeFeed, "Discarded stale refresh %d for %s", token, s.viewer.ID)
		return nil
	}
	s.lastRefreshed.Store(time.Now())

	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if token < s.timeline.Applied() {
		s.logger.Debugf(providers.TypeCache, "Skipped snapshot for superseded refresh %d for %s", token, s.viewer.ID)
		return nil
	}
	s.cache.Save(result.Entries)
	return nil
}

// RefreshAsync runs Refresh in the background, bound to the session lifetime.
func (s *Session) RefreshAsync() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	token := s.tokens.Inc()
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(s.ctx, backgroundRefreshTimeout)
		defer cancel()
		if err := s.refresh(ctx, token); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warnf(providers.TypeFeed, "Background refresh for %s failed: %v", s.viewer.ID, err)
		}
	}()
}

func (s *Session) ToggleReaction(ctx context.Context, ref models.EntryRef, reaction models.ReactionType) error {
	return s.coordinator.ToggleReaction(ctx, s.viewer, ref, reaction)
}

func (s *Session) ToggleBookmark(ctx context.Context, ref models.EntryRef) error {
	return s.coordinator.ToggleBookmark(ctx, s.viewer, ref)
}

func (s *Session) AddComment(ctx context.Context, ref models.EntryRef, text string) error {
	return s.coordinator.AddComment(ctx, s.viewer, ref, text)
}

func (s *Session) DeleteEntry(ctx context.Context, ref models.EntryRef) error {
	return s.coordinator.DeleteEntry(ctx, s.viewer, ref)
}

// OnTimelineChanged registers cb for every timeline change and returns its
// unsubscribe function.
func (s *Session) OnTimelineChanged(cb func([]models.TimelineEntry)) func() {
	return s.timeline.OnChanged(cb)
}

// Close tears down the change-feed listener and waits for background
// refreshes to stop. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if err := s.listener.Close(); err != nil {
		s.logger.Warnf(providers.TypeChangeFeed, "Closing listener for %s: %v", s.viewer.ID, err)
	}
	s.cancel()
	s.wg.Wait()
}
