package services

import (
	"context"
	"sync"
	"time"
	"unifeed/internal/changefeed"
	"unifeed/internal/models"
	"unifeed/internal/structures"
	"unifeed/internal/testutil"
	"unifeed/internal/timeline"
)

var (
	viewer = models.Viewer{ID: "viewer", Role: models.RoleUser}
	base   = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
)

func entries(ids ...string) []models.TimelineEntry {
	out := make([]models.TimelineEntry, len(ids))
	for i, id := range ids {
		out[i] = models.TimelineEntry{
			ID:        id,
			Kind:      models.KindPost,
			AuthorID:  "author",
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		}
	}
	return out
}

func ids(list []models.TimelineEntry) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.ID
	}
	return out
}

func result(list []models.TimelineEntry, aboveFold int) *timeline.Result {
	aboveFold = min(aboveFold, len(list))
	return &timeline.Result{Entries: list, AboveFold: list[:aboveFold], Rest: list[aboveFold:]}
}

type aggregatorCall struct {
	result *timeline.Result
	err    error
	gate   chan struct{}
}

// fakeAggregator answers calls in order from its script and repeats the last
// answer once the script runs out.
type fakeAggregator struct {
	mu     sync.Mutex
	script []aggregatorCall
	calls  int
}

func (f *fakeAggregator) push(call aggregatorCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script = append(f.script, call)
}

func (f *fakeAggregator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeAggregator) Refresh(ctx context.Context, _ models.Viewer) (*timeline.Result, error) {
	f.mu.Lock()
	i := f.calls
	f.calls++
	var call aggregatorCall
	if len(f.script) > 0 {
		call = f.script[min(i, len(f.script)-1)]
	}
	f.mu.Unlock()

	if call.gate != nil {
		select {
		case <-call.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if call.err != nil {
		return nil, call.err
	}
	if call.result == nil {
		return result(nil, 0), nil
	}
	return call.result, nil
}

type fakeSubscription struct {
	mu           sync.Mutex
	unsubscribed int
}

func (s *fakeSubscription) Unsubscribe() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsubscribed++
	return nil
}

type fakeSubscriber struct {
	mu      sync.Mutex
	handler changefeed.Handler
	sub     *fakeSubscription
	err     error
}

func (f *fakeSubscriber) Subscribe(_ context.Context, _ string, handler changefeed.Handler) (changefeed.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.handler = handler
	f.sub = &fakeSubscription{}
	return f.sub, nil
}

func (f *fakeSubscriber) emit(ev models.ChangeEvent) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	h(ev)
}

func testConfig() *structures.Config {
	return &structures.Config{
		Timeline: structures.TimelineConfig{PageLimit: 20, AboveFold: 2, SourceTimeout: time.Second},
		Cache:    structures.CacheConfig{Enabled: true, TTL: 5 * time.Minute},
		ChangeFeed: structures.ChangeFeedConfig{
			Transport:   "none",
			QuietPeriod: 10 * time.Millisecond,
			Cooldown:    0,
		},
	}
}

type sessionFixture struct {
	conf       *structures.Config
	aggregator *fakeAggregator
	backend    *testutil.MockBackend
	store      *testutil.MockKVStore
	notifier   *testutil.MockNotifier
	subscriber *fakeSubscriber
	metrics    *testutil.MockMetrics
	logger     *testutil.MockLogger
}

func newSessionFixture() *sessionFixture {
	return &sessionFixture{
		conf:       testConfig(),
		aggregator: &fakeAggregator{},
		backend:    testutil.NewMockBackend(),
		store:      testutil.NewMockKVStore(),
		notifier:   &testutil.MockNotifier{},
		subscriber: &fakeSubscriber{},
		metrics:    testutil.NewMockMetrics(),
		logger:     &testutil.MockLogger{},
	}
}

func (f *sessionFixture) deps() SessionDeps {
	return SessionDeps{
		Aggregator: f.aggregator,
		Writer:     f.backend,
		Store:      f.store,
		Notifier:   f.notifier,
		Subscriber: f.subscriber,
		Clock:      changefeed.RealClock(),
		Metrics:    f.metrics,
		Logger:     f.logger,
	}
}

func (f *sessionFixture) session() *Session {
	return NewSession(f.conf, viewer, f.deps())
}

func (f *sessionFixture) manager() *SessionManager {
	return NewSessionManager(f.conf, NewSessionRegistry(), f.aggregator, f.backend, f.store, f.notifier, f.subscriber, f.metrics, f.logger)
}
