package changefeed

import (
	"context"
	"fmt"
	"sync"
	"unifeed/internal/models"
	"unifeed/internal/providers"
	"unifeed/internal/structures"
	"unifeed/internal/timeline"
)

// Listener turns change events on the primary table into timeline edits: inserts
// schedule a debounced refresh, hides and deletes remove the entry right away.
type Listener struct {
	subscriber Subscriber
	tl         *timeline.Timeline
	debouncer  *Debouncer
	metrics    providers.MetricsProviderInterface
	logger     providers.Logger

	mu     sync.Mutex
	sub    Subscription
	closed bool
}

func NewListener(conf *structures.Config, subscriber Subscriber, tl *timeline.Timeline, refresh func(), clock Clock, metrics providers.MetricsProviderInterface, logger providers.Logger) *Listener {
	l := &Listener{
		subscriber: subscriber,
		tl:         tl,
		metrics:    metrics,
		logger:     logger,
	}
	l.debouncer = NewDebouncer(clock, conf.ChangeFeed.QuietPeriod, conf.ChangeFeed.Cooldown, func() {
		logger.Debugf(providers.TypeChangeFeed, "Debounced refresh fired")
		refresh()
	})
	l.debouncer.OnSuppressed(func() {
		metrics.IncRefreshSuppressed()
		logger.Debugf(providers.TypeChangeFeed, "Refresh suppressed by cooldown")
	})
	return l
}

func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return fmt.Errorf("listener closed")
	}
	if l.sub != nil {
		return nil
	}
	sub, err := l.subscriber.Subscribe(ctx, PrimaryTable, l.Handle)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", PrimaryTable, err)
	}
	l.sub = sub
	return nil
}

func (l *Listener) Handle(ev models.ChangeEvent) {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return
	}

	l.metrics.IncChangeEvents(string(ev.Op))
	ref := models.EntryRef{Kind: models.PrimaryKind, ID: ev.ID}

	switch ev.Op {
	case models.ChangeInsert:
		l.debouncer.Trigger()
	case models.ChangeUpdate:
		if ev.Hidden() {
			l.remove(ref)
		}
	case models.ChangeDelete:
		l.remove(ref)
	default:
		l.logger.Debugf(providers.TypeChangeFeed, "Ignoring change op %q", ev.Op)
	}
}

func (l *Listener) remove(ref models.EntryRef) {
	if _, ok := l.tl.Remove(ref); ok {
		l.logger.Debugf(providers.TypeChangeFeed, "Removed %s after change event", ref)
	}
}

func (l *Listener) Debouncer() *Debouncer {
	return l.debouncer
}

// Close unsubscribes and stops the debouncer. Calling it again is a no-op.
func (l *Listener) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	sub := l.sub
	l.sub = nil
	l.mu.Unlock()

	l.debouncer.Stop()
	if sub != nil {
		if err := sub.Unsubscribe(); err != nil {
			return fmt.Errorf("unsubscribe %s: %w", PrimaryTable, err)
		}
	}
	return nil
}
