// Package timeline merges the per-kind sources into one ordered feed and holds
// the in-memory timeline a viewing session renders.
package timeline

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unifeed/internal/backend"
	"unifeed/internal/models"
	"unifeed/internal/providers"
	"unifeed/internal/sources"
	"unifeed/internal/structures"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultPageLimit     = 20
	DefaultAboveFold     = 8
	DefaultSourceTimeout = 8 * time.Second
)

// Result is one merged, ordered feed. AboveFold and Rest are consecutive
// sub-slices of Entries.
type Result struct {
	Entries     []models.TimelineEntry
	AboveFold   []models.TimelineEntry
	Rest        []models.TimelineEntry
	FailedKinds []models.Kind
}

type AggregatorInterface interface {
	Refresh(ctx context.Context, viewer models.Viewer) (*Result, error)
}

type Aggregator struct {
	adapters      []sources.Adapter
	reader        backend.Reader
	pageLimit     int
	aboveFold     int
	sourceTimeout time.Duration
	metrics       providers.MetricsProviderInterface
	logger        providers.Logger
}

func NewAggregator(conf *structures.Config, adapters []sources.Adapter, reader backend.Reader, metrics providers.MetricsProviderInterface, logger providers.Logger) *Aggregator {
	a := &Aggregator{
		adapters:      adapters,
		reader:        reader,
		pageLimit:     conf.Timeline.PageLimit,
		aboveFold:     conf.Timeline.AboveFold,
		sourceTimeout: conf.Timeline.SourceTimeout,
		metrics:       metrics,
		logger:        logger,
	}
	if a.pageLimit <= 0 {
		a.pageLimit = DefaultPageLimit
	}
	if a.aboveFold <= 0 {
		a.aboveFold = DefaultAboveFold
	}
	if a.sourceTimeout <= 0 {
		a.sourceTimeout = DefaultSourceTimeout
	}
	return a
}

type sourcePage struct {
	entries []models.TimelineEntry
	err     error
}

// Refresh fetches every source concurrently, merges, dedupes and orders the
// result, then resolves viewer state for the above-the-fold entries before the
// rest. Failed sources contribute nothing; only when all of them fail does
// Refresh return models.ErrFeedUnavailable.
func (a *Aggregator) Refresh(ctx context.Context, viewer models.Viewer) (*Result, error) {
	start := time.Now()
	pages := make([]sourcePage, len(a.adapters))

	g, gctx := errgroup.WithContext(ctx)
	for i, adapter := range a.adapters {
		i, adapter := i, adapter
		g.Go(func() error {
			pages[i] = a.fetch(gctx, adapter)
			return nil // a failed source never aborts the others
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	merged := make([]models.TimelineEntry, 0, len(a.adapters)*a.pageLimit)
	var (
		failed []models.Kind
		errs   []error
	)
	for i, page := range pages {
		if page.err != nil {
			kind := a.adapters[i].Kind()
			failed = append(failed, kind)
			errs = append(errs, page.err)
			a.metrics.IncSourceFailures(string(kind))
			a.logger.Warnf(providers.TypeFeed, "Source %s failed: %v", kind, page.err)
			continue
		}
		merged = append(merged, page.entries...)
	}

	if len(a.adapters) > 0 && len(failed) == len(a.adapters) {
		a.logger.Errorf(providers.TypeFeed, "All %d sources failed", len(failed))
		return nil, fmt.Errorf("%w: %w", models.ErrFeedUnavailable, errors.Join(errs...))
	}

	ordered := Order(Dedupe(merged))
	split := min(a.aboveFold, len(ordered))
	result := &Result{
		Entries:     ordered,
		AboveFold:   ordered[:split],
		Rest:        ordered[split:],
		FailedKinds: failed,
	}

	if viewer.ID != "" {
		a.resolveViewerState(ctx, viewer, result.AboveFold)
		a.resolveViewerState(ctx, viewer, result.Rest)
	}

	a.recordCounts(ordered)
	a.metrics.ObserveRefreshDuration(time.Since(start))
	a.logger.Debugf(providers.TypeFeed, "Refreshed timeline for %s: %d entries, %d failed sources in %s",
		viewer.ID, len(ordered), len(failed), time.Since(start))
	return result, nil
}

func (a *Aggregator) fetch(ctx context.Context, adapter sources.Adapter) sourcePage {
	ctx, cancel := context.WithTimeout(ctx, a.sourceTimeout)
	defer cancel()

	records, err := adapter.FetchPage(ctx, a.pageLimit, "")
	if err != nil {
		return sourcePage{err: err}
	}
	entries := make([]models.TimelineEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, adapter.ToTimelineEntry(rec))
	}
	return sourcePage{entries: entries}
}

// resolveViewerState writes the viewer's reaction and bookmark into entries in
// place. A lookup failure leaves the defaults.
func (a *Aggregator) resolveViewerState(ctx context.Context, viewer models.Viewer, entries []models.TimelineEntry) {
	if len(entries) == 0 {
		return
	}
	refs := make([]models.EntryRef, len(entries))
	for i := range entries {
		refs[i] = entries[i].Ref()
	}

	states, err := a.reader.FetchViewerState(ctx, viewer.ID, refs)
	if err != nil {
		a.logger.Warnf(providers.TypeFeed, "Viewer state lookup for %s failed: %v", viewer.ID, err)
		return
	}
	for i := range entries {
		st, ok := states[refs[i]]
		if !ok {
			continue
		}
		if st.Reaction != nil {
			entries[i].Interaction.ViewerReaction = st.Reaction.Ptr()
		}
		entries[i].Interaction.ViewerBookmarked = st.Bookmarked
	}
}

func (a *Aggregator) recordCounts(entries []models.TimelineEntry) {
	counts := make(map[models.Kind]int, len(models.AllKinds))
	for _, e := range entries {
		counts[e.Kind]++
	}
	for _, kind := range models.AllKinds {
		a.metrics.SetEntriesTotal(string(kind), counts[kind])
	}
}
