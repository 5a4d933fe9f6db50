// Package sources holds one ContentSource adapter per content kind. An adapter
// fetches a bounded newest-first page of its kind and maps raw rows onto the
// common TimelineEntry shape.
package sources

import (
	"context"
	"fmt"
	"unifeed/internal/backend"
	"unifeed/internal/models"
)

type Adapter interface {
	Kind() models.Kind
	// FetchPage fails with a *models.SourceError on any backend failure.
	FetchPage(ctx context.Context, limit int, cursor string) ([]models.RawRecord, error)
	// ToTimelineEntry is a pure mapping with no side effects.
	ToTimelineEntry(raw models.RawRecord) models.TimelineEntry
}

type kindAdapter struct {
	kind   models.Kind
	reader backend.Reader
	mapper func(models.RawRecord) models.TimelineEntry
}

// NewAdapter returns the adapter for kind.
func NewAdapter(kind models.Kind, reader backend.Reader) (Adapter, error) {
	mapper, ok := mappers[kind]
	if !ok {
		return nil, fmt.Errorf("no adapter for kind %q", kind)
	}
	return &kindAdapter{kind: kind, reader: reader, mapper: mapper}, nil
}

// NewAdapters returns one adapter per kind in models.AllKinds order.
func NewAdapters(reader backend.Reader) []Adapter {
	adapters := make([]Adapter, 0, len(models.AllKinds))
	for _, kind := range models.AllKinds {
		adapters = append(adapters, &kindAdapter{kind: kind, reader: reader, mapper: mappers[kind]})
	}
	return adapters
}

func (a *kindAdapter) Kind() models.Kind {
	return a.kind
}

func (a *kindAdapter) FetchPage(ctx context.Context, limit int, cursor string) ([]models.RawRecord, error) {
	records, err := a.reader.FetchPage(ctx, a.kind, limit, cursor)
	if err != nil {
		return nil, &models.SourceError{Kind: a.kind, Err: err}
	}

	approved := records[:0]
	for _, rec := range records {
		if !rec.Approved {
			continue
		}
		rec.Kind = a.kind
		approved = append(approved, rec)
	}
	return approved, nil
}

func (a *kindAdapter) ToTimelineEntry(raw models.RawRecord) models.TimelineEntry {
	return a.mapper(raw)
}
