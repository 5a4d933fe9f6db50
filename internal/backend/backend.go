// Package backend describes the backend data service the timeline engine reads
// from and writes to, and provides its PostgreSQL implementation.
package backend

import (
	"context"
	"unifeed/internal/models"
)

// Reader serves paged, newest-first reads per content kind and viewer state lookups.
type Reader interface {
	// FetchPage returns at most limit approved records of kind, newest first. The
	// cursor is the RFC3339Nano creation time of the last record already seen;
	// an empty cursor starts from the newest record.
	FetchPage(ctx context.Context, kind models.Kind, limit int, cursor string) ([]models.RawRecord, error)

	// FetchViewerState resolves the viewer's reaction and bookmark for each ref.
	// Refs without any state are absent from the result.
	FetchViewerState(ctx context.Context, viewerID string, refs []models.EntryRef) (map[models.EntryRef]models.ViewerState, error)
}

// Writer applies row-level changes issued by user actions.
type Writer interface {
	InsertReaction(ctx context.Context, viewerID string, ref models.EntryRef, reaction models.ReactionType) error
	DeleteReaction(ctx context.Context, viewerID string, ref models.EntryRef) error
	InsertBookmark(ctx context.Context, viewerID string, ref models.EntryRef) error
	DeleteBookmark(ctx context.Context, viewerID string, ref models.EntryRef) error
	InsertComment(ctx context.Context, comment models.Comment) error
	DeleteEntry(ctx context.Context, ref models.EntryRef) error
}

type Backend interface {
	Reader
	Writer
}
