package models

import "time"

// RawRecord is a row as returned by the backend for one content kind. Columns that
// only exist for some kinds travel in Attributes.
type RawRecord struct {
	Kind           Kind
	ID             string
	AuthorID       string
	CreatedAt      time.Time
	Text           string
	Title          string
	MediaURL       string
	ThumbnailURL   string
	Pinned         bool
	Approved       bool
	ReactionsCount int
	CommentsCount  int
	SharesCount    int
	Attributes     map[string]any
}

// StringAttr returns Attributes[key] when it holds a string.
func (r RawRecord) StringAttr(key string) string {
	if r.Attributes == nil {
		return ""
	}
	if s, ok := r.Attributes[key].(string); ok {
		return s
	}
	return ""
}
