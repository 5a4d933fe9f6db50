package models

import (
	"time"

	json "github.com/goccy/go-json"
)

// CacheSnapshot is the persisted copy of the last rendered timeline.
type CacheSnapshot struct {
	Entries    []TimelineEntry
	CapturedAt time.Time
}

type cacheSnapshotWire struct {
	Entries    []TimelineEntry `json:"entries"`
	CapturedAt int64           `json:"capturedAt"`
}

// MarshalJSON stores capturedAt as unix milliseconds.
func (s CacheSnapshot) MarshalJSON() ([]byte, error) {
	entries := s.Entries
	if entries == nil {
		entries = []TimelineEntry{}
	}
	return json.Marshal(cacheSnapshotWire{
		Entries:    entries,
		CapturedAt: s.CapturedAt.UnixMilli(),
	})
}

func (s *CacheSnapshot) UnmarshalJSON(data []byte) error {
	var w cacheSnapshotWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.Entries = w.Entries
	s.CapturedAt = time.UnixMilli(w.CapturedAt)
	return nil
}

func (s CacheSnapshot) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.CapturedAt) > ttl
}
