package sources

import (
	"fmt"
	"unifeed/internal/models"
)

// ActivityAlbumPhoto is the only activity type mirrored from a photo post.
const ActivityAlbumPhoto = "album_photo"

var mappers = map[models.Kind]func(models.RawRecord) models.TimelineEntry{
	models.KindPost:     mapPost,
	models.KindPoll:     mapPoll,
	models.KindActivity: mapActivity,
	models.KindVideo:    mapVideo,
	models.KindMovie:    mapMovie,
	models.KindReshare:  mapReshare,
}

// baseEntry copies the columns every kind shares. String attributes land in Meta.
func baseEntry(kind models.Kind, raw models.RawRecord) models.TimelineEntry {
	entry := models.TimelineEntry{
		ID:        raw.ID,
		Kind:      kind,
		AuthorID:  raw.AuthorID,
		CreatedAt: raw.CreatedAt.UTC(),
		Payload: models.Payload{
			Text:     raw.Text,
			Title:    raw.Title,
			MediaURL: raw.MediaURL,
			Pinned:   raw.Pinned,
		},
		Interaction: models.Interaction{
			ReactionsCount: clamp(raw.ReactionsCount),
			CommentsCount:  clamp(raw.CommentsCount),
			SharesCount:    clamp(raw.SharesCount),
		},
	}
	for key, value := range raw.Attributes {
		if s, ok := value.(string); ok && s != "" {
			setMeta(&entry, key, s)
		}
	}
	return entry
}

func mapPost(raw models.RawRecord) models.TimelineEntry {
	entry := baseEntry(models.KindPost, raw)
	entry.DedupKey = NormalizeMediaURL(raw.MediaURL)
	return entry
}

func mapPoll(raw models.RawRecord) models.TimelineEntry {
	entry := baseEntry(models.KindPoll, raw)
	if opts, ok := raw.Attributes["options"].([]any); ok {
		for _, opt := range opts {
			if s, ok := opt.(string); ok {
				entry.Payload.Options = append(entry.Payload.Options, s)
			}
		}
	}
	return entry
}

func mapActivity(raw models.RawRecord) models.TimelineEntry {
	entry := baseEntry(models.KindActivity, raw)
	if raw.StringAttr("activity_type") == ActivityAlbumPhoto {
		entry.DedupKey = NormalizeMediaURL(raw.MediaURL)
	}
	return entry
}

func mapVideo(raw models.RawRecord) models.TimelineEntry {
	entry := baseEntry(models.KindVideo, raw)
	entry.Payload.ThumbnailURL = raw.ThumbnailURL
	return entry
}

func mapMovie(raw models.RawRecord) models.TimelineEntry {
	entry := baseEntry(models.KindMovie, raw)
	entry.Payload.ThumbnailURL = raw.ThumbnailURL
	if year, ok := raw.Attributes["release_year"]; ok && year != nil {
		setMeta(&entry, "release_year", fmt.Sprint(year))
	}
	return entry
}

func mapReshare(raw models.RawRecord) models.TimelineEntry {
	return baseEntry(models.KindReshare, raw)
}

func setMeta(entry *models.TimelineEntry, key, value string) {
	if entry.Payload.Meta == nil {
		entry.Payload.Meta = make(map[string]string)
	}
	entry.Payload.Meta[key] = value
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
