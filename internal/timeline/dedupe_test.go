package timeline

import (
	"testing"
	"time"
	"unifeed/internal/models"

	"github.com/stretchr/testify/assert"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func entry(kind models.Kind, id string, at int, dedupKey string) models.TimelineEntry {
	return models.TimelineEntry{
		ID:        id,
		Kind:      kind,
		AuthorID:  "author-" + id,
		CreatedAt: base.Add(time.Duration(at) * time.Second),
		DedupKey:  dedupKey,
	}
}

func refs(entries []models.TimelineEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Ref().String()
	}
	return out
}

func TestDedupe_RemovesActivityMirroringPost(t *testing.T) {
	in := []models.TimelineEntry{
		entry(models.KindPost, "P1", 10, ""),
		entry(models.KindActivity, "A1", 9, "X"),
		entry(models.KindPost, "P2", 9, "X"),
	}

	out := Dedupe(in)

	assert.Equal(t, []string{"post:P1", "post:P2"}, refs(out))
}

func TestDedupe_KeepsPostWhenActivityComesFirst(t *testing.T) {
	in := []models.TimelineEntry{
		entry(models.KindActivity, "A1", 9, "X"),
		entry(models.KindPost, "P2", 8, "X"),
	}

	assert.Equal(t, []string{"post:P2"}, refs(Dedupe(in)))
}

func TestDedupe_EmptyKeyNeverRemoved(t *testing.T) {
	in := []models.TimelineEntry{
		entry(models.KindPost, "P1", 10, ""),
		entry(models.KindActivity, "A1", 9, ""),
		entry(models.KindActivity, "A2", 8, ""),
	}

	assert.Len(t, Dedupe(in), 3)
}

func TestDedupe_OnlyActivityIsRemoved(t *testing.T) {
	in := []models.TimelineEntry{
		entry(models.KindPost, "P1", 10, "X"),
		entry(models.KindVideo, "V1", 9, "X"),
		entry(models.KindActivity, "A1", 8, "Y"),
	}

	assert.Equal(t, []string{"post:P1", "video:V1", "activity:A1"}, refs(Dedupe(in)))
}

func TestDedupe_DropsRepeatedRefs(t *testing.T) {
	first := entry(models.KindPost, "P1", 10, "")
	first.Payload.Text = "first"
	second := entry(models.KindPost, "P1", 9, "")
	second.Payload.Text = "second"

	out := Dedupe([]models.TimelineEntry{first, entry(models.KindPoll, "P1", 9, ""), second})

	assert.Equal(t, []string{"post:P1", "poll:P1"}, refs(out))
	assert.Equal(t, "first", out[0].Payload.Text)
}

func TestDedupe_Idempotent(t *testing.T) {
	in := []models.TimelineEntry{
		entry(models.KindPost, "P1", 10, "X"),
		entry(models.KindActivity, "A1", 9, "X"),
		entry(models.KindActivity, "A2", 9, "Z"),
		entry(models.KindPost, "P1", 8, "X"),
		entry(models.KindMovie, "M1", 7, ""),
	}

	once := Dedupe(in)
	assert.Equal(t, once, Dedupe(once))
}

func TestDedupe_Empty(t *testing.T) {
	assert.Empty(t, Dedupe(nil))
}
