package timeline

import (
	"sync"
	"testing"
	"unifeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded() *Timeline {
	tl := NewTimeline()
	tl.Replace(1, []models.TimelineEntry{
		entry(models.KindPost, "P1", 10, ""),
		entry(models.KindPoll, "Q1", 9, ""),
		entry(models.KindPost, "P2", 8, ""),
	}, 2)
	return tl
}

func TestTimeline_ReplaceDiscardsStaleToken(t *testing.T) {
	tl := seeded()

	applied := tl.Replace(3, []models.TimelineEntry{entry(models.KindPost, "new", 20, "")}, 8)
	require.True(t, applied)

	stale := tl.Replace(2, []models.TimelineEntry{entry(models.KindPost, "old", 1, "")}, 8)
	assert.False(t, stale)
	assert.Equal(t, []string{"post:new"}, refs(tl.Snapshot()))
	assert.Equal(t, uint64(3), tl.Applied())
}

func TestTimeline_ZeroTokenPaintsWithoutAdvancing(t *testing.T) {
	tl := NewTimeline()

	assert.True(t, tl.Replace(0, []models.TimelineEntry{entry(models.KindPost, "cached", 1, "")}, 8))
	assert.Equal(t, uint64(0), tl.Applied())
	assert.True(t, tl.Replace(1, nil, 8))
	assert.Equal(t, 0, tl.Len())
}

func TestTimeline_AboveFoldClamped(t *testing.T) {
	tl := NewTimeline()
	tl.Replace(1, []models.TimelineEntry{entry(models.KindPost, "a", 1, "")}, 8)
	assert.Equal(t, 1, tl.AboveFold())
}

func TestTimeline_GetReturnsCopy(t *testing.T) {
	tl := seeded()
	ref := models.EntryRef{Kind: models.KindPost, ID: "P1"}

	e, ok := tl.Get(ref)
	require.True(t, ok)
	e.Interaction.ReactionsCount = 99

	again, _ := tl.Get(ref)
	assert.Equal(t, 0, again.Interaction.ReactionsCount)

	_, ok = tl.Get(models.EntryRef{Kind: models.KindVideo, ID: "P1"})
	assert.False(t, ok)
}

func TestTimeline_UpdateNotifies(t *testing.T) {
	tl := seeded()
	var got []models.TimelineEntry
	unsubscribe := tl.OnChanged(func(entries []models.TimelineEntry) { got = entries })

	ok := tl.Update(models.EntryRef{Kind: models.KindPoll, ID: "Q1"}, func(e *models.TimelineEntry) {
		e.Interaction.CommentsCount = 5
	})
	require.True(t, ok)
	require.Len(t, got, 3)
	assert.Equal(t, 5, got[1].Interaction.CommentsCount)

	unsubscribe()
	got = nil
	tl.Update(models.EntryRef{Kind: models.KindPoll, ID: "Q1"}, func(e *models.TimelineEntry) {})
	assert.Nil(t, got)
}

func TestTimeline_UpdateMissing(t *testing.T) {
	tl := seeded()
	called := false
	tl.OnChanged(func([]models.TimelineEntry) { called = true })

	ok := tl.Update(models.EntryRef{Kind: models.KindPost, ID: "missing"}, func(e *models.TimelineEntry) {})

	assert.False(t, ok)
	assert.False(t, called)
}

func TestTimeline_Remove(t *testing.T) {
	tl := seeded()

	removed, ok := tl.Remove(models.EntryRef{Kind: models.KindPost, ID: "P1"})
	require.True(t, ok)
	assert.Equal(t, "P1", removed.ID)
	assert.Equal(t, []string{"poll:Q1", "post:P2"}, refs(tl.Snapshot()))
	assert.Equal(t, 1, tl.AboveFold())

	_, ok = tl.Remove(models.EntryRef{Kind: models.KindPost, ID: "P1"})
	assert.False(t, ok)
}

func TestTimeline_SnapshotIsIsolated(t *testing.T) {
	tl := seeded()
	snap := tl.Snapshot()
	snap[0].ID = "tampered"

	assert.Equal(t, "P1", tl.Snapshot()[0].ID)
}

func TestTimeline_ConcurrentAccess(t *testing.T) {
	tl := seeded()
	ref := models.EntryRef{Kind: models.KindPost, ID: "P2"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			tl.Update(ref, func(e *models.TimelineEntry) { e.Interaction.ReactionsCount++ })
		}()
		go func() {
			defer wg.Done()
			_ = tl.Snapshot()
		}()
	}
	wg.Wait()

	e, _ := tl.Get(ref)
	assert.Equal(t, 50, e.Interaction.ReactionsCount)
}
