package timeline

import (
	"math/rand"
	"testing"
	"unifeed/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestOrder_NewestFirstWithIDTieBreak(t *testing.T) {
	in := []models.TimelineEntry{
		entry(models.KindPost, "b", 5, ""),
		entry(models.KindPost, "c", 9, ""),
		entry(models.KindPoll, "a", 5, ""),
		entry(models.KindVideo, "a", 5, ""),
	}

	out := Order(in)

	assert.Equal(t, []string{"post:c", "poll:a", "video:a", "post:b"}, refs(out))
}

func TestOrder_DedupScenario(t *testing.T) {
	in := []models.TimelineEntry{
		entry(models.KindPost, "P1", 10, ""),
		entry(models.KindActivity, "A1", 9, "X"),
		entry(models.KindPost, "P2", 9, "X"),
	}

	assert.Equal(t, []string{"post:P1", "post:P2"}, refs(Order(Dedupe(in))))
}

func TestOrder_Deterministic(t *testing.T) {
	in := []models.TimelineEntry{
		entry(models.KindPost, "1", 3, ""),
		entry(models.KindPoll, "1", 3, ""),
		entry(models.KindMovie, "2", 3, ""),
		entry(models.KindReshare, "9", 1, ""),
		entry(models.KindActivity, "4", 7, ""),
		entry(models.KindVideo, "3", 7, ""),
	}
	want := refs(Order(in))

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]models.TimelineEntry(nil), in...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, refs(Order(shuffled)))
	}
}

func TestOrder_PinnedLiftedOncePerKind(t *testing.T) {
	oldPinnedPost := entry(models.KindPost, "p-old", 1, "")
	oldPinnedPost.Payload.Pinned = true
	newPinnedPost := entry(models.KindPost, "p-new", 5, "")
	newPinnedPost.Payload.Pinned = true
	pinnedPoll := entry(models.KindPoll, "q", 2, "")
	pinnedPoll.Payload.Pinned = true

	in := []models.TimelineEntry{
		entry(models.KindPost, "fresh", 10, ""),
		oldPinnedPost,
		pinnedPoll,
		newPinnedPost,
	}

	out := Order(in)

	assert.Equal(t, []string{"post:p-new", "poll:q", "post:fresh", "post:p-old"}, refs(out))
}

func TestOrder_NonIncreasingAfterPinnedHead(t *testing.T) {
	pinned := entry(models.KindVideo, "v", 0, "")
	pinned.Payload.Pinned = true
	in := []models.TimelineEntry{
		entry(models.KindPost, "a", 4, ""),
		pinned,
		entry(models.KindPost, "b", 8, ""),
		entry(models.KindMovie, "c", 6, ""),
	}

	out := Order(in)[1:]
	for i := 1; i < len(out); i++ {
		assert.False(t, out[i].CreatedAt.After(out[i-1].CreatedAt))
	}
}

func TestOrder_DoesNotMutateInput(t *testing.T) {
	in := []models.TimelineEntry{
		entry(models.KindPost, "a", 1, ""),
		entry(models.KindPost, "b", 2, ""),
	}

	_ = Order(in)

	assert.Equal(t, []string{"post:a", "post:b"}, refs(in))
}
