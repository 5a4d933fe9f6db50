package cache

import (
	"bytes"
	"testing"
	"time"
	"unifeed/internal/models"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCodec(t *testing.T) Compressor {
	t.Helper()
	c, err := NewZstdCompressor()
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestZstdCodec_SnapshotRoundTrip(t *testing.T) {
	c := newCodec(t)

	entries := make([]models.TimelineEntry, 0, 50)
	for i := 0; i < 50; i++ {
		entries = append(entries, models.TimelineEntry{
			ID:        string(rune('a' + i%26)),
			Kind:      models.KindPost,
			AuthorID:  "author",
			CreatedAt: time.Date(2024, 5, 1, 10, i, 0, 0, time.UTC),
			Payload:   models.Payload{Text: "same text in every post"},
		})
	}
	original, err := json.Marshal(models.CacheSnapshot{Entries: entries, CapturedAt: time.Now()})
	require.NoError(t, err)

	compressed, err := c.Compress(original)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(original)/2, "repeated snapshot fields compress well")

	decompressed, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, original, decompressed)
}

func TestZstdCodec_Empty(t *testing.T) {
	c := newCodec(t)

	compressed, err := c.Compress(nil)
	require.NoError(t, err)

	decompressed, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Empty(t, decompressed)
}

func TestZstdCodec_RejectsOversizedSnapshot(t *testing.T) {
	c := newCodec(t)

	_, err := c.Compress(make([]byte, maxSnapshotBytes+1))
	assert.Error(t, err)
}

func TestZstdCodec_DecodeBoundedByMaxMemory(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	bomb := enc.EncodeAll(bytes.Repeat([]byte{0}, maxSnapshotBytes+1024), nil)
	require.NoError(t, enc.Close())

	_, err = newCodec(t).Decompress(bomb)
	assert.Error(t, err)
}

func TestZstdCodec_DecompressInvalidData(t *testing.T) {
	_, err := newCodec(t).Decompress([]byte("not a snapshot"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode snapshot")
}
