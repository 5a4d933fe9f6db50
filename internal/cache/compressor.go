package cache

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// maxSnapshotBytes bounds a decompressed snapshot file.
const maxSnapshotBytes = 16 << 20

type Compressor interface {
	Compress(val []byte) ([]byte, error)
	Decompress(val []byte) ([]byte, error)
	Close()
}

// zstdCodec compresses timeline snapshots for the file store. Snapshots are
// written after every refresh, so encoding favours speed over ratio.
type zstdCodec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func (z *zstdCodec) Compress(val []byte) ([]byte, error) {
	if len(val) > maxSnapshotBytes {
		return nil, fmt.Errorf("snapshot of %d bytes exceeds %d", len(val), maxSnapshotBytes)
	}
	return z.encoder.EncodeAll(val, make([]byte, 0, len(val)/4)), nil
}

func (z *zstdCodec) Decompress(val []byte) ([]byte, error) {
	out, err := z.decoder.DecodeAll(val, nil)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return out, nil
}

func (z *zstdCodec) Close() {
	_ = z.encoder.Close()
	z.decoder.Close()
}

func NewZstdCompressor() (Compressor, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(0),
		zstd.WithDecoderMaxMemory(maxSnapshotBytes),
	)
	if err != nil {
		_ = encoder.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &zstdCodec{encoder: encoder, decoder: decoder}, nil
}
