package cache

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"unifeed/internal/providers"
)

// FileStore keeps one zstd-compressed file per key. Each write goes to its own
// temp file that is synced and renamed over the target, so concurrent writers
// of one key never share a partial file.
type FileStore struct {
	dir        string
	compressor Compressor
	logger     providers.Logger
}

func NewFileStore(dir string, compressor Compressor, logger providers.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("store dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{dir: dir, compressor: compressor, logger: logger}, nil
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+".zst")
}

func (f *FileStore) Get(key string) (string, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}

	decompressed, err := f.compressor.Decompress(data)
	if err != nil {
		return "", false, fmt.Errorf("decompress %s: %w", key, err)
	}
	return string(decompressed), true, nil
}

func (f *FileStore) Set(key, value string) error {
	data, err := f.compressor.Compress([]byte(value))
	if err != nil {
		return err
	}

	fileName := f.path(key)
	file, err := os.CreateTemp(f.dir, filepath.Base(fileName)+".*.tmp")
	if err != nil {
		return err
	}
	tmpFile := file.Name()

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	if err = os.Rename(tmpFile, fileName); err != nil {
		os.Remove(tmpFile)
		return err
	}
	f.logger.Debugf(providers.TypeCache, "Wrote %d bytes to %s", len(data), fileName)
	return nil
}

func (f *FileStore) Close() error {
	f.compressor.Close()
	return nil
}
