package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glyphlabs/glyph/internal/fileutil"
)

// ErrCorruptCache indicates the cache file is malformed JSON.
var ErrCorruptCache = errors.New("cache file is corrupted")

// FileStorage persists a StatusCache as a JSON file.
type FileStorage struct {
	path string
}

// NewFileStorage creates a new file-based cache storage.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Save writes the cache atomically, creating parent directories as needed.
func (s *FileStorage) Save(cache *StatusCache) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}

	if err := fileutil.WriteAtomic(s.path, data, 0o640); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	return nil
}

// Load reads the cache, returning an empty cache when the file does not
// exist yet. A corrupt file is moved aside rather than deleted so it can be
// inspected, and a fresh cache is returned alongside ErrCorruptCache.
func (s *FileStorage) Load() (*StatusCache, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return NewStatusCache(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache file: %w", err)
	}

	var cache StatusCache
	if err := json.Unmarshal(data, &cache); err != nil {
		aside := fmt.Sprintf("%s.corrupt.%d", s.path, time.Now().UTC().UnixNano())
		if renameErr := os.Rename(s.path, aside); renameErr != nil {
			return NewStatusCache(), fmt.Errorf("%w: %w (also failed to move file: %w)", ErrCorruptCache, err, renameErr)
		}
		return NewStatusCache(), fmt.Errorf("%w: %w (moved to %s)", ErrCorruptCache, err, aside)
	}

	if cache.Entries == nil {
		cache.Entries = make(map[string]StatusCacheEntry)
	}
	return &cache, nil
}

// Delete removes the cache file if present.
func (s *FileStorage) Delete() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing cache file: %w", err)
	}
	return nil
}

// Exists reports whether the cache file is present on disk.
func (s *FileStorage) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Path returns the cache file path.
func (s *FileStorage) Path() string {
	return s.path
}
