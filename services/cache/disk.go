package cache

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/siffror/ai-rapportanalys-Render/internal/logger"
	"github.com/siffror/ai-rapportanalys-Render/models"
)

const cacheFilePrefix = "embeddings_"

// DiskStore keeps one gob file per source under a cache directory. Writes
// go through a temp file and rename so a crash never leaves a torn entry.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		dir = "embeddings"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create cache dir %q: %w", dir, err)
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) path(key string) string {
	return filepath.Join(s.dir, cacheFilePrefix+key+".gob")
}

func (s *DiskStore) Load(_ context.Context, key string) ([]models.EmbeddedChunk, bool, error) {
	f, err := os.Open(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var entries []models.EmbeddedChunk
	if err := gob.NewDecoder(f).Decode(&entries); err != nil {
		// A corrupt entry means recompute, not failure.
		logger.Warn("discarding corrupt cache entry", "key", key, "error", err)
		os.Remove(s.path(key))
		return nil, false, nil
	}
	return entries, true, nil
}

func (s *DiskStore) Save(_ context.Context, key string, entries []models.EmbeddedChunk) error {
	tmp, err := os.CreateTemp(s.dir, cacheFilePrefix+"*.tmp")
	if err != nil {
		return fmt.Errorf("could not create cache temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(entries); err != nil {
		tmp.Close()
		return fmt.Errorf("could not encode cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(key))
}

// Prune removes cache files whose modification time is older than the TTL.
func (s *DiskStore) Prune(olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, cacheFilePrefix) || !strings.HasSuffix(name, ".gob") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, name)); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
