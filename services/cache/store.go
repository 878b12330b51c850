// Package cache persists embedded chunks keyed by report source, so
// re-analyzing the same document costs zero embedding calls.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/siffror/ai-rapportanalys-Render/internal/config"
	"github.com/siffror/ai-rapportanalys-Render/models"
	"github.com/siffror/ai-rapportanalys-Render/utils"
)

// Store is the embedding cache. Load reports absence without error; a
// corrupt or unreadable entry is treated as absent so the caller recomputes.
type Store interface {
	Load(ctx context.Context, key string) ([]models.EmbeddedChunk, bool, error)
	Save(ctx context.Context, key string, entries []models.EmbeddedChunk) error
}

// Pruner is implemented by backends with explicit expiry (the disk store;
// redis expires entries itself via TTL).
type Pruner interface {
	Prune(olderThan time.Duration) (int, error)
}

// KeyParams captures everything besides the source that shapes a cached
// embedding set. Changing the model or the chunking geometry must miss.
type KeyParams struct {
	VersionTag string
	Model      string
	ChunkSize  int
	Overlap    int
}

// Key derives the cache key for a source. The hash hides source identifiers
// (URLs, filenames) from directory listings.
func Key(sourceID string, p KeyParams) string {
	return utils.HashKey(fmt.Sprintf("%s-%s-%s-%d-%d", sourceID, p.VersionTag, p.Model, p.ChunkSize, p.Overlap))
}

// New builds the configured cache backend.
func New(cfg *config.Config) (Store, error) {
	switch cfg.CacheBackend {
	case "redis":
		return NewRedisStore(cfg)
	case "disk", "":
		return NewDiskStore(cfg.CacheDir)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}
