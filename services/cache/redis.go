package cache

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/siffror/ai-rapportanalys-Render/internal/config"
	"github.com/siffror/ai-rapportanalys-Render/internal/logger"
	"github.com/siffror/ai-rapportanalys-Render/models"
)

// RedisStore keeps gob-encoded embedding sets in redis with a TTL, for
// deployments where local disk does not survive restarts.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(cfg *config.Config) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		// Plain host:port is also accepted.
		opts = &redis.Options{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("could not reach redis at %q: %w", cfg.RedisURL, err)
	}

	ttl := time.Duration(cfg.CacheTTLDays) * 24 * time.Hour
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) redisKey(key string) string { return "embeddings:" + key }

func (s *RedisStore) Load(ctx context.Context, key string) ([]models.EmbeddedChunk, bool, error) {
	data, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var entries []models.EmbeddedChunk
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entries); err != nil {
		logger.Warn("discarding corrupt cache entry", "key", key, "error", err)
		s.client.Del(ctx, s.redisKey(key))
		return nil, false, nil
	}
	return entries, true, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, entries []models.EmbeddedChunk) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entries); err != nil {
		return fmt.Errorf("could not encode cache entry: %w", err)
	}
	return s.client.Set(ctx, s.redisKey(key), buf.Bytes(), s.ttl).Err()
}
