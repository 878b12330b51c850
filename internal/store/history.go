// Package store persists analysis history in MongoDB. The store is
// optional: with no MONGO_URI configured the service runs stateless and
// every method on a nil store is a no-op.
package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/siffror/ai-rapportanalys-Render/internal/config"
	"github.com/siffror/ai-rapportanalys-Render/internal/logger"
	"github.com/siffror/ai-rapportanalys-Render/models"
)

const historyCollection = "analyses"

type HistoryStore struct {
	client *mongo.Client
	col    *mongo.Collection
}

// Connect opens the Mongo connection and prepares the history collection.
// Returns (nil, nil) when no URI is configured.
func Connect(cfg *config.Config) (*HistoryStore, error) {
	if cfg.MongoURI == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	col := client.Database(cfg.DBName).Collection(historyCollection)
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "session_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}
	if _, err := col.Indexes().CreateMany(ctx, indexes); err != nil {
		return nil, fmt.Errorf("failed to create history indexes: %w", err)
	}

	return &HistoryStore{client: client, col: col}, nil
}

// Save records one analysis. History is best-effort; callers log the error
// and move on rather than failing the request.
func (s *HistoryStore) Save(ctx context.Context, record models.AnalysisRecord) error {
	if s == nil {
		return nil
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	_, err := s.col.InsertOne(ctx, record)
	return err
}

// Recent returns the newest analyses, newest first.
func (s *HistoryStore) Recent(ctx context.Context, limit int) ([]models.AnalysisRecord, error) {
	if s == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.AnalysisRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Close disconnects from Mongo.
func (s *HistoryStore) Close(ctx context.Context) {
	if s == nil {
		return
	}
	if err := s.client.Disconnect(ctx); err != nil {
		logger.Warn("mongo disconnect failed", "error", err)
	}
}
