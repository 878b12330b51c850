package services

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/siffror/ai-rapportanalys-Render/internal/ai"
	"github.com/siffror/ai-rapportanalys-Render/internal/config"
	"github.com/siffror/ai-rapportanalys-Render/internal/logger"
	"github.com/siffror/ai-rapportanalys-Render/internal/telemetry"
	"github.com/siffror/ai-rapportanalys-Render/models"
	"github.com/siffror/ai-rapportanalys-Render/utils"
)

// Embedder wraps the LLM embedding endpoint with retry-on-transient-failure
// and a bounded in-process memo so identical inputs within a run cost one
// API call.
type Embedder struct {
	client      ai.Client
	maxAttempts int
	baseDelay   time.Duration
	memo        *embeddingMemo
	metrics     *telemetry.Metrics

	// sleep is swappable in tests
	sleep func(time.Duration)
}

func NewEmbedder(client ai.Client, cfg *config.Config) *Embedder {
	attempts := cfg.EmbedMaxAttempts
	if attempts <= 0 {
		attempts = 6
	}
	memoSize := cfg.EmbedMemoSize
	if memoSize <= 0 {
		memoSize = 512
	}
	return &Embedder{
		client:      client,
		maxAttempts: attempts,
		baseDelay:   time.Second,
		memo:        newEmbeddingMemo(memoSize),
		sleep:       time.Sleep,
	}
}

// Embed returns the embedding vector for text. Empty text is a precondition
// violation and is not retried; upstream failures are retried with
// randomized exponential backoff up to the attempt ceiling.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ai.ErrEmptyInput
	}
	if vec, ok := e.memo.get(text); ok {
		return vec, nil
	}

	var lastErr error
	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		if attempt > 0 {
			e.sleep(utils.CalculateBackoff(e.baseDelay, attempt))
		}

		vec, err := e.client.Embed(ctx, text)
		if e.metrics != nil {
			e.metrics.RecordEmbeddingCall(err == nil)
		}
		if err != nil {
			if errors.Is(err, ai.ErrEmptyInput) || errors.Is(err, context.Canceled) {
				return nil, err
			}
			lastErr = err
			logger.Warn("embedding attempt failed", "attempt", attempt+1, "error", err)
			continue
		}

		e.memo.add(text, vec)
		return vec, nil
	}

	return nil, fmt.Errorf("embedding failed after %d attempts: %w", e.maxAttempts, lastErr)
}

// EmbedChunks embeds chunks one at a time, in order, invoking progress
// after each. A failure aborts the whole pass: partial results are
// discarded by the caller, never written to the cache.
func (e *Embedder) EmbedChunks(ctx context.Context, chunks []models.Chunk, progress func(done, total, chars int)) ([]models.EmbeddedChunk, error) {
	embedded := make([]models.EmbeddedChunk, 0, len(chunks))
	for i, chunk := range chunks {
		vec, err := e.Embed(ctx, chunk.Text)
		if err != nil {
			return nil, fmt.Errorf("embedding chunk %d: %w", i+1, err)
		}
		embedded = append(embedded, models.EmbeddedChunk{Text: chunk.Text, Embedding: vec})
		if progress != nil {
			progress(i+1, len(chunks), len(chunk.Text))
		}
	}
	return embedded, nil
}

// Model reports the embedding model in use, for cache key derivation.
func (e *Embedder) Model() string { return e.client.EmbeddingModel() }

// SetMetrics attaches API-call metrics. Optional; nil disables recording.
func (e *Embedder) SetMetrics(m *telemetry.Metrics) { e.metrics = m }

// embeddingMemo is a small LRU keyed by the literal input string.
type embeddingMemo struct {
	mu      sync.Mutex
	cap     int
	order   *list.List
	entries map[string]*list.Element
}

type memoEntry struct {
	key string
	vec []float32
}

func newEmbeddingMemo(capacity int) *embeddingMemo {
	return &embeddingMemo{
		cap:     capacity,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

func (m *embeddingMemo) get(key string) ([]float32, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	m.order.MoveToFront(el)
	return el.Value.(*memoEntry).vec, true
}

func (m *embeddingMemo) add(key string, vec []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.entries[key]; ok {
		m.order.MoveToFront(el)
		el.Value.(*memoEntry).vec = vec
		return
	}
	m.entries[key] = m.order.PushFront(&memoEntry{key: key, vec: vec})
	if m.order.Len() > m.cap {
		oldest := m.order.Back()
		m.order.Remove(oldest)
		delete(m.entries, oldest.Value.(*memoEntry).key)
	}
}
