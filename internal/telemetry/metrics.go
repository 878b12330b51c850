package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the application counters and histograms.
type Metrics struct {
	EmbeddingCalls  metric.Int64Counter
	CacheLookups    metric.Int64Counter
	AnswerDuration  metric.Float64Histogram
	ExtractionChars metric.Int64Counter
}

func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("ai-rapportanalys")

	embeddingCalls, err := meter.Int64Counter(
		"embeddings.calls.total",
		metric.WithDescription("Embedding API calls made"),
	)
	if err != nil {
		return nil, err
	}

	cacheLookups, err := meter.Int64Counter(
		"embeddings.cache.lookups",
		metric.WithDescription("Embedding cache lookups, tagged hit/miss"),
	)
	if err != nil {
		return nil, err
	}

	answerDuration, err := meter.Float64Histogram(
		"answer.generation.duration",
		metric.WithDescription("Answer generation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	extractionChars, err := meter.Int64Counter(
		"extraction.characters.total",
		metric.WithDescription("Characters of report text extracted"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		EmbeddingCalls:  embeddingCalls,
		CacheLookups:    cacheLookups,
		AnswerDuration:  answerDuration,
		ExtractionChars: extractionChars,
	}, nil
}

// RecordEmbeddingCall records one embedding API call, tagged by outcome.
func (m *Metrics) RecordEmbeddingCall(success bool) {
	m.EmbeddingCalls.Add(context.Background(), 1, metric.WithAttributes(
		attribute.Bool("success", success),
	))
}

// RecordCacheLookup tags a cache lookup as a hit or a miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("result", result),
	))
}

// RecordAnswer records one answer generation.
func (m *Metrics) RecordAnswer(kind string, seconds float64) {
	m.AnswerDuration.Record(context.Background(), seconds, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}

// RecordExtraction records extracted text volume per method.
func (m *Metrics) RecordExtraction(method string, chars int) {
	m.ExtractionChars.Add(context.Background(), int64(chars), metric.WithAttributes(
		attribute.String("method", method),
	))
}
