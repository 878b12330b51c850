package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/siffror/ai-rapportanalys-Render/internal/config"
	"github.com/siffror/ai-rapportanalys-Render/internal/logger"
)

// ErrEmptyInput marks a precondition violation: callers must not send empty
// text to the API. Never retried.
var ErrEmptyInput = errors.New("text must not be empty")

// ChatRequest is one chat-completion call: a system instruction, a single
// user turn, and generation bounds.
type ChatRequest struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

// Client is the LLM API boundary. Both endpoints are treated as
// untrusted-for-failure external services.
type Client interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Chat(ctx context.Context, req ChatRequest) (string, error)
	EmbeddingModel() string
	ChatModel() string
}

// NewClient builds the configured provider wrapped with a circuit breaker
// and a client-side rate limiter.
func NewClient(cfg *config.Config) (Client, error) {
	var inner Client
	var err error

	switch cfg.LLMProvider {
	case "openai", "":
		inner = newOpenAIClient(cfg)
	case "google":
		inner, err = newGoogleClient(cfg)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.LLMProvider)
	}
	if err != nil {
		return nil, err
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "LLMAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &resilientClient{
		inner:   inner,
		breaker: breaker,
		limiter: rate.NewLimiter(rate.Limit(10), 5),
	}, nil
}

// resilientClient guards every provider call with a rate limiter and a
// circuit breaker, and records a tracing span per call.
type resilientClient struct {
	inner   Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func (rc *resilientClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}

	tracer := otel.Tracer("llm-client")
	ctx, span := tracer.Start(ctx, "llm.embed")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", rc.inner.EmbeddingModel()),
		attribute.Int("llm.input_chars", len(text)),
	)

	if err := rc.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := rc.breaker.Execute(func() (interface{}, error) {
		return rc.inner.Embed(ctx, text)
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("llm.error", true))
		return nil, err
	}
	return result.([]float32), nil
}

func (rc *resilientClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	if req.User == "" {
		return "", ErrEmptyInput
	}

	tracer := otel.Tracer("llm-client")
	ctx, span := tracer.Start(ctx, "llm.chat")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", rc.inner.ChatModel()),
		attribute.Int("llm.max_tokens", req.MaxTokens),
	)

	if err := rc.limiter.Wait(ctx); err != nil {
		return "", err
	}

	result, err := rc.breaker.Execute(func() (interface{}, error) {
		return rc.inner.Chat(ctx, req)
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("llm.error", true))
		return "", err
	}
	return result.(string), nil
}

func (rc *resilientClient) EmbeddingModel() string { return rc.inner.EmbeddingModel() }
func (rc *resilientClient) ChatModel() string      { return rc.inner.ChatModel() }
