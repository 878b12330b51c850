package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/siffror/ai-rapportanalys-Render/internal/ai"
	"github.com/siffror/ai-rapportanalys-Render/internal/config"
)

// ErrEmptyContext marks a configuration error: answer generation must never
// be called without assembled context. No API call is made.
var ErrEmptyContext = errors.New("context must not be empty")

// System prompts mirror the product's Swedish analyst persona. The answer
// prompt restricts the model to the retrieved context; the analysis prompt
// structures a whole-report summary.
const (
	answerSystemPrompt = "Du är en AI som analyserar årsrapporter från företag. " +
		"Besvara användarens fråga baserat enbart på den kontext du får. " +
		"Var så specifik som möjligt, och inkludera nyckeltal och citat om det finns."

	analysisSystemPrompt = "Du är en ekonomisk AI-expert. Analysera årsrapporter och extrahera så mycket relevant information som möjligt. " +
		"Fokusera på utdelning, omsättning, resultat, tillgångar, skulder, kassaflöde, vinst, viktiga händelser och eventuella risker. " +
		"Strukturera svaret i tydliga sektioner med rubriker. Behåll samma språk som texten du får."
)

// Answerer generates answers and whole-report analyses through the
// chat-completion endpoint.
type Answerer struct {
	client         ai.Client
	temperature    float32
	answerTokens   int
	analysisTokens int
}

func NewAnswerer(client ai.Client, cfg *config.Config) *Answerer {
	return &Answerer{
		client:         client,
		temperature:    float32(cfg.Temperature),
		answerTokens:   cfg.AnswerTokens,
		analysisTokens: cfg.AnalysisTokens,
	}
}

// Answer generates a context-bound answer to the question. Chat failures
// are not retried; the wrapped error carries the original cause.
func (a *Answerer) Answer(ctx context.Context, question, contextText string) (string, error) {
	if strings.TrimSpace(contextText) == "" {
		return "", ErrEmptyContext
	}

	answer, err := a.client.Chat(ctx, ai.ChatRequest{
		System:      answerSystemPrompt,
		User:        fmt.Sprintf("Kontext:\n%s\n\nFråga: %s", contextText, question),
		Temperature: a.temperature,
		MaxTokens:   a.answerTokens,
	})
	if err != nil {
		return "", fmt.Errorf("answer generation failed: %w", err)
	}
	return answer, nil
}

// FullAnalysis sends the entire document as the user turn, bypassing
// chunking and ranking. Meant for reports that fit the model's context
// budget whole.
func (a *Answerer) FullAnalysis(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyContext
	}

	analysis, err := a.client.Chat(ctx, ai.ChatRequest{
		System:      analysisSystemPrompt,
		User:        text,
		Temperature: a.temperature,
		MaxTokens:   a.analysisTokens,
	})
	if err != nil {
		return "", fmt.Errorf("report analysis failed: %w", err)
	}
	return analysis, nil
}

// Model reports the chat model in use.
func (a *Answerer) Model() string { return a.client.ChatModel() }
