package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/siffror/ai-rapportanalys-Render/internal/ai"
	"github.com/siffror/ai-rapportanalys-Render/internal/config"
	"github.com/siffror/ai-rapportanalys-Render/internal/logger"
	"github.com/siffror/ai-rapportanalys-Render/models"
)

// Evaluator scores a generated answer against the question and the
// retrieved context. Evaluation is best-effort: failures degrade the
// response, never the answer itself.
type Evaluator interface {
	Evaluate(ctx context.Context, question, answer, contextText string) (models.Evaluation, error)
}

// NewEvaluator picks the strategy from configuration: "llm" uses the chat
// model as judge, anything else falls back to the lexical heuristic.
func NewEvaluator(client ai.Client, cfg *config.Config) Evaluator {
	if cfg.EvalStrategy == "llm" {
		return &LLMEvaluator{client: client}
	}
	return &HeuristicEvaluator{}
}

// HeuristicEvaluator approximates faithfulness and relevancy with word-level
// sequence similarity. Cheap and deterministic; no API calls.
type HeuristicEvaluator struct{}

func (e *HeuristicEvaluator) Evaluate(_ context.Context, question, answer, contextText string) (models.Evaluation, error) {
	return models.Evaluation{
		Faithfulness:    wordRatio(answer, contextText),
		AnswerRelevancy: wordRatio(answer, question),
		Strategy:        "heuristic",
	}, nil
}

func wordRatio(a, b string) float64 {
	aw := strings.Fields(strings.ToLower(a))
	bw := strings.Fields(strings.ToLower(b))
	if len(aw) == 0 && len(bw) == 0 {
		return 1
	}
	if len(aw) == 0 || len(bw) == 0 {
		return 0
	}
	return difflib.NewMatcher(aw, bw).Ratio()
}

// LLMEvaluator asks the chat model to grade the answer. The judge is given
// a strict JSON contract; malformed output is an evaluation failure.
type LLMEvaluator struct {
	client ai.Client
}

const judgeSystemPrompt = "Du är en strikt bedömare av AI-genererade svar på frågor om årsrapporter. " +
	"Bedöm svaret utifrån kontexten och frågan. " +
	`Svara ENDAST med JSON på formen {"faithfulness": <0..1>, "answer_relevancy": <0..1>}. ` +
	"faithfulness: hur väl svaret stöds av kontexten. answer_relevancy: hur väl svaret besvarar frågan."

type judgeVerdict struct {
	Faithfulness    float64 `json:"faithfulness"`
	AnswerRelevancy float64 `json:"answer_relevancy"`
}

func (e *LLMEvaluator) Evaluate(ctx context.Context, question, answer, contextText string) (models.Evaluation, error) {
	user := fmt.Sprintf("Kontext:\n%s\n\nFråga: %s\n\nSvar: %s", contextText, question, answer)
	if question == "" {
		user = fmt.Sprintf("Kontext:\n%s\n\nSvar: %s", contextText, answer)
	}

	raw, err := e.client.Chat(ctx, ai.ChatRequest{
		System:      judgeSystemPrompt,
		User:        user,
		Temperature: 0,
		MaxTokens:   100,
	})
	if err != nil {
		return models.Evaluation{}, fmt.Errorf("evaluation failed: %w", err)
	}

	var verdict judgeVerdict
	if err := json.Unmarshal([]byte(extractJSON(raw)), &verdict); err != nil {
		logger.Warn("judge returned unparseable verdict", "raw", raw)
		return models.Evaluation{}, fmt.Errorf("evaluation verdict not parseable: %w", err)
	}

	return models.Evaluation{
		Faithfulness:    clamp01(verdict.Faithfulness),
		AnswerRelevancy: clamp01(verdict.AnswerRelevancy),
		Strategy:        "llm",
	}, nil
}

// extractJSON strips markdown fences and surrounding prose the judge may
// add despite instructions.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
