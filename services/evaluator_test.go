package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siffror/ai-rapportanalys-Render/internal/ai"
)

func TestHeuristicEvaluatorIdenticalText(t *testing.T) {
	e := &HeuristicEvaluator{}
	eval, err := e.Evaluate(context.Background(),
		"vad blev resultatet?",
		"resultatet blev 15 MSEK",
		"resultatet blev 15 MSEK")
	require.NoError(t, err)
	assert.Equal(t, "heuristic", eval.Strategy)
	assert.InDelta(t, 1.0, eval.Faithfulness, 1e-9)
}

func TestHeuristicEvaluatorDisjointText(t *testing.T) {
	e := &HeuristicEvaluator{}
	eval, err := e.Evaluate(context.Background(),
		"hur var vädret?",
		"solen sken hela dagen",
		"omsättningen ökade kraftigt under året")
	require.NoError(t, err)
	assert.Less(t, eval.Faithfulness, 0.3)
}

func TestHeuristicEvaluatorEmptyAnswer(t *testing.T) {
	e := &HeuristicEvaluator{}
	eval, err := e.Evaluate(context.Background(), "fråga", "", "kontext")
	require.NoError(t, err)
	assert.Zero(t, eval.Faithfulness)
}

func TestLLMEvaluatorParsesVerdict(t *testing.T) {
	fake := &fakeClient{
		chatFn: func(req ai.ChatRequest) (string, error) {
			return "```json\n{\"faithfulness\": 0.9, \"answer_relevancy\": 0.8}\n```", nil
		},
	}
	e := &LLMEvaluator{client: fake}

	eval, err := e.Evaluate(context.Background(), "fråga", "svar", "kontext")
	require.NoError(t, err)
	assert.Equal(t, "llm", eval.Strategy)
	assert.InDelta(t, 0.9, eval.Faithfulness, 1e-9)
	assert.InDelta(t, 0.8, eval.AnswerRelevancy, 1e-9)
}

func TestLLMEvaluatorClampsScores(t *testing.T) {
	fake := &fakeClient{
		chatFn: func(req ai.ChatRequest) (string, error) {
			return `{"faithfulness": 1.7, "answer_relevancy": -0.2}`, nil
		},
	}
	e := &LLMEvaluator{client: fake}

	eval, err := e.Evaluate(context.Background(), "fråga", "svar", "kontext")
	require.NoError(t, err)
	assert.Equal(t, 1.0, eval.Faithfulness)
	assert.Equal(t, 0.0, eval.AnswerRelevancy)
}

func TestLLMEvaluatorRejectsGarbage(t *testing.T) {
	fake := &fakeClient{
		chatFn: func(req ai.ChatRequest) (string, error) {
			return "jag kan inte bedöma detta", nil
		},
	}
	e := &LLMEvaluator{client: fake}

	_, err := e.Evaluate(context.Background(), "fråga", "svar", "kontext")
	require.Error(t, err)
}

func TestNewEvaluatorStrategySelection(t *testing.T) {
	cfg := testConfig()
	cfg.EvalStrategy = "llm"
	if _, ok := NewEvaluator(&fakeClient{}, cfg).(*LLMEvaluator); !ok {
		t.Fatal("expected LLM evaluator")
	}

	cfg.EvalStrategy = "heuristic"
	if _, ok := NewEvaluator(&fakeClient{}, cfg).(*HeuristicEvaluator); !ok {
		t.Fatal("expected heuristic evaluator")
	}
}
