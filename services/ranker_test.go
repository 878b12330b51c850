package services

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/siffror/ai-rapportanalys-Render/models"
)

func TestCosineSimilarity(t *testing.T) {
	if got := CosineSimilarity([]float32{1, 0}, []float32{1, 0}); math.Abs(got-1) > 1e-9 {
		t.Fatalf("identical vectors should score 1, got %f", got)
	}
	if got := CosineSimilarity([]float32{1, 0}, []float32{0, 1}); math.Abs(got) > 1e-9 {
		t.Fatalf("orthogonal vectors should score 0, got %f", got)
	}
	if got := CosineSimilarity([]float32{0, 0}, []float32{1, 1}); got != 0 {
		t.Fatalf("zero vector should score 0, got %f", got)
	}
}

func TestRankEmptyChunks(t *testing.T) {
	fake := &fakeClient{}
	r := NewRanker(newTestEmbedder(fake), 7)

	contextText, ranked, err := r.Rank(context.Background(), "vad blev resultatet?", nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if contextText != "" || ranked != nil {
		t.Fatal("no chunks must yield empty context, not an API call")
	}
	if fake.embedCalls != 0 {
		t.Fatalf("question should not be embedded when there is nothing to rank")
	}
}

func TestRankOrdersBySimilarity(t *testing.T) {
	fake := &fakeClient{
		embedFn: func(text string) []float32 {
			// Question and the matching chunk share a direction.
			if strings.Contains(text, "utdelning") {
				return []float32{1, 0}
			}
			return []float32{0, 1}
		},
	}
	r := NewRanker(newTestEmbedder(fake), 7)

	chunks := []models.EmbeddedChunk{
		{Text: "styrelsen föreslår ingen återköpsplan", Embedding: []float32{0, 1}},
		{Text: "utdelning per aktie 5 kr", Embedding: []float32{1, 0}},
	}

	contextText, ranked, err := r.Rank(context.Background(), "vilken utdelning?", chunks, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(ranked) != 1 {
		t.Fatalf("expected top-1, got %d", len(ranked))
	}
	if !strings.Contains(ranked[0].Text, "utdelning") {
		t.Fatalf("wrong chunk won: %q", ranked[0].Text)
	}
	if contextText != ranked[0].Text {
		t.Fatalf("context should be the joined top chunks, got %q", contextText)
	}
}

func TestRankLexicalBonusBreaksTies(t *testing.T) {
	fake := &fakeClient{
		embedFn: func(string) []float32 { return []float32{1, 0} },
	}
	r := NewRanker(newTestEmbedder(fake), 7)

	// Identical embeddings: only the lexical bonus separates them.
	chunks := []models.EmbeddedChunk{
		{Text: "övrig information utan relevans", Embedding: []float32{1, 0}},
		{Text: "kassaflödet från verksamheten var starkt", Embedding: []float32{1, 0}},
	}

	_, ranked, err := r.Rank(context.Background(), "hur var kassaflödet?", chunks, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(ranked[0].Text, "kassaflödet") {
		t.Fatalf("keyword match should rank first, got %q", ranked[0].Text)
	}
	if ranked[0].Score <= ranked[1].Score {
		t.Fatalf("bonus not applied: %f vs %f", ranked[0].Score, ranked[1].Score)
	}
}

func TestRankJoinsWithSeparator(t *testing.T) {
	fake := &fakeClient{
		embedFn: func(string) []float32 { return []float32{1, 0} },
	}
	r := NewRanker(newTestEmbedder(fake), 7)

	chunks := []models.EmbeddedChunk{
		{Text: "del ett", Embedding: []float32{1, 0}},
		{Text: "del två", Embedding: []float32{1, 0}},
	}
	contextText, _, err := r.Rank(context.Background(), "fråga", chunks, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(contextText, ContextSeparator) {
		t.Fatalf("expected separator in %q", contextText)
	}
}

func TestRankCapsKAtChunkCount(t *testing.T) {
	fake := &fakeClient{
		embedFn: func(string) []float32 { return []float32{1, 0} },
	}
	r := NewRanker(newTestEmbedder(fake), 7)

	chunks := []models.EmbeddedChunk{{Text: "enda", Embedding: []float32{1, 0}}}
	_, ranked, err := r.Rank(context.Background(), "fråga", chunks, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(ranked) != 1 {
		t.Fatalf("k must be capped at the chunk count, got %d", len(ranked))
	}
}
