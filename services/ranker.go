package services

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/siffror/ai-rapportanalys-Render/internal/logger"
	"github.com/siffror/ai-rapportanalys-Render/models"
)

// ContextSeparator joins the top-ranked chunk texts into the assembled
// context handed to the answer generator.
const ContextSeparator = "\n---\n"

// lexicalBonus is added per distinct question word found verbatim in a
// chunk, nudging chunks with literal keyword overlap above near-ties.
const lexicalBonus = 0.005

// Ranker scores embedded chunks against a question and assembles the
// context window for answer generation.
type Ranker struct {
	embedder *Embedder
	topK     int
}

func NewRanker(embedder *Embedder, topK int) *Ranker {
	if topK <= 0 {
		topK = 7
	}
	return &Ranker{embedder: embedder, topK: topK}
}

// Rank embeds the question once, scores every chunk by cosine similarity
// plus the lexical bonus, and returns the joined top-k context along with
// the full ranked list. An empty chunk list yields ("", nil) — callers must
// check before generating an answer.
func (r *Ranker) Rank(ctx context.Context, question string, chunks []models.EmbeddedChunk, k int) (string, []models.ScoredChunk, error) {
	if len(chunks) == 0 {
		return "", nil, nil
	}
	if k <= 0 {
		k = r.topK
	}

	queryVec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return "", nil, err
	}

	questionWords := distinctWords(question)
	scored := make([]models.ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		score := CosineSimilarity(queryVec, chunk.Embedding)
		textLower := strings.ToLower(chunk.Text)
		for word := range questionWords {
			if strings.Contains(textLower, word) {
				score += lexicalBonus
			}
		}
		scored = append(scored, models.ScoredChunk{Score: score, Text: chunk.Text})
	}

	// Stable: equal scores keep document order.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	top := scored[:k]

	texts := make([]string, len(top))
	for i, sc := range top {
		texts[i] = sc.Text
	}
	logger.Info("selected top chunks for question", "top_k", k, "candidates", len(chunks))
	return strings.Join(texts, ContextSeparator), top, nil
}

// CosineSimilarity computes the cosine of the angle between two embedding
// vectors. Zero vectors or mismatched lengths score 0.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func distinctWords(s string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		words[w] = struct{}{}
	}
	return words
}
