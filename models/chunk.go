package models

// Chunk is an ordered substring of a report's text produced by the chunker.
// Order matters for overlap construction, not for scoring.
type Chunk struct {
	ChunkID string `json:"chunk_id"`
	Text    string `json:"text"`
	Order   int    `json:"order"`
}

// EmbeddedChunk pairs a chunk with its embedding vector. Lists of these are
// what the embedding cache persists, so the gob layout here is load-bearing:
// changing it requires bumping the cache version tag.
type EmbeddedChunk struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// ScoredChunk is a transient ranking result: combined cosine + lexical
// score and the chunk text. Never persisted.
type ScoredChunk struct {
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}
