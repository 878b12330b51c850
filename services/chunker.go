package services

import (
	"strings"

	"github.com/google/uuid"

	"github.com/siffror/ai-rapportanalys-Render/models"
)

// Chunker splits report text into overlapping chunks for embedding. The
// overlap is a character budget: the next chunk is seeded with the trailing
// whole lines of the previous chunk that fit within it, so local context
// survives chunk boundaries without re-embedding entire chunks.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker creates a chunker. Non-positive size falls back to 1000 chars,
// negative overlap to 0. Overlap is clamped below the chunk size.
func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize - 1
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// Split produces ordered chunks covering the whole input. Blank lines are
// skipped; an empty or all-blank input yields no chunks and callers must
// treat that as "nothing to embed".
func (c *Chunker) Split(text string) []models.Chunk {
	var chunks []models.Chunk
	var current []string
	total := 0

	emit := func() {
		chunks = append(chunks, models.Chunk{
			ChunkID: uuid.NewString(),
			Text:    strings.Join(current, "\n"),
			Order:   len(chunks),
		})
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		current = append(current, line)
		total += len(line)
		if total >= c.chunkSize {
			emit()
			current = c.overlapLines(current)
			total = 0
			for _, l := range current {
				total += len(l)
			}
		}
	}

	if len(current) > 0 && !onlyOverlap(chunks, current, c.overlap) {
		emit()
	}

	return chunks
}

// overlapLines returns the trailing lines of the just-emitted chunk whose
// combined length fits the overlap budget. At least one line is dropped so
// the chunker always makes progress.
func (c *Chunker) overlapLines(lines []string) []string {
	if c.overlap == 0 || len(lines) == 0 {
		return nil
	}
	start := len(lines)
	size := 0
	for start > 1 {
		lineLen := len(lines[start-1])
		if size+lineLen > c.overlap {
			break
		}
		size += lineLen
		start--
	}
	if start == len(lines) {
		return nil
	}
	return append([]string(nil), lines[start:]...)
}

// onlyOverlap reports whether the trailing partial chunk consists solely of
// the overlap seed carried over from the last emitted chunk, which would
// duplicate content already covered.
func onlyOverlap(chunks []models.Chunk, current []string, overlap int) bool {
	if len(chunks) == 0 || overlap == 0 {
		return false
	}
	last := chunks[len(chunks)-1].Text
	return strings.HasSuffix(last, strings.Join(current, "\n"))
}
