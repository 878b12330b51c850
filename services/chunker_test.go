package services

import (
	"fmt"
	"strings"
	"testing"
)

func TestSplitEmptyInput(t *testing.T) {
	c := NewChunker(1000, 200)
	for _, input := range []string{"", "   ", "\n\n\n", " \n\t\n "} {
		if chunks := c.Split(input); len(chunks) != 0 {
			t.Fatalf("input %q should produce no chunks, got %d", input, len(chunks))
		}
	}
}

func TestSplitSingleSmallChunk(t *testing.T) {
	c := NewChunker(1000, 200)
	chunks := c.Split("Omsättningen ökade till 120 MSEK.\nResultatet blev 15 MSEK.")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Order != 0 {
		t.Fatalf("order should start at 0, got %d", chunks[0].Order)
	}
	if chunks[0].ChunkID == "" {
		t.Fatal("chunk must carry an ID")
	}
}

// 25 lines of 100 characters with size 1000 / overlap 200 covers the
// document in three overlapping chunks.
func TestSplitOverlappingWindows(t *testing.T) {
	lines := make([]string, 25)
	for i := range lines {
		lines[i] = fmt.Sprintf("rad%02d ", i) + strings.Repeat("x", 93)
	}
	text := strings.Join(lines, "\n")

	c := NewChunker(1000, 200)
	chunks := c.Split(text)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}

	// Every line of the input must appear in some chunk.
	all := ""
	for _, chunk := range chunks {
		all += chunk.Text + "\n"
	}
	for _, line := range lines {
		if !strings.Contains(all, line) {
			t.Fatalf("line %q lost during chunking", line[:10])
		}
	}

	// Consecutive chunks share their boundary lines.
	for i := 1; i < len(chunks); i++ {
		prevLines := strings.Split(chunks[i-1].Text, "\n")
		lastLine := prevLines[len(prevLines)-1]
		if !strings.Contains(chunks[i].Text, lastLine) {
			t.Fatalf("chunk %d does not overlap with its predecessor", i)
		}
	}

	for i, chunk := range chunks {
		if chunk.Order != i {
			t.Fatalf("chunk %d has order %d", i, chunk.Order)
		}
	}
}

func TestSplitZeroOverlap(t *testing.T) {
	lines := make([]string, 10)
	for i := range lines {
		lines[i] = strings.Repeat("a", 100)
	}
	c := NewChunker(500, 0)
	chunks := c.Split(strings.Join(lines, "\n"))
	if len(chunks) != 2 {
		t.Fatalf("expected 2 disjoint chunks, got %d", len(chunks))
	}

	total := 0
	for _, chunk := range chunks {
		total += len(strings.Split(chunk.Text, "\n"))
	}
	if total != 10 {
		t.Fatalf("zero overlap must not duplicate lines, got %d total", total)
	}
}

func TestSplitSkipsBlankLines(t *testing.T) {
	c := NewChunker(1000, 200)
	chunks := c.Split("första raden\n\n\n  \nandra raden")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if strings.Contains(chunks[0].Text, "\n\n") {
		t.Fatal("blank lines should be dropped")
	}
}

func TestSplitAlwaysMakesProgress(t *testing.T) {
	// Overlap nearly as large as the chunk: the seed must still shrink.
	lines := make([]string, 100)
	for i := range lines {
		lines[i] = strings.Repeat("z", 50)
	}
	c := NewChunker(100, 99)
	chunks := c.Split(strings.Join(lines, "\n"))
	if len(chunks) == 0 || len(chunks) > 200 {
		t.Fatalf("degenerate chunking: %d chunks", len(chunks))
	}
}
