package models

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestPreviewShortTextPassesThrough(t *testing.T) {
	r := &Report{Text: "kort text"}
	if got := r.Preview(5000); got != "kort text" {
		t.Fatalf("short text must pass through unchanged: %q", got)
	}
}

func TestPreviewCutsOnRuneBoundary(t *testing.T) {
	// 51 lands in the middle of a two-byte rune, so the cut backs up.
	r := &Report{Text: strings.Repeat("å", 40)}
	got := r.Preview(51)
	if !utf8.ValidString(got) {
		t.Fatalf("preview split a rune: %q", got)
	}
	if len(got) != 50 {
		t.Fatalf("expected 50 bytes, got %d", len(got))
	}
}

func TestPreviewExactBoundary(t *testing.T) {
	r := &Report{Text: "räkenskapsår"}
	if got := r.Preview(len(r.Text)); got != r.Text {
		t.Fatalf("exact length must return the full text: %q", got)
	}
}
