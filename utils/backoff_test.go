package utils

import (
	"testing"
	"time"
)

func TestCalculateBackoffGrowsAndCaps(t *testing.T) {
	base := time.Second

	if got := CalculateBackoff(base, 0); got != 0 {
		t.Fatalf("attempt 0 should not wait, got %v", got)
	}

	prevCeiling := time.Duration(0)
	for attempt := 1; attempt <= 5; attempt++ {
		d := CalculateBackoff(base, attempt)
		ceiling := base * time.Duration(1<<uint(attempt))
		if d < ceiling/2 || d > ceiling+ceiling/4 {
			t.Fatalf("attempt %d: %v outside jitter band around %v", attempt, d, ceiling)
		}
		if ceiling <= prevCeiling {
			t.Fatal("backoff must grow")
		}
		prevCeiling = ceiling
	}

	// Deep attempts stay bounded.
	for attempt := 10; attempt <= 40; attempt += 10 {
		if d := CalculateBackoff(base, attempt); d > 75*time.Second {
			t.Fatalf("attempt %d exceeded the cap: %v", attempt, d)
		}
	}
}

func TestHashKeyDeterministic(t *testing.T) {
	a := HashKey("rapport.pdf-v2")
	b := HashKey("rapport.pdf-v2")
	if a != b {
		t.Fatal("hash must be deterministic")
	}
	if len(a) != 64 {
		t.Fatalf("expected sha256 hex length 64, got %d", len(a))
	}
	if a == HashKey("rapport.pdf-v3") {
		t.Fatal("different input must hash differently")
	}
}
