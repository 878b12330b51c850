package session

import (
	"errors"
	"testing"

	"github.com/siffror/ai-rapportanalys-Render/models"
)

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()

	s := r.Create()
	if s.ID == "" {
		t.Fatal("session must get an ID")
	}

	got, err := r.Get(s.ID)
	if err != nil || got != s {
		t.Fatalf("lookup failed: %v", err)
	}

	r.Delete(s.ID)
	if _, err := r.Get(s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if r.Len() != 0 {
		t.Fatalf("registry should be empty, has %d", r.Len())
	}
}

func TestSetReportClearsDerivedState(t *testing.T) {
	s := &Session{
		EmbeddedChunks: []models.EmbeddedChunk{{Text: "gammal", Embedding: []float32{1}}},
		LastQuestion:   "gammal fråga",
		LastAnswer:     &models.Answer{Text: "gammalt svar"},
		LastContext:    "gammal kontext",
		OCRPreview:     "/tmp/preview.jpg",
	}

	s.SetReport(&models.Report{SourceID: "ny.pdf"})

	if s.Report.SourceID != "ny.pdf" {
		t.Fatal("report not installed")
	}
	if s.EmbeddedChunks != nil || s.LastAnswer != nil || s.LastQuestion != "" || s.LastContext != "" || s.OCRPreview != "" {
		t.Fatal("derived state must be cleared when the source changes")
	}
}
