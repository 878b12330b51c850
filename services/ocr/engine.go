// Package ocr recognizes text in images and scanned PDFs. Two engines are
// supported: a local tesseract binding and a remote OCR microservice.
package ocr

import (
	"context"
	"fmt"

	"github.com/siffror/ai-rapportanalys-Render/internal/config"
)

// Result is the outcome of an OCR pass over one document.
type Result struct {
	Text         string
	Pages        int
	Confidence   float64
	PreviewImage string // path to a rendered first page, "" when unavailable
}

// Engine recognizes text in an uploaded image or scanned PDF. Available
// reports why the engine cannot run (missing binary, unreachable service)
// so handlers can surface an actionable message instead of a crash.
type Engine interface {
	Name() string
	Available(ctx context.Context) error
	ExtractText(ctx context.Context, filename string, data []byte) (*Result, error)
}

// ForName builds the configured engine.
func ForName(cfg *config.Config) (Engine, error) {
	switch cfg.OCREngine {
	case "tesseract", "":
		return NewTesseractEngine(cfg), nil
	case "remote":
		return NewRemoteEngine(cfg), nil
	default:
		return nil, fmt.Errorf("unknown OCR engine %q", cfg.OCREngine)
	}
}
