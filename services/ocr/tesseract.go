package ocr

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/siffror/ai-rapportanalys-Render/internal/config"
	"github.com/siffror/ai-rapportanalys-Render/internal/logger"
)

// TesseractEngine runs OCR locally through libtesseract. Scanned PDFs are
// rasterized with poppler first; plain images are recognized directly.
type TesseractEngine struct {
	languages  []string
	dpi        int
	previewDir string
}

func NewTesseractEngine(cfg *config.Config) *TesseractEngine {
	langs := strings.Split(cfg.OCRLanguages, "+")
	if len(langs) == 0 || langs[0] == "" {
		langs = []string{"swe", "eng"}
	}
	dpi := cfg.OCRDpi
	if dpi <= 0 {
		dpi = 300
	}
	return &TesseractEngine{
		languages:  langs,
		dpi:        dpi,
		previewDir: filepath.Join(cfg.CacheDir, "previews"),
	}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

func (e *TesseractEngine) Available(_ context.Context) error {
	if _, err := exec.LookPath("tesseract"); err != nil {
		return fmt.Errorf("tesseract binary not found: install tesseract-ocr (with swe and eng language data): %w", err)
	}
	return nil
}

func (e *TesseractEngine) ExtractText(ctx context.Context, filename string, data []byte) (*Result, error) {
	if err := e.Available(ctx); err != nil {
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return e.extractPDF(ctx, data)
	}
	return e.extractImageBytes(filename, data)
}

func (e *TesseractEngine) extractPDF(ctx context.Context, data []byte) (*Result, error) {
	pages, cleanup, err := rasterizePDF(ctx, data, e.dpi)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(e.languages...); err != nil {
		return nil, fmt.Errorf("could not set OCR languages %v: %w", e.languages, err)
	}

	var sb strings.Builder
	for i, page := range pages {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err := client.SetImage(page); err != nil {
			return nil, fmt.Errorf("could not load page %d: %w", i+1, err)
		}
		text, err := client.Text()
		if err != nil {
			logger.Warn("OCR failed on page, skipping", "page", i+1, "error", err)
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	preview, err := savePreview(pages[0], e.previewDir)
	if err != nil {
		logger.Warn("could not save OCR preview image", "error", err)
		preview = ""
	}

	return &Result{
		Text:         strings.TrimSpace(sb.String()),
		Pages:        len(pages),
		PreviewImage: preview,
	}, nil
}

func (e *TesseractEngine) extractImageBytes(filename string, data []byte) (*Result, error) {
	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(e.languages...); err != nil {
		return nil, fmt.Errorf("could not set OCR languages %v: %w", e.languages, err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("could not load image %q: %w", filename, err)
	}
	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed on %q: %w", filename, err)
	}
	return &Result{Text: strings.TrimSpace(text), Pages: 1}, nil
}
