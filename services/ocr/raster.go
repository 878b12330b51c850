package ocr

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
)

// rasterizePDF renders every page of a PDF to JPEG via poppler's pdftoppm
// and returns the page image paths in page order. The caller must invoke
// cleanup when done with the images.
func rasterizePDF(ctx context.Context, data []byte, dpi int) (pages []string, cleanup func(), err error) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		return nil, nil, fmt.Errorf("pdftoppm not found: install poppler-utils to OCR scanned PDFs: %w", err)
	}

	dir, err := os.MkdirTemp("", "ocr-raster-")
	if err != nil {
		return nil, nil, err
	}
	cleanup = func() { os.RemoveAll(dir) }
	defer func() {
		if err != nil {
			cleanup()
		}
	}()

	pdfPath := filepath.Join(dir, "input.pdf")
	if err = os.WriteFile(pdfPath, data, 0o600); err != nil {
		return nil, nil, err
	}

	cmd := exec.CommandContext(ctx, "pdftoppm", "-jpeg", "-r", strconv.Itoa(dpi), pdfPath, filepath.Join(dir, "page"))
	if out, runErr := cmd.CombinedOutput(); runErr != nil {
		err = fmt.Errorf("pdftoppm failed: %v: %s", runErr, out)
		return nil, nil, err
	}

	pages, err = filepath.Glob(filepath.Join(dir, "page-*.jpg"))
	if err != nil {
		return nil, nil, err
	}
	if len(pages) == 0 {
		// Single-digit page counts are rendered without zero padding.
		pages, _ = filepath.Glob(filepath.Join(dir, "page*.jpg"))
	}
	if len(pages) == 0 {
		err = fmt.Errorf("pdftoppm produced no page images")
		return nil, nil, err
	}
	sort.Strings(pages)
	return pages, cleanup, nil
}

// savePreview copies a rendered page into a stable location that outlives
// the rasterization temp dir, for showing the user what was scanned.
func savePreview(pagePath, previewDir string) (string, error) {
	if err := os.MkdirAll(previewDir, 0o755); err != nil {
		return "", err
	}
	data, err := os.ReadFile(pagePath)
	if err != nil {
		return "", err
	}
	out, err := os.CreateTemp(previewDir, "preview-*.jpg")
	if err != nil {
		return "", err
	}
	defer out.Close()
	if _, err := out.Write(data); err != nil {
		os.Remove(out.Name())
		return "", err
	}
	return out.Name(), nil
}
