package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/siffror/ai-rapportanalys-Render/internal/config"
	"github.com/siffror/ai-rapportanalys-Render/internal/logger"
)

// RemoteEngine delegates recognition to a separate OCR HTTP service, for
// hosts where tesseract and poppler cannot be installed.
type RemoteEngine struct {
	baseURL    string
	languages  string
	httpClient *http.Client
}

type remoteHealth struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

type remoteResponse struct {
	Success    bool    `json:"success"`
	Text       string  `json:"text"`
	Pages      int     `json:"pages"`
	Confidence float64 `json:"confidence"`
	Error      string  `json:"error,omitempty"`
}

func NewRemoteEngine(cfg *config.Config) *RemoteEngine {
	baseURL := cfg.OCRServiceURL
	if baseURL == "" {
		baseURL = "http://localhost:8001"
	}
	return &RemoteEngine{
		baseURL:   baseURL,
		languages: cfg.OCRLanguages,
		// OCR on large scans is slow; the timeout reflects that.
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (e *RemoteEngine) Name() string { return "remote" }

func (e *RemoteEngine) Available(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("OCR service unreachable at %s: %w", e.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("OCR service unhealthy: status %d", resp.StatusCode)
	}
	var health remoteHealth
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("could not decode OCR health response: %w", err)
	}
	if health.Status != "healthy" || !health.ModelLoaded {
		return fmt.Errorf("OCR service not ready: status %q", health.Status)
	}
	return nil
}

func (e *RemoteEngine) ExtractText(ctx context.Context, filename string, data []byte) (*Result, error) {
	if err := e.Available(ctx); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	fileWriter, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("could not build OCR request: %w", err)
	}
	if _, err := io.Copy(fileWriter, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("could not build OCR request: %w", err)
	}
	writer.WriteField("languages", e.languages)
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/ocr/extract", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OCR request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("OCR request failed with status %d: %s", resp.StatusCode, body)
	}

	var remote remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&remote); err != nil {
		return nil, fmt.Errorf("could not decode OCR response: %w", err)
	}
	if !remote.Success {
		return nil, fmt.Errorf("OCR processing failed: %s", remote.Error)
	}

	logger.Info("remote OCR completed", "pages", remote.Pages, "chars", len(remote.Text))
	return &Result{
		Text:       remote.Text,
		Pages:      remote.Pages,
		Confidence: remote.Confidence,
	}, nil
}
