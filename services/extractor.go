package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/extrame/xls"
	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"github.com/siffror/ai-rapportanalys-Render/internal/config"
	"github.com/siffror/ai-rapportanalys-Render/internal/logger"
	"github.com/siffror/ai-rapportanalys-Render/models"
	"github.com/siffror/ai-rapportanalys-Render/utils"
)

// Extractor turns uploaded report files and fetched web pages into plain
// text ready for chunking. Image files and scanned PDFs are not handled
// here; those go through the OCR engines.
type Extractor struct {
	fetchTimeout time.Duration
	maxFileSize  int64
	httpClient   *http.Client
}

func NewExtractor(cfg *config.Config) *Extractor {
	timeout := time.Duration(cfg.FetchTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Extractor{
		fetchTimeout: timeout,
		maxFileSize:  cfg.MaxFileSize,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// ExtractFile extracts text from an uploaded file, dispatching on the
// filename extension. Unsupported extensions are an error so the handler
// can tell the caller what formats are accepted.
func (e *Extractor) ExtractFile(filename string, data []byte) (*models.Report, error) {
	if e.maxFileSize > 0 && int64(len(data)) > e.maxFileSize {
		return nil, fmt.Errorf("file %q exceeds the %d byte limit", filename, e.maxFileSize)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	var (
		text   string
		method string
		pages  int
		err    error
	)

	switch ext {
	case ".pdf":
		text, pages, err = extractPDF(data)
		method = "pdf-text"
	case ".html", ".htm":
		text, err = extractHTML(bytes.NewReader(data))
		method = "html"
	case ".xlsx", ".xlsm":
		text, err = extractXLSX(data)
		method = "xlsx"
	case ".xls":
		text, err = extractXLS(data)
		method = "xls"
	case ".txt", ".md":
		text = normalizeText(string(data))
		method = "plain"
	default:
		return nil, fmt.Errorf("unsupported file type %q: expected pdf, html, xlsx, xls, txt or an image", ext)
	}
	if err != nil {
		return nil, err
	}

	report := &models.Report{
		SourceID:    filename,
		SourceKind:  models.SourceUpload,
		Text:        text,
		ExtractedAt: time.Now(),
		Metadata: models.ReportMetadata{
			Filename:       filename,
			Pages:          pages,
			Method:         method,
			CharacterCount: len(text),
			WordCount:      len(strings.Fields(text)),
		},
	}
	return report, nil
}

// FetchURL downloads a web page and strips it down to readable text.
func (e *Extractor) FetchURL(ctx context.Context, pageURL string) (*models.Report, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", "rapportanalys/1.0")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not fetch %q: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %q returned status %d", pageURL, resp.StatusCode)
	}

	text, err := extractHTML(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not parse page %q: %w", pageURL, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("page %q contained no readable text", pageURL)
	}

	return &models.Report{
		SourceID:    pageURL,
		SourceKind:  models.SourceURL,
		Text:        text,
		ExtractedAt: time.Now(),
		Metadata: models.ReportMetadata{
			URL:            pageURL,
			Method:         "html",
			CharacterCount: len(text),
			WordCount:      len(strings.Fields(text)),
		},
	}, nil
}

// PastedReport wraps raw pasted text as a report source. The source ID is
// derived from the text itself, so two different pasted documents can never
// share an embedding cache entry.
func PastedReport(text string) *models.Report {
	text = normalizeText(text)
	return &models.Report{
		SourceID:    pastedSourceID(text),
		SourceKind:  models.SourcePasted,
		Text:        text,
		ExtractedAt: time.Now(),
		Metadata: models.ReportMetadata{
			Method:         "pasted",
			CharacterCount: len(text),
			WordCount:      len(strings.Fields(text)),
		},
	}
}

// pastedSourceID identifies pasted text by its leading characters plus a
// short digest of the whole text. The prefix keeps IDs recognizable in logs
// and history; the digest disambiguates documents that start alike.
func pastedSourceID(text string) string {
	prefix := text
	if len(prefix) > 50 {
		cut := 50
		for cut > 0 && !utf8.RuneStart(prefix[cut]) {
			cut--
		}
		prefix = prefix[:cut]
	}
	return prefix + "-" + utils.HashKey(text)[:12]
}

// extractPDF pulls the text layer page by page. Pages whose text cannot be
// decoded are logged and skipped so one bad page does not sink the report;
// an empty result usually means the PDF is scanned and needs OCR.
func extractPDF(data []byte) (string, int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("could not open PDF: %w", err)
	}

	numPages := reader.NumPage()
	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("skipping unreadable PDF page", "page", i, "error", err)
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return normalizeText(sb.String()), numPages, nil
}

// extractHTML strips scripts, styles and page chrome and returns the
// visible text, one trimmed line per block.
func extractHTML(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}
	doc.Find("script, style, nav, footer, header, noscript").Remove()

	var sb strings.Builder
	body := doc.Find("body")
	if body.Length() == 0 {
		sb.WriteString(doc.Text())
	} else {
		sb.WriteString(body.Text())
	}
	return normalizeText(sb.String()), nil
}

// extractXLSX flattens every sheet into tab-separated rows, prefixed by the
// sheet name so figures keep their table context.
func extractXLSX(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("could not open workbook: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			logger.Warn("skipping unreadable sheet", "sheet", sheet, "error", err)
			continue
		}
		sb.WriteString("## " + sheet + "\n")
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, "\t"))
			if line != "" {
				sb.WriteString(line + "\n")
			}
		}
	}
	return normalizeText(sb.String()), nil
}

// extractXLS reads legacy BIFF workbooks, same flattening as extractXLSX.
// excelize only handles OOXML, so the old binary format gets its own reader.
func extractXLS(data []byte) (string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return "", fmt.Errorf("could not open legacy workbook: %w", err)
	}

	var sb strings.Builder
	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}
		sb.WriteString("## " + sheet.Name + "\n")
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheet.Row(r)
			if row == nil {
				continue
			}
			var cells []string
			for c := row.FirstCol(); c <= row.LastCol(); c++ {
				cells = append(cells, row.Col(c))
			}
			line := strings.TrimSpace(strings.Join(cells, "\t"))
			if line != "" {
				sb.WriteString(line + "\n")
			}
		}
	}
	return normalizeText(sb.String()), nil
}

// normalizeText trims each line and collapses runs of blank lines.
func normalizeText(s string) string {
	var lines []string
	blank := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			blank = true
			continue
		}
		if blank && len(lines) > 0 {
			lines = append(lines, "")
		}
		blank = false
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
