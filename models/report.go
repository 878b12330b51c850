package models

import (
	"time"
	"unicode/utf8"
)

// Report is a single source document for one analysis session. The text is
// immutable once extraction has finished; SourceID identifies where it came
// from (URL, filename, or a prefix of pasted text) and seeds the embedding
// cache key.
type Report struct {
	SourceID    string         `json:"source_id"`
	SourceKind  SourceKind     `json:"source_kind"`
	Text        string         `json:"-"`
	ExtractedAt time.Time      `json:"extracted_at"`
	Metadata    ReportMetadata `json:"metadata"`
}

// SourceKind says which input surface produced the report.
type SourceKind string

const (
	SourceUpload SourceKind = "upload"
	SourceURL    SourceKind = "url"
	SourcePasted SourceKind = "pasted"
)

// ReportMetadata carries extraction bookkeeping for display and logging.
type ReportMetadata struct {
	Filename       string  `json:"filename,omitempty"`
	URL            string  `json:"url,omitempty"`
	Pages          int     `json:"pages,omitempty"`
	Method         string  `json:"method"`
	CharacterCount int     `json:"character_count"`
	WordCount      int     `json:"word_count"`
	OCRConfidence  float64 `json:"ocr_confidence,omitempty"`
	PreviewImage   string  `json:"preview_image,omitempty"`
}

// Preview returns up to n bytes of the report text for display, cut on a
// rune boundary so multi-byte characters are never split.
func (r *Report) Preview(n int) string {
	if len(r.Text) <= n {
		return r.Text
	}
	for n > 0 && !utf8.RuneStart(r.Text[n]) {
		n--
	}
	return r.Text[:n]
}
