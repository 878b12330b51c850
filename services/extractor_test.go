package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/siffror/ai-rapportanalys-Render/models"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>Årsredovisning 2024</title><style>body{color:red}</style></head>
<body>
<nav>Meny Hem Om</nav>
<script>console.log("spårning");</script>
<h1>Årsredovisning 2024</h1>
<p>Omsättningen uppgick till 120 MSEK.</p>
<p>Utdelning per aktie: 5 kr.</p>
<footer>© 2024 Bolaget AB</footer>
</body>
</html>`

func TestExtractHTMLFile(t *testing.T) {
	e := NewExtractor(testConfig())
	report, err := e.ExtractFile("rapport.html", []byte(samplePage))
	if err != nil {
		t.Fatal(err)
	}
	if report.SourceKind != models.SourceUpload {
		t.Fatalf("wrong source kind %q", report.SourceKind)
	}
	if !strings.Contains(report.Text, "Omsättningen uppgick till 120 MSEK.") {
		t.Fatalf("body text missing:\n%s", report.Text)
	}
	for _, stripped := range []string{"console.log", "color:red", "Meny Hem", "© 2024"} {
		if strings.Contains(report.Text, stripped) {
			t.Fatalf("%q should have been stripped:\n%s", stripped, report.Text)
		}
	}
	if report.Metadata.Method != "html" {
		t.Fatalf("wrong method %q", report.Metadata.Method)
	}
	if report.Metadata.CharacterCount != len(report.Text) {
		t.Fatal("character count out of sync")
	}
}

func TestExtractPlainText(t *testing.T) {
	e := NewExtractor(testConfig())
	report, err := e.ExtractFile("noteringar.txt", []byte("  rad ett  \n\n\n rad två "))
	if err != nil {
		t.Fatal(err)
	}
	if report.Text != "rad ett\n\nrad två" {
		t.Fatalf("normalization failed: %q", report.Text)
	}
}

func TestExtractUnsupportedExtension(t *testing.T) {
	e := NewExtractor(testConfig())
	if _, err := e.ExtractFile("data.docx", []byte("x")); err == nil {
		t.Fatal("expected an error for unsupported extension")
	}
}

func TestExtractFileSizeLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxFileSize = 10
	e := NewExtractor(cfg)
	if _, err := e.ExtractFile("stor.txt", []byte("mer än tio bytes text")); err == nil {
		t.Fatal("expected size limit error")
	}
}

func TestExtractXLSX(t *testing.T) {
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "Post")
	f.SetCellValue("Sheet1", "B1", "Belopp")
	f.SetCellValue("Sheet1", "A2", "Omsättning")
	f.SetCellValue("Sheet1", "B2", 120)
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	e := NewExtractor(testConfig())
	report, err := e.ExtractFile("nyckeltal.xlsx", buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(report.Text, "Sheet1") {
		t.Fatalf("sheet name missing:\n%s", report.Text)
	}
	if !strings.Contains(report.Text, "Omsättning\t120") {
		t.Fatalf("row content missing:\n%s", report.Text)
	}
}

func TestFetchURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	e := NewExtractor(testConfig())
	report, err := e.FetchURL(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if report.SourceKind != models.SourceURL {
		t.Fatalf("wrong source kind %q", report.SourceKind)
	}
	if report.SourceID != srv.URL {
		t.Fatalf("URL should be the source ID, got %q", report.SourceID)
	}
	if !strings.Contains(report.Text, "Utdelning per aktie: 5 kr.") {
		t.Fatalf("page text missing:\n%s", report.Text)
	}
}

func TestFetchURLNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "borta", http.StatusNotFound)
	}))
	defer srv.Close()

	e := NewExtractor(testConfig())
	if _, err := e.FetchURL(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 404")
	}
}

func TestFetchURLEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><script>x()</script></body></html>"))
	}))
	defer srv.Close()

	e := NewExtractor(testConfig())
	if _, err := e.FetchURL(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for page without readable text")
	}
}

func TestPastedReport(t *testing.T) {
	report := PastedReport("  lite text  ")
	if report.SourceKind != models.SourcePasted {
		t.Fatalf("wrong source kind %q", report.SourceKind)
	}
	if report.Text != "lite text" {
		t.Fatalf("text not normalized: %q", report.Text)
	}
}

func TestPastedReportSourceIDs(t *testing.T) {
	a := PastedReport("Omsättningen uppgick till 120 MSEK under året.")
	b := PastedReport("Utdelningen blev 5 SEK per aktie.")
	if a.SourceID == b.SourceID {
		t.Fatalf("different pasted texts must not share source ID %q", a.SourceID)
	}
	if again := PastedReport("Omsättningen uppgick till 120 MSEK under året."); again.SourceID != a.SourceID {
		t.Fatalf("same text gave different IDs: %q vs %q", a.SourceID, again.SourceID)
	}
	if !strings.HasPrefix(a.SourceID, "Omsättningen") {
		t.Fatalf("source ID should keep a recognizable prefix: %q", a.SourceID)
	}
}

func TestPastedSourceIDRuneBoundary(t *testing.T) {
	// 49 ASCII bytes followed by a two-byte rune straddling the prefix cut.
	text := strings.Repeat("x", 49) + "åäö och mer text som gör strängen längre än femtio"
	id := pastedSourceID(text)
	if !utf8.ValidString(id) {
		t.Fatalf("source ID contains a split rune: %q", id)
	}
	if !strings.HasPrefix(id, strings.Repeat("x", 49)) {
		t.Fatalf("prefix lost: %q", id)
	}
}

func TestExtractLegacyXLSRouting(t *testing.T) {
	e := NewExtractor(testConfig())
	_, err := e.ExtractFile("gammal.xls", []byte("detta är inte en riktig arbetsbok alls, bara text"))
	if err == nil {
		t.Fatal("expected an error for a corrupt workbook")
	}
	if strings.Contains(err.Error(), "unsupported file type") {
		t.Fatalf("xls should reach the legacy reader, got: %v", err)
	}
}
