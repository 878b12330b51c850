package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/siffror/ai-rapportanalys-Render/models"
)

// AnswerText renders an answer as a plain-text download: the question, the
// answer body, and any extracted key figures.
func AnswerText(answer models.Answer) []byte {
	var sb strings.Builder
	sb.WriteString("Fråga: " + answer.Question + "\n\n")
	sb.WriteString(answer.Text + "\n")
	if len(answer.KeyFigures) > 0 {
		sb.WriteString("\nNyckeltal:\n")
		for _, fig := range answer.KeyFigures {
			sb.WriteString("- " + fig + "\n")
		}
	}
	return []byte(sb.String())
}

// AnswerPDF renders the answer as a simple A4 PDF. The core fonts are
// Latin-1 only, so text runs through the cp1252 translator; characters
// outside it degrade rather than fail.
func AnswerPDF(answer models.Answer) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.AddPage()

	doc.SetFont("Arial", "B", 14)
	doc.MultiCell(0, 10, tr("Fråga: "+answer.Question), "", "L", false)
	doc.Ln(4)

	doc.SetFont("Arial", "", 12)
	for _, line := range strings.Split(answer.Text, "\n") {
		doc.MultiCell(0, 10, tr(line), "", "L", false)
	}

	if len(answer.KeyFigures) > 0 {
		doc.Ln(4)
		doc.SetFont("Arial", "B", 12)
		doc.MultiCell(0, 10, tr("Nyckeltal"), "", "L", false)
		doc.SetFont("Arial", "", 12)
		for _, fig := range answer.KeyFigures {
			doc.MultiCell(0, 10, tr("- "+fig), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF export failed: %w", err)
	}
	return buf.Bytes(), nil
}
