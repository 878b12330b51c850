package services

import (
	"regexp"
	"strings"
)

// Patterns that mark a line as a likely financial key figure: a number with
// a currency/percent unit, or a financial term eventually followed by a
// digit. Matching is case-insensitive; terms cover Swedish and English.
var keyFigurePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b\d+[.,]?\d*\s*(SEK|MSEK|kr|miljoner|tkr|USD|\$|€|%)`),
	regexp.MustCompile(`(?i)(resultat|omsättning|utdelning|kassaflöde|kapital|intäkter|EBITDA|vinst|dividend|revenue|profit).*?\d`),
}

// FilterKeyFigures returns the lines of an answer that look like financial
// key figures. Pure and deterministic; used for highlighting only.
func FilterKeyFigures(answer string) []string {
	var figures []string
	for _, line := range strings.Split(answer, "\n") {
		if isKeyFigure(line) {
			figures = append(figures, line)
		}
	}
	return figures
}

func isKeyFigure(line string) bool {
	for _, p := range keyFigurePatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// Company names used to spot rows of a listed-holdings table in report
// text. Taken from the investment reports this tool is pointed at.
var listedCompanyNames = []string{
	"ABB", "Atlas", "Astra", "SEB", "Saab", "Nasdaq",
	"Epiroc", "Sobi", "Ericsson", "Wärtsilä", "Husqvarna", "Electrolux",
}

// ListedCompaniesTable scans report text for lines naming a known listed
// company together with digits and renders them as a markdown table.
// Returns "" when no such lines exist.
func ListedCompaniesTable(text string) string {
	digits := regexp.MustCompile(`\d`)
	var rows []string
	for _, line := range strings.Split(text, "\n") {
		if !digits.MatchString(line) {
			continue
		}
		for _, name := range listedCompanyNames {
			if strings.Contains(line, name) {
				rows = append(rows, strings.TrimSpace(line))
				break
			}
		}
	}
	if len(rows) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("| Bolag | Övriga data |\n")
	sb.WriteString("|-------|--------------|\n")
	for _, row := range rows {
		parts := strings.Fields(row)
		sb.WriteString("| " + parts[0] + " | " + strings.Join(parts[1:], " ") + " |\n")
	}
	return sb.String()
}
