package services

import (
	"strings"
	"testing"
)

func TestFilterKeyFigures(t *testing.T) {
	answer := strings.Join([]string{
		"Utdelningen per aktie blev 5 SEK.",
		"Se bilaga A för detaljer.",
		"Omsättningen uppgick till 1 200 MSEK.",
		"Styrelsen sammanträdde i mars.",
		"Revenue grew 12 % year over year.",
		"EBITDA: 340",
	}, "\n")

	figures := FilterKeyFigures(answer)
	if len(figures) != 4 {
		t.Fatalf("expected 4 key figure lines, got %d: %v", len(figures), figures)
	}
	for _, unwanted := range []string{"bilaga", "Styrelsen"} {
		for _, fig := range figures {
			if strings.Contains(fig, unwanted) {
				t.Fatalf("line %q should not be a key figure", fig)
			}
		}
	}
}

func TestFilterKeyFiguresCaseInsensitive(t *testing.T) {
	figures := FilterKeyFigures("UTDELNING 5")
	if len(figures) != 1 {
		t.Fatalf("uppercase term with digit should match, got %v", figures)
	}
}

func TestFilterKeyFiguresEmptyAnswer(t *testing.T) {
	if figures := FilterKeyFigures(""); len(figures) != 0 {
		t.Fatalf("empty answer should yield no figures, got %v", figures)
	}
}

func TestListedCompaniesTable(t *testing.T) {
	text := strings.Join([]string{
		"Innehav per 31 december",
		"Ericsson 1 200 000 aktier 54 MSEK",
		"Atlas Copco 800 000 aktier 97 MSEK",
		"Onoterat bolag AB 10 000 aktier",
		"Ingen siffra på denna rad om SEB",
	}, "\n")

	table := ListedCompaniesTable(text)
	if table == "" {
		t.Fatal("expected a table")
	}
	if !strings.Contains(table, "| Ericsson |") {
		t.Fatalf("Ericsson row missing:\n%s", table)
	}
	if !strings.Contains(table, "| Atlas |") {
		t.Fatalf("Atlas row missing:\n%s", table)
	}
	if strings.Contains(table, "Onoterat") {
		t.Fatalf("unknown company should not appear:\n%s", table)
	}
	if strings.Contains(table, "Ingen siffra") {
		t.Fatalf("rows without digits should not appear:\n%s", table)
	}
}

func TestListedCompaniesTableNoMatches(t *testing.T) {
	if table := ListedCompaniesTable("bara löptext utan innehav"); table != "" {
		t.Fatalf("expected empty table, got:\n%s", table)
	}
}
