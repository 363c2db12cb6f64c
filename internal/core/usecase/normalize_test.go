package usecase

import (
	"testing"

	"github.com/kirillkom/builder-search/internal/core/domain"
)

func TestNormalizeQueryStripsStopwords(t *testing.T) {
	q, err := NormalizeQuery("frame developers on base")
	if err != nil {
		t.Fatalf("NormalizeQuery() error = %v", err)
	}
	if q.Normalized != "frame developers base" {
		t.Fatalf("expected normalized %q, got %q", "frame developers base", q.Normalized)
	}
	if q.Original != "frame developers on base" {
		t.Fatalf("expected original preserved, got %q", q.Original)
	}
}

func TestNormalizeQueryLowercasesAndCollapsesWhitespace(t *testing.T) {
	q, err := NormalizeQuery("  Solidity   AUDITORS \t in  Berlin / Paris - remote ")
	if err != nil {
		t.Fatalf("NormalizeQuery() error = %v", err)
	}
	if q.Normalized != "solidity auditors berlin paris remote" {
		t.Fatalf("unexpected normalized query %q", q.Normalized)
	}
}

func TestNormalizeQueryKeepsRawOriginal(t *testing.T) {
	raw := "  Frame developers\ton Base \n"
	q, err := NormalizeQuery(raw)
	if err != nil {
		t.Fatalf("NormalizeQuery() error = %v", err)
	}
	if q.Original != raw {
		t.Fatalf("expected raw original %q, got %q", raw, q.Original)
	}
	if q.Normalized != "frame developers base" {
		t.Fatalf("unexpected normalized query %q", q.Normalized)
	}
}

func TestNormalizeQueryAllStopwordsFallsBackToTrimmedOriginal(t *testing.T) {
	q, err := NormalizeQuery("  The AND of  ")
	if err != nil {
		t.Fatalf("NormalizeQuery() error = %v", err)
	}
	if q.Normalized != "The AND of" {
		t.Fatalf("expected trimmed original, got %q", q.Normalized)
	}
}

func TestNormalizeQueryRejectsBlankInput(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\t"} {
		_, err := NormalizeQuery(raw)
		if !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %q, got %v", raw, err)
		}
	}
}

func TestNormalizeQueryNeverReturnsEmpty(t *testing.T) {
	inputs := []string{"a", "-", "/ -", "who is on the", "x", "zk rollups", "a an the and or"}
	for _, raw := range inputs {
		q, err := NormalizeQuery(raw)
		if err != nil {
			t.Fatalf("NormalizeQuery(%q) error = %v", raw, err)
		}
		if q.Normalized == "" {
			t.Fatalf("NormalizeQuery(%q) returned empty normalized query", raw)
		}
	}
}
