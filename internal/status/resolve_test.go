package status_test

import (
	"testing"

	"leadpilot/internal/domain"
	"leadpilot/internal/status"
)

func entry(id, label string, order int) domain.StatusCatalogEntry {
	return domain.StatusCatalogEntry{ID: id, BusinessID: "biz-1", Label: label, Canonical: status.Normalize(label), SortOrder: order}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"  Qualified ":      "qualified",
		"Meeting   Booked":  "meeting booked",
		"Won’t Buy":         "won't buy",
		"“Hot” Lead":        `"hot" lead`,
		"ALREADY A CLIENT":  "already a client",
	}
	for in, want := range cases {
		if got := status.Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveExactBeatsSubstring(t *testing.T) {
	catalog := []domain.StatusCatalogEntry{
		entry("st-1", "Qualified", 0),
		entry("st-2", "Qualified Hot", 1),
	}
	got := status.Resolve("qualified", catalog)
	if len(got) != 1 || got[0].ID != "st-1" {
		t.Fatalf("exact match must win: %+v", got)
	}
}

func TestResolveSubstringBothDirections(t *testing.T) {
	catalog := []domain.StatusCatalogEntry{entry("st-1", "Meeting Scheduled", 0)}

	if got := status.Resolve("Meeting", catalog); len(got) != 1 {
		t.Fatalf("label containing recommendation should match: %+v", got)
	}
	if got := status.Resolve("Meeting Scheduled for next week", catalog); len(got) != 1 {
		t.Fatalf("recommendation containing label should match: %+v", got)
	}
}

func TestResolveQuoteAndCaseFolding(t *testing.T) {
	catalog := []domain.StatusCatalogEntry{entry("st-1", "Won't Buy", 0)}
	got := status.Resolve("WON’T BUY", catalog)
	if len(got) != 1 || got[0].ID != "st-1" {
		t.Fatalf("typographic quote should fold to ASCII: %+v", got)
	}
}

func TestResolveAmbiguousKeepsCatalogOrder(t *testing.T) {
	catalog := []domain.StatusCatalogEntry{
		entry("st-1", "Contacted Early", 0),
		entry("st-2", "Contacted Late", 1),
	}
	got := status.Resolve("Contacted", catalog)
	if len(got) != 2 || got[0].ID != "st-1" {
		t.Fatalf("ambiguous resolution must keep catalog order: %+v", got)
	}
}

func TestResolveNoMatch(t *testing.T) {
	catalog := []domain.StatusCatalogEntry{entry("st-1", "New", 0)}
	if got := status.Resolve("Galactic Emperor", catalog); got != nil {
		t.Fatalf("expected no match, got %+v", got)
	}
}
