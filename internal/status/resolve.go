package status

import (
	"strings"

	"leadpilot/internal/domain"
)

var quoteFolder = strings.NewReplacer("’", "'", "‘", "'", "“", `"`, "”", `"`)

// Normalize prepares a label for comparison: trim, collapse internal
// whitespace, fold typographic quotes to ASCII, case-fold.
func Normalize(label string) string {
	label = quoteFolder.Replace(label)
	label = strings.Join(strings.Fields(label), " ")
	return strings.ToLower(label)
}

// Resolve matches a recommended label against the catalog. Exact normalized
// matches win; otherwise bidirectional substring matches are returned. The
// result preserves catalog order (sort_order), so callers wanting a single
// winner take the first entry.
func Resolve(label string, catalog []domain.StatusCatalogEntry) []domain.StatusCatalogEntry {
	norm := Normalize(label)
	if norm == "" {
		return nil
	}

	var exact []domain.StatusCatalogEntry
	for _, e := range catalog {
		if Normalize(e.Label) == norm || Normalize(e.Canonical) == norm {
			exact = append(exact, e)
		}
	}
	if len(exact) > 0 {
		return exact
	}

	var partial []domain.StatusCatalogEntry
	for _, e := range catalog {
		cand := Normalize(e.Label)
		if cand == "" {
			continue
		}
		if strings.Contains(cand, norm) || strings.Contains(norm, cand) {
			partial = append(partial, e)
		}
	}
	return partial
}
