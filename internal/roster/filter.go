package roster

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/noah-isme/vaxdrive-console/internal/models"
)

// Filter returns, in roster order, the entries whose searchable text contains
// query as a case-insensitive substring. The query is not tokenised. An empty
// query matches everything.
func Filter(roster []models.Student, query string) []models.Student {
	out := make([]models.Student, 0, len(roster))
	if query == "" {
		return append(out, roster...)
	}
	needle := fold(query)
	for _, s := range roster {
		if strings.Contains(fold(SearchText(s)), needle) {
			out = append(out, s)
		}
	}
	return out
}

// SearchText joins name, class label, identifier and, when modelled, the
// vaccinated flag as yes/no.
func SearchText(s models.Student) string {
	parts := []string{s.Name, s.ClassName(), s.DisplayID()}
	if s.Vaccinated != nil {
		if *s.Vaccinated {
			parts = append(parts, "yes")
		} else {
			parts = append(parts, "no")
		}
	}
	return strings.Join(parts, " ")
}

func fold(s string) string {
	return cases.Fold().String(s)
}

func containsFold(s, substr string) bool {
	return strings.Contains(fold(s), fold(substr))
}

// EqualFold reports whether a and b are equal under Unicode case folding,
// ignoring surrounding space.
func EqualFold(a, b string) bool {
	return fold(strings.TrimSpace(a)) == fold(strings.TrimSpace(b))
}
