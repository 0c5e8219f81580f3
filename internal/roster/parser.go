// Package roster holds the in-memory roster rules: local file import,
// reconciliation by identity and free-text filtering. Everything here is pure;
// callers own the roster and decide where it lives.
package roster

import (
	"strconv"
	"strings"

	"github.com/noah-isme/vaxdrive-console/internal/models"
	appErrors "github.com/noah-isme/vaxdrive-console/pkg/errors"
)

const delimiter = ","

// Positional import columns.
const (
	colName = iota
	colAge
	colClass
	colVaccinated
)

// ParseCSV converts raw import text into provisional candidates. The first line
// is a header and is dropped without inspection. Lines missing a name, age or
// class are skipped. Accepted record k (1-based) receives LocalID base+k.
func ParseCSV(content string, base int) ([]models.Student, error) {
	lines := strings.Split(content, "\n")
	rows := make([][]string, 0, len(lines))
	for i, line := range lines {
		if i == 0 {
			continue
		}
		rows = append(rows, strings.Split(strings.TrimSpace(line), delimiter))
	}
	return build(rows, base)
}

// build applies the shared acceptance rules to positional rows.
func build(rows [][]string, base int) ([]models.Student, error) {
	accepted := make([]models.Student, 0, len(rows))
	for _, fields := range rows {
		name := field(fields, colName)
		age := field(fields, colAge)
		class := field(fields, colClass)
		if name == "" || age == "" || class == "" {
			continue
		}

		accepted = append(accepted, models.Student{
			LocalID:     base + len(accepted) + 1,
			Name:        name,
			Age:         parseAge(age),
			ClassLabel:  class,
			Vaccinated:  parseVaccinated(fields),
			Provisional: true,
		})
	}

	if len(accepted) == 0 {
		return nil, appErrors.ErrNoValidRows
	}
	return accepted, nil
}

func field(fields []string, idx int) string {
	if idx >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[idx])
}

// parseAge reads the leading integer of raw. Anything without one is not a
// number and yields nil rather than rejecting the row.
func parseAge(raw string) *int {
	end := 0
	if end < len(raw) && (raw[end] == '-' || raw[end] == '+') {
		end++
	}
	digits := end
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == digits {
		return nil
	}
	age, err := strconv.Atoi(raw[:end])
	if err != nil {
		return nil
	}
	return &age
}

// parseVaccinated is nil when the column is absent, otherwise true iff the
// value contains "yes" in any case.
func parseVaccinated(fields []string) *bool {
	if colVaccinated >= len(fields) {
		return nil
	}
	v := containsFold(fields[colVaccinated], "yes")
	return &v
}
