package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/vaxdrive-console/internal/models"
)

func TestFilterEmptyQueryReturnsAll(t *testing.T) {
	roster := sampleRoster()
	assert.Equal(t, roster, Filter(roster, ""))
	assert.Empty(t, Filter(nil, ""))
}

func TestFilterMatchesAcrossFields(t *testing.T) {
	roster := sampleRoster()

	cases := map[string][]string{
		"ana":    {"Ana"},
		"1":      {"Ana", "Bo"},
		"1b":     {"Bo"},
		"stu-3":  {"Cy"},
		"yes":    {"Ana"},
		"ana 1a": {"Ana"},
		"1a ana": nil,
		"zzz":    nil,
	}
	for query, want := range cases {
		var got []string
		for _, s := range Filter(roster, query) {
			got = append(got, s.Name)
		}
		assert.Equal(t, want, got, "query %q", query)
	}
}

func TestFilterUsesReferencedClassAndFolding(t *testing.T) {
	roster := []models.Student{
		{ID: "a", Name: "STRASSE", Class: &models.Ref{ID: "c1", Name: "Grade 5", Section: "B"}},
		{ID: "b", Name: "Other", Vaccinated: boolPtr(false)},
	}
	assert.Len(t, Filter(roster, "grade 5 - b"), 1)
	assert.Len(t, Filter(roster, "strasse"), 1)
	assert.Equal(t, "Other", Filter(roster, " no")[0].Name)
}

func TestSearchText(t *testing.T) {
	s := models.Student{LocalID: 4, Name: "Ana", ClassLabel: "1A", Vaccinated: boolPtr(true)}
	assert.Equal(t, "Ana 1A 4 yes", SearchText(s))
	assert.Equal(t, "Bo  ", SearchText(models.Student{Name: "Bo"}))
}

func TestEqualFold(t *testing.T) {
	assert.True(t, EqualFold(" 5a", "5A"))
	assert.True(t, EqualFold("ÉCOLE", "école"))
	assert.False(t, EqualFold("5A", "5B"))
}
