package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vaxdrive-console/internal/models"
)

func sampleRoster() []models.Student {
	return []models.Student{
		{ID: "s1", StudentID: "STU-1", Name: "Ana", ClassLabel: "1A", Vaccinated: boolPtr(true)},
		{LocalID: 2, Name: "Bo", Age: intPtr(9), ClassLabel: "1B", Provisional: true},
		{ID: "s3", StudentID: "STU-3", Name: "Cy", ClassLabel: "2A"},
	}
}

func TestUpsertReplacesInPlace(t *testing.T) {
	roster := sampleRoster()
	edited := models.Student{ID: "s3", Name: "Cyrus"}

	out, outcome := Upsert(roster, edited)
	assert.Equal(t, Updated, outcome)
	require.Len(t, out, len(roster))
	assert.Equal(t, roster[0], out[0])
	assert.Equal(t, roster[1], out[1])
	assert.Equal(t, edited, out[2])
	assert.Empty(t, out[2].ClassLabel, "replacement is a full overwrite")

	assert.Equal(t, "Cy", roster[2].Name, "input roster untouched")
}

func TestUpsertMatchesLocalID(t *testing.T) {
	out, outcome := Upsert(sampleRoster(), models.Student{LocalID: 2, Name: "Bob", ClassLabel: "1C"})
	assert.Equal(t, Updated, outcome)
	assert.Equal(t, "Bob", out[1].Name)
}

func TestUpsertAppendsUnknown(t *testing.T) {
	roster := sampleRoster()
	rec := models.Student{ID: "s9", Name: "Dee"}

	out, outcome := Upsert(roster, rec)
	assert.Equal(t, Inserted, outcome)
	require.Len(t, out, len(roster)+1)
	assert.Equal(t, roster, out[:len(roster)])
	assert.Equal(t, rec, out[len(roster)])
}

func TestUpsertAbsentKeysNeverMatch(t *testing.T) {
	// Neither record carries a key; matching on the missing values would overwrite Bo.
	roster := []models.Student{{Name: "Ana"}, {Name: "Bo"}}
	out, outcome := Upsert(roster, models.Student{Name: "Cy"})
	assert.Equal(t, Inserted, outcome)
	assert.Len(t, out, 3)
	assert.Equal(t, "Ana", out[0].Name)
}

func TestUpsertPrefersDirectoryID(t *testing.T) {
	roster := []models.Student{{LocalID: 7, Name: "local"}, {ID: "s1", Name: "remote"}}
	out, outcome := Upsert(roster, models.Student{ID: "s1", LocalID: 7, Name: "both"})
	assert.Equal(t, Updated, outcome)
	assert.Equal(t, "local", out[0].Name)
	assert.Equal(t, "both", out[1].Name)
}

func TestMergeCountsOutcomes(t *testing.T) {
	batch := []models.Student{
		{ID: "s1", Name: "Ana 2"},
		{LocalID: 10, Name: "New"},
		{LocalID: 10, Name: "New again"},
	}
	out, result := Merge(sampleRoster(), batch)
	assert.Equal(t, MergeResult{Inserted: 1, Updated: 2}, result)
	require.Len(t, out, 4)
	assert.Equal(t, "Ana 2", out[0].Name)
	assert.Equal(t, "New again", out[3].Name)
}

func TestPromoteKeepsPosition(t *testing.T) {
	saved := models.Student{ID: "s2", StudentID: "STU-2", Name: "Bo", LocalID: 2, Provisional: true}
	out, ok := Promote(sampleRoster(), 2, saved)
	require.True(t, ok)
	require.Len(t, out, 3)
	assert.Equal(t, "s2", out[1].ID)
	assert.Zero(t, out[1].LocalID)
	assert.False(t, out[1].Provisional)
}

func TestPromoteDropsDuplicate(t *testing.T) {
	saved := models.Student{ID: "s3", Name: "Cy saved"}
	out, ok := Promote(sampleRoster(), 2, saved)
	require.True(t, ok)
	require.Len(t, out, 2)
	assert.Equal(t, "Cy saved", out[1].Name)
	assert.Equal(t, -1, IndexOf(out, Identity{LocalID: 2}))
}

func TestPromoteWithoutProvisionalUpserts(t *testing.T) {
	out, ok := Promote(sampleRoster(), 99, models.Student{ID: "s4", Name: "Eve"})
	assert.False(t, ok)
	assert.Len(t, out, 4)
}

func TestRemove(t *testing.T) {
	roster := sampleRoster()
	out, ok := Remove(roster, Identity{ID: "s1"})
	require.True(t, ok)
	assert.Equal(t, []models.Student{roster[1], roster[2]}, out)

	_, ok = Remove(roster, Identity{ID: "missing"})
	assert.False(t, ok)
	assert.Len(t, roster, 3)
}

func TestProvisional(t *testing.T) {
	got := Provisional(sampleRoster())
	require.Len(t, got, 1)
	assert.Equal(t, "Bo", got[0].Name)
}

func TestLandedPairsOnlyNewRecords(t *testing.T) {
	pending := []models.Student{
		{LocalID: 4, Name: "Dee", ClassLabel: "3C", Provisional: true},
		{LocalID: 5, Name: "dee", ClassLabel: "3c", Provisional: true},
		{LocalID: 6, Name: "Eli", ClassLabel: "2B", Provisional: true},
		{LocalID: 7, Name: "Fay", ClassLabel: "1A", Provisional: true},
	}
	before := []models.Student{{ID: "s1", Name: "Eli", ClassLabel: "2B"}}
	after := []models.Student{
		{ID: "s1", Name: "Eli", ClassLabel: "2B"},
		{ID: "s8", Name: "DEE", ClassLabel: "3C"},
		{ID: "s9", Name: "Fay", Class: &models.Ref{ID: "c1"}},
	}

	landed := Landed(pending, before, after)
	assert.Equal(t, map[int]bool{4: true, 7: true}, landed)
}

func TestLandedNothingStored(t *testing.T) {
	pending := []models.Student{{LocalID: 1, Name: "Cy", ClassLabel: "3C", Provisional: true}}
	assert.Empty(t, Landed(pending, nil, nil))
}

func TestNextBase(t *testing.T) {
	assert.Equal(t, 0, NextBase(nil, 0))
	assert.Equal(t, 3, NextBase(sampleRoster(), 0))
	assert.Equal(t, 8, NextBase(sampleRoster(), 8))
	assert.Equal(t, 12, NextBase([]models.Student{{LocalID: 12}}, 4))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "inserted", Inserted.String())
	assert.Equal(t, "updated", Updated.String())
	assert.Equal(t, "unknown", Outcome(0).String())
}
