package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatusLabels(t *testing.T) {
	labels, err := ParseStatusLabels("upcoming:Upcoming, Ongoing:Cancelled ,completed:Completed")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"upcoming":  "Upcoming",
		"ongoing":   "Cancelled",
		"completed": "Completed",
	}, labels)
}

func TestParseStatusLabelsRejectsMalformedPair(t *testing.T) {
	_, err := ParseStatusLabels("upcoming")
	require.Error(t, err)

	_, err = ParseStatusLabels("")
	require.Error(t, err)
}

func TestLoadStatusLabelsFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statuses.yaml")
	content := "statuses:\n  upcoming: Upcoming\n  ongoing: Ongoing\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	labels, err := LoadStatusLabels(path)
	require.NoError(t, err)
	assert.Equal(t, "Ongoing", labels["ongoing"])
	assert.Len(t, labels, 2)
}

func TestLoadStatusLabelsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statuses.yaml")
	require.NoError(t, os.WriteFile(path, []byte("statuses: {}\n"), 0o600))

	_, err := LoadStatusLabels(path)
	require.Error(t, err)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("nope", time.Minute))
	assert.Equal(t, 2*time.Second, parseDuration("2s", time.Minute))
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a, ,b "))
}
