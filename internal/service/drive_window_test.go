package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vaxdrive-console/internal/models"
)

func driveOn(t *testing.T, id, date string) models.Drive {
	t.Helper()
	ts, err := models.ParseTimestamp(date)
	require.NoError(t, err)
	return models.Drive{ID: id, Name: id, StartDate: ts}
}

func TestSelectUpcomingWindow(t *testing.T) {
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	drives := []models.Drive{
		driveOn(t, "late", "2025-06-05"),
		driveOn(t, "edge", "2025-05-31"),
		driveOn(t, "past", "2025-04-30"),
		driveOn(t, "soon", "2025-05-10"),
		driveOn(t, "today", "2025-05-01"),
		{ID: "undated"},
	}

	got := SelectUpcoming(drives, now, HorizonFromDays(30))
	ids := make([]string, 0, len(got))
	for _, d := range got {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"edge", "soon", "today"}, ids)
}

func TestSelectUpcomingHorizonConfigurable(t *testing.T) {
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	drives := []models.Drive{driveOn(t, "soon", "2025-05-10"), driveOn(t, "edge", "2025-05-31")}

	got := SelectUpcoming(drives, now, HorizonFromDays(9))
	require.Len(t, got, 1)
	assert.Equal(t, "soon", got[0].ID)

	assert.Len(t, SelectUpcoming(drives, now, 0), 2)
	assert.Empty(t, SelectUpcoming(nil, now, time.Hour))
}

func TestHorizonFromDays(t *testing.T) {
	assert.Equal(t, DefaultDriveHorizon, HorizonFromDays(0))
	assert.Equal(t, 48*time.Hour, HorizonFromDays(2))
}
