package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vaxdrive-console/internal/dto"
	"github.com/noah-isme/vaxdrive-console/internal/models"
	appErrors "github.com/noah-isme/vaxdrive-console/pkg/errors"
)

func TestDashboardUsesDirectorySummary(t *testing.T) {
	sessions, sess := newTestSessions(nil)
	percent := 66.666
	summaries := &mockSummaryDirectory{summary: &dto.DirectorySummary{TotalStudents: 3, VaccinatedStudents: 2, VaccinatedPercent: &percent}}
	svc := NewDashboardService(summaries, &mockDriveDirectory{}, sessions, nil, time.Minute, DefaultDriveHorizon, nil)

	resp, hit, err := svc.Summary(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, dto.DashboardSourceDirectory, resp.Source)
	assert.Equal(t, "66.7", resp.VaccinatedPercent)
	assert.NotNil(t, resp.UpcomingDrives)
}

func TestDashboardFallsBackToRoster(t *testing.T) {
	sessions, sess := newTestSessions([]models.Student{
		{ID: "a1", Vaccinated: boolPtr(true)},
		{ID: "b2", Vaccinated: boolPtr(false)},
		{ID: "c3"},
	})
	summaries := &mockSummaryDirectory{err: appErrors.Clone(appErrors.ErrNotFound, "no summary")}
	drives := &mockDriveDirectory{drives: []models.Drive{
		{ID: "soon", StartDate: models.NewTimestamp(time.Now().Add(24 * time.Hour))},
		{ID: "far", StartDate: models.NewTimestamp(time.Now().Add(90 * 24 * time.Hour))},
	}}
	svc := NewDashboardService(summaries, drives, sessions, nil, time.Minute, DefaultDriveHorizon, nil)

	resp, _, err := svc.Summary(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.DashboardSourceRoster, resp.Source)
	assert.Equal(t, 3, resp.TotalStudents)
	assert.Equal(t, 1, resp.VaccinatedCount)
	assert.Equal(t, "33.3", resp.VaccinatedPercent)
	require.Len(t, resp.UpcomingDrives, 1)
	assert.Equal(t, "soon", resp.UpcomingDrives[0].ID)
}

func TestDashboardIsCachedPerSession(t *testing.T) {
	sessions, sess := newTestSessions(nil)
	summaries := &mockSummaryDirectory{summary: &dto.DirectorySummary{}}
	cache := NewCacheService(newMemoryCache(), nil, time.Minute, nil, true)
	svc := NewDashboardService(summaries, &mockDriveDirectory{}, sessions, cache, time.Minute, DefaultDriveHorizon, nil)

	_, _, err := svc.Summary(context.Background(), sess.ID)
	require.NoError(t, err)
	resp, hit, err := svc.Summary(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, summaries.calls)
	assert.Equal(t, "0.0", resp.VaccinatedPercent)

	require.NoError(t, cache.Delete(context.Background(), dashboardCacheKey(sess.ID)))
	_, _, err = svc.Summary(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summaries.calls)
}

func TestDashboardAbandoned(t *testing.T) {
	sessions, sess := newTestSessions(nil)
	summaries := &mockSummaryDirectory{err: appErrors.ErrRequestAbandoned}
	svc := NewDashboardService(summaries, &mockDriveDirectory{}, sessions, nil, time.Minute, DefaultDriveHorizon, nil)

	_, _, err := svc.Summary(context.Background(), sess.ID)
	assert.ErrorIs(t, err, appErrors.ErrRequestAbandoned)
}

func TestVaccinatedPercent(t *testing.T) {
	assert.Equal(t, "0.0", VaccinatedPercent(0, 0))
	assert.Equal(t, "100.0", VaccinatedPercent(4, 4))
	assert.Equal(t, "12.5", VaccinatedPercent(1, 8))
}
