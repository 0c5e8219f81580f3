package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vaxdrive-console/internal/models"
	appErrors "github.com/noah-isme/vaxdrive-console/pkg/errors"
)

func TestExportJobStoreLifecycle(t *testing.T) {
	store := NewExportJobStore()
	ctx := context.Background()

	job := &models.ExportJob{ID: "j1", Status: models.ExportStatusQueued}
	require.NoError(t, store.Create(ctx, job))
	assert.ErrorIs(t, store.Create(ctx, job), appErrors.ErrConflict)

	job.Status = models.ExportStatusFailed
	got, err := store.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, got.Status)

	updated, err := store.Update(ctx, "j1", func(j *models.ExportJob) { j.Status = models.ExportStatusProcessing })
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusProcessing, updated.Status)

	_, err = store.Update(ctx, "missing", func(*models.ExportJob) {})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	require.NoError(t, store.Delete(ctx, "j1"))
	_, err = store.Get(ctx, "j1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestExportJobStoreFinishedBefore(t *testing.T) {
	store := NewExportJobStore()
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		ts := base.Add(d)
		return &ts
	}

	require.NoError(t, store.Create(ctx, &models.ExportJob{ID: "late", FinishedAt: at(2 * time.Hour)}))
	require.NoError(t, store.Create(ctx, &models.ExportJob{ID: "older", FinishedAt: at(-time.Hour)}))
	require.NoError(t, store.Create(ctx, &models.ExportJob{ID: "old", FinishedAt: at(0)}))
	require.NoError(t, store.Create(ctx, &models.ExportJob{ID: "running"}))

	expired, err := store.FinishedBefore(ctx, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, expired, 2)
	assert.Equal(t, "older", expired[0].ID)
	assert.Equal(t, "old", expired[1].ID)
}
