package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vaxdrive-console/internal/models"
	appErrors "github.com/noah-isme/vaxdrive-console/pkg/errors"
)

func TestReferenceClassesAreCached(t *testing.T) {
	sessions, sess := newTestSessions(nil)
	classes := &mockClassDirectory{classes: []models.Class{{ID: "c1", Name: "5", Section: "A"}}}
	cache := NewCacheService(newMemoryCache(), nil, time.Minute, nil, true)
	svc := NewReferenceService(classes, &mockVaccineDirectory{}, sessions, cache, time.Minute, nil)

	first, err := svc.Classes(context.Background(), sess.ID)
	require.NoError(t, err)
	second, err := svc.Classes(context.Background(), sess.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, classes.calls)
}

func TestReferenceVaccinesWithoutCache(t *testing.T) {
	sessions, sess := newTestSessions(nil)
	vaccines := &mockVaccineDirectory{}
	svc := NewReferenceService(&mockClassDirectory{}, vaccines, sessions, nil, time.Minute, nil)

	got, err := svc.Vaccines(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	_, err = svc.Vaccines(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, vaccines.calls)
}

func TestReferenceDirectoryError(t *testing.T) {
	sessions, sess := newTestSessions(nil)
	classes := &mockClassDirectory{err: appErrors.Clone(appErrors.ErrDirectoryUnavailable, "down")}
	svc := NewReferenceService(classes, &mockVaccineDirectory{}, sessions, nil, time.Minute, nil)

	_, err := svc.Classes(context.Background(), sess.ID)
	assert.ErrorIs(t, err, appErrors.ErrDirectoryUnavailable)
}

func TestReferenceAbandonedIsNotCached(t *testing.T) {
	sessions, sess := newTestSessions(nil)
	ctx, cancel := context.WithCancel(context.Background())
	classes := &mockClassDirectory{classes: []models.Class{{ID: "c1"}}, onList: cancel}
	cache := NewCacheService(newMemoryCache(), nil, time.Minute, nil, true)
	svc := NewReferenceService(classes, &mockVaccineDirectory{}, sessions, cache, time.Minute, nil)

	_, err := svc.Classes(ctx, sess.ID)
	assert.ErrorIs(t, err, appErrors.ErrRequestAbandoned)

	got, err := svc.Classes(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 2, classes.calls)
}
