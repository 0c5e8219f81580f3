package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/vaxdrive-console/internal/models"
	appErrors "github.com/noah-isme/vaxdrive-console/pkg/errors"
)

const (
	classesCacheKey  = "vaxdrive:reference:classes"
	vaccinesCacheKey = "vaxdrive:reference:vaccines"
)

type classDirectory interface {
	List(ctx context.Context, token string) ([]models.Class, error)
}

type vaccineDirectory interface {
	List(ctx context.Context, token string) ([]models.Vaccine, error)
}

// ReferenceService serves the class and vaccine lists used by console forms.
// Both lists are shared by every session, so they are cached globally.
type ReferenceService struct {
	classes  classDirectory
	vaccines vaccineDirectory
	sessions sessionAccess
	cache    *CacheService
	ttl      time.Duration
	logger   *zap.Logger
}

// NewReferenceService constructs a ReferenceService.
func NewReferenceService(classes classDirectory, vaccines vaccineDirectory, sessions sessionAccess, cache *CacheService, ttl time.Duration, logger *zap.Logger) *ReferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceService{classes: classes, vaccines: vaccines, sessions: sessions, cache: cache, ttl: ttl, logger: logger}
}

// Classes lists classes.
func (s *ReferenceService) Classes(ctx context.Context, sessionID string) ([]models.Class, error) {
	var classes []models.Class
	if hit, _ := s.cache.Get(ctx, classesCacheKey, &classes); hit {
		return classes, nil
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	classes, err = s.classes.List(ctx, sess.DirectoryToken)
	if err != nil {
		return nil, err
	}
	if abandoned(ctx) {
		return nil, appErrors.ErrRequestAbandoned
	}
	if classes == nil {
		classes = []models.Class{}
	}
	_ = s.cache.Set(ctx, classesCacheKey, classes, s.ttl)
	return classes, nil
}

// Vaccines lists vaccines.
func (s *ReferenceService) Vaccines(ctx context.Context, sessionID string) ([]models.Vaccine, error) {
	var vaccines []models.Vaccine
	if hit, _ := s.cache.Get(ctx, vaccinesCacheKey, &vaccines); hit {
		return vaccines, nil
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	vaccines, err = s.vaccines.List(ctx, sess.DirectoryToken)
	if err != nil {
		return nil, err
	}
	if abandoned(ctx) {
		return nil, appErrors.ErrRequestAbandoned
	}
	if vaccines == nil {
		vaccines = []models.Vaccine{}
	}
	_ = s.cache.Set(ctx, vaccinesCacheKey, vaccines, s.ttl)
	return vaccines, nil
}
