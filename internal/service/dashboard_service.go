package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/vaxdrive-console/internal/dto"
	"github.com/noah-isme/vaxdrive-console/internal/models"
	appErrors "github.com/noah-isme/vaxdrive-console/pkg/errors"
)

const dashboardCachePrefix = "vaxdrive:dashboard:"

type summaryDirectory interface {
	Summary(ctx context.Context, token string) (*dto.DirectorySummary, error)
}

type driveLister interface {
	List(ctx context.Context, token string) ([]models.Drive, error)
}

// DashboardService composes the console landing summary.
type DashboardService struct {
	summaries summaryDirectory
	drives    driveLister
	sessions  sessionAccess
	cache     *CacheService
	ttl       time.Duration
	horizon   time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(summaries summaryDirectory, drives driveLister, sessions sessionAccess, cache *CacheService, ttl, horizon time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &DashboardService{
		summaries: summaries,
		drives:    drives,
		sessions:  sessions,
		cache:     cache,
		ttl:       ttl,
		horizon:   horizon,
		logger:    logger,
		now:       time.Now,
	}
}

// Summary returns the directory's summary, falling back to figures computed
// from the session roster when the directory cannot provide one. The boolean
// reports a cache hit.
func (s *DashboardService) Summary(ctx context.Context, sessionID string) (*dto.DashboardResponse, bool, error) {
	key := dashboardCacheKey(sessionID)
	var cached dto.DashboardResponse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}

	resp, err := s.remote(ctx, sess)
	if err != nil {
		if isAbandoned(err) || abandoned(ctx) {
			return nil, false, appErrors.ErrRequestAbandoned
		}
		s.logger.Warn("dashboard summary unavailable, composing from roster", zap.String("session_id", sessionID), zap.Error(err))
		resp, err = s.fromRoster(ctx, sess)
		if err != nil {
			return nil, false, err
		}
	}

	_ = s.cache.Set(ctx, key, resp, s.ttl)
	return resp, false, nil
}

func (s *DashboardService) remote(ctx context.Context, sess *models.Session) (*dto.DashboardResponse, error) {
	summary, err := s.summaries.Summary(ctx, sess.DirectoryToken)
	if err != nil {
		return nil, err
	}
	percent := VaccinatedPercent(summary.VaccinatedStudents, summary.TotalStudents)
	if summary.VaccinatedPercent != nil {
		percent = fmt.Sprintf("%.1f", *summary.VaccinatedPercent)
	}
	upcoming := summary.UpcomingDrives
	if upcoming == nil {
		upcoming = []models.Drive{}
	}
	return &dto.DashboardResponse{
		TotalStudents:     summary.TotalStudents,
		VaccinatedCount:   summary.VaccinatedStudents,
		VaccinatedPercent: percent,
		UpcomingDrives:    upcoming,
		Source:            dto.DashboardSourceDirectory,
	}, nil
}

func (s *DashboardService) fromRoster(ctx context.Context, sess *models.Session) (*dto.DashboardResponse, error) {
	vaccinated := 0
	for _, student := range sess.Roster {
		if student.IsVaccinated() {
			vaccinated++
		}
	}

	upcoming := []models.Drive{}
	drives, err := s.drives.List(ctx, sess.DirectoryToken)
	switch {
	case err == nil:
		upcoming = SelectUpcoming(drives, s.now(), s.horizon)
	case isAbandoned(err):
		return nil, err
	default:
		s.logger.Warn("drive list unavailable for dashboard", zap.Error(err))
	}
	if abandoned(ctx) {
		return nil, appErrors.ErrRequestAbandoned
	}

	return &dto.DashboardResponse{
		TotalStudents:     len(sess.Roster),
		VaccinatedCount:   vaccinated,
		VaccinatedPercent: VaccinatedPercent(vaccinated, len(sess.Roster)),
		UpcomingDrives:    upcoming,
		Source:            dto.DashboardSourceRoster,
	}, nil
}

// VaccinatedPercent formats the vaccinated share with one decimal. An empty
// roster reads "0.0".
func VaccinatedPercent(vaccinated, total int) string {
	if total <= 0 {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", float64(vaccinated)*100/float64(total))
}

func dashboardCacheKey(sessionID string) string {
	return dashboardCachePrefix + sessionID
}
