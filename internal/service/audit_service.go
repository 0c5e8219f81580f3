package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/vaxdrive-console/internal/models"
	appErrors "github.com/noah-isme/vaxdrive-console/pkg/errors"
)

type auditStore interface {
	Create(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error)
}

// AuditEntry is one console action to be written to the trail.
type AuditEntry struct {
	SessionID  string
	Actor      string
	Action     string
	Resource   string
	ResourceID string
	Detail     map[string]interface{}
	IPAddress  string
	UserAgent  string
}

// AuditService writes console actions to the audit trail when enabled.
type AuditService struct {
	repo    auditStore
	metrics *MetricsService
	enabled bool
	logger  *zap.Logger
	timeout time.Duration
}

// NewAuditService constructs an AuditService. A nil repo disables auditing.
func NewAuditService(repo auditStore, metrics *MetricsService, enabled bool, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, metrics: metrics, enabled: enabled && repo != nil, logger: logger, timeout: 3 * time.Second}
}

// Enabled reports whether entries are persisted.
func (s *AuditService) Enabled() bool {
	return s != nil && s.enabled
}

// Record persists entry. Failures are logged and never surface to the caller.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	if !s.Enabled() {
		return
	}
	log := &models.AuditLog{
		Actor:     entry.Actor,
		Action:    entry.Action,
		Resource:  entry.Resource,
		IPAddress: entry.IPAddress,
		UserAgent: entry.UserAgent,
	}
	if entry.SessionID != "" {
		sid := entry.SessionID
		log.SessionID = &sid
	}
	if entry.ResourceID != "" {
		rid := entry.ResourceID
		log.ResourceID = &rid
	}
	if len(entry.Detail) > 0 {
		if detail, err := json.Marshal(entry.Detail); err == nil {
			log.Detail = detail
		}
	}

	// The request may already be finished; keep the write independent of it.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	start := time.Now()
	err := s.repo.Create(writeCtx, log)
	s.metrics.ObserveDBQuery("audit_create", time.Since(start))
	if err != nil {
		s.logger.Warn("audit write failed", zap.String("action", entry.Action), zap.Error(err))
	}
}

// List returns a page of the trail, newest first.
func (s *AuditService) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, *models.Pagination, error) {
	page := models.Pagination{Page: filter.Page, PageSize: filter.Size}
	page.Normalize(20, 100)
	if !s.Enabled() {
		return []models.AuditLog{}, &page, nil
	}
	filter.Page, filter.Size = page.Page, page.PageSize

	start := time.Now()
	logs, total, err := s.repo.List(ctx, filter)
	s.metrics.ObserveDBQuery("audit_list", time.Since(start))
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	page.TotalCount = total
	return logs, &page, nil
}
