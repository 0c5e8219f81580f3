package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/vaxdrive-console/internal/dto"
	"github.com/noah-isme/vaxdrive-console/internal/models"
	"github.com/noah-isme/vaxdrive-console/internal/roster"
	appErrors "github.com/noah-isme/vaxdrive-console/pkg/errors"
	"github.com/noah-isme/vaxdrive-console/pkg/jobs"
	"github.com/noah-isme/vaxdrive-console/pkg/storage"
)

// ExportJobType is the queue job type for report exports.
const ExportJobType = "report_export"

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	Get(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, fn func(*models.ExportJob)) (*models.ExportJob, error)
	FinishedBefore(ctx context.Context, cutoff time.Time) ([]models.ExportJob, error)
	Delete(ctx context.Context, id string) error
}

type jobDispatcher interface {
	EnqueueContext(ctx context.Context, job jobs.Job) error
}

type recordLister interface {
	List(ctx context.Context, token string) ([]models.VaccinationRecord, error)
}

// ReportServiceConfig governs export retention.
type ReportServiceConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ReportDownload is a resolved signed download.
type ReportDownload struct {
	Object   *storage.Object
	Filename string
	Format   models.ReportFormat
}

// ReportService builds the printable vaccination report and runs export jobs.
type ReportService struct {
	sessions sessionAccess
	records  recordLister
	store    exportJobStore
	queue    jobDispatcher
	exporter *ExportService
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      ReportServiceConfig
}

// NewReportService constructs the report service.
func NewReportService(sessions sessionAccess, records recordLister, store exportJobStore, queue jobDispatcher, exporter *ExportService, metrics *MetricsService, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ReportService{
		sessions: sessions,
		records:  records,
		store:    store,
		queue:    queue,
		exporter: exporter,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
	}
}

// SetQueue attaches the dispatcher once the worker queue exists.
func (s *ReportService) SetQueue(queue jobDispatcher) {
	s.queue = queue
}

// Rows joins the session roster with vaccination records and applies filter.
func (s *ReportService) Rows(ctx context.Context, sessionID string, filter models.ReportFilter) ([]models.ReportRow, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	latest := map[string]time.Time{}
	records, err := s.records.List(ctx, sess.DirectoryToken)
	switch {
	case err == nil:
		latest = latestVaccinations(records)
	case isAbandoned(err):
		return nil, err
	default:
		s.logger.Warn("vaccination records unavailable, report has no dates", zap.String("session_id", sessionID), zap.Error(err))
	}
	if abandoned(ctx) {
		return nil, appErrors.ErrRequestAbandoned
	}

	rows := make([]models.ReportRow, 0, len(sess.Roster))
	for _, student := range sess.Roster {
		row := models.ReportRow{ID: student.DisplayID(), Name: student.Name, Class: student.ClassName()}
		vaccinated := student.IsVaccinated()
		if date, ok := latest[student.ID]; ok && student.ID != "" {
			d := date
			row.Date = &d
			vaccinated = true
		}
		row.Vaccinated = yesNo(vaccinated)
		if !matchesReportFilter(row, vaccinated, filter) {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Render builds the report synchronously.
func (s *ReportService) Render(ctx context.Context, sessionID string, format models.ReportFormat, filter models.ReportFilter) (*Rendered, error) {
	if format == models.ReportFormatJSON || !format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported report format")
	}
	rows, err := s.Rows(ctx, sessionID, filter)
	if err != nil {
		return nil, err
	}
	rendered, err := s.exporter.Render(format, rows, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	return rendered, nil
}

// CreateExport snapshots the report rows and queues rendering.
func (s *ReportService) CreateExport(ctx context.Context, sessionID, actor string, req dto.ExportRequest) (*dto.ExportJobResponse, error) {
	if !req.Format.Valid() || req.Format == models.ReportFormatJSON {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	filter := models.ReportFilter{Class: req.Class, Vaccinated: req.Vaccinated}
	rows, err := s.Rows(ctx, sessionID, filter)
	if err != nil {
		return nil, err
	}

	job := &models.ExportJob{
		ID:        ulid.Make().String(),
		SessionID: sessionID,
		Format:    req.Format,
		Filter:    filter,
		Status:    models.ExportStatusQueued,
		RowCount:  len(rows),
		CreatedBy: actor,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export queue unavailable")
	}
	if err := s.queue.EnqueueContext(ctx, jobs.Job{ID: job.ID, Type: ExportJobType, Payload: rows}); err != nil {
		msg := "failed to enqueue job"
		_, _ = s.store.Update(ctx, job.ID, func(j *models.ExportJob) {
			now := time.Now().UTC()
			j.Status = models.ExportStatusFailed
			j.ErrorMessage = &msg
			j.FinishedAt = &now
		})
		s.metrics.RecordExportJob(string(job.Format), string(models.ExportStatusFailed))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	s.metrics.RecordExportJob(string(job.Format), string(models.ExportStatusQueued))
	return &dto.ExportJobResponse{ID: job.ID, Status: job.Status}, nil
}

// ExportStatus reports job progress. Only the session that queued a job can see it.
func (s *ReportService) ExportStatus(ctx context.Context, sessionID, id string) (*dto.ExportStatusResponse, error) {
	job, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.SessionID != sessionID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}

	resp := &dto.ExportStatusResponse{
		ID:       job.ID,
		Status:   job.Status,
		Format:   job.Format,
		RowCount: job.RowCount,
		Error:    job.ErrorMessage,
	}
	if job.Status == models.ExportStatusFinished {
		url, _, err := s.exporter.DownloadURL(job)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
		}
		resp.DownloadURL = &url
	}
	return resp, nil
}

// ResolveDownload validates token and opens the stored export.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (*ReportDownload, error) {
	signed, err := s.exporter.ParseToken(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
	}
	job, err := s.store.Get(ctx, signed.ExportID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.ExportStatusFinished || job.StorageKey != signed.Key {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not available")
	}
	obj, err := s.exporter.Open(ctx, job.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export file missing")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &ReportDownload{Object: obj, Filename: fmt.Sprintf("vaccination_report_%s.%s", job.ID, job.Format), Format: job.Format}, nil
}

// StartCleanup periodically drops exports older than the retention window.
func (s *ReportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

func (s *ReportService) cleanupExpired(ctx context.Context) {
	expired, err := s.store.FinishedBefore(ctx, time.Now().Add(-s.cfg.ResultTTL))
	if err != nil {
		s.logger.Warn("export cleanup list failed", zap.Error(err))
		return
	}
	for _, job := range expired {
		if job.StorageKey != "" {
			if err := s.exporter.store.Delete(ctx, job.StorageKey); err != nil {
				s.logger.Warn("export cleanup delete failed", zap.String("job_id", job.ID), zap.Error(err))
				continue
			}
		}
		_ = s.store.Delete(ctx, job.ID)
	}
}

// ReportWorker bridges queue jobs to ExportService.
type ReportWorker struct {
	store      exportJobStore
	exporter   *ExportService
	metrics    *MetricsService
	logger     *zap.Logger
	maxRetries int
}

// NewReportWorker constructs a worker.
func NewReportWorker(store exportJobStore, exporter *ExportService, metrics *MetricsService, maxRetries int, logger *zap.Logger) *ReportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &ReportWorker{store: store, exporter: exporter, metrics: metrics, logger: logger, maxRetries: maxRetries}
}

// Handle renders and stores one export.
func (w *ReportWorker) Handle(ctx context.Context, job jobs.Job) error {
	rows, ok := job.Payload.([]models.ReportRow)
	if !ok {
		w.fail(ctx, job.ID, "export payload missing")
		return nil
	}
	record, err := w.store.Update(ctx, job.ID, func(j *models.ExportJob) {
		j.Status = models.ExportStatusProcessing
	})
	if err != nil {
		return err
	}

	rendered, err := w.exporter.Render(record.Format, rows, w.exporter.StatusURL(record.ID))
	if err == nil {
		record.StorageKey, err = w.exporter.Store(ctx, record, rendered)
	}
	if err != nil {
		if job.Attempt >= w.maxRetries {
			w.fail(ctx, job.ID, err.Error())
			return err
		}
		msg := err.Error()
		_, _ = w.store.Update(ctx, job.ID, func(j *models.ExportJob) {
			j.Status = models.ExportStatusQueued
			j.ErrorMessage = &msg
		})
		return err
	}

	_, err = w.store.Update(ctx, job.ID, func(j *models.ExportJob) {
		now := time.Now().UTC()
		j.Status = models.ExportStatusFinished
		j.StorageKey = record.StorageKey
		j.ErrorMessage = nil
		j.FinishedAt = &now
	})
	if err != nil {
		w.logger.Warn("failed to mark export finished", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	w.metrics.RecordExportJob(string(record.Format), string(models.ExportStatusFinished))
	return nil
}

func (w *ReportWorker) fail(ctx context.Context, id, msg string) {
	job, err := w.store.Update(ctx, id, func(j *models.ExportJob) {
		now := time.Now().UTC()
		j.Status = models.ExportStatusFailed
		j.ErrorMessage = &msg
		j.FinishedAt = &now
	})
	if err != nil {
		w.logger.Warn("failed to mark export failed", zap.String("job_id", id), zap.Error(err))
		return
	}
	w.metrics.RecordExportJob(string(job.Format), string(models.ExportStatusFailed))
}

// latestVaccinations maps a student id to the date of their latest record.
func latestVaccinations(records []models.VaccinationRecord) map[string]time.Time {
	latest := make(map[string]time.Time, len(records))
	for _, rec := range records {
		if rec.Student == nil || rec.Student.ID == "" || rec.VaccinationDate.IsZero() {
			continue
		}
		if current, ok := latest[rec.Student.ID]; !ok || rec.VaccinationDate.After(current) {
			latest[rec.Student.ID] = rec.VaccinationDate.Time
		}
	}
	return latest
}

func matchesReportFilter(row models.ReportRow, vaccinated bool, filter models.ReportFilter) bool {
	if filter.Class != "" && !roster.EqualFold(row.Class, filter.Class) {
		return false
	}
	if filter.Vaccinated != nil && *filter.Vaccinated != vaccinated {
		return false
	}
	return true
}
