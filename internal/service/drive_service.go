package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/vaxdrive-console/internal/models"
	appErrors "github.com/noah-isme/vaxdrive-console/pkg/errors"
)

const (
	entrySubmitted     = "Vaccination entry submitted successfully!"
	entryFailedPrefix  = "Submission failed: "
	entryUnknownReason = "Unknown error"
	entryErrored       = "An error occurred while submitting the entry."

	defaultBatchID = "batch001"
)

// statusOrder is the display order of the built-in statuses.
var statusOrder = []models.DriveStatus{
	models.DriveStatusUpcoming,
	models.DriveStatusCompleted,
	models.DriveStatusOngoing,
	models.DriveStatusCancelled,
}

type driveDirectory interface {
	List(ctx context.Context, token string) ([]models.Drive, error)
	Create(ctx context.Context, token string, input models.DriveInput) (*models.Drive, error)
	Update(ctx context.Context, token, id string, input models.DriveInput) (*models.Drive, error)
	Delete(ctx context.Context, token, id string) error
}

type recordDirectory interface {
	List(ctx context.Context, token string) ([]models.VaccinationRecord, error)
	Create(ctx context.Context, token string, entry models.VaccinationEntry) (*models.VaccinationRecord, error)
}

// DriveServiceParams groups DriveService dependencies.
type DriveServiceParams struct {
	Drives         driveDirectory
	Records        recordDirectory
	Students       rosterSource
	Sessions       sessionAccess
	Cache          *CacheService
	Validator      *validator.Validate
	Logger         *zap.Logger
	StatusLabels   map[string]string
	HorizonDays    int
	DefaultBatchID string
	Now            func() time.Time
}

// DriveService manages vaccination drives and per-drive vaccination entries.
type DriveService struct {
	drives    driveDirectory
	records   recordDirectory
	students  rosterSource
	sessions  sessionAccess
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	labels    map[models.DriveStatus]string
	horizon   time.Duration
	batchID   string
	now       func() time.Time
}

// NewDriveService constructs a DriveService.
func NewDriveService(params DriveServiceParams) *DriveService {
	svc := &DriveService{
		drives:    params.Drives,
		records:   params.Records,
		students:  params.Students,
		sessions:  params.Sessions,
		cache:     params.Cache,
		validator: params.Validator,
		logger:    params.Logger,
		labels:    make(map[models.DriveStatus]string, len(params.StatusLabels)),
		horizon:   HorizonFromDays(params.HorizonDays),
		batchID:   params.DefaultBatchID,
		now:       params.Now,
	}
	for value, label := range params.StatusLabels {
		svc.labels[models.DriveStatus(strings.ToLower(value))] = label
	}
	if len(svc.labels) == 0 {
		for _, status := range statusOrder {
			svc.labels[status] = strings.ToUpper(string(status[:1])) + string(status[1:])
		}
	}
	if svc.validator == nil {
		svc.validator = validator.New()
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.batchID == "" {
		svc.batchID = defaultBatchID
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc
}

// List returns every drive known to the directory.
func (s *DriveService) List(ctx context.Context, sessionID string) ([]models.Drive, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.drives.List(ctx, sess.DirectoryToken)
}

// Upcoming returns drives starting within the configured horizon.
func (s *DriveService) Upcoming(ctx context.Context, sessionID string) ([]models.Drive, error) {
	drives, err := s.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return SelectUpcoming(drives, s.now(), s.horizon), nil
}

// Horizon is the upcoming window.
func (s *DriveService) Horizon() time.Duration {
	return s.horizon
}

// Statuses lists the configured status vocabulary for drive forms.
func (s *DriveService) Statuses() []models.DriveStatusOption {
	options := make([]models.DriveStatusOption, 0, len(s.labels))
	seen := make(map[models.DriveStatus]bool, len(s.labels))
	for _, status := range statusOrder {
		if label, ok := s.labels[status]; ok {
			options = append(options, models.DriveStatusOption{Value: status, Label: label})
			seen[status] = true
		}
	}
	extra := make([]models.DriveStatusOption, 0)
	for status, label := range s.labels {
		if !seen[status] {
			extra = append(extra, models.DriveStatusOption{Value: status, Label: label})
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i].Value < extra[j].Value })
	return append(options, extra...)
}

// Create validates and forwards a new drive. Non-fatal findings come back as warnings.
func (s *DriveService) Create(ctx context.Context, sessionID string, input models.DriveInput) (*models.Drive, []string, error) {
	warnings, err := s.check(&input)
	if err != nil {
		return nil, nil, err
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	drive, err := s.drives.Create(ctx, sess.DirectoryToken, input)
	if err != nil {
		return nil, nil, err
	}
	if abandoned(ctx) {
		return nil, nil, appErrors.ErrRequestAbandoned
	}
	s.invalidateDashboard(ctx, sessionID)
	return drive, warnings, nil
}

// Update validates and forwards a drive change.
func (s *DriveService) Update(ctx context.Context, sessionID, id string, input models.DriveInput) (*models.Drive, []string, error) {
	warnings, err := s.check(&input)
	if err != nil {
		return nil, nil, err
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	drive, err := s.drives.Update(ctx, sess.DirectoryToken, id, input)
	if err != nil {
		return nil, nil, err
	}
	if abandoned(ctx) {
		return nil, nil, appErrors.ErrRequestAbandoned
	}
	s.invalidateDashboard(ctx, sessionID)
	return drive, warnings, nil
}

// Delete removes a drive.
func (s *DriveService) Delete(ctx context.Context, sessionID, id string) error {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := s.drives.Delete(ctx, sess.DirectoryToken, id); err != nil {
		return err
	}
	if abandoned(ctx) {
		return appErrors.ErrRequestAbandoned
	}
	s.invalidateDashboard(ctx, sessionID)
	return nil
}

// StudentsForClass lists the directory's students of one target class.
func (s *DriveService) StudentsForClass(ctx context.Context, sessionID, classID string) ([]models.Student, error) {
	if strings.TrimSpace(classID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "classId is required")
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	students, err := s.students.List(ctx, sess.DirectoryToken, models.StudentFilter{ClassID: classID})
	if err != nil {
		return nil, err
	}
	if abandoned(ctx) {
		return nil, appErrors.ErrRequestAbandoned
	}
	return students, nil
}

// Records lists vaccination records.
func (s *DriveService) Records(ctx context.Context, sessionID string) ([]models.VaccinationRecord, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	records, err := s.records.List(ctx, sess.DirectoryToken)
	if err != nil {
		return nil, err
	}
	if abandoned(ctx) {
		return nil, appErrors.ErrRequestAbandoned
	}
	return records, nil
}

// RecordEntry submits one vaccination for a drive. Failures carry the status
// line the entry form shows.
func (s *DriveService) RecordEntry(ctx context.Context, sessionID, driveID string, entry models.VaccinationEntry) (*models.EntryResult, error) {
	entry.DriveID = driveID
	if err := s.validator.Struct(entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid vaccination entry")
	}
	if entry.DriveID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "driveId is required")
	}
	if entry.VaccinationDate.IsZero() {
		entry.VaccinationDate = models.NewTimestamp(s.now())
	}
	if entry.BatchID == "" {
		entry.BatchID = s.batchID
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	record, err := s.records.Create(ctx, sess.DirectoryToken, entry)
	if err != nil {
		return nil, entryFailure(err)
	}
	if abandoned(ctx) {
		return nil, appErrors.ErrRequestAbandoned
	}
	s.invalidateDashboard(ctx, sessionID)
	return &models.EntryResult{Status: entrySubmitted, Record: record}, nil
}

// check applies the status vocabulary and returns advisory warnings.
func (s *DriveService) check(input *models.DriveInput) ([]string, error) {
	input.Status = models.DriveStatus(strings.ToLower(strings.TrimSpace(string(input.Status))))
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid drive payload")
	}
	if _, ok := s.labels[input.Status]; !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown drive status "+string(input.Status))
	}
	if input.StartDate.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startDate is required")
	}

	var warnings []string
	if !input.EndDate.IsZero() && input.EndDate.Before(input.StartDate.Time) {
		warnings = append(warnings, "endDate is before startDate")
	}
	return warnings, nil
}

func (s *DriveService) invalidateDashboard(ctx context.Context, sessionID string) {
	_ = s.cache.Delete(ctx, dashboardCacheKey(sessionID))
}

func entryFailure(err error) error {
	if isAbandoned(err) {
		return err
	}
	var appErr *appErrors.Error
	if !errors.As(err, &appErr) || appErr.Severity == appErrors.SeverityError || appErr.Severity == appErrors.SeverityCritical {
		return appErrors.WrapAs(err, appErrors.ErrDirectoryUnavailable, entryErrored)
	}
	reason := appErr.Message
	if reason == "" {
		reason = entryUnknownReason
	}
	return appErrors.WrapAs(err, appErr, entryFailedPrefix+reason)
}
