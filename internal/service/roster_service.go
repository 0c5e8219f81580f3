package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/vaxdrive-console/internal/dto"
	"github.com/noah-isme/vaxdrive-console/internal/models"
	"github.com/noah-isme/vaxdrive-console/internal/roster"
	appErrors "github.com/noah-isme/vaxdrive-console/pkg/errors"
	"github.com/noah-isme/vaxdrive-console/pkg/export"
)

const (
	defaultMaxUpload = 5 << 20
	syncFilename     = "roster-sync.csv"
)

var syncHeaders = []string{"name", "age", "class", "vaccinated"}

type studentDirectory interface {
	List(ctx context.Context, token string, filter models.StudentFilter) ([]models.Student, error)
	Create(ctx context.Context, token string, input models.StudentInput) (*models.Student, error)
	Update(ctx context.Context, token, id string, input models.StudentInput) (*models.Student, error)
	Delete(ctx context.Context, token, id string) error
	Upload(ctx context.Context, token, filename string, content io.Reader) (*models.UploadResult, error)
}

type sessionAccess interface {
	Get(ctx context.Context, id string) (*models.Session, error)
	Update(ctx context.Context, id string, fn func(*models.Session) error) (*models.Session, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// RosterServiceParams groups RosterService dependencies.
type RosterServiceParams struct {
	Students       studentDirectory
	Sessions       sessionAccess
	CSV            csvRenderer
	Cache          *CacheService
	Metrics        *MetricsService
	Validator      *validator.Validate
	Logger         *zap.Logger
	MaxUploadBytes int64
	Now            func() time.Time
}

// RosterService runs every roster use case against the caller's session.
type RosterService struct {
	students  studentDirectory
	sessions  sessionAccess
	csv       csvRenderer
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	maxUpload int64
	now       func() time.Time
}

// NewRosterService constructs a RosterService.
func NewRosterService(params RosterServiceParams) *RosterService {
	svc := &RosterService{
		students:  params.Students,
		sessions:  params.Sessions,
		csv:       params.CSV,
		cache:     params.Cache,
		metrics:   params.Metrics,
		validator: params.Validator,
		logger:    params.Logger,
		maxUpload: params.MaxUploadBytes,
		now:       params.Now,
	}
	if svc.csv == nil {
		svc.csv = export.NewCSVExporter()
	}
	if svc.validator == nil {
		svc.validator = validator.New()
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.maxUpload <= 0 {
		svc.maxUpload = defaultMaxUpload
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc
}

// List filters the session roster by query and returns one page of rows.
func (s *RosterService) List(ctx context.Context, sessionID, query string, page models.Pagination) ([]dto.RosterRow, *models.Pagination, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	visible := roster.Filter(sess.Roster, query)
	page.Normalize(20, 200)
	page.TotalCount = len(visible)
	start, end := page.Window(len(visible))

	now := s.now()
	rows := make([]dto.RosterRow, 0, end-start)
	for _, student := range visible[start:end] {
		rows = append(rows, dto.RosterRow{Student: student, AgeYears: student.AgeYears(now)})
	}
	return rows, &page, nil
}

// Refresh rebuilds the roster from the directory. Entries not yet synced are
// kept at the end when keepProvisional is set.
func (s *RosterService) Refresh(ctx context.Context, sessionID string, keepProvisional bool) (int, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	fetched, err := s.students.List(ctx, sess.DirectoryToken, models.StudentFilter{})
	if err != nil {
		return 0, err
	}
	if abandoned(ctx) {
		return 0, appErrors.ErrRequestAbandoned
	}

	updated, err := s.sessions.Update(ctx, sessionID, func(sess *models.Session) error {
		next := authoritative(fetched)
		if keepProvisional {
			next, _ = roster.Merge(next, roster.Provisional(sess.Roster))
		}
		sess.Roster = next
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, sessionID)
	return len(updated.Roster), nil
}

// Import parses a local CSV or XLSX file and merges the accepted rows into the
// roster. Nothing is merged when no row is valid.
func (s *RosterService) Import(ctx context.Context, sessionID, filename string, content io.Reader) (*dto.ImportResponse, error) {
	raw, err := s.readUpload(content)
	if err != nil {
		return nil, err
	}
	parse, err := parserFor(filename, raw)
	if err != nil {
		return nil, err
	}

	var result dto.ImportResponse
	_, err = s.sessions.Update(ctx, sessionID, func(sess *models.Session) error {
		// The base is taken under the session lock so concurrent imports never share ids.
		base := roster.NextBase(sess.Roster, sess.IssuedLocalID)
		parsed, err := parse(base)
		if err != nil {
			return err
		}
		merged, counts := roster.Merge(sess.Roster, parsed)
		sess.Roster = merged
		sess.IssuedLocalID = base + len(parsed)

		result = dto.ImportResponse{Accepted: len(parsed), Inserted: counts.Inserted, Updated: counts.Updated, Roster: len(merged)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRosterMerge(result.Inserted, result.Updated)
	s.invalidate(ctx, sessionID)
	return &result, nil
}

// Save creates or updates a student through the directory and reconciles the
// authoritative record into the roster. A save that names a provisional entry
// promotes it and retires its local id.
func (s *RosterService) Save(ctx context.Context, sessionID, id string, input models.StudentInput) (*models.Student, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if input.DateOfBirth.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dateOfBirth is required")
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var saved *models.Student
	if id == "" {
		saved, err = s.students.Create(ctx, sess.DirectoryToken, input)
	} else {
		saved, err = s.students.Update(ctx, sess.DirectoryToken, id, input)
	}
	if err != nil {
		return nil, err
	}
	if abandoned(ctx) {
		return nil, appErrors.ErrRequestAbandoned
	}

	record := *saved
	record.LocalID = 0
	record.Provisional = false

	_, err = s.sessions.Update(ctx, sessionID, func(sess *models.Session) error {
		if input.LocalID != 0 {
			sess.Roster, _ = roster.Promote(sess.Roster, input.LocalID, record)
			sess.Retire(input.LocalID)
			return nil
		}
		sess.Roster, _ = roster.Upsert(sess.Roster, record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, sessionID)
	return &record, nil
}

// Delete removes a student. An id naming a directory record in the roster is
// always deleted remotely. Otherwise a numeric id addressing a provisional
// entry is dropped locally, as DeleteLocal does.
func (s *RosterService) Delete(ctx context.Context, sessionID, id string) error {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	if roster.IndexOf(sess.Roster, roster.Identity{ID: id}) < 0 {
		if localID, ok := provisionalID(sess.Roster, id); ok {
			return s.DeleteLocal(ctx, sessionID, localID)
		}
	}

	if err := s.students.Delete(ctx, sess.DirectoryToken, id); err != nil {
		return err
	}
	if abandoned(ctx) {
		return appErrors.ErrRequestAbandoned
	}
	_, err = s.sessions.Update(ctx, sessionID, func(sess *models.Session) error {
		sess.Roster, _ = roster.Remove(sess.Roster, roster.Identity{ID: id})
		return nil
	})
	if err == nil {
		s.invalidate(ctx, sessionID)
	}
	return err
}

// DeleteLocal drops a provisional entry by its local id. The directory is not
// called; the entry was never stored there.
func (s *RosterService) DeleteLocal(ctx context.Context, sessionID string, localID int) error {
	_, err := s.sessions.Update(ctx, sessionID, func(sess *models.Session) error {
		idx := roster.IndexOf(sess.Roster, roster.Identity{LocalID: localID})
		if localID <= 0 || idx < 0 || !sess.Roster[idx].Provisional {
			return appErrors.Clone(appErrors.ErrNotFound, "provisional student not found")
		}
		sess.Roster, _ = roster.Remove(sess.Roster, roster.Identity{LocalID: localID})
		sess.Retire(localID)
		return nil
	})
	if err == nil {
		s.invalidate(ctx, sessionID)
	}
	return err
}

// Upload forwards a file to the directory's bulk import and refreshes the roster.
func (s *RosterService) Upload(ctx context.Context, sessionID, filename string, content io.Reader) (*models.UploadResult, int, error) {
	raw, err := s.readUpload(content)
	if err != nil {
		return nil, 0, err
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}
	result, err := s.students.Upload(ctx, sess.DirectoryToken, filepath.Base(filename), bytes.NewReader(raw))
	if err != nil {
		return nil, 0, err
	}
	size, err := s.Refresh(ctx, sessionID, true)
	if err != nil {
		return nil, 0, err
	}
	return result, size, nil
}

// Sync pushes provisional entries to the directory as a CSV bulk upload, then
// rebuilds the roster from the directory. A local id is retired only when the
// rebuilt roster holds a new directory record for it; everything else stays
// provisional. Entries without a numeric age cannot be carried by the upload
// format and are held back.
func (s *RosterService) Sync(ctx context.Context, sessionID string) (*dto.SyncResponse, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	pending := roster.Provisional(sess.Roster)
	sendable := make([]models.Student, 0, len(pending))
	for _, student := range pending {
		if student.Age != nil {
			sendable = append(sendable, student)
		}
	}
	if len(sendable) == 0 {
		return &dto.SyncResponse{Pending: len(pending), Roster: len(sess.Roster)}, nil
	}

	payload, err := s.csv.Render(syncDataset(sendable))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render sync file")
	}
	result, err := s.students.Upload(ctx, sess.DirectoryToken, syncFilename, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	fetched, err := s.students.List(ctx, sess.DirectoryToken, models.StudentFilter{})
	if err != nil {
		return nil, err
	}
	if abandoned(ctx) {
		return nil, appErrors.ErrRequestAbandoned
	}

	stored := roster.Landed(sendable, sess.Roster, fetched)
	updated, err := s.sessions.Update(ctx, sessionID, func(sess *models.Session) error {
		next := authoritative(fetched)
		for _, student := range roster.Provisional(sess.Roster) {
			if stored[student.LocalID] {
				sess.Retire(student.LocalID)
				continue
			}
			next, _ = roster.Upsert(next, student)
		}
		sess.Roster = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := &dto.SyncResponse{
		Synced:  len(stored),
		Pending: len(roster.Provisional(updated.Roster)),
		Roster:  len(updated.Roster),
	}
	if result != nil {
		resp.Message = result.Message
	}
	s.invalidate(ctx, sessionID)
	s.logger.Info("roster synced",
		zap.String("session_id", sessionID),
		zap.Int("sent", len(sendable)),
		zap.Int("synced", resp.Synced),
		zap.Int("pending", resp.Pending),
	)
	return resp, nil
}

// invalidate drops cached views derived from the roster.
func (s *RosterService) invalidate(ctx context.Context, sessionID string) {
	_ = s.cache.Delete(ctx, dashboardCacheKey(sessionID))
}

func (s *RosterService) readUpload(content io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(content, s.maxUpload+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read upload")
	}
	if int64(len(raw)) > s.maxUpload {
		return nil, appErrors.Clone(appErrors.ErrValidation, "upload exceeds the size limit")
	}
	return raw, nil
}

// parserFor picks the import format from the filename, sniffing the zip magic
// for workbooks sent without an extension.
func parserFor(filename string, raw []byte) (func(base int) ([]models.Student, error), error) {
	ext := strings.ToLower(filepath.Ext(filename))
	isZip := bytes.HasPrefix(raw, []byte("PK\x03\x04"))
	switch {
	case ext == ".xlsx" || (ext == "" && isZip):
		return func(base int) ([]models.Student, error) {
			return roster.ParseXLSX(bytes.NewReader(raw), base)
		}, nil
	case ext == ".csv" || ext == ".txt" || ext == "":
		return func(base int) ([]models.Student, error) {
			return roster.ParseCSV(string(raw), base)
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFile, "only .csv and .xlsx files can be imported")
	}
}

// authoritative strips any local identity from directory records.
func authoritative(students []models.Student) []models.Student {
	out := make([]models.Student, len(students))
	for i, student := range students {
		student.LocalID = 0
		student.Provisional = false
		out[i] = student
	}
	return out
}

func provisionalID(entries []models.Student, id string) (int, bool) {
	localID, err := strconv.Atoi(id)
	if err != nil || localID <= 0 {
		return 0, false
	}
	idx := roster.IndexOf(entries, roster.Identity{LocalID: localID})
	if idx < 0 || entries[idx].ID != "" {
		return 0, false
	}
	return localID, true
}

func syncDataset(pending []models.Student) export.Dataset {
	rows := make([]map[string]string, 0, len(pending))
	for _, student := range pending {
		row := map[string]string{
			"name":  student.Name,
			"class": student.ClassName(),
		}
		if student.Age != nil {
			row["age"] = strconv.Itoa(*student.Age)
		}
		if student.Vaccinated != nil {
			row["vaccinated"] = yesNo(*student.Vaccinated)
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: syncHeaders, Rows: rows}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// isAbandoned reports whether err means the caller went away.
func isAbandoned(err error) bool {
	return errors.Is(err, appErrors.ErrRequestAbandoned)
}
