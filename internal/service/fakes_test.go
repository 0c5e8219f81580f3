package service

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/noah-isme/vaxdrive-console/internal/dto"
	"github.com/noah-isme/vaxdrive-console/internal/models"
	"github.com/noah-isme/vaxdrive-console/internal/repository"
	appErrors "github.com/noah-isme/vaxdrive-console/pkg/errors"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func fixedNow() time.Time {
	return time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
}

// newTestSessions returns a session service on the in-memory store and a
// session seeded with roster.
func newTestSessions(roster []models.Student) (*SessionService, *models.Session) {
	sessions := NewSessionService(repository.NewMemorySessionStore(), time.Hour, nil)
	sess, err := sessions.Create(context.Background(), "dir-token", models.UserInfo{Username: "admin"}, roster)
	if err != nil {
		panic(err)
	}
	return sessions, sess
}

type mockStudentDirectory struct {
	mu sync.Mutex

	listed    []models.Student
	listErr   error
	onList    func()
	saved     *models.Student
	saveErr   error
	onSave    func()
	deleteErr error
	uploadErr error
	onUpload  func(filename string, body []byte)

	tokens    []string
	creates   []models.StudentInput
	updates   map[string]models.StudentInput
	deletes   []string
	uploads   []string
	listCalls int
}

func (m *mockStudentDirectory) List(ctx context.Context, token string, filter models.StudentFilter) ([]models.Student, error) {
	m.mu.Lock()
	m.tokens = append(m.tokens, token)
	m.listCalls++
	m.mu.Unlock()
	if m.onList != nil {
		m.onList()
	}
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]models.Student, 0, len(m.listed))
	for _, s := range m.listed {
		if filter.ClassID != "" && (s.Class == nil || s.Class.ID != filter.ClassID) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *mockStudentDirectory) Create(ctx context.Context, token string, input models.StudentInput) (*models.Student, error) {
	m.mu.Lock()
	m.creates = append(m.creates, input)
	m.mu.Unlock()
	return m.save()
}

func (m *mockStudentDirectory) Update(ctx context.Context, token, id string, input models.StudentInput) (*models.Student, error) {
	m.mu.Lock()
	if m.updates == nil {
		m.updates = make(map[string]models.StudentInput)
	}
	m.updates[id] = input
	m.mu.Unlock()
	return m.save()
}

func (m *mockStudentDirectory) save() (*models.Student, error) {
	if m.onSave != nil {
		m.onSave()
	}
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	saved := *m.saved
	return &saved, nil
}

func (m *mockStudentDirectory) Delete(ctx context.Context, token, id string) error {
	m.mu.Lock()
	m.deletes = append(m.deletes, id)
	m.mu.Unlock()
	return m.deleteErr
}

func (m *mockStudentDirectory) Upload(ctx context.Context, token, filename string, content io.Reader) (*models.UploadResult, error) {
	body, err := io.ReadAll(content)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.uploads = append(m.uploads, filename)
	m.mu.Unlock()
	if m.onUpload != nil {
		m.onUpload(filename, body)
	}
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	return &models.UploadResult{Message: "uploaded", Inserted: 1}, nil
}

type mockDriveDirectory struct {
	drives    []models.Drive
	listErr   error
	created   models.DriveInput
	updated   map[string]models.DriveInput
	deleted   []string
	saved     *models.Drive
	saveErr   error
	deleteErr error
	onCall    func()
}

func (m *mockDriveDirectory) called() {
	if m.onCall != nil {
		m.onCall()
	}
}

func (m *mockDriveDirectory) List(ctx context.Context, token string) ([]models.Drive, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]models.Drive(nil), m.drives...), nil
}

func (m *mockDriveDirectory) Create(ctx context.Context, token string, input models.DriveInput) (*models.Drive, error) {
	m.created = input
	m.called()
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	return m.saved, nil
}

func (m *mockDriveDirectory) Update(ctx context.Context, token, id string, input models.DriveInput) (*models.Drive, error) {
	if m.updated == nil {
		m.updated = make(map[string]models.DriveInput)
	}
	m.updated[id] = input
	m.called()
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	return m.saved, nil
}

func (m *mockDriveDirectory) Delete(ctx context.Context, token, id string) error {
	m.deleted = append(m.deleted, id)
	m.called()
	return m.deleteErr
}

type mockRecordDirectory struct {
	records   []models.VaccinationRecord
	listErr   error
	entries   []models.VaccinationEntry
	createErr error
	onCreate  func()
}

func (m *mockRecordDirectory) List(ctx context.Context, token string) ([]models.VaccinationRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.records, nil
}

func (m *mockRecordDirectory) Create(ctx context.Context, token string, entry models.VaccinationEntry) (*models.VaccinationRecord, error) {
	m.entries = append(m.entries, entry)
	if m.onCreate != nil {
		m.onCreate()
	}
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.VaccinationRecord{
		ID:      "rec-1",
		Drive:   &models.Ref{ID: entry.DriveID},
		Student: &models.Ref{ID: entry.StudentID},
	}, nil
}

type mockSummaryDirectory struct {
	summary *dto.DirectorySummary
	err     error
	calls   int
}

func (m *mockSummaryDirectory) Summary(ctx context.Context, token string) (*dto.DirectorySummary, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

type mockClassDirectory struct {
	classes []models.Class
	err     error
	calls   int
	onList  func()
}

func (m *mockClassDirectory) List(ctx context.Context, token string) ([]models.Class, error) {
	m.calls++
	if m.onList != nil {
		m.onList()
	}
	return m.classes, m.err
}

type mockVaccineDirectory struct {
	vaccines []models.Vaccine
	err      error
	calls    int
}

func (m *mockVaccineDirectory) List(ctx context.Context, token string) ([]models.Vaccine, error) {
	m.calls++
	return m.vaccines, m.err
}

// memoryCache is a CacheRepository over a JSON map.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	raw, ok := m.entries[key]
	m.mu.Unlock()
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = raw
	m.sets++
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}
