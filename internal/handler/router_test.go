package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vaxdrive-console/internal/dto"
	"github.com/noah-isme/vaxdrive-console/internal/models"
	"github.com/noah-isme/vaxdrive-console/internal/repository"
	"github.com/noah-isme/vaxdrive-console/internal/service"
	appErrors "github.com/noah-isme/vaxdrive-console/pkg/errors"
)

type stubDirectory struct{}

func (stubDirectory) Login(_ context.Context, username, password string) (*models.DirectoryLogin, error) {
	if password != "secret" {
		return nil, appErrors.ErrUnauthorized
	}
	return &models.DirectoryLogin{Token: "dir-token", User: models.UserInfo{Username: username}}, nil
}

type stubStudents struct{}

func (stubStudents) List(context.Context, string, models.StudentFilter) ([]models.Student, error) {
	return []models.Student{{ID: "a1", Name: "Ana"}, {ID: "b2", Name: "Bo"}}, nil
}

type memoryAuditStore struct {
	mu   sync.Mutex
	logs []models.AuditLog
}

func (m *memoryAuditStore) Create(_ context.Context, log *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, *log)
	return nil
}

func (m *memoryAuditStore) List(context.Context, models.AuditFilter) ([]models.AuditLog, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.AuditLog(nil), m.logs...), len(m.logs), nil
}

func (m *memoryAuditStore) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.logs))
	for _, l := range m.logs {
		out = append(out, l.Action)
	}
	return out
}

type stubDashboard struct{}

func (stubDashboard) Summary(context.Context, string) (*dto.DashboardResponse, bool, error) {
	return &dto.DashboardResponse{}, false, nil
}

type stubReferences struct{}

func (stubReferences) Classes(context.Context, string) ([]models.Class, error) {
	return []models.Class{}, nil
}

func (stubReferences) Vaccines(context.Context, string) ([]models.Vaccine, error) {
	return []models.Vaccine{}, nil
}

func newTestRouter(t *testing.T) (http.Handler, *memoryAuditStore) {
	t.Helper()
	sessions := service.NewSessionService(repository.NewMemorySessionStore(), time.Hour, nil)
	auth := service.NewAuthService(stubDirectory{}, stubStudents{}, sessions, nil, nil, service.AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
	})
	store := &memoryAuditStore{}
	metrics := service.NewMetricsService()
	audit := service.NewAuditService(store, metrics, true, nil)

	return NewRouter(RouterConfig{
		APIPrefix:  "/api/v1",
		Auth:       auth,
		Metrics:    metrics,
		Reporter:   service.NewErrorReporter(nil, metrics),
		Audit:      audit,
		Dashboard:  stubDashboard{},
		Roster:     &fakeRoster{},
		Drives:     &fakeDrives{},
		References: stubReferences{},
		Reports:    &fakeReports{},
		AuditLogs:  audit,
	}), store
}

func serve(r http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(rec, req)
	return rec
}

func TestRouterSessionLifecycle(t *testing.T) {
	r, store := newTestRouter(t)

	rec := serve(r, http.MethodPost, "/api/v1/auth/login", "", `{"username":"nurse","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(r, http.MethodPost, "/api/v1/auth/login", "", `{"username":"nurse","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Data models.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	token := login.Data.AccessToken
	require.NotEmpty(t, token)
	assert.Equal(t, 2, login.Data.RosterSize)

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/api/v1/roster", "", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/v1/roster", token, "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/v1/drives/statuses", token, "").Code)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodDelete, "/api/v1/students/3", token, "").Code)

	rec = serve(r, http.MethodGet, "/api/v1/audit-logs", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodPost, "/api/v1/auth/logout", token, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/api/v1/roster", token, "").Code)

	assert.Equal(t, []string{models.AuditActionLogin, models.AuditActionStudentDrop, models.AuditActionLogout}, store.actions())
}

func TestRouterPublicRoutes(t *testing.T) {
	r, _ := newTestRouter(t)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health", "", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ready", "", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/metrics", "", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/docs/index.html", "", "").Code)

	rec := serve(r, http.MethodGet, "/api/v1/roster", "", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
