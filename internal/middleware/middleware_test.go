package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/vaxdrive-console/internal/models"
	"github.com/noah-isme/vaxdrive-console/internal/service"
	appErrors "github.com/noah-isme/vaxdrive-console/pkg/errors"
	"github.com/noah-isme/vaxdrive-console/pkg/logger"
	"github.com/noah-isme/vaxdrive-console/pkg/middleware/requestid"
	"github.com/noah-isme/vaxdrive-console/pkg/response"
)

type fakeAuthenticator struct {
	token string
	err   error
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, token string) (*models.JWTClaims, *models.Session, error) {
	f.token = token
	if f.err != nil {
		return nil, nil, f.err
	}
	return &models.JWTClaims{SessionID: "s1"}, &models.Session{ID: "s1", User: models.UserInfo{Username: "admin"}}, nil
}

type fakeRecorder struct {
	entries []service.AuditEntry
}

func (f *fakeRecorder) Enabled() bool { return true }

func (f *fakeRecorder) Record(_ context.Context, entry service.AuditEntry) {
	f.entries = append(f.entries, entry)
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func TestSessionAuth(t *testing.T) {
	auth := &fakeAuthenticator{}
	r := newEngine()
	r.GET("/me", SessionAuth(auth), func(c *gin.Context) {
		sess := SessionFromContext(c)
		c.JSON(http.StatusOK, gin.H{"session": sess.ID, "log": c.GetString(logger.SessionKey), "claims": ClaimsFromContext(c).SessionID})
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"malformed", "Token abc", http.StatusUnauthorized},
		{"empty bearer", "Bearer  ", http.StatusUnauthorized},
		{"valid", "bearer abc", http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
	assert.Equal(t, "abc", auth.token)

	auth.err = appErrors.ErrSessionExpired
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer abc")
	r.ServeHTTP(rec, req)
	assert.Equal(t, appErrors.ErrSessionExpired.Status, rec.Code)
}

func TestReportErrorsForwardsAttachedErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	reporter := service.NewErrorReporter(zap.New(core), nil)
	r := newEngine()
	r.Use(requestid.Middleware(), ReportErrors(reporter))
	r.GET("/roster/import", func(c *gin.Context) {
		c.Set(logger.SessionKey, "s1")
		response.Error(c, appErrors.ErrNoValidRows)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/roster/import", nil)
	req.Header.Set(requestid.HeaderKey, "req-1")
	r.ServeHTTP(rec, req)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "s1", fields["session_id"])
	assert.Equal(t, "/roster/import", fields["path"])
}

func TestAuditRecordsSuccessfulRequests(t *testing.T) {
	recorder := &fakeRecorder{}
	r := newEngine()
	r.DELETE("/students/:id", func(c *gin.Context) {
		c.Set(ContextSessionKey, &models.Session{ID: "s1", User: models.UserInfo{Username: "admin"}})
		c.Next()
	}, Audit(recorder, models.AuditActionStudentDrop, "student"), func(c *gin.Context) {
		AddAuditDetail(c, "provisional", true)
		c.Status(http.StatusNoContent)
	})
	r.POST("/auth/login", Audit(recorder, models.AuditActionLogin, "session"), func(c *gin.Context) {
		SetAuditSubject(c, "s2", "nurse")
		c.Status(http.StatusOK)
	})
	r.POST("/fail", Audit(recorder, models.AuditActionSync, "roster"), func(c *gin.Context) {
		c.Status(http.StatusBadGateway)
	})

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodDelete, "/students/abc", nil),
		httptest.NewRequest(http.MethodPost, "/auth/login", nil),
		httptest.NewRequest(http.MethodPost, "/fail", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	require.Len(t, recorder.entries, 2)
	drop := recorder.entries[0]
	assert.Equal(t, "s1", drop.SessionID)
	assert.Equal(t, "admin", drop.Actor)
	assert.Equal(t, "abc", drop.ResourceID)
	assert.Equal(t, true, drop.Detail["provisional"])
	assert.Equal(t, "nurse", recorder.entries[1].Actor)
}

func TestMetaAndCacheHit(t *testing.T) {
	r := newEngine()
	r.Use(WithResponseMeta())
	r.GET("/dashboard", func(c *gin.Context) {
		SetCacheHit(c, true)
		response.OK(c, gin.H{"ok": true})
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	var body struct {
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body.Meta["cache_hit"])
	assert.Contains(t, body.Meta, "processing_time_ms")
}

func TestMetricsCountsRequests(t *testing.T) {
	metrics := service.NewMetricsService()
	r := newEngine()
	r.Use(Metrics(metrics))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, uint64(2), metrics.Snapshot().RequestsTotal)
}
