package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vaxdrive-console/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestAuditCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.AuditLog{Actor: "nurse", Action: models.AuditActionImport, Resource: "roster"}
	require.NoError(t, repo.Create(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "session_id", "actor", "action", "resource", "resource_id", "detail", "ip_address", "user_agent", "created_at"}).
		AddRow("a1", "sess", "nurse", models.AuditActionSync, "roster", nil, []byte(`{"synced":2}`), "127.0.0.1", "test", now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, session_id, actor, action, resource, resource_id, detail, ip_address, user_agent, created_at FROM audit_logs WHERE 1=1 AND action = $1 ORDER BY created_at DESC LIMIT 10 OFFSET 10")).
		WithArgs(models.AuditActionSync).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM audit_logs WHERE 1=1 AND action = $1")).
		WithArgs(models.AuditActionSync).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	logs, total, err := repo.List(context.Background(), models.AuditFilter{Action: "roster_sync", Page: 2, Size: 10})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, 11, total)
	assert.Equal(t, "nurse", logs[0].Actor)
	require.NotNil(t, logs[0].SessionID)
	assert.Nil(t, logs[0].ResourceID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
