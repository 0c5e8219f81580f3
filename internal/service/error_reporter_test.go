package service

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appErrors "github.com/noah-isme/vaxdrive-console/pkg/errors"
)

func TestErrorReporterLogsBySeverity(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	metrics := NewMetricsService()
	reporter := NewErrorReporter(zap.New(core), metrics)

	reporter.Report(appErrors.ErrNoValidRows, ErrorReport{RequestID: "r1", SessionID: "s1"})
	reporter.Report(appErrors.ErrRequestAbandoned, ErrorReport{})
	got := reporter.Report(errors.New("boom"), ErrorReport{Method: "GET", Path: "/x"})

	require.Equal(t, 3, logs.Len())
	entries := logs.All()
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "no valid rows found", entries[0].Message)
	assert.Equal(t, "s1", entries[0].ContextMap()["session_id"])
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)

	assert.Equal(t, appErrors.ErrInternal.Code, got.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.reportedErrors.WithLabelValues("warning", "NO_VALID_ROWS")))
	assert.Equal(t, uint64(3), metrics.Snapshot().ReportedErrors)
}

func TestErrorReporterIgnoresNil(t *testing.T) {
	assert.Nil(t, NewErrorReporter(nil, nil).Report(nil, ErrorReport{}))
}
