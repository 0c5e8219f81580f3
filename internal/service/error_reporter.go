package service

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appErrors "github.com/noah-isme/vaxdrive-console/pkg/errors"
)

// ErrorReport carries request context for one surfaced error.
type ErrorReport struct {
	RequestID string
	SessionID string
	Method    string
	Path      string
}

// ErrorReporter is the one channel every console-facing error passes through.
// It logs at the level matching the error's severity and counts it.
type ErrorReporter struct {
	logger  *zap.Logger
	metrics *MetricsService
}

// NewErrorReporter constructs an ErrorReporter.
func NewErrorReporter(logger *zap.Logger, metrics *MetricsService) *ErrorReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorReporter{logger: logger, metrics: metrics}
}

// Report records err and returns its normalised form.
func (r *ErrorReporter) Report(err error, report ErrorReport) *appErrors.Error {
	if err == nil {
		return nil
	}
	appErr := appErrors.FromError(err)
	severity := appErr.Severity
	if severity == "" {
		severity = appErrors.SeverityError
	}

	fields := []zap.Field{
		zap.String("code", appErr.Code),
		zap.String("severity", string(severity)),
		zap.Int("status", appErr.Status),
	}
	if report.RequestID != "" {
		fields = append(fields, zap.String("request_id", report.RequestID))
	}
	if report.SessionID != "" {
		fields = append(fields, zap.String("session_id", report.SessionID))
	}
	if report.Path != "" {
		fields = append(fields, zap.String("method", report.Method), zap.String("path", report.Path))
	}
	if appErr.Err != nil {
		fields = append(fields, zap.Error(appErr.Err))
	}

	if ce := r.logger.Check(levelFor(severity), appErr.Message); ce != nil {
		ce.Write(fields...)
	}
	r.metrics.RecordReportedError(string(severity), appErr.Code)
	return appErr
}

func levelFor(severity appErrors.Severity) zapcore.Level {
	switch severity {
	case appErrors.SeverityInfo:
		return zapcore.InfoLevel
	case appErrors.SeverityWarning:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}
