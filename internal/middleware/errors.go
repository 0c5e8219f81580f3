package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaxdrive-console/internal/service"
	"github.com/noah-isme/vaxdrive-console/pkg/logger"
	"github.com/noah-isme/vaxdrive-console/pkg/middleware/requestid"
)

// ReportErrors forwards every error a handler attached to the context to the reporter.
func ReportErrors(reporter *service.ErrorReporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if reporter == nil || len(c.Errors) == 0 {
			return
		}
		report := service.ErrorReport{
			RequestID: requestid.Value(c),
			SessionID: c.GetString(logger.SessionKey),
			Method:    c.Request.Method,
			Path:      c.FullPath(),
		}
		if report.Path == "" {
			report.Path = c.Request.URL.Path
		}
		for _, ginErr := range c.Errors {
			reporter.Report(ginErr.Err, report)
		}
	}
}
