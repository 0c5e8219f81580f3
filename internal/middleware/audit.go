package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaxdrive-console/internal/service"
)

const (
	auditSessionKey = "audit_session_id"
	auditActorKey   = "audit_actor"
	auditDetailKey  = "audit_detail"
)

type auditRecorder interface {
	Enabled() bool
	Record(ctx context.Context, entry service.AuditEntry)
}

// Audit records action against resource after a successful request.
func Audit(recorder auditRecorder, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if recorder == nil || !recorder.Enabled() {
			c.Next()
			return
		}
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		sessionID, actor := c.GetString(auditSessionKey), c.GetString(auditActorKey)
		if sess := SessionFromContext(c); sess != nil {
			sessionID, actor = sess.ID, sess.User.Username
		}

		detail := map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
		}
		if extra, ok := c.Get(auditDetailKey); ok {
			if typed, ok := extra.(map[string]interface{}); ok {
				for k, v := range typed {
					detail[k] = v
				}
			}
		}

		recorder.Record(c.Request.Context(), service.AuditEntry{
			SessionID:  sessionID,
			Actor:      actor,
			Action:     action,
			Resource:   resource,
			ResourceID: c.Param("id"),
			Detail:     detail,
			IPAddress:  c.ClientIP(),
			UserAgent:  c.GetHeader("User-Agent"),
		})
	}
}

// SetAuditSubject names the session and actor for requests that run before a
// session exists, such as login.
func SetAuditSubject(c *gin.Context, sessionID, actor string) {
	c.Set(auditSessionKey, sessionID)
	c.Set(auditActorKey, actor)
}

// AddAuditDetail attaches handler-specific fields to the audit entry.
func AddAuditDetail(c *gin.Context, key string, value interface{}) {
	detail, _ := c.Get(auditDetailKey)
	typed, ok := detail.(map[string]interface{})
	if !ok {
		typed = make(map[string]interface{})
		c.Set(auditDetailKey, typed)
	}
	typed[key] = value
}
