// Package response renders the console envelope {data, error, pagination, meta}.
package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaxdrive-console/internal/models"
	appErrors "github.com/noah-isme/vaxdrive-console/pkg/errors"
)

const (
	// MetaKey is the gin context key holding response metadata collected during a request.
	MetaKey = "response_meta"
	// StartKey holds the time the request entered the meta middleware.
	StartKey = "response_start"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// JSON sends a success response with optional pagination metadata. Extra meta
// maps are merged over whatever middleware collected for the request.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	noStore(c)
	envelope := Envelope{Data: data, Pagination: pagination, Meta: collectMeta(c, meta...)}
	c.JSON(status, envelope)
}

// OK responds with HTTP 200.
func OK(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, data, nil)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}, meta ...map[string]interface{}) {
	JSON(c, http.StatusCreated, data, nil, meta...)
}

// Accepted responds with HTTP 202 Accepted.
func Accepted(c *gin.Context, data interface{}) {
	JSON(c, http.StatusAccepted, data, nil)
}

// Error sends an error response and attaches err to the context so the
// error reporting middleware sees it.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	_ = c.Error(err)
	noStore(c)
	c.JSON(appErr.Status, Envelope{Error: appErr, Meta: collectMeta(c)})
}

// Abort is Error followed by c.Abort, for middleware.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Warn appends a non-fatal warning to the response meta.
func Warn(c *gin.Context, warnings ...string) {
	if len(warnings) == 0 {
		return
	}
	meta := Meta(c)
	existing, _ := meta["warnings"].([]string)
	meta["warnings"] = append(existing, warnings...)
}

// Meta returns the request's metadata map, creating it when absent.
func Meta(c *gin.Context) map[string]interface{} {
	if raw, ok := c.Get(MetaKey); ok {
		if typed, ok := raw.(map[string]interface{}); ok {
			return typed
		}
	}
	meta := make(map[string]interface{})
	c.Set(MetaKey, meta)
	return meta
}

func collectMeta(c *gin.Context, extra ...map[string]interface{}) map[string]interface{} {
	var out map[string]interface{}
	if raw, ok := c.Get(MetaKey); ok {
		if typed, ok := raw.(map[string]interface{}); ok && len(typed) > 0 {
			out = make(map[string]interface{}, len(typed))
			for k, v := range typed {
				out[k] = v
			}
		}
	}
	for _, m := range extra {
		for k, v := range m {
			if out == nil {
				out = make(map[string]interface{}, len(m))
			}
			out[k] = v
		}
	}
	if raw, ok := c.Get(StartKey); ok {
		if start, ok := raw.(time.Time); ok {
			if out == nil {
				out = make(map[string]interface{}, 1)
			}
			if _, set := out["processing_time_ms"]; !set {
				out["processing_time_ms"] = time.Since(start).Milliseconds()
			}
		}
	}
	return out
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}
