package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Severity declares how loudly an error is surfaced to operators and the console.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Status   int      `json:"status"`
	Severity Severity `json:"severity"`
	Err      error    `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target carries the same code, so clones match their template.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance. Severity is derived from the status.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Severity: severityFor(status)}
}

// NewWithSeverity creates an Error with an explicit severity.
func NewWithSeverity(code string, status int, severity Severity, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Severity: severity}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Severity: severityFor(status), Err: err}
}

// WrapAs wraps err reusing the code, status and severity of template.
func WrapAs(err error, template *Error, message string) *Error {
	if template == nil {
		template = ErrInternal
	}
	if message == "" {
		message = template.Message
	}
	return &Error{Code: template.Code, Status: template.Status, Severity: template.Severity, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials   = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid username or password")
	ErrNotFound             = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden            = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized         = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict             = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation           = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal             = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss            = New("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrSessionExpired       = New("SESSION_EXPIRED", http.StatusUnauthorized, "session expired or not found")
	ErrNoValidRows          = NewWithSeverity("NO_VALID_ROWS", http.StatusUnprocessableEntity, SeverityWarning, "no valid rows found")
	ErrUnsupportedFile      = NewWithSeverity("UNSUPPORTED_FILE", http.StatusUnsupportedMediaType, SeverityWarning, "unsupported file type")
	ErrDirectoryUnavailable = NewWithSeverity("DIRECTORY_UNAVAILABLE", http.StatusBadGateway, SeverityError, "directory service unavailable")
	ErrDirectoryRejected    = NewWithSeverity("DIRECTORY_REJECTED", http.StatusBadRequest, SeverityWarning, "directory service rejected the request")
	ErrRequestAbandoned     = NewWithSeverity("REQUEST_ABANDONED", 499, SeverityInfo, "request abandoned before completion")
	ErrExportPending        = NewWithSeverity("EXPORT_PENDING", http.StatusAccepted, SeverityInfo, "export is still being generated")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

func severityFor(status int) Severity {
	switch {
	case status >= http.StatusInternalServerError:
		return SeverityError
	case status >= http.StatusBadRequest:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}
