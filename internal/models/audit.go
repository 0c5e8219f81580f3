package models

import "time"

// Audit actions recorded for console operations.
const (
	AuditActionLogin       = "LOGIN"
	AuditActionLogout      = "LOGOUT"
	AuditActionImport      = "ROSTER_IMPORT"
	AuditActionUpload      = "ROSTER_UPLOAD"
	AuditActionSync        = "ROSTER_SYNC"
	AuditActionRefresh     = "ROSTER_REFRESH"
	AuditActionStudentSave = "STUDENT_SAVE"
	AuditActionStudentDrop = "STUDENT_DELETE"
	AuditActionDriveCreate = "DRIVE_CREATE"
	AuditActionDriveUpdate = "DRIVE_UPDATE"
	AuditActionDriveDelete = "DRIVE_DELETE"
	AuditActionEntry       = "VACCINATION_ENTRY"
	AuditActionExport      = "REPORT_EXPORT"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	SessionID  *string   `db:"session_id" json:"session_id,omitempty"`
	Actor      string    `db:"actor" json:"actor"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Detail     []byte    `db:"detail" json:"detail,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AuditFilter narrows audit trail listings.
type AuditFilter struct {
	Action string
	Actor  string
	Page   int
	Size   int
}
