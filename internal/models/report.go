package models

import "time"

// ReportFormat enumerates supported report renderings.
type ReportFormat string

const (
	ReportFormatJSON ReportFormat = "json"
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatPDF  ReportFormat = "pdf"
	ReportFormatXLSX ReportFormat = "xlsx"
)

// Valid reports whether f is a known format.
func (f ReportFormat) Valid() bool {
	switch f {
	case ReportFormatJSON, ReportFormatCSV, ReportFormatPDF, ReportFormatXLSX:
		return true
	}
	return false
}

// ExportStatus captures background export lifecycle states.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "QUEUED"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusFinished   ExportStatus = "FINISHED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ReportFilter narrows the printable report.
type ReportFilter struct {
	Class      string `json:"class,omitempty"`
	Vaccinated *bool  `json:"vaccinated,omitempty"`
}

// ReportRow is one line of the printable vaccination report.
type ReportRow struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Class      string     `json:"class"`
	Vaccinated string     `json:"vaccinated"`
	Date       *time.Time `json:"date,omitempty"`
}

// ExportJob is the metadata of an asynchronous report export.
type ExportJob struct {
	ID           string       `json:"id"`
	SessionID    string       `json:"-"`
	Format       ReportFormat `json:"format"`
	Filter       ReportFilter `json:"filter"`
	Status       ExportStatus `json:"status"`
	StorageKey   string       `json:"-"`
	RowCount     int          `json:"rowCount"`
	CreatedBy    string       `json:"createdBy"`
	CreatedAt    time.Time    `json:"createdAt"`
	FinishedAt   *time.Time   `json:"finishedAt,omitempty"`
	ErrorMessage *string      `json:"error,omitempty"`
}
