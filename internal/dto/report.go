package dto

import "github.com/noah-isme/vaxdrive-console/internal/models"

// ExportRequest captures POST /reports/exports payload.
type ExportRequest struct {
	Format     models.ReportFormat `json:"format" validate:"required,oneof=csv pdf xlsx"`
	Class      string              `json:"class,omitempty"`
	Vaccinated *bool               `json:"vaccinated,omitempty"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID     string              `json:"id"`
	Status models.ExportStatus `json:"status"`
}

// ExportStatusResponse exposes job progress metadata.
type ExportStatusResponse struct {
	ID          string              `json:"id"`
	Status      models.ExportStatus `json:"status"`
	Format      models.ReportFormat `json:"format"`
	RowCount    int                 `json:"rowCount"`
	DownloadURL *string             `json:"downloadUrl,omitempty"`
	Error       *string             `json:"error,omitempty"`
}
