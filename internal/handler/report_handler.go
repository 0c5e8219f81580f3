package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaxdrive-console/internal/dto"
	"github.com/noah-isme/vaxdrive-console/internal/middleware"
	"github.com/noah-isme/vaxdrive-console/internal/models"
	"github.com/noah-isme/vaxdrive-console/internal/service"
	appErrors "github.com/noah-isme/vaxdrive-console/pkg/errors"
	"github.com/noah-isme/vaxdrive-console/pkg/response"
)

type reportService interface {
	Rows(ctx context.Context, sessionID string, filter models.ReportFilter) ([]models.ReportRow, error)
	Render(ctx context.Context, sessionID string, format models.ReportFormat, filter models.ReportFilter) (*service.Rendered, error)
	CreateExport(ctx context.Context, sessionID, actor string, req dto.ExportRequest) (*dto.ExportJobResponse, error)
	ExportStatus(ctx context.Context, sessionID, id string) (*dto.ExportStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error)
}

// ReportHandler exposes the printable vaccination report and its exports.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(svc reportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// Report godoc
// @Summary Printable vaccination report
// @Tags Reports
// @Security BearerAuth
// @Produce json,text/csv,application/pdf
// @Param format query string false "json, csv, pdf or xlsx"
// @Param class query string false "Class label"
// @Param vaccinated query bool false "Vaccinated filter"
// @Success 200 {object} response.Envelope
// @Router /reports [get]
func (h *ReportHandler) Report(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	filter, err := reportFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := models.ReportFormat(strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", string(models.ReportFormatJSON)))))
	if !format.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported report format"))
		return
	}

	if format == models.ReportFormatJSON {
		rows, err := h.service.Rows(c.Request.Context(), sess.ID, filter)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, rows, nil, map[string]interface{}{"count": len(rows)})
		return
	}

	rendered, err := h.service.Render(c.Request.Context(), sess.ID, format, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rendered.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, rendered.ContentType, rendered.Payload)
}

// CreateExport godoc
// @Summary Queue a report export
// @Tags Reports
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body dto.ExportRequest true "Export request"
// @Success 202 {object} response.Envelope
// @Router /reports/exports [post]
func (h *ReportHandler) CreateExport(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid export payload"))
		return
	}
	req.Format = models.ReportFormat(strings.ToLower(string(req.Format)))
	job, err := h.service.CreateExport(c.Request.Context(), sess.ID, sess.User.Username, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.AddAuditDetail(c, "export_id", job.ID)
	middleware.AddAuditDetail(c, "format", req.Format)
	response.Accepted(c, job)
}

// ExportStatus godoc
// @Summary Export job status
// @Description Finished jobs carry a signed download URL
// @Tags Reports
// @Security BearerAuth
// @Produce json
// @Param id path string true "Export id"
// @Success 200 {object} response.Envelope
// @Router /reports/exports/{id} [get]
func (h *ReportHandler) ExportStatus(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	status, err := h.service.ExportStatus(c.Request.Context(), sess.ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Download godoc
// @Summary Download a finished export through its signed token
// @Tags Reports
// @Produce application/octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	download, err := h.service.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.Object.Body.Close() //nolint:errcheck

	ctype := download.Object.ContentType
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, download.Object.Size, ctype, download.Object.Body, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", download.Filename),
		"Cache-Control":       "no-store",
	})
}

func reportFilter(c *gin.Context) (models.ReportFilter, error) {
	filter := models.ReportFilter{Class: strings.TrimSpace(c.Query("class"))}
	raw := strings.ToLower(strings.TrimSpace(c.Query("vaccinated")))
	switch raw {
	case "":
	case "true", "yes", "1":
		v := true
		filter.Vaccinated = &v
	case "false", "no", "0":
		v := false
		filter.Vaccinated = &v
	default:
		return filter, appErrors.Clone(appErrors.ErrValidation, "vaccinated must be true or false")
	}
	return filter, nil
}
