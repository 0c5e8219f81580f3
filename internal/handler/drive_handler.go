package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaxdrive-console/internal/models"
	appErrors "github.com/noah-isme/vaxdrive-console/pkg/errors"
	"github.com/noah-isme/vaxdrive-console/pkg/response"
)

type driveService interface {
	List(ctx context.Context, sessionID string) ([]models.Drive, error)
	Upcoming(ctx context.Context, sessionID string) ([]models.Drive, error)
	Horizon() time.Duration
	Statuses() []models.DriveStatusOption
	Create(ctx context.Context, sessionID string, input models.DriveInput) (*models.Drive, []string, error)
	Update(ctx context.Context, sessionID, id string, input models.DriveInput) (*models.Drive, []string, error)
	Delete(ctx context.Context, sessionID, id string) error
	StudentsForClass(ctx context.Context, sessionID, classID string) ([]models.Student, error)
	Records(ctx context.Context, sessionID string) ([]models.VaccinationRecord, error)
	RecordEntry(ctx context.Context, sessionID, driveID string, entry models.VaccinationEntry) (*models.EntryResult, error)
}

// DriveHandler serves vaccination drives, their entries and records.
type DriveHandler struct {
	service driveService
}

// NewDriveHandler constructs the handler.
func NewDriveHandler(svc driveService) *DriveHandler {
	return &DriveHandler{service: svc}
}

// List godoc
// @Summary List drives
// @Tags Drives
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /drives [get]
func (h *DriveHandler) List(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	drives, err := h.service.List(c.Request.Context(), sess.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, drives, nil)
}

// Upcoming godoc
// @Summary Drives starting within the upcoming window
// @Tags Drives
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /drives/upcoming [get]
func (h *DriveHandler) Upcoming(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	drives, err := h.service.Upcoming(c.Request.Context(), sess.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	days := int(h.service.Horizon() / (24 * time.Hour))
	response.JSON(c, http.StatusOK, drives, nil, map[string]interface{}{"horizon_days": days})
}

// Statuses godoc
// @Summary Drive status vocabulary for forms
// @Tags Drives
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /drives/statuses [get]
func (h *DriveHandler) Statuses(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Statuses(), nil)
}

// Create godoc
// @Summary Create a drive
// @Description An end date before the start date is accepted and reported in meta.warnings
// @Tags Drives
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.DriveInput true "Drive"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /drives [post]
func (h *DriveHandler) Create(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	var input models.DriveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, bindError(err, "invalid drive payload"))
		return
	}
	drive, warnings, err := h.service.Create(c.Request.Context(), sess.ID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Warn(c, warnings...)
	response.Created(c, drive)
}

// Update godoc
// @Summary Update a drive
// @Tags Drives
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Drive id"
// @Param payload body models.DriveInput true "Drive"
// @Success 200 {object} response.Envelope
// @Router /drives/{id} [put]
func (h *DriveHandler) Update(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	var input models.DriveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, bindError(err, "invalid drive payload"))
		return
	}
	drive, warnings, err := h.service.Update(c.Request.Context(), sess.ID, c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Warn(c, warnings...)
	response.JSON(c, http.StatusOK, drive, nil)
}

// Delete godoc
// @Summary Delete a drive
// @Tags Drives
// @Security BearerAuth
// @Param id path string true "Drive id"
// @Success 204
// @Router /drives/{id} [delete]
func (h *DriveHandler) Delete(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), sess.ID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Students godoc
// @Summary Students of a drive's target class
// @Tags Drives
// @Security BearerAuth
// @Produce json
// @Param id path string true "Drive id"
// @Param classId query string true "Class id"
// @Success 200 {object} response.Envelope
// @Router /drives/{id}/students [get]
func (h *DriveHandler) Students(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	students, err := h.service.StudentsForClass(c.Request.Context(), sess.ID, c.Query("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// RecordEntry godoc
// @Summary Record a vaccination for a drive
// @Tags Drives
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Drive id"
// @Param payload body models.VaccinationEntry true "Entry"
// @Success 201 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /drives/{id}/entries [post]
func (h *DriveHandler) RecordEntry(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	driveID := strings.TrimSpace(c.Param("id"))
	if driveID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "drive id is required"))
		return
	}
	var entry models.VaccinationEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		response.Error(c, bindError(err, "invalid vaccination entry"))
		return
	}
	result, err := h.service.RecordEntry(c.Request.Context(), sess.ID, driveID, entry)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Records godoc
// @Summary List vaccination records
// @Tags Records
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /records [get]
func (h *DriveHandler) Records(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	records, err := h.service.Records(c.Request.Context(), sess.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}
