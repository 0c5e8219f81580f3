package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaxdrive-console/internal/dto"
	"github.com/noah-isme/vaxdrive-console/internal/middleware"
	"github.com/noah-isme/vaxdrive-console/internal/models"
	appErrors "github.com/noah-isme/vaxdrive-console/pkg/errors"
	"github.com/noah-isme/vaxdrive-console/pkg/response"
)

const rosterFileField = "file"

type rosterService interface {
	List(ctx context.Context, sessionID, query string, page models.Pagination) ([]dto.RosterRow, *models.Pagination, error)
	Refresh(ctx context.Context, sessionID string, keepProvisional bool) (int, error)
	Import(ctx context.Context, sessionID, filename string, content io.Reader) (*dto.ImportResponse, error)
	Upload(ctx context.Context, sessionID, filename string, content io.Reader) (*models.UploadResult, int, error)
	Sync(ctx context.Context, sessionID string) (*dto.SyncResponse, error)
	Save(ctx context.Context, sessionID, id string, input models.StudentInput) (*models.Student, error)
	Delete(ctx context.Context, sessionID, id string) error
	DeleteLocal(ctx context.Context, sessionID string, localID int) error
}

// RosterHandler serves the session roster and student maintenance.
type RosterHandler struct {
	service rosterService
}

// NewRosterHandler constructs the handler.
func NewRosterHandler(svc rosterService) *RosterHandler {
	return &RosterHandler{service: svc}
}

// List godoc
// @Summary List the session roster
// @Description Case-insensitive search over name, class, identifier and vaccinated flag
// @Tags Roster
// @Security BearerAuth
// @Produce json
// @Param search query string false "Search text"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /roster [get]
func (h *RosterHandler) List(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	page := models.Pagination{Page: queryInt(c, "page"), PageSize: queryInt(c, "limit")}
	rows, pagination, err := h.service.List(c.Request.Context(), sess.ID, c.Query("search"), page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Refresh godoc
// @Summary Rebuild the roster from the directory
// @Tags Roster
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body dto.RefreshRequest false "Refresh options"
// @Success 200 {object} response.Envelope
// @Router /roster/refresh [post]
func (h *RosterHandler) Refresh(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	var req dto.RefreshRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, bindError(err, "invalid refresh payload"))
			return
		}
	}
	if raw := c.Query("keepProvisional"); raw != "" {
		req.KeepProvisional, _ = strconv.ParseBool(raw)
	}
	size, err := h.service.Refresh(c.Request.Context(), sess.ID, req.KeepProvisional)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"rosterSize": size}, nil)
}

// Import godoc
// @Summary Import a CSV or XLSX roster file locally
// @Description Rows become provisional roster entries reconciled by identity
// @Tags Roster
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Roster file"
// @Success 200 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /roster/import [post]
func (h *RosterHandler) Import(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	filename, file, ok := formFile(c)
	if !ok {
		return
	}
	defer file.Close() //nolint:errcheck

	result, err := h.service.Import(c.Request.Context(), sess.ID, filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.AddAuditDetail(c, "accepted", result.Accepted)
	response.JSON(c, http.StatusOK, result, nil)
}

// Upload godoc
// @Summary Forward a roster file to the directory bulk upload
// @Tags Roster
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Roster file"
// @Success 200 {object} response.Envelope
// @Router /roster/upload [post]
func (h *RosterHandler) Upload(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	filename, file, ok := formFile(c)
	if !ok {
		return
	}
	defer file.Close() //nolint:errcheck

	result, size, err := h.service.Upload(c.Request.Context(), sess.ID, filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"result": result, "rosterSize": size}, nil)
}

// Sync godoc
// @Summary Push provisional entries to the directory
// @Tags Roster
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /roster/sync [post]
func (h *RosterHandler) Sync(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	result, err := h.service.Sync(c.Request.Context(), sess.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.AddAuditDetail(c, "synced", result.Synced)
	response.JSON(c, http.StatusOK, result, nil)
}

// CreateStudent godoc
// @Summary Create a student in the directory
// @Tags Students
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.StudentInput true "Student"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students [post]
func (h *RosterHandler) CreateStudent(c *gin.Context) {
	h.save(c, "", http.StatusCreated)
}

// UpdateStudent godoc
// @Summary Update a student in the directory
// @Tags Students
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Directory id"
// @Param payload body models.StudentInput true "Student"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [put]
func (h *RosterHandler) UpdateStudent(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "student id is required"))
		return
	}
	h.save(c, id, http.StatusOK)
}

// DeleteStudent godoc
// @Summary Delete a student
// @Description A directory id always wins. local=true addresses a provisional entry by its local id, removed locally only
// @Tags Students
// @Security BearerAuth
// @Param id path string true "Directory id or local id"
// @Param local query bool false "Treat id as a local id"
// @Success 204
// @Router /students/{id} [delete]
func (h *RosterHandler) DeleteStudent(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	var err error
	if local, _ := strconv.ParseBool(c.Query("local")); local {
		localID, convErr := strconv.Atoi(id)
		if convErr != nil || localID <= 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "local id must be a positive number"))
			return
		}
		err = h.service.DeleteLocal(c.Request.Context(), sess.ID, localID)
	} else {
		err = h.service.Delete(c.Request.Context(), sess.ID, id)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *RosterHandler) save(c *gin.Context, id string, status int) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	var input models.StudentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, bindError(err, "invalid student payload"))
		return
	}
	student, err := h.service.Save(c.Request.Context(), sess.ID, id, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, status, student, nil)
}

func formFile(c *gin.Context) (string, io.ReadCloser, bool) {
	header, err := c.FormFile(rosterFileField)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "file is required"))
		return "", nil, false
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return "", nil, false
	}
	return header.Filename, file, true
}

func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return 0
	}
	return v
}
