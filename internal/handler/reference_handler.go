package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaxdrive-console/internal/models"
	"github.com/noah-isme/vaxdrive-console/pkg/response"
)

type referenceService interface {
	Classes(ctx context.Context, sessionID string) ([]models.Class, error)
	Vaccines(ctx context.Context, sessionID string) ([]models.Vaccine, error)
}

// ReferenceHandler serves read-only class and vaccine lists.
type ReferenceHandler struct {
	service referenceService
}

// NewReferenceHandler constructs the handler.
func NewReferenceHandler(svc referenceService) *ReferenceHandler {
	return &ReferenceHandler{service: svc}
}

// Classes godoc
// @Summary List classes
// @Tags Reference
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ReferenceHandler) Classes(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	classes, err := h.service.Classes(c.Request.Context(), sess.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// Vaccines godoc
// @Summary List vaccines
// @Tags Reference
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /vaccines [get]
func (h *ReferenceHandler) Vaccines(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	vaccines, err := h.service.Vaccines(c.Request.Context(), sess.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, vaccines, nil)
}
