package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaxdrive-console/internal/dto"
	"github.com/noah-isme/vaxdrive-console/internal/middleware"
	appErrors "github.com/noah-isme/vaxdrive-console/pkg/errors"
	"github.com/noah-isme/vaxdrive-console/pkg/response"
)

type dashboardService interface {
	Summary(ctx context.Context, sessionID string) (*dto.DashboardResponse, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Summary godoc
// @Summary Console landing summary
// @Description Totals, vaccinated share and drives within the upcoming window. Falls back to the session roster when the directory summary is unavailable.
// @Tags Dashboard
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	summary, cacheHit, err := h.service.Summary(c.Request.Context(), sess.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, summary, nil)
}
