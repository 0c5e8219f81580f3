package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaxdrive-console/internal/middleware"
	"github.com/noah-isme/vaxdrive-console/internal/models"
	"github.com/noah-isme/vaxdrive-console/pkg/logger"
	"github.com/noah-isme/vaxdrive-console/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Login godoc
// @Summary Sign in through the directory
// @Description Exchanges directory credentials for a console token and loads the roster
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(logger.SessionKey, res.SessionID)
	middleware.SetAuditSubject(c, res.SessionID, res.User.Username)
	middleware.AddAuditDetail(c, "roster_size", res.RosterSize)
	response.JSON(c, http.StatusOK, res, nil)
}

// Logout godoc
// @Summary End the console session
// @Tags Authentication
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	if err := h.service.Logout(c.Request.Context(), sess.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
