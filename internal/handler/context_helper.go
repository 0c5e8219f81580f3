package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaxdrive-console/internal/middleware"
	"github.com/noah-isme/vaxdrive-console/internal/models"
	appErrors "github.com/noah-isme/vaxdrive-console/pkg/errors"
	"github.com/noah-isme/vaxdrive-console/pkg/response"
)

// requireSession returns the authenticated session or writes 401.
func requireSession(c *gin.Context) (*models.Session, bool) {
	sess := middleware.SessionFromContext(c)
	if sess == nil || sess.ID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return sess, true
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
