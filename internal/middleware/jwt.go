package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaxdrive-console/internal/models"
	appErrors "github.com/noah-isme/vaxdrive-console/pkg/errors"
	"github.com/noah-isme/vaxdrive-console/pkg/logger"
	"github.com/noah-isme/vaxdrive-console/pkg/response"
)

const (
	// ContextClaimsKey stores the console token claims.
	ContextClaimsKey = "currentClaims"
	// ContextSessionKey stores the loaded console session.
	ContextSessionKey = "currentSession"
)

type sessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*models.JWTClaims, *models.Session, error)
}

// SessionAuth requires a valid console token and loads the session it names.
func SessionAuth(auth sessionAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Abort(c, appErrors.ErrUnauthorized)
			return
		}

		token, ok := bearerToken(header)
		if !ok {
			response.Abort(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			return
		}

		claims, sess, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Abort(c, err)
			return
		}

		c.Set(ContextClaimsKey, claims)
		c.Set(ContextSessionKey, sess)
		c.Set(logger.SessionKey, sess.ID)
		c.Next()
	}
}

// SessionFromContext returns the authenticated session, if any.
func SessionFromContext(c *gin.Context) *models.Session {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil
	}
	sess, _ := value.(*models.Session)
	return sess
}

// ClaimsFromContext returns the console token claims, if any.
func ClaimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(ContextClaimsKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*models.JWTClaims)
	return claims
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
