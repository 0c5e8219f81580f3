package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/vaxdrive-console/internal/models"
	appErrors "github.com/noah-isme/vaxdrive-console/pkg/errors"
)

type directoryAuthenticator interface {
	Login(ctx context.Context, username, password string) (*models.DirectoryLogin, error)
}

type rosterSource interface {
	List(ctx context.Context, token string, filter models.StudentFilter) ([]models.Student, error)
}

type sessionManager interface {
	Create(ctx context.Context, directoryToken string, user models.UserInfo, roster []models.Student) (*models.Session, error)
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

// AuthConfig defines configuration for the console token.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// AuthService signs operators in through the directory and issues console tokens.
type AuthService struct {
	directory directoryAuthenticator
	students  rosterSource
	sessions  sessionManager
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(directory directoryAuthenticator, students rosterSource, sessions sessionManager, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 8 * time.Hour
	}
	return &AuthService{directory: directory, students: students, sessions: sessions, validator: validate, logger: logger, config: config}
}

// Login exchanges credentials with the directory, loads the initial roster and
// opens a console session.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	login, err := s.directory.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, appErrors.ErrUnauthorized) || errors.Is(err, appErrors.ErrDirectoryRejected) || errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.WrapAs(err, appErrors.ErrInvalidCredentials, "invalid credentials")
		}
		return nil, err
	}
	if login.Token == "" {
		return nil, appErrors.Clone(appErrors.ErrDirectoryUnavailable, "directory login returned no token")
	}
	if abandoned(ctx) {
		return nil, appErrors.ErrRequestAbandoned
	}

	user := login.User
	if user.Username == "" {
		user.Username = req.Username
	}

	roster, err := s.students.List(ctx, login.Token, models.StudentFilter{})
	if err != nil {
		if errors.Is(err, appErrors.ErrRequestAbandoned) {
			return nil, err
		}
		s.logger.Warn("initial roster load failed, starting empty", zap.String("username", user.Username), zap.Error(err))
		roster = nil
	}
	if abandoned(ctx) {
		return nil, appErrors.ErrRequestAbandoned
	}

	sess, err := s.sessions.Create(ctx, login.Token, user, roster)
	if err != nil {
		return nil, err
	}

	token, issuedAt, err := s.generateAccessToken(sess)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		User:        user,
		IssuedAt:    issuedAt,
		RosterSize:  len(sess.Roster),
		SessionID:   sess.ID,
	}, nil
}

// Authenticate validates a console token and loads its session.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.JWTClaims, *models.Session, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, nil, err
	}
	sess, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, nil, err
	}
	return claims, sess, nil
}

// Logout ends the session. The directory token simply stops being used.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// ValidateToken parses and validates a console token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.SessionID == "" || claims.Subject != claims.SessionID {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) generateAccessToken(sess *models.Session) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	if !sess.ExpiresAt.IsZero() && sess.ExpiresAt.Before(expiresAt) {
		expiresAt = sess.ExpiresAt
	}
	claims := &models.JWTClaims{
		SessionID: sess.ID,
		Username:  sess.User.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   sess.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, issuedAt, nil
}

// abandoned reports whether the requesting view has gone away.
func abandoned(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.Canceled)
}
