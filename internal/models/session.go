package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the explicit per-login console state. It replaces ambient token
// storage: the directory token and the working roster travel together.
type Session struct {
	ID             string    `json:"id"`
	DirectoryToken string    `json:"directoryToken"`
	User           UserInfo  `json:"user"`
	Roster         []Student `json:"roster"`
	// IssuedLocalID is the highest local id handed out by an import in this session.
	IssuedLocalID int `json:"issuedLocalId"`
	// RetiredLocalIDs are provisional ids superseded by an authoritative directory record.
	RetiredLocalIDs []int     `json:"retiredLocalIds,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	ExpiresAt       time.Time `json:"expiresAt"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Retire tombstones a provisional local id so it is never mistaken for an authoritative one.
func (s *Session) Retire(localID int) {
	if localID == 0 {
		return
	}
	for _, id := range s.RetiredLocalIDs {
		if id == localID {
			return
		}
	}
	s.RetiredLocalIDs = append(s.RetiredLocalIDs, localID)
}

// UserInfo describes the operator signed in to the directory.
type UserInfo struct {
	ID       string `json:"_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

// LoginRequest holds console credentials; the directory verifies them.
type LoginRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the console token and the signed-in operator.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
	RosterSize  int       `json:"roster_size"`
	SessionID   string    `json:"-"`
}

// DirectoryLogin is the directory's answer to POST /users/login.
type DirectoryLogin struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

// JWTClaims is the console token payload. The subject is the session id.
type JWTClaims struct {
	SessionID string `json:"sid"`
	Username  string `json:"username,omitempty"`
	jwt.RegisteredClaims
}
