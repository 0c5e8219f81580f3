package repository

import (
	"context"
	"net/http"

	"github.com/noah-isme/vaxdrive-console/internal/models"
)

// AuthRepository exchanges credentials with the directory.
type AuthRepository struct {
	resource
}

// NewAuthRepository constructs an AuthRepository.
func NewAuthRepository(client DirectoryClient) *AuthRepository {
	return &AuthRepository{resource{client: client}}
}

// Login posts the credentials to /users/login and returns the bearer token.
func (r *AuthRepository) Login(ctx context.Context, username, password string) (*models.DirectoryLogin, error) {
	var out models.DirectoryLogin
	body := map[string]string{"username": username, "password": password}
	if err := r.send(ctx, http.MethodPost, "", "/users/login", "users.login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
