package repository

import (
	"context"
	"net/http"

	"github.com/noah-isme/vaxdrive-console/internal/models"
)

// DriveRepository manages vaccination drives through the directory.
type DriveRepository struct {
	resource
}

// NewDriveRepository constructs a DriveRepository.
func NewDriveRepository(client DirectoryClient) *DriveRepository {
	return &DriveRepository{resource{client: client}}
}

// List returns every drive.
func (r *DriveRepository) List(ctx context.Context, token string) ([]models.Drive, error) {
	var out []models.Drive
	if err := r.get(ctx, token, "/drives", "drives.list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create stores a new drive.
func (r *DriveRepository) Create(ctx context.Context, token string, input models.DriveInput) (*models.Drive, error) {
	var out models.Drive
	if err := r.send(ctx, http.MethodPost, token, "/drives", "drives.create", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces the drive identified by id.
func (r *DriveRepository) Update(ctx context.Context, token, id string, input models.DriveInput) (*models.Drive, error) {
	var out models.Drive
	if err := r.send(ctx, http.MethodPut, token, itemPath("/drives", id), "drives.update", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes the drive identified by id.
func (r *DriveRepository) Delete(ctx context.Context, token, id string) error {
	return r.send(ctx, http.MethodDelete, token, itemPath("/drives", id), "drives.delete", nil, nil)
}
