package repository

import (
	"context"
	"net/http"

	"github.com/noah-isme/vaxdrive-console/internal/models"
)

// RecordRepository reads and creates vaccination records.
type RecordRepository struct {
	resource
}

// NewRecordRepository constructs a RecordRepository.
func NewRecordRepository(client DirectoryClient) *RecordRepository {
	return &RecordRepository{resource{client: client}}
}

// List returns every vaccination record.
func (r *RecordRepository) List(ctx context.Context, token string) ([]models.VaccinationRecord, error) {
	var out []models.VaccinationRecord
	if err := r.get(ctx, token, "/records", "records.list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create posts a vaccination entry.
func (r *RecordRepository) Create(ctx context.Context, token string, entry models.VaccinationEntry) (*models.VaccinationRecord, error) {
	var out models.VaccinationRecord
	if err := r.send(ctx, http.MethodPost, token, "/records", "records.create", entry, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
