package repository

import (
	"context"

	"github.com/noah-isme/vaxdrive-console/internal/models"
)

// ClassRepository lists classes for form population.
type ClassRepository struct {
	resource
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(client DirectoryClient) *ClassRepository {
	return &ClassRepository{resource{client: client}}
}

// List returns every class.
func (r *ClassRepository) List(ctx context.Context, token string) ([]models.Class, error) {
	var out []models.Class
	if err := r.get(ctx, token, "/classes", "classes.list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// VaccineRepository lists vaccines for form population.
type VaccineRepository struct {
	resource
}

// NewVaccineRepository constructs a VaccineRepository.
func NewVaccineRepository(client DirectoryClient) *VaccineRepository {
	return &VaccineRepository{resource{client: client}}
}

// List returns every vaccine.
func (r *VaccineRepository) List(ctx context.Context, token string) ([]models.Vaccine, error) {
	var out []models.Vaccine
	if err := r.get(ctx, token, "/vaccines", "vaccines.list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
