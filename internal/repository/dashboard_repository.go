package repository

import (
	"context"

	"github.com/noah-isme/vaxdrive-console/internal/dto"
)

// DashboardRepository reads the directory's precomputed summary.
type DashboardRepository struct {
	resource
}

// NewDashboardRepository constructs a DashboardRepository.
func NewDashboardRepository(client DirectoryClient) *DashboardRepository {
	return &DashboardRepository{resource{client: client}}
}

// Summary fetches GET /dashboard/summary.
func (r *DashboardRepository) Summary(ctx context.Context, token string) (*dto.DirectorySummary, error) {
	var out dto.DirectorySummary
	if err := r.get(ctx, token, "/dashboard/summary", "dashboard.summary", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
