package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/vaxdrive-console/internal/models"
	appErrors "github.com/noah-isme/vaxdrive-console/pkg/errors"
)

// ExportJobStore keeps export job metadata in process memory. Rendered files
// live in object storage; only their keys are kept here.
type ExportJobStore struct {
	mu   sync.RWMutex
	jobs map[string]models.ExportJob
}

// NewExportJobStore constructs an empty store.
func NewExportJobStore() *ExportJobStore {
	return &ExportJobStore{jobs: make(map[string]models.ExportJob)}
}

// Create stores a new job.
func (s *ExportJobStore) Create(_ context.Context, job *models.ExportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return appErrors.Clone(appErrors.ErrConflict, "export job already exists")
	}
	s.jobs[job.ID] = *job
	return nil
}

// Get returns a copy of the job.
func (s *ExportJobStore) Get(_ context.Context, id string) (*models.ExportJob, error) {
	s.mu.RLock()
	job, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return &job, nil
}

// Update applies fn to the stored job atomically.
func (s *ExportJobStore) Update(_ context.Context, id string, fn func(*models.ExportJob)) (*models.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	fn(&job)
	s.jobs[id] = job
	return &job, nil
}

// FinishedBefore lists jobs that finished before cutoff, oldest first.
func (s *ExportJobStore) FinishedBefore(_ context.Context, cutoff time.Time) ([]models.ExportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ExportJob, 0)
	for _, job := range s.jobs {
		if job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			out = append(out, job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FinishedAt.Before(*out[j].FinishedAt) })
	return out, nil
}

// Delete forgets a job.
func (s *ExportJobStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	return nil
}
