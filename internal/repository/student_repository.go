package repository

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/noah-isme/vaxdrive-console/internal/models"
	"github.com/noah-isme/vaxdrive-console/pkg/directory"
)

// StudentRepository manages students through the directory.
type StudentRepository struct {
	resource
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(client DirectoryClient) *StudentRepository {
	return &StudentRepository{resource{client: client}}
}

type studentPayload struct {
	StudentID   string           `json:"StudentID"`
	Name        string           `json:"name"`
	DateOfBirth models.Timestamp `json:"dateOfBirth"`
	ClassID     string           `json:"classId"`
	Vaccinated  *bool            `json:"vaccinated,omitempty"`
}

func payloadFor(input models.StudentInput) studentPayload {
	return studentPayload{
		StudentID:   input.StudentID,
		Name:        input.Name,
		DateOfBirth: input.DateOfBirth,
		ClassID:     input.ClassID,
		Vaccinated:  input.Vaccinated,
	}
}

// List returns the directory's students, optionally for one class.
func (r *StudentRepository) List(ctx context.Context, token string, filter models.StudentFilter) ([]models.Student, error) {
	var query url.Values
	if filter.ClassID != "" {
		query = url.Values{"classId": {filter.ClassID}}
	}
	var out []models.Student
	if err := r.get(ctx, token, "/students", "students.list", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create stores a new student and returns the authoritative record.
func (r *StudentRepository) Create(ctx context.Context, token string, input models.StudentInput) (*models.Student, error) {
	var out models.Student
	if err := r.send(ctx, http.MethodPost, token, "/students", "students.create", payloadFor(input), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces the student identified by id.
func (r *StudentRepository) Update(ctx context.Context, token, id string, input models.StudentInput) (*models.Student, error) {
	var out models.Student
	if err := r.send(ctx, http.MethodPut, token, itemPath("/students", id), "students.update", payloadFor(input), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes the student identified by id.
func (r *StudentRepository) Delete(ctx context.Context, token, id string) error {
	return r.send(ctx, http.MethodDelete, token, itemPath("/students", id), "students.delete", nil, nil)
}

// Upload forwards a roster file to the directory's bulk import.
func (r *StudentRepository) Upload(ctx context.Context, token, filename string, content io.Reader) (*models.UploadResult, error) {
	var out models.UploadResult
	req := directory.Request{Method: http.MethodPost, Path: "/students/upload", Endpoint: "students.upload", Token: token}
	if err := r.client.Upload(ctx, req, "file", filename, content, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
