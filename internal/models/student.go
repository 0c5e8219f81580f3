package models

import (
	"math"
	"strconv"
	"time"
)

// Student is one roster entry. Records from the directory carry ID (and usually
// StudentID); records synthesised by a local import carry LocalID and Provisional.
type Student struct {
	ID          string     `json:"_id,omitempty"`
	StudentID   string     `json:"StudentID,omitempty"`
	LocalID     int        `json:"id,omitempty"`
	Name        string     `json:"name"`
	Age         *int       `json:"age,omitempty"`
	DateOfBirth *Timestamp `json:"dateOfBirth,omitempty"`
	ClassLabel  string     `json:"class,omitempty"`
	Class       *Ref       `json:"classId,omitempty"`
	Vaccinated  *bool      `json:"vaccinated,omitempty"`
	Provisional bool       `json:"provisional,omitempty"`
}

// ClassName returns the embedded label or the referenced class label.
func (s Student) ClassName() string {
	if s.ClassLabel != "" {
		return s.ClassLabel
	}
	return s.Class.Label()
}

// DisplayID is the identifier shown to operators.
func (s Student) DisplayID() string {
	switch {
	case s.StudentID != "":
		return s.StudentID
	case s.ID != "":
		return s.ID
	case s.LocalID != 0:
		return strconv.Itoa(s.LocalID)
	default:
		return ""
	}
}

// AgeYears prefers the stated age and falls back to whole years since the date of birth.
func (s Student) AgeYears(now time.Time) *int {
	if s.Age != nil {
		age := *s.Age
		return &age
	}
	if s.DateOfBirth == nil || s.DateOfBirth.IsZero() {
		return nil
	}
	days := now.Sub(s.DateOfBirth.Time).Hours() / 24
	years := int(math.Floor(days / 365.25))
	return &years
}

// IsVaccinated reports the flag, treating an unmodelled value as false.
func (s Student) IsVaccinated() bool {
	return s.Vaccinated != nil && *s.Vaccinated
}

// StudentInput is the form payload sent to the directory on create or update.
type StudentInput struct {
	StudentID   string    `json:"StudentID" validate:"required"`
	Name        string    `json:"name" validate:"required"`
	DateOfBirth Timestamp `json:"dateOfBirth"`
	ClassID     string    `json:"classId" validate:"required"`
	Vaccinated  *bool     `json:"vaccinated,omitempty"`
	// LocalID links the save to a provisional roster entry it replaces.
	LocalID int `json:"localId,omitempty"`
}

// StudentFilter narrows a directory student listing.
type StudentFilter struct {
	ClassID string
}

// UploadResult reports the directory's response to a bulk upload.
type UploadResult struct {
	Message  string `json:"message,omitempty"`
	Inserted int    `json:"inserted,omitempty"`
}
