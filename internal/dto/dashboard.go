package dto

import "github.com/noah-isme/vaxdrive-console/internal/models"

// DashboardResponse is the console landing summary.
type DashboardResponse struct {
	TotalStudents     int            `json:"totalStudents"`
	VaccinatedCount   int            `json:"vaccinatedCount"`
	VaccinatedPercent string         `json:"vaccinatedPercent"`
	UpcomingDrives    []models.Drive `json:"upcomingDrives"`
	Source            string         `json:"source"`
}

// DirectorySummary mirrors the directory's GET /dashboard/summary payload.
type DirectorySummary struct {
	TotalStudents      int            `json:"totalStudents"`
	VaccinatedStudents int            `json:"vaccinatedStudents"`
	VaccinatedPercent  *float64       `json:"vaccinatedPercentage,omitempty"`
	UpcomingDrives     []models.Drive `json:"upcomingDrives"`
}

// Dashboard sources.
const (
	DashboardSourceDirectory = "directory"
	DashboardSourceRoster    = "roster"
)
