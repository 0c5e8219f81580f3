package service

import (
	"time"

	"github.com/noah-isme/vaxdrive-console/internal/models"
)

// DefaultDriveHorizon is how far ahead a drive still counts as upcoming.
const DefaultDriveHorizon = 30 * 24 * time.Hour

// SelectUpcoming keeps, in input order, the drives starting between now and
// now+horizon, both ends inclusive.
func SelectUpcoming(drives []models.Drive, now time.Time, horizon time.Duration) []models.Drive {
	if horizon <= 0 {
		horizon = DefaultDriveHorizon
	}
	upcoming := make([]models.Drive, 0, len(drives))
	for _, drive := range drives {
		if drive.StartDate.IsZero() {
			continue
		}
		lead := drive.StartDate.Sub(now)
		if lead >= 0 && lead <= horizon {
			upcoming = append(upcoming, drive)
		}
	}
	return upcoming
}

// HorizonFromDays converts the configured day count into a window.
func HorizonFromDays(days int) time.Duration {
	if days <= 0 {
		return DefaultDriveHorizon
	}
	return time.Duration(days) * 24 * time.Hour
}
