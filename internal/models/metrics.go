package models

import "time"

// SystemMetrics is a lightweight roll-up of the Prometheus counters for the readiness probe.
type SystemMetrics struct {
	CacheHitRatio              float64   `json:"cacheHitRatio"`
	RequestsTotal              uint64    `json:"requestsTotal"`
	AverageRequestDurationMs   float64   `json:"averageRequestDurationMs"`
	DirectoryCalls             uint64    `json:"directoryCalls"`
	DirectoryFailures          uint64    `json:"directoryFailures"`
	AverageDirectoryDurationMs float64   `json:"averageDirectoryDurationMs"`
	ReportedErrors             uint64    `json:"reportedErrors"`
	Goroutines                 int       `json:"goroutines"`
	GeneratedAt                time.Time `json:"generatedAt"`
}
