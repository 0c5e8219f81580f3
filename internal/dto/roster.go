package dto

import "github.com/noah-isme/vaxdrive-console/internal/models"

// RosterRow is a roster entry as the console table renders it.
type RosterRow struct {
	models.Student
	AgeYears *int `json:"ageYears,omitempty"`
}

// ImportResponse summarises a local CSV/XLSX import.
type ImportResponse struct {
	Accepted int `json:"accepted"`
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Roster   int `json:"rosterSize"`
}

// SyncResponse summarises pushing provisional entries to the directory.
type SyncResponse struct {
	Synced  int    `json:"synced"`
	Pending int    `json:"pending"`
	Message string `json:"message,omitempty"`
	Roster  int    `json:"rosterSize"`
}

// RefreshRequest controls a roster rebuild.
type RefreshRequest struct {
	KeepProvisional bool `json:"keepProvisional" form:"keepProvisional"`
}
