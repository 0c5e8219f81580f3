package models

// VaccinationRecord is evidence that a student was vaccinated during a drive.
type VaccinationRecord struct {
	ID              string    `json:"_id"`
	Drive           *Ref      `json:"driveId,omitempty"`
	Class           *Ref      `json:"classId,omitempty"`
	Student         *Ref      `json:"studentId,omitempty"`
	Vaccine         *Ref      `json:"vaccineId,omitempty"`
	VaccinationDate Timestamp `json:"vaccinationDate"`
	BatchID         string    `json:"batchId,omitempty"`
	Notes           string    `json:"notes,omitempty"`
}

// VaccinationEntry is the per-drive entry form payload.
type VaccinationEntry struct {
	DriveID         string    `json:"driveId"`
	ClassID         string    `json:"classId" validate:"required"`
	StudentID       string    `json:"studentId" validate:"required"`
	VaccinationDate Timestamp `json:"vaccinationDate"`
	BatchID         string    `json:"batchId,omitempty"`
	Notes           string    `json:"notes,omitempty"`
}

// EntryResult is the status string shown after an entry submission.
type EntryResult struct {
	Status string             `json:"status"`
	Record *VaccinationRecord `json:"record,omitempty"`
}
