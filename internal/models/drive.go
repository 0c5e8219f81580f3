package models

// DriveStatus is the directory's enumeration for a drive's state.
type DriveStatus string

const (
	DriveStatusUpcoming  DriveStatus = "upcoming"
	DriveStatusCompleted DriveStatus = "completed"
	DriveStatusOngoing   DriveStatus = "ongoing"
	DriveStatusCancelled DriveStatus = "cancelled"
)

// Drive is a scheduled vaccination event.
type Drive struct {
	ID               string      `json:"_id"`
	Name             string      `json:"name"`
	CreatedBy        *Ref        `json:"createdBy,omitempty"`
	StartDate        Timestamp   `json:"startDate"`
	EndDate          Timestamp   `json:"endDate"`
	Location         string      `json:"location,omitempty"`
	TargetClasses    []Ref       `json:"targetClasses,omitempty"`
	Notes            string      `json:"notes,omitempty"`
	Status           DriveStatus `json:"status,omitempty"`
	Vaccines         []Ref       `json:"vaccines,omitempty"`
	StudentsTargeted int         `json:"studentsTargeted,omitempty"`
}

// DriveInput is the create/update payload forwarded to the directory.
type DriveInput struct {
	Name          string      `json:"name" validate:"required"`
	StartDate     Timestamp   `json:"startDate"`
	EndDate       Timestamp   `json:"endDate"`
	Location      string      `json:"location,omitempty"`
	TargetClasses []string    `json:"targetClasses,omitempty"`
	Notes         string      `json:"notes,omitempty"`
	Status        DriveStatus `json:"status" validate:"required"`
	Vaccines      []string    `json:"vaccines,omitempty"`
}

// DriveStatusOption is one value/label pair offered by drive forms.
type DriveStatusOption struct {
	Value DriveStatus `json:"value"`
	Label string      `json:"label"`
}
