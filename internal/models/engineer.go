package models

import "time"

// Engineer represents a field engineer eligible for repair dispatch.
type Engineer struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Phone     string    `db:"phone" json:"phone"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// GovernorateAssignment maps an engineer to a coverage area. Only active
// assignments make an engineer eligible for requests in that area.
type GovernorateAssignment struct {
	ID          string    `db:"id" json:"id"`
	EngineerID  string    `db:"engineer_id" json:"engineer_id"`
	Governorate string    `db:"governorate" json:"governorate"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// EngineerCandidate bundles an engineer with coverage areas and the derived
// open-repair workload, as consumed by the assignment engine. Workload is
// never stored; it is counted from open repair requests at decision time.
type EngineerCandidate struct {
	Engineer
	Governorates []GovernorateAssignment `json:"governorates"`
	Workload     int                     `json:"workload"`
}

// EngineerFilter constrains engineer listing queries.
type EngineerFilter struct {
	Active      *bool
	Governorate string
	Search      string
	Limit       int
	Offset      int
}
