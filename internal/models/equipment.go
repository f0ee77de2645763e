package models

import "time"

// Equipment represents a sold or maintained device installed at a client site.
// HospitalLocation is the free-text site descriptor used as the dispatch key
// when repair requests are auto-assigned.
type Equipment struct {
	ID               string    `db:"id" json:"id"`
	ClientID         string    `db:"client_id" json:"client_id"`
	Name             string    `db:"name" json:"name"`
	Model            string    `db:"model" json:"model"`
	SerialNumber     string    `db:"serial_number" json:"serial_number"`
	HospitalLocation string    `db:"hospital_location" json:"hospital_location"`
	InstalledAt      time.Time `db:"installed_at" json:"installed_at"`
	WarrantyUntil    *time.Time `db:"warranty_until" json:"warranty_until,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
