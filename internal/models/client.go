package models

import "time"

// ClientType distinguishes the kinds of organizations the company serves.
type ClientType string

const (
	ClientTypeHospital ClientType = "HOSPITAL"
	ClientTypeClinic   ClientType = "CLINIC"
	ClientTypeLab      ClientType = "LAB"
	ClientTypeOther    ClientType = "OTHER"
)

// Client represents a customer organization (hospital, clinic, lab).
type Client struct {
	ID            string     `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	Type          ClientType `db:"type" json:"type"`
	ContactPerson string     `db:"contact_person" json:"contact_person"`
	ContactEmail  string     `db:"contact_email" json:"contact_email"`
	ContactPhone  string     `db:"contact_phone" json:"contact_phone"`
	Governorate   string     `db:"governorate" json:"governorate"`
	Address       string     `db:"address" json:"address"`
	Active        bool       `db:"active" json:"active"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// ClientFilter constrains client listing queries.
type ClientFilter struct {
	Type        ClientType
	Governorate string
	Active      *bool
	Search      string
	Limit       int
	Offset      int
}
