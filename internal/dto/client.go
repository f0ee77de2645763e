package dto

import (
	"time"

	"github.com/soitmed/medops-api/internal/models"
)

// CreateClientRequest registers a customer organization.
type CreateClientRequest struct {
	Name          string `json:"name" binding:"required"`
	Type          string `json:"type" binding:"omitempty,oneof=HOSPITAL CLINIC LAB OTHER"`
	ContactPerson string `json:"contact_person"`
	ContactEmail  string `json:"contact_email" binding:"omitempty,email"`
	ContactPhone  string `json:"contact_phone"`
	Governorate   string `json:"governorate"`
	Address       string `json:"address"`
}

// ToModel builds the client model.
func (r CreateClientRequest) ToModel() *models.Client {
	return &models.Client{
		Name:          r.Name,
		Type:          models.ClientType(r.Type),
		ContactPerson: r.ContactPerson,
		ContactEmail:  r.ContactEmail,
		ContactPhone:  r.ContactPhone,
		Governorate:   r.Governorate,
		Address:       r.Address,
	}
}

// UpdateClientRequest rewrites a client's details.
type UpdateClientRequest struct {
	Name          string `json:"name" binding:"required"`
	Type          string `json:"type" binding:"omitempty,oneof=HOSPITAL CLINIC LAB OTHER"`
	ContactPerson string `json:"contact_person"`
	ContactEmail  string `json:"contact_email" binding:"omitempty,email"`
	ContactPhone  string `json:"contact_phone"`
	Governorate   string `json:"governorate"`
	Address       string `json:"address"`
	Active        *bool  `json:"active"`
}

// Apply overlays the request onto an existing client.
func (r UpdateClientRequest) Apply(client *models.Client) {
	client.Name = r.Name
	if r.Type != "" {
		client.Type = models.ClientType(r.Type)
	}
	client.ContactPerson = r.ContactPerson
	client.ContactEmail = r.ContactEmail
	client.ContactPhone = r.ContactPhone
	client.Governorate = r.Governorate
	client.Address = r.Address
	if r.Active != nil {
		client.Active = *r.Active
	}
}

// CreateEquipmentRequest registers equipment at a client site.
type CreateEquipmentRequest struct {
	Name             string     `json:"name" binding:"required"`
	Model            string     `json:"model"`
	SerialNumber     string     `json:"serial_number"`
	HospitalLocation string     `json:"hospital_location" binding:"required"`
	InstalledAt      time.Time  `json:"installed_at"`
	WarrantyUntil    *time.Time `json:"warranty_until"`
}

// ToModel builds the equipment model for a client.
func (r CreateEquipmentRequest) ToModel(clientID string) *models.Equipment {
	return &models.Equipment{
		ClientID:         clientID,
		Name:             r.Name,
		Model:            r.Model,
		SerialNumber:     r.SerialNumber,
		HospitalLocation: r.HospitalLocation,
		InstalledAt:      r.InstalledAt,
		WarrantyUntil:    r.WarrantyUntil,
	}
}

// ListClientsQuery captures client list filters.
type ListClientsQuery struct {
	Type        string `form:"type"`
	Governorate string `form:"governorate"`
	Active      *bool  `form:"active"`
	Search      string `form:"search"`
	Limit       int    `form:"limit"`
	Offset      int    `form:"offset"`
}

// ToFilter converts the query into a repository filter.
func (q ListClientsQuery) ToFilter() models.ClientFilter {
	return models.ClientFilter{
		Type:        models.ClientType(q.Type),
		Governorate: q.Governorate,
		Active:      q.Active,
		Search:      q.Search,
		Limit:       q.Limit,
		Offset:      q.Offset,
	}
}
