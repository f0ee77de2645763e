package dto

import "github.com/soitmed/medops-api/internal/models"

// CreateEngineerRequest registers a field engineer.
type CreateEngineerRequest struct {
	UserID   string `json:"user_id" binding:"required,uuid"`
	FullName string `json:"full_name" binding:"required"`
	Phone    string `json:"phone"`
}

// ToModel builds the engineer model.
func (r CreateEngineerRequest) ToModel() *models.Engineer {
	return &models.Engineer{
		UserID:   r.UserID,
		FullName: r.FullName,
		Phone:    r.Phone,
	}
}

// SetActiveRequest toggles availability.
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// AddGovernorateRequest attaches a coverage area.
type AddGovernorateRequest struct {
	Governorate string `json:"governorate" binding:"required"`
}

// ListEngineersQuery captures engineer list filters.
type ListEngineersQuery struct {
	Active      *bool  `form:"active"`
	Governorate string `form:"governorate"`
	Search      string `form:"search"`
	Limit       int    `form:"limit"`
	Offset      int    `form:"offset"`
}

// ToFilter converts the query into a repository filter.
func (q ListEngineersQuery) ToFilter() models.EngineerFilter {
	return models.EngineerFilter{
		Active:      q.Active,
		Governorate: q.Governorate,
		Search:      q.Search,
		Limit:       q.Limit,
		Offset:      q.Offset,
	}
}
