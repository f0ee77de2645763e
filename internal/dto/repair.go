package dto

import "github.com/soitmed/medops-api/internal/models"

// CreateRepairRequest registers an equipment service call.
type CreateRepairRequest struct {
	EquipmentID string `json:"equipment_id" binding:"required,uuid"`
	Description string `json:"description" binding:"required"`
	Priority    string `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
}

// ToModel builds the repair request model, stamping the requester.
func (r CreateRepairRequest) ToModel(requestedBy string) *models.RepairRequest {
	return &models.RepairRequest{
		EquipmentID: r.EquipmentID,
		RequestedBy: requestedBy,
		Description: r.Description,
		Priority:    models.RepairPriority(r.Priority),
	}
}

// RepairTransitionRequest moves a repair request through its lifecycle.
type RepairTransitionRequest struct {
	Status string `json:"status" binding:"required,oneof=IN_PROGRESS WAITING_FOR_PARTS ON_HOLD COMPLETED CANCELLED"`
}

// ManualAssignRequest dispatches a pending request to a chosen engineer.
type ManualAssignRequest struct {
	EngineerID string `json:"engineer_id" binding:"required,uuid"`
}

// ListRepairsQuery captures repair list filters.
type ListRepairsQuery struct {
	Status     []string `form:"status"`
	EngineerID string   `form:"engineer_id"`
	Priority   string   `form:"priority"`
	Limit      int      `form:"limit"`
	Offset     int      `form:"offset"`
}

// ToFilter converts the query into a repository filter.
func (q ListRepairsQuery) ToFilter() models.RepairFilter {
	filter := models.RepairFilter{
		EngineerID: q.EngineerID,
		Priority:   models.RepairPriority(q.Priority),
		Limit:      q.Limit,
		Offset:     q.Offset,
	}
	for _, status := range q.Status {
		filter.Status = append(filter.Status, models.RepairStatus(status))
	}
	return filter
}
