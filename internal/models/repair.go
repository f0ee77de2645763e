package models

import "time"

// RepairStatus captures the lifecycle of a repair/service request.
type RepairStatus string

const (
	RepairStatusPending         RepairStatus = "PENDING"
	RepairStatusAssigned        RepairStatus = "ASSIGNED"
	RepairStatusInProgress      RepairStatus = "IN_PROGRESS"
	RepairStatusWaitingForParts RepairStatus = "WAITING_FOR_PARTS"
	RepairStatusCompleted       RepairStatus = "COMPLETED"
	RepairStatusCancelled       RepairStatus = "CANCELLED"
	RepairStatusOnHold          RepairStatus = "ON_HOLD"
)

// RepairPriority orders the urgency of dispatch.
type RepairPriority string

const (
	RepairPriorityLow      RepairPriority = "LOW"
	RepairPriorityMedium   RepairPriority = "MEDIUM"
	RepairPriorityHigh     RepairPriority = "HIGH"
	RepairPriorityCritical RepairPriority = "CRITICAL"
)

// RepairRequest represents an equipment service call. A request counts
// toward its engineer's workload until it reaches COMPLETED or CANCELLED.
type RepairRequest struct {
	ID                 string         `db:"id" json:"id"`
	EquipmentID        string         `db:"equipment_id" json:"equipment_id"`
	RequestedBy        string         `db:"requested_by" json:"requested_by"`
	Description        string         `db:"description" json:"description"`
	Priority           RepairPriority `db:"priority" json:"priority"`
	Status             RepairStatus   `db:"status" json:"status"`
	AssignedEngineerID *string        `db:"assigned_engineer_id" json:"assigned_engineer_id,omitempty"`
	AssignedAt         *time.Time     `db:"assigned_at" json:"assigned_at,omitempty"`
	CompletedAt        *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// OpenRepair reports whether the request still occupies engineer capacity.
func (r *RepairRequest) OpenRepair() bool {
	return r.Status != RepairStatusCompleted && r.Status != RepairStatusCancelled
}

// RepairFilter constrains repair request listing queries.
type RepairFilter struct {
	Status     []RepairStatus
	EngineerID string
	Priority   RepairPriority
	Limit      int
	Offset     int
}
