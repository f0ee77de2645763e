package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/soitmed/medops-api/internal/models"
)

// RepairRepository persists repair/service requests.
type RepairRepository struct {
	db *sqlx.DB
}

// NewRepairRepository constructs the repository.
func NewRepairRepository(db *sqlx.DB) *RepairRepository {
	return &RepairRepository{db: db}
}

const repairColumns = `id, equipment_id, requested_by, description, priority, status,
       assigned_engineer_id, assigned_at, completed_at, created_at, updated_at`

// Create inserts a new repair request.
func (r *RepairRepository) Create(ctx context.Context, request *models.RepairRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.RepairStatusPending
	}
	if request.Priority == "" {
		request.Priority = models.RepairPriorityMedium
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}
	request.UpdatedAt = request.CreatedAt

	const query = `INSERT INTO repair_requests
	(id, equipment_id, requested_by, description, priority, status,
	 assigned_engineer_id, assigned_at, completed_at, created_at, updated_at)
	VALUES (:id, :equipment_id, :requested_by, :description, :priority, :status,
	 :assigned_engineer_id, :assigned_at, :completed_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create repair request: %w", err)
	}
	return nil
}

// GetByID fetches a repair request by identifier.
func (r *RepairRepository) GetByID(ctx context.Context, id string) (*models.RepairRequest, error) {
	var request models.RepairRequest
	query := fmt.Sprintf(`SELECT %s FROM repair_requests WHERE id = $1`, repairColumns)
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns repair requests matching the filter (newest first).
func (r *RepairRepository) List(ctx context.Context, filter models.RepairFilter) ([]models.RepairRequest, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM repair_requests`, repairColumns))

	conditions := make([]string, 0, 3)
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.EngineerID != "" {
		args = append(args, filter.EngineerID)
		conditions = append(conditions, fmt.Sprintf("assigned_engineer_id = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		conditions = append(conditions, fmt.Sprintf("priority = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var requests []models.RepairRequest
	if err := r.db.SelectContext(ctx, &requests, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list repair requests: %w", err)
	}
	return requests, nil
}

// RepairStatusUpdate groups the columns a repair transition may stamp.
type RepairStatusUpdate struct {
	ID       string
	Expected models.RepairStatus
	Next     models.RepairStatus

	AssignedEngineerID *string
	AssignedAt         *time.Time
	CompletedAt        *time.Time
	UpdatedAt          time.Time
}

// UpdateStatus performs the guarded check-then-set for a repair transition.
func (r *RepairRepository) UpdateStatus(ctx context.Context, params RepairStatusUpdate) error {
	setParts := []string{"status = :next", "updated_at = :updated_at"}
	if params.AssignedEngineerID != nil {
		setParts = append(setParts, "assigned_engineer_id = :assigned_engineer_id", "assigned_at = :assigned_at")
	}
	if params.CompletedAt != nil {
		setParts = append(setParts, "completed_at = :completed_at")
	}

	query := fmt.Sprintf("UPDATE repair_requests SET %s WHERE id = :id AND status = :expected",
		strings.Join(setParts, ", "))
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":                   params.ID,
		"expected":             params.Expected,
		"next":                 params.Next,
		"assigned_engineer_id": params.AssignedEngineerID,
		"assigned_at":          params.AssignedAt,
		"completed_at":         params.CompletedAt,
		"updated_at":           params.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("update repair status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check repair update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountOpenByEngineer returns the engineer's current workload: repair
// requests assigned to them that are neither completed nor cancelled.
func (r *RepairRepository) CountOpenByEngineer(ctx context.Context, engineerID string) (int, error) {
	var count int
	const query = `SELECT COUNT(*) FROM repair_requests
	WHERE assigned_engineer_id = $1 AND status NOT IN ($2, $3)`
	if err := r.db.GetContext(ctx, &count, query, engineerID,
		models.RepairStatusCompleted, models.RepairStatusCancelled); err != nil {
		return 0, fmt.Errorf("count open repairs: %w", err)
	}
	return count, nil
}
