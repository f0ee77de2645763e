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

// EngineerRepository persists engineers and their governorate coverage.
type EngineerRepository struct {
	db *sqlx.DB
}

// NewEngineerRepository constructs the repository.
func NewEngineerRepository(db *sqlx.DB) *EngineerRepository {
	return &EngineerRepository{db: db}
}

// Create inserts a new engineer.
func (r *EngineerRepository) Create(ctx context.Context, engineer *models.Engineer) error {
	if engineer.ID == "" {
		engineer.ID = uuid.NewString()
	}
	if engineer.CreatedAt.IsZero() {
		engineer.CreatedAt = time.Now().UTC()
	}
	engineer.UpdatedAt = engineer.CreatedAt

	const query = `INSERT INTO engineers (id, user_id, full_name, phone, active, created_at, updated_at)
	VALUES (:id, :user_id, :full_name, :phone, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, engineer); err != nil {
		return fmt.Errorf("create engineer: %w", err)
	}
	return nil
}

// GetByID fetches an engineer by identifier.
func (r *EngineerRepository) GetByID(ctx context.Context, id string) (*models.Engineer, error) {
	var engineer models.Engineer
	const query = `SELECT id, user_id, full_name, phone, active, created_at, updated_at
	FROM engineers WHERE id = $1`
	if err := r.db.GetContext(ctx, &engineer, query, id); err != nil {
		return nil, err
	}
	return &engineer, nil
}

// List returns engineers matching the filter, ordered by creation time so
// dispatch tie-breaking stays deterministic.
func (r *EngineerRepository) List(ctx context.Context, filter models.EngineerFilter) ([]models.Engineer, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 3)
	builder.WriteString(`SELECT id, user_id, full_name, phone, active, created_at, updated_at FROM engineers`)

	conditions := make([]string, 0, 3)
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("full_name ILIKE $%d", len(args)))
	}
	if filter.Governorate != "" {
		args = append(args, filter.Governorate)
		conditions = append(conditions, fmt.Sprintf(
			"id IN (SELECT engineer_id FROM governorate_assignments WHERE governorate = $%d AND active = TRUE)", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at, id")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var engineers []models.Engineer
	if err := r.db.SelectContext(ctx, &engineers, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list engineers: %w", err)
	}
	return engineers, nil
}

// SetActive toggles an engineer's availability for dispatch.
func (r *EngineerRepository) SetActive(ctx context.Context, id string, active bool, updatedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE engineers SET active = $1, updated_at = $2 WHERE id = $3`, active, updatedAt, id)
	if err != nil {
		return fmt.Errorf("set engineer active: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check engineer update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AddGovernorate attaches a coverage area to an engineer.
func (r *EngineerRepository) AddGovernorate(ctx context.Context, assignment *models.GovernorateAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO governorate_assignments (id, engineer_id, governorate, active, created_at)
	VALUES (:id, :engineer_id, :governorate, :active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create governorate assignment: %w", err)
	}
	return nil
}

// SetGovernorateActive toggles a coverage area without removing history.
func (r *EngineerRepository) SetGovernorateActive(ctx context.Context, assignmentID string, active bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE governorate_assignments SET active = $1 WHERE id = $2`, active, assignmentID)
	if err != nil {
		return fmt.Errorf("set governorate active: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check governorate update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListGovernorates returns all coverage areas for an engineer.
func (r *EngineerRepository) ListGovernorates(ctx context.Context, engineerID string) ([]models.GovernorateAssignment, error) {
	var assignments []models.GovernorateAssignment
	const query = `SELECT id, engineer_id, governorate, active, created_at
	FROM governorate_assignments WHERE engineer_id = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &assignments, query, engineerID); err != nil {
		return nil, fmt.Errorf("list governorate assignments: %w", err)
	}
	return assignments, nil
}
