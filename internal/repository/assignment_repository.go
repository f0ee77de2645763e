package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/soitmed/medops-api/internal/models"
)

// AssignmentRepository runs the dispatch decision inside one transaction so
// concurrent requests cannot observe the same pre-assignment workload.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Selector picks one candidate from the pool, or nil when none qualifies.
// The pool arrives in stable creation order with fresh workload counts.
type Selector func(pool []models.EngineerCandidate) *models.EngineerCandidate

// AssignPending locks the active engineer rows, loads their coverage areas
// and open-repair workloads, applies the selector, and stamps the repair
// request, all in one transaction. The row locks serialize concurrent
// dispatch decisions: the second request recomputes workloads only after
// the first has committed its assignment.
//
// Returns (nil, nil) when the selector finds no eligible engineer; the
// request is left untouched in PENDING. Returns sql.ErrNoRows when the
// request is no longer PENDING (lost race or manual dispatch).
func (r *AssignmentRepository) AssignPending(ctx context.Context, requestID string, at time.Time, selector Selector) (*models.EngineerCandidate, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin assignment: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var engineers []models.Engineer
	if err := tx.SelectContext(ctx, &engineers,
		`SELECT id, user_id, full_name, phone, active, created_at, updated_at
		 FROM engineers WHERE active = TRUE ORDER BY created_at, id FOR UPDATE`); err != nil {
		return nil, fmt.Errorf("lock engineer pool: %w", err)
	}
	if len(engineers) == 0 {
		return nil, nil
	}

	pool := make([]models.EngineerCandidate, 0, len(engineers))
	for _, engineer := range engineers {
		candidate := models.EngineerCandidate{Engineer: engineer}
		if err := tx.SelectContext(ctx, &candidate.Governorates,
			`SELECT id, engineer_id, governorate, active, created_at
			 FROM governorate_assignments WHERE engineer_id = $1 ORDER BY created_at`,
			engineer.ID); err != nil {
			return nil, fmt.Errorf("load coverage for engineer %s: %w", engineer.ID, err)
		}
		if err := tx.GetContext(ctx, &candidate.Workload,
			`SELECT COUNT(*) FROM repair_requests
			 WHERE assigned_engineer_id = $1 AND status NOT IN ($2, $3)`,
			engineer.ID, models.RepairStatusCompleted, models.RepairStatusCancelled); err != nil {
			return nil, fmt.Errorf("count workload for engineer %s: %w", engineer.ID, err)
		}
		pool = append(pool, candidate)
	}

	selected := selector(pool)
	if selected == nil {
		return nil, nil
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE repair_requests
		 SET assigned_engineer_id = $1, assigned_at = $2, status = $3, updated_at = $2
		 WHERE id = $4 AND status = $5`,
		selected.ID, at, models.RepairStatusAssigned, requestID, models.RepairStatusPending)
	if err != nil {
		return nil, fmt.Errorf("assign repair request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("check assignment rows: %w", err)
	}
	if rows == 0 {
		return nil, sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit assignment: %w", err)
	}
	return selected, nil
}
