package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/soitmed/medops-api/internal/models"
)

// StatsRepository reads aggregate pipeline counts for the dashboard.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository constructs the repository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// CountByStatus groups rows of the given table by status.
func (r *StatsRepository) countByStatus(ctx context.Context, table string) ([]models.StatusCount, error) {
	var counts []models.StatusCount
	query := fmt.Sprintf(`SELECT status, COUNT(*) AS count FROM %s GROUP BY status ORDER BY status`, table)
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count %s by status: %w", table, err)
	}
	return counts, nil
}

// OfferCounts returns offers grouped by status.
func (r *StatsRepository) OfferCounts(ctx context.Context) ([]models.StatusCount, error) {
	return r.countByStatus(ctx, "offers")
}

// DealCounts returns deals grouped by status.
func (r *StatsRepository) DealCounts(ctx context.Context) ([]models.StatusCount, error) {
	return r.countByStatus(ctx, "deals")
}

// RepairCounts returns repair requests grouped by status.
func (r *StatsRepository) RepairCounts(ctx context.Context) ([]models.StatusCount, error) {
	return r.countByStatus(ctx, "repair_requests")
}

// EngineerWorkloads returns the open repair count per active engineer.
func (r *StatsRepository) EngineerWorkloads(ctx context.Context) ([]models.EngineerWorkload, error) {
	var workloads []models.EngineerWorkload
	const query = `SELECT e.id AS engineer_id, e.full_name,
	       COUNT(r.id) FILTER (WHERE r.status NOT IN ($1, $2)) AS workload
	FROM engineers e
	LEFT JOIN repair_requests r ON r.assigned_engineer_id = e.id
	WHERE e.active = TRUE
	GROUP BY e.id, e.full_name
	ORDER BY e.created_at, e.id`
	if err := r.db.SelectContext(ctx, &workloads, query,
		models.RepairStatusCompleted, models.RepairStatusCancelled); err != nil {
		return nil, fmt.Errorf("engineer workloads: %w", err)
	}
	return workloads, nil
}
