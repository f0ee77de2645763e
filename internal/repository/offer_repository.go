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

// OfferRepository persists offers and their validity dates.
type OfferRepository struct {
	db *sqlx.DB
}

// NewOfferRepository constructs the repository.
func NewOfferRepository(db *sqlx.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

const offerColumns = `id, client_id, created_by, salesperson_id, title, total_amount, status,
       sent_at, manager_approved_by, manager_approved_at, manager_comment, rejection_reason,
       client_response, responded_at, completed_at, created_at, updated_at`

// Create inserts a new offer row plus its validity dates in one transaction.
func (r *OfferRepository) Create(ctx context.Context, offer *models.Offer) error {
	if offer.ID == "" {
		offer.ID = uuid.NewString()
	}
	if offer.Status == "" {
		offer.Status = models.OfferStatusDraft
	}
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = time.Now().UTC()
	}
	offer.UpdatedAt = offer.CreatedAt

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create offer: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO offers
	(id, client_id, created_by, salesperson_id, title, total_amount, status,
	 sent_at, manager_approved_by, manager_approved_at, manager_comment, rejection_reason,
	 client_response, responded_at, completed_at, created_at, updated_at)
	VALUES (:id, :client_id, :created_by, :salesperson_id, :title, :total_amount, :status,
	 :sent_at, :manager_approved_by, :manager_approved_at, :manager_comment, :rejection_reason,
	 :client_response, :responded_at, :completed_at, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, offer); err != nil {
		return fmt.Errorf("create offer: %w", err)
	}

	for _, deadline := range offer.ValidUntil {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO offer_valid_until (id, offer_id, valid_until) VALUES ($1, $2, $3)`,
			uuid.NewString(), offer.ID, deadline); err != nil {
			return fmt.Errorf("create offer validity date: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create offer: %w", err)
	}
	return nil
}

// GetByID fetches an offer and its validity dates.
func (r *OfferRepository) GetByID(ctx context.Context, id string) (*models.Offer, error) {
	var offer models.Offer
	query := fmt.Sprintf(`SELECT %s FROM offers WHERE id = $1`, offerColumns)
	if err := r.db.GetContext(ctx, &offer, query, id); err != nil {
		return nil, err
	}
	if err := r.db.SelectContext(ctx, &offer.ValidUntil,
		`SELECT valid_until FROM offer_valid_until WHERE offer_id = $1 ORDER BY valid_until`, id); err != nil {
		return nil, fmt.Errorf("load offer validity dates: %w", err)
	}
	return &offer, nil
}

// List returns offers matching the filter (newest first).
func (r *OfferRepository) List(ctx context.Context, filter models.OfferFilter) ([]models.Offer, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 6)
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM offers`, offerColumns))

	conditions := make([]string, 0, 4)
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.ClientID != "" {
		args = append(args, filter.ClientID)
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if filter.SalespersonID != "" {
		args = append(args, filter.SalespersonID)
		conditions = append(conditions, fmt.Sprintf("salesperson_id = $%d", len(args)))
	}
	if filter.CreatedBy != "" {
		args = append(args, filter.CreatedBy)
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", len(args)))
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

	var offers []models.Offer
	if err := r.db.SelectContext(ctx, &offers, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	return offers, nil
}

// OfferStatusUpdate groups the columns a transition may stamp.
type OfferStatusUpdate struct {
	ID       string
	Expected models.OfferStatus
	Next     models.OfferStatus

	SentAt            *time.Time
	ManagerApprovedBy *string
	ManagerApprovedAt *time.Time
	ManagerComment    *string
	RejectionReason   *string
	ClientResponse    *string
	RespondedAt       *time.Time
	CompletedAt       *time.Time
	UpdatedAt         time.Time
}

// UpdateStatus performs the guarded check-then-set for an offer transition.
// The UPDATE only matches when the row still holds the expected status;
// zero rows affected means a concurrent writer won and yields sql.ErrNoRows.
func (r *OfferRepository) UpdateStatus(ctx context.Context, params OfferStatusUpdate) error {
	setParts := []string{"status = :next", "updated_at = :updated_at"}
	if params.SentAt != nil {
		setParts = append(setParts, "sent_at = :sent_at")
	}
	if params.ManagerApprovedBy != nil {
		setParts = append(setParts, "manager_approved_by = :manager_approved_by", "manager_approved_at = :manager_approved_at")
	}
	if params.ManagerComment != nil {
		setParts = append(setParts, "manager_comment = :manager_comment")
	}
	if params.RejectionReason != nil {
		setParts = append(setParts, "rejection_reason = :rejection_reason")
	}
	if params.ClientResponse != nil {
		setParts = append(setParts, "client_response = :client_response", "responded_at = :responded_at")
	}
	if params.CompletedAt != nil {
		setParts = append(setParts, "completed_at = :completed_at")
	}

	query := fmt.Sprintf("UPDATE offers SET %s WHERE id = :id AND status = :expected",
		strings.Join(setParts, ", "))
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":                  params.ID,
		"expected":            params.Expected,
		"next":                params.Next,
		"sent_at":             params.SentAt,
		"manager_approved_by": params.ManagerApprovedBy,
		"manager_approved_at": params.ManagerApprovedAt,
		"manager_comment":     params.ManagerComment,
		"rejection_reason":    params.RejectionReason,
		"client_response":     params.ClientResponse,
		"responded_at":        params.RespondedAt,
		"completed_at":        params.CompletedAt,
		"updated_at":          params.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("update offer status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check offer update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateAmount changes the offer amount, guarded on the editable states.
func (r *OfferRepository) UpdateAmount(ctx context.Context, id string, amount float64, updatedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE offers SET total_amount = $1, updated_at = $2 WHERE id = $3 AND status IN ($4, $5)`,
		amount, updatedAt, id, models.OfferStatusDraft, models.OfferStatusNeedsModification)
	if err != nil {
		return fmt.Errorf("update offer amount: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check offer amount rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
