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

// DealRepository persists deals, their approval stamps, and report attachments.
type DealRepository struct {
	db *sqlx.DB
}

// NewDealRepository constructs the repository.
func NewDealRepository(db *sqlx.DB) *DealRepository {
	return &DealRepository{db: db}
}

const dealColumns = `id, offer_id, client_id, salesperson_id, deal_value, status,
       manager_approved_by, manager_approved_at, manager_rejection_reason, manager_comment,
       superadmin_approved_by, superadmin_approved_at, superadmin_rejection_reason, superadmin_comment,
       report_text, sent_to_legal_at, completed_at, notes, created_at, updated_at`

// Create inserts a new deal row.
func (r *DealRepository) Create(ctx context.Context, deal *models.Deal) error {
	if deal.ID == "" {
		deal.ID = uuid.NewString()
	}
	if deal.Status == "" {
		deal.Status = models.DealStatusPendingManagerApproval
	}
	if deal.CreatedAt.IsZero() {
		deal.CreatedAt = time.Now().UTC()
	}
	deal.UpdatedAt = deal.CreatedAt

	const query = `INSERT INTO deals
	(id, offer_id, client_id, salesperson_id, deal_value, status,
	 manager_approved_by, manager_approved_at, manager_rejection_reason, manager_comment,
	 superadmin_approved_by, superadmin_approved_at, superadmin_rejection_reason, superadmin_comment,
	 report_text, sent_to_legal_at, completed_at, notes, created_at, updated_at)
	VALUES (:id, :offer_id, :client_id, :salesperson_id, :deal_value, :status,
	 :manager_approved_by, :manager_approved_at, :manager_rejection_reason, :manager_comment,
	 :superadmin_approved_by, :superadmin_approved_at, :superadmin_rejection_reason, :superadmin_comment,
	 :report_text, :sent_to_legal_at, :completed_at, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, deal); err != nil {
		return fmt.Errorf("create deal: %w", err)
	}
	return nil
}

// GetByID fetches a deal by identifier.
func (r *DealRepository) GetByID(ctx context.Context, id string) (*models.Deal, error) {
	var deal models.Deal
	query := fmt.Sprintf(`SELECT %s FROM deals WHERE id = $1`, dealColumns)
	if err := r.db.GetContext(ctx, &deal, query, id); err != nil {
		return nil, err
	}
	return &deal, nil
}

// GetByOfferID returns the deal spawned from an offer, if any.
func (r *DealRepository) GetByOfferID(ctx context.Context, offerID string) (*models.Deal, error) {
	var deal models.Deal
	query := fmt.Sprintf(`SELECT %s FROM deals WHERE offer_id = $1`, dealColumns)
	if err := r.db.GetContext(ctx, &deal, query, offerID); err != nil {
		return nil, err
	}
	return &deal, nil
}

// List returns deals matching the filter (newest first).
func (r *DealRepository) List(ctx context.Context, filter models.DealFilter) ([]models.Deal, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 6)
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM deals`, dealColumns))

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
	if filter.OfferID != "" {
		args = append(args, filter.OfferID)
		conditions = append(conditions, fmt.Sprintf("offer_id = $%d", len(args)))
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

	var deals []models.Deal
	if err := r.db.SelectContext(ctx, &deals, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	return deals, nil
}

// DealStatusUpdate groups the columns a deal transition may stamp.
type DealStatusUpdate struct {
	ID       string
	Expected models.DealStatus
	Next     models.DealStatus

	ManagerApprovedBy         *string
	ManagerApprovedAt         *time.Time
	ManagerRejectionReason    *models.DealRejectionReason
	ManagerComment            *string
	SuperAdminApprovedBy      *string
	SuperAdminApprovedAt      *time.Time
	SuperAdminRejectionReason *models.DealRejectionReason
	SuperAdminComment         *string
	ReportText                *string
	SentToLegalAt             *time.Time
	CompletedAt               *time.Time
	Notes                     *string
	UpdatedAt                 time.Time
}

// UpdateStatus performs the guarded check-then-set for a deal transition.
// Zero rows affected means the expected pre-state no longer holds (a
// concurrent approval won) and is surfaced as sql.ErrNoRows.
func (r *DealRepository) UpdateStatus(ctx context.Context, params DealStatusUpdate) error {
	setParts := []string{"status = :next", "updated_at = :updated_at"}
	if params.ManagerApprovedBy != nil {
		setParts = append(setParts, "manager_approved_by = :manager_approved_by", "manager_approved_at = :manager_approved_at")
	}
	if params.ManagerRejectionReason != nil {
		setParts = append(setParts, "manager_rejection_reason = :manager_rejection_reason")
	}
	if params.ManagerComment != nil {
		setParts = append(setParts, "manager_comment = :manager_comment")
	}
	if params.SuperAdminApprovedBy != nil {
		setParts = append(setParts, "superadmin_approved_by = :superadmin_approved_by", "superadmin_approved_at = :superadmin_approved_at")
	}
	if params.SuperAdminRejectionReason != nil {
		setParts = append(setParts, "superadmin_rejection_reason = :superadmin_rejection_reason")
	}
	if params.SuperAdminComment != nil {
		setParts = append(setParts, "superadmin_comment = :superadmin_comment")
	}
	if params.ReportText != nil {
		setParts = append(setParts, "report_text = :report_text")
	}
	if params.SentToLegalAt != nil {
		setParts = append(setParts, "sent_to_legal_at = :sent_to_legal_at")
	}
	if params.CompletedAt != nil {
		setParts = append(setParts, "completed_at = :completed_at")
	}
	if params.Notes != nil {
		setParts = append(setParts, "notes = :notes")
	}

	query := fmt.Sprintf("UPDATE deals SET %s WHERE id = :id AND status = :expected",
		strings.Join(setParts, ", "))
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":                          params.ID,
		"expected":                    params.Expected,
		"next":                        params.Next,
		"manager_approved_by":         params.ManagerApprovedBy,
		"manager_approved_at":         params.ManagerApprovedAt,
		"manager_rejection_reason":    params.ManagerRejectionReason,
		"manager_comment":             params.ManagerComment,
		"superadmin_approved_by":      params.SuperAdminApprovedBy,
		"superadmin_approved_at":      params.SuperAdminApprovedAt,
		"superadmin_rejection_reason": params.SuperAdminRejectionReason,
		"superadmin_comment":          params.SuperAdminComment,
		"report_text":                 params.ReportText,
		"sent_to_legal_at":            params.SentToLegalAt,
		"completed_at":                params.CompletedAt,
		"notes":                       params.Notes,
		"updated_at":                  params.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("update deal status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deal update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AddAttachment records a stored report attachment.
func (r *DealRepository) AddAttachment(ctx context.Context, attachment *models.DealAttachment) error {
	if attachment.ID == "" {
		attachment.ID = uuid.NewString()
	}
	if attachment.CreatedAt.IsZero() {
		attachment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO deal_attachments
	(id, deal_id, file_name, storage_path, content_type, size_bytes, uploaded_by, created_at)
	VALUES (:id, :deal_id, :file_name, :storage_path, :content_type, :size_bytes, :uploaded_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, attachment); err != nil {
		return fmt.Errorf("create deal attachment: %w", err)
	}
	return nil
}

// GetAttachment fetches a single stored attachment.
func (r *DealRepository) GetAttachment(ctx context.Context, id string) (*models.DealAttachment, error) {
	var attachment models.DealAttachment
	const query = `SELECT id, deal_id, file_name, storage_path, content_type, size_bytes, uploaded_by, created_at
	FROM deal_attachments WHERE id = $1`
	if err := r.db.GetContext(ctx, &attachment, query, id); err != nil {
		return nil, err
	}
	return &attachment, nil
}

// ListAttachments returns attachments for a deal.
func (r *DealRepository) ListAttachments(ctx context.Context, dealID string) ([]models.DealAttachment, error) {
	var attachments []models.DealAttachment
	const query = `SELECT id, deal_id, file_name, storage_path, content_type, size_bytes, uploaded_by, created_at
	FROM deal_attachments WHERE deal_id = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &attachments, query, dealID); err != nil {
		return nil, fmt.Errorf("list deal attachments: %w", err)
	}
	return attachments, nil
}
