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

// ClientRepository persists customer organizations.
type ClientRepository struct {
	db *sqlx.DB
}

// NewClientRepository constructs the repository.
func NewClientRepository(db *sqlx.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

const clientColumns = `id, name, type, contact_person, contact_email, contact_phone,
       governorate, address, active, created_at, updated_at`

// Create inserts a new client row.
func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	if client.ID == "" {
		client.ID = uuid.NewString()
	}
	if client.Type == "" {
		client.Type = models.ClientTypeOther
	}
	if client.CreatedAt.IsZero() {
		client.CreatedAt = time.Now().UTC()
	}
	client.UpdatedAt = client.CreatedAt

	const query = `INSERT INTO clients
	(id, name, type, contact_person, contact_email, contact_phone, governorate, address, active, created_at, updated_at)
	VALUES (:id, :name, :type, :contact_person, :contact_email, :contact_phone, :governorate, :address, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, client); err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

// GetByID fetches a client by identifier.
func (r *ClientRepository) GetByID(ctx context.Context, id string) (*models.Client, error) {
	var client models.Client
	query := fmt.Sprintf(`SELECT %s FROM clients WHERE id = $1`, clientColumns)
	if err := r.db.GetContext(ctx, &client, query, id); err != nil {
		return nil, err
	}
	return &client, nil
}

// List returns clients matching the filter.
func (r *ClientRepository) List(ctx context.Context, filter models.ClientFilter) ([]models.Client, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM clients`, clientColumns))

	conditions := make([]string, 0, 4)
	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Governorate != "" {
		args = append(args, filter.Governorate)
		conditions = append(conditions, fmt.Sprintf("governorate = $%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY name")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var clients []models.Client
	if err := r.db.SelectContext(ctx, &clients, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

// Update rewrites mutable client fields.
func (r *ClientRepository) Update(ctx context.Context, client *models.Client) error {
	client.UpdatedAt = time.Now().UTC()
	const query = `UPDATE clients SET
	name = :name, type = :type, contact_person = :contact_person, contact_email = :contact_email,
	contact_phone = :contact_phone, governorate = :governorate, address = :address,
	active = :active, updated_at = :updated_at
	WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, client)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check client update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
