package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/soitmed/medops-api/internal/models"
)

// EquipmentRepository persists installed equipment records.
type EquipmentRepository struct {
	db *sqlx.DB
}

// NewEquipmentRepository constructs the repository.
func NewEquipmentRepository(db *sqlx.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

const equipmentColumns = `id, client_id, name, model, serial_number, hospital_location,
       installed_at, warranty_until, created_at, updated_at`

// Create inserts a new equipment row.
func (r *EquipmentRepository) Create(ctx context.Context, equipment *models.Equipment) error {
	if equipment.ID == "" {
		equipment.ID = uuid.NewString()
	}
	if equipment.CreatedAt.IsZero() {
		equipment.CreatedAt = time.Now().UTC()
	}
	equipment.UpdatedAt = equipment.CreatedAt

	const query = `INSERT INTO equipment
	(id, client_id, name, model, serial_number, hospital_location, installed_at, warranty_until, created_at, updated_at)
	VALUES (:id, :client_id, :name, :model, :serial_number, :hospital_location, :installed_at, :warranty_until, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, equipment); err != nil {
		return fmt.Errorf("create equipment: %w", err)
	}
	return nil
}

// GetByID fetches an equipment record by identifier.
func (r *EquipmentRepository) GetByID(ctx context.Context, id string) (*models.Equipment, error) {
	var equipment models.Equipment
	query := fmt.Sprintf(`SELECT %s FROM equipment WHERE id = $1`, equipmentColumns)
	if err := r.db.GetContext(ctx, &equipment, query, id); err != nil {
		return nil, err
	}
	return &equipment, nil
}

// ListByClient returns all equipment installed at a client.
func (r *EquipmentRepository) ListByClient(ctx context.Context, clientID string) ([]models.Equipment, error) {
	var equipment []models.Equipment
	query := fmt.Sprintf(`SELECT %s FROM equipment WHERE client_id = $1 ORDER BY created_at DESC`, equipmentColumns)
	if err := r.db.SelectContext(ctx, &equipment, query, clientID); err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	return equipment, nil
}
