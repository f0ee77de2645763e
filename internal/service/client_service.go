package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/soitmed/medops-api/internal/models"
	"github.com/soitmed/medops-api/pkg/clock"
	appErrors "github.com/soitmed/medops-api/pkg/errors"
)

// ClientStore is the persistence surface for the client registry.
type ClientStore interface {
	Create(ctx context.Context, client *models.Client) error
	GetByID(ctx context.Context, id string) (*models.Client, error)
	List(ctx context.Context, filter models.ClientFilter) ([]models.Client, error)
	Update(ctx context.Context, client *models.Client) error
}

// EquipmentStore is the persistence surface for installed equipment.
type EquipmentStore interface {
	Create(ctx context.Context, equipment *models.Equipment) error
	GetByID(ctx context.Context, id string) (*models.Equipment, error)
	ListByClient(ctx context.Context, clientID string) ([]models.Equipment, error)
}

// ClientService manages the client registry and the equipment installed at
// each client site.
type ClientService struct {
	clients   ClientStore
	equipment EquipmentStore
	clock     clock.Clock
	logger    *zap.Logger
}

// NewClientService constructs the service.
func NewClientService(clients ClientStore, equipment EquipmentStore, clk clock.Clock, logger *zap.Logger) *ClientService {
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientService{clients: clients, equipment: equipment, clock: clk, logger: logger}
}

// Create registers a client organization.
func (s *ClientService) Create(ctx context.Context, client *models.Client) error {
	if client.Name == "" {
		return appErrors.Clone(appErrors.ErrValidation, "name is required")
	}
	client.Active = true
	client.CreatedAt = s.clock.Now()
	if err := s.clients.Create(ctx, client); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create client")
	}
	return nil
}

// Get fetches a client by identifier.
func (s *ClientService) Get(ctx context.Context, id string) (*models.Client, error) {
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client")
	}
	return client, nil
}

// List returns clients matching the filter.
func (s *ClientService) List(ctx context.Context, filter models.ClientFilter) ([]models.Client, error) {
	clients, err := s.clients.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list clients")
	}
	return clients, nil
}

// Update rewrites a client's contact details.
func (s *ClientService) Update(ctx context.Context, client *models.Client) error {
	if client.ID == "" || client.Name == "" {
		return appErrors.Clone(appErrors.ErrValidation, "id and name are required")
	}
	if err := s.clients.Update(ctx, client); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update client")
	}
	return nil
}

// AddEquipment registers equipment installed at a client site.
func (s *ClientService) AddEquipment(ctx context.Context, equipment *models.Equipment) error {
	if equipment.ClientID == "" || equipment.Name == "" || equipment.HospitalLocation == "" {
		return appErrors.Clone(appErrors.ErrValidation, "client_id, name and hospital_location are required")
	}
	if _, err := s.Get(ctx, equipment.ClientID); err != nil {
		return err
	}
	equipment.CreatedAt = s.clock.Now()
	if err := s.equipment.Create(ctx, equipment); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create equipment")
	}
	return nil
}

// GetEquipment fetches one equipment record.
func (s *ClientService) GetEquipment(ctx context.Context, id string) (*models.Equipment, error) {
	equipment, err := s.equipment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "equipment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load equipment")
	}
	return equipment, nil
}

// ListEquipment returns all equipment installed at a client.
func (s *ClientService) ListEquipment(ctx context.Context, clientID string) ([]models.Equipment, error) {
	equipment, err := s.equipment.ListByClient(ctx, clientID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list equipment")
	}
	return equipment, nil
}
