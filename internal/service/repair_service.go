package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/soitmed/medops-api/internal/models"
	"github.com/soitmed/medops-api/internal/repository"
	"github.com/soitmed/medops-api/pkg/clock"
	appErrors "github.com/soitmed/medops-api/pkg/errors"
)

// RepairStore is the persistence surface of the repair lifecycle.
type RepairStore interface {
	Create(ctx context.Context, request *models.RepairRequest) error
	GetByID(ctx context.Context, id string) (*models.RepairRequest, error)
	List(ctx context.Context, filter models.RepairFilter) ([]models.RepairRequest, error)
	UpdateStatus(ctx context.Context, params repository.RepairStatusUpdate) error
}

// RepairCreatedSink receives freshly created repair requests.
type RepairCreatedSink interface {
	RepairCreated(ctx context.Context, request *models.RepairRequest) error
}

// RepairService manages repair requests. Creation hands the request to the
// created-sink for automatic dispatch; manual status changes go through the
// transition table with guarded writes.
type RepairService struct {
	store    RepairStore
	sink     RepairCreatedSink
	notifier Notifier
	clock    clock.Clock
	logger   *zap.Logger
}

// RepairServiceOption customises construction.
type RepairServiceOption func(*RepairService)

// WithRepairCreatedSink wires the downstream consumer of new requests.
func WithRepairCreatedSink(sink RepairCreatedSink) RepairServiceOption {
	return func(s *RepairService) { s.sink = sink }
}

// WithRepairNotifier wires best-effort notification delivery.
func WithRepairNotifier(n Notifier) RepairServiceOption {
	return func(s *RepairService) { s.notifier = n }
}

// NewRepairService constructs the repair lifecycle service.
func NewRepairService(store RepairStore, clk clock.Clock, logger *zap.Logger, opts ...RepairServiceOption) *RepairService {
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &RepairService{
		store:    store,
		notifier: NopNotifier(),
		clock:    clk,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func validRepairPriority(p models.RepairPriority) bool {
	switch p {
	case models.RepairPriorityLow, models.RepairPriorityMedium, models.RepairPriorityHigh, models.RepairPriorityCritical:
		return true
	}
	return false
}

// Create registers a repair request and hands it to automatic dispatch.
// A dispatch failure never undoes the creation: the request stays PENDING
// and the error is logged.
func (s *RepairService) Create(ctx context.Context, request *models.RepairRequest) (*models.RepairRequest, error) {
	if request.EquipmentID == "" || request.Description == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "equipment_id and description are required")
	}
	if request.Priority == "" {
		request.Priority = models.RepairPriorityMedium
	}
	if !validRepairPriority(request.Priority) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown repair priority")
	}
	request.Status = models.RepairStatusPending
	request.CreatedAt = s.clock.Now()

	if err := s.store.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create repair request")
	}
	s.logger.Sugar().Infow("repair request created",
		"request_id", request.ID, "equipment_id", request.EquipmentID, "priority", request.Priority)

	if s.sink != nil {
		if err := s.sink.RepairCreated(ctx, request); err != nil {
			s.logger.Sugar().Warnw("automatic dispatch failed, request stays pending",
				"request_id", request.ID, "error", err)
		}
	}
	return s.Get(ctx, request.ID)
}

// Get fetches a repair request by identifier.
func (s *RepairService) Get(ctx context.Context, id string) (*models.RepairRequest, error) {
	request, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "repair request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load repair request")
	}
	return request, nil
}

// List returns repair requests matching the filter.
func (s *RepairService) List(ctx context.Context, filter models.RepairFilter) ([]models.RepairRequest, error) {
	requests, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list repair requests")
	}
	return requests, nil
}

// Transition applies a manual lifecycle move. ASSIGNED is reserved for the
// dispatch paths so assignment stamps are never skipped.
func (s *RepairService) Transition(ctx context.Context, id string, target models.RepairStatus) (*models.RepairRequest, error) {
	if target == models.RepairStatusAssigned {
		return nil, appErrors.Clone(appErrors.ErrInvalidOperation, "use dispatch to assign a repair request")
	}

	request, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !request.Status.CanTransition(target) {
		return nil, appErrors.InvalidTransition("repair request", string(request.Status), string(target))
	}

	now := s.clock.Now()
	update := repository.RepairStatusUpdate{
		ID:        request.ID,
		Expected:  request.Status,
		Next:      target,
		UpdatedAt: now,
	}
	if target == models.RepairStatusCompleted {
		update.CompletedAt = &now
	}
	if err := s.store.UpdateStatus(ctx, update); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, conflictErr("repair request", request.ID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update repair status")
	}
	s.logger.Sugar().Infow("repair transition",
		"request_id", request.ID, "from", request.Status, "to", target)

	s.notifier.Notify(ctx, models.Notification{
		UserID:     request.RequestedBy,
		Event:      models.NotificationRepairUpdated,
		Message:    "Your repair request status changed to " + string(target),
		EntityType: "repair_request",
		EntityID:   request.ID,
	})
	return s.Get(ctx, id)
}
