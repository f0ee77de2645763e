package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/soitmed/medops-api/internal/models"
	"github.com/soitmed/medops-api/internal/repository"
	"github.com/soitmed/medops-api/pkg/clock"
	"github.com/soitmed/medops-api/pkg/config"
	appErrors "github.com/soitmed/medops-api/pkg/errors"
)

// SelectEngineer picks the dispatch target for a repair at the given
// location: the eligible engineer with the lowest open-repair workload.
// Eligibility requires an active engineer with at least one active
// coverage area whose governorate appears in the location string
// (case-sensitive substring match). Ties keep the earliest pool entry,
// which arrives in creation order. Returns nil when nobody qualifies.
func SelectEngineer(location string, pool []models.EngineerCandidate) *models.EngineerCandidate {
	var best *models.EngineerCandidate
	for i := range pool {
		candidate := &pool[i]
		if !candidate.Active || !coversLocation(candidate, location) {
			continue
		}
		if best == nil || candidate.Workload < best.Workload {
			best = candidate
		}
	}
	return best
}

func coversLocation(candidate *models.EngineerCandidate, location string) bool {
	for _, area := range candidate.Governorates {
		if !area.Active || area.Governorate == "" {
			continue
		}
		if strings.Contains(location, area.Governorate) {
			return true
		}
	}
	return false
}

// AssignmentStore runs the locked dispatch decision.
type AssignmentStore interface {
	AssignPending(ctx context.Context, requestID string, at time.Time, selector repository.Selector) (*models.EngineerCandidate, error)
}

// EquipmentReader resolves the location a repair request dispatches against.
type EquipmentReader interface {
	GetByID(ctx context.Context, id string) (*models.Equipment, error)
}

// EngineerReader loads engineers for manual dispatch checks.
type EngineerReader interface {
	GetByID(ctx context.Context, id string) (*models.Engineer, error)
}

// RepairUpdater applies guarded repair transitions for manual dispatch.
type RepairUpdater interface {
	GetByID(ctx context.Context, id string) (*models.RepairRequest, error)
	UpdateStatus(ctx context.Context, params repository.RepairStatusUpdate) error
}

// AssignmentService dispatches repair requests to engineers. Automatic
// dispatch runs the whole decision inside one locked transaction so two
// concurrent requests cannot both pick the same least-loaded engineer.
type AssignmentService struct {
	assignments AssignmentStore
	equipment   EquipmentReader
	engineers   EngineerReader
	repairs     RepairUpdater
	notifier    Notifier
	clock       clock.Clock
	metrics     *MetricsService
	enabled     bool
	logger      *zap.Logger
}

// AssignmentServiceOption customises construction.
type AssignmentServiceOption func(*AssignmentService)

// WithAssignmentNotifier wires best-effort notification delivery.
func WithAssignmentNotifier(n Notifier) AssignmentServiceOption {
	return func(s *AssignmentService) { s.notifier = n }
}

// WithAssignmentMetrics wires dispatch counters.
func WithAssignmentMetrics(m *MetricsService) AssignmentServiceOption {
	return func(s *AssignmentService) { s.metrics = m }
}

// NewAssignmentService constructs the dispatch service.
func NewAssignmentService(assignments AssignmentStore, equipment EquipmentReader, engineers EngineerReader, repairs RepairUpdater, cfg config.AssignmentConfig, clk clock.Clock, logger *zap.Logger, opts ...AssignmentServiceOption) *AssignmentService {
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AssignmentService{
		assignments: assignments,
		equipment:   equipment,
		engineers:   engineers,
		repairs:     repairs,
		notifier:    NopNotifier(),
		clock:       clk,
		enabled:     cfg.AutoAssignEnabled,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AutoAssign attempts to dispatch a pending repair request. Finding no
// eligible engineer is not an error: the request simply stays PENDING and
// the requester is told. A request that is no longer PENDING conflicts.
func (s *AssignmentService) AutoAssign(ctx context.Context, request *models.RepairRequest) (*models.EngineerCandidate, error) {
	if !s.enabled {
		return nil, nil
	}

	equipment, err := s.equipment.GetByID(ctx, request.EquipmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "equipment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load equipment")
	}
	location := equipment.HospitalLocation

	selected, err := s.assignments.AssignPending(ctx, request.ID, s.clock.Now(), func(pool []models.EngineerCandidate) *models.EngineerCandidate {
		return SelectEngineer(location, pool)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, conflictErr("repair request", request.ID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign repair request")
	}

	if selected == nil {
		s.logger.Sugar().Infow("no eligible engineer, request stays pending",
			"request_id", request.ID, "location", location)
		if s.metrics != nil {
			s.metrics.RecordAssignment("unassignable")
		}
		s.notifier.Notify(ctx, models.Notification{
			UserID:     request.RequestedBy,
			Event:      models.NotificationRepairUnassignable,
			Message:    "No engineer currently covers the equipment location; the request remains pending",
			EntityType: "repair_request",
			EntityID:   request.ID,
		})
		return nil, nil
	}

	s.logger.Sugar().Infow("repair request assigned",
		"request_id", request.ID, "engineer_id", selected.ID, "workload", selected.Workload)
	if s.metrics != nil {
		s.metrics.RecordAssignment("assigned")
	}
	s.notifier.Notify(ctx, models.Notification{
		UserID:     selected.UserID,
		Event:      models.NotificationRepairAssigned,
		Message:    fmt.Sprintf("You were assigned repair request %s", request.ID),
		EntityType: "repair_request",
		EntityID:   request.ID,
	})
	return selected, nil
}

// ManualAssign dispatches a pending request to a chosen engineer,
// bypassing the workload heuristic but keeping the PENDING guard.
func (s *AssignmentService) ManualAssign(ctx context.Context, requestID, engineerID string) (*models.RepairRequest, error) {
	engineer, err := s.engineers.GetByID(ctx, engineerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "engineer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load engineer")
	}
	if !engineer.Active {
		return nil, appErrors.Clone(appErrors.ErrInvalidOperation, "engineer is not active")
	}

	request, err := s.repairs.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "repair request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load repair request")
	}
	if !request.Status.CanTransition(models.RepairStatusAssigned) {
		return nil, appErrors.InvalidTransition("repair request", string(request.Status), string(models.RepairStatusAssigned))
	}

	now := s.clock.Now()
	update := repository.RepairStatusUpdate{
		ID:                 request.ID,
		Expected:           request.Status,
		Next:               models.RepairStatusAssigned,
		AssignedEngineerID: &engineer.ID,
		AssignedAt:         &now,
		UpdatedAt:          now,
	}
	if err := s.repairs.UpdateStatus(ctx, update); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, conflictErr("repair request", request.ID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign repair request")
	}
	if s.metrics != nil {
		s.metrics.RecordAssignment("manual")
	}

	s.notifier.Notify(ctx, models.Notification{
		UserID:     engineer.UserID,
		Event:      models.NotificationRepairAssigned,
		Message:    fmt.Sprintf("You were assigned repair request %s", request.ID),
		EntityType: "repair_request",
		EntityID:   request.ID,
	})
	return s.repairs.GetByID(ctx, requestID)
}
