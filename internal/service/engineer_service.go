package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/soitmed/medops-api/internal/models"
	"github.com/soitmed/medops-api/pkg/clock"
	appErrors "github.com/soitmed/medops-api/pkg/errors"
)

// EngineerStore is the persistence surface for engineer management.
type EngineerStore interface {
	Create(ctx context.Context, engineer *models.Engineer) error
	GetByID(ctx context.Context, id string) (*models.Engineer, error)
	List(ctx context.Context, filter models.EngineerFilter) ([]models.Engineer, error)
	SetActive(ctx context.Context, id string, active bool, updatedAt time.Time) error
	AddGovernorate(ctx context.Context, assignment *models.GovernorateAssignment) error
	SetGovernorateActive(ctx context.Context, assignmentID string, active bool) error
	ListGovernorates(ctx context.Context, engineerID string) ([]models.GovernorateAssignment, error)
}

// WorkloadCounter counts open repairs per engineer.
type WorkloadCounter interface {
	CountOpenByEngineer(ctx context.Context, engineerID string) (int, error)
}

// EngineerService manages engineers and their governorate coverage.
type EngineerService struct {
	store     EngineerStore
	workloads WorkloadCounter
	clock     clock.Clock
	logger    *zap.Logger
}

// NewEngineerService constructs the service.
func NewEngineerService(store EngineerStore, workloads WorkloadCounter, clk clock.Clock, logger *zap.Logger) *EngineerService {
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EngineerService{store: store, workloads: workloads, clock: clk, logger: logger}
}

// Create registers an engineer. New engineers start active.
func (s *EngineerService) Create(ctx context.Context, engineer *models.Engineer) error {
	if engineer.FullName == "" || engineer.UserID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "user_id and full_name are required")
	}
	engineer.Active = true
	engineer.CreatedAt = s.clock.Now()
	if err := s.store.Create(ctx, engineer); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create engineer")
	}
	s.logger.Sugar().Infow("engineer created", "engineer_id", engineer.ID)
	return nil
}

// Get fetches an engineer with coverage areas and current workload.
func (s *EngineerService) Get(ctx context.Context, id string) (*models.EngineerCandidate, error) {
	engineer, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "engineer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load engineer")
	}

	candidate := &models.EngineerCandidate{Engineer: *engineer}
	if candidate.Governorates, err = s.store.ListGovernorates(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load coverage areas")
	}
	if candidate.Workload, err = s.workloads.CountOpenByEngineer(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count workload")
	}
	return candidate, nil
}

// List returns engineers matching the filter.
func (s *EngineerService) List(ctx context.Context, filter models.EngineerFilter) ([]models.Engineer, error) {
	engineers, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list engineers")
	}
	return engineers, nil
}

// SetActive toggles dispatch availability.
func (s *EngineerService) SetActive(ctx context.Context, id string, active bool) error {
	if err := s.store.SetActive(ctx, id, active, s.clock.Now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "engineer not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update engineer")
	}
	return nil
}

// AddGovernorate attaches a coverage area to an engineer.
func (s *EngineerService) AddGovernorate(ctx context.Context, engineerID, governorate string) (*models.GovernorateAssignment, error) {
	if governorate == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "governorate is required")
	}
	if _, err := s.store.GetByID(ctx, engineerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "engineer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load engineer")
	}

	assignment := &models.GovernorateAssignment{
		EngineerID:  engineerID,
		Governorate: governorate,
		Active:      true,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.store.AddGovernorate(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add coverage area")
	}
	return assignment, nil
}

// SetGovernorateActive toggles a coverage area without deleting history.
func (s *EngineerService) SetGovernorateActive(ctx context.Context, assignmentID string, active bool) error {
	if err := s.store.SetGovernorateActive(ctx, assignmentID, active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "coverage area not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update coverage area")
	}
	return nil
}
