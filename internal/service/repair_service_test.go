package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soitmed/medops-api/internal/models"
	"github.com/soitmed/medops-api/internal/repository"
	"github.com/soitmed/medops-api/pkg/clock"
	appErrors "github.com/soitmed/medops-api/pkg/errors"
)

type repairStoreStub struct {
	requests  map[string]*models.RepairRequest
	updateErr error
}

func newRepairStoreStub(requests ...*models.RepairRequest) *repairStoreStub {
	stub := &repairStoreStub{requests: make(map[string]*models.RepairRequest)}
	for _, request := range requests {
		stub.requests[request.ID] = request
	}
	return stub
}

func (s *repairStoreStub) Create(_ context.Context, request *models.RepairRequest) error {
	if request.ID == "" {
		request.ID = "repair-1"
	}
	s.requests[request.ID] = request
	return nil
}

func (s *repairStoreStub) GetByID(_ context.Context, id string) (*models.RepairRequest, error) {
	request, ok := s.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *request
	return &copied, nil
}

func (s *repairStoreStub) List(_ context.Context, _ models.RepairFilter) ([]models.RepairRequest, error) {
	var out []models.RepairRequest
	for _, request := range s.requests {
		out = append(out, *request)
	}
	return out, nil
}

func (s *repairStoreStub) UpdateStatus(_ context.Context, params repository.RepairStatusUpdate) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	request, ok := s.requests[params.ID]
	if !ok || request.Status != params.Expected {
		return sql.ErrNoRows
	}
	request.Status = params.Next
	if params.CompletedAt != nil {
		request.CompletedAt = params.CompletedAt
	}
	request.UpdatedAt = params.UpdatedAt
	return nil
}

type createdSinkStub struct {
	requests []*models.RepairRequest
	err      error
}

func (s *createdSinkStub) RepairCreated(_ context.Context, request *models.RepairRequest) error {
	s.requests = append(s.requests, request)
	return s.err
}

func TestRepairCreateHandsRequestToDispatch(t *testing.T) {
	store := newRepairStoreStub()
	sink := &createdSinkStub{}
	svc := NewRepairService(store, clock.Fixed(fixedNow()), nil, WithRepairCreatedSink(sink))

	request, err := svc.Create(context.Background(), &models.RepairRequest{
		EquipmentID: "eq-1", RequestedBy: "u1", Description: "display flickers",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RepairStatusPending, request.Status)
	assert.Equal(t, models.RepairPriorityMedium, request.Priority)
	require.Len(t, sink.requests, 1)
}

func TestRepairCreateSurvivesDispatchFailure(t *testing.T) {
	store := newRepairStoreStub()
	sink := &createdSinkStub{err: errors.New("dispatch broken")}
	svc := NewRepairService(store, clock.Fixed(fixedNow()), nil, WithRepairCreatedSink(sink))

	request, err := svc.Create(context.Background(), &models.RepairRequest{
		EquipmentID: "eq-1", RequestedBy: "u1", Description: "no power",
	})
	require.NoError(t, err, "a dispatch failure must not undo the creation")
	assert.Equal(t, models.RepairStatusPending, request.Status)
}

func TestRepairCreateRejectsUnknownPriority(t *testing.T) {
	svc := NewRepairService(newRepairStoreStub(), clock.Fixed(fixedNow()), nil)

	_, err := svc.Create(context.Background(), &models.RepairRequest{
		EquipmentID: "eq-1", Description: "broken", Priority: models.RepairPriority("URGENT-ISH"),
	})
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
}

func TestRepairTransitionReservesAssignedForDispatch(t *testing.T) {
	store := newRepairStoreStub(&models.RepairRequest{ID: "r1", Status: models.RepairStatusPending})
	svc := NewRepairService(store, clock.Fixed(fixedNow()), nil)

	_, err := svc.Transition(context.Background(), "r1", models.RepairStatusAssigned)
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidOperation.Code))
}

func TestRepairTransitionStampsCompletion(t *testing.T) {
	store := newRepairStoreStub(&models.RepairRequest{ID: "r1", Status: models.RepairStatusInProgress})
	svc := NewRepairService(store, clock.Fixed(fixedNow()), nil)

	request, err := svc.Transition(context.Background(), "r1", models.RepairStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.RepairStatusCompleted, request.Status)
	require.NotNil(t, request.CompletedAt)
	assert.Equal(t, fixedNow(), *request.CompletedAt)
	assert.False(t, request.OpenRepair())
}

func TestRepairTransitionIllegalMoveRejected(t *testing.T) {
	store := newRepairStoreStub(&models.RepairRequest{ID: "r1", Status: models.RepairStatusPending})
	svc := NewRepairService(store, clock.Fixed(fixedNow()), nil)

	_, err := svc.Transition(context.Background(), "r1", models.RepairStatusInProgress)
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidTransition.Code))
}

func TestRepairTransitionLoserGetsConflict(t *testing.T) {
	store := newRepairStoreStub(&models.RepairRequest{ID: "r1", Status: models.RepairStatusAssigned})
	store.updateErr = sql.ErrNoRows
	svc := NewRepairService(store, clock.Fixed(fixedNow()), nil)

	_, err := svc.Transition(context.Background(), "r1", models.RepairStatusInProgress)
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidTransition.Code))
	assert.Equal(t, 409, appErrors.FromError(err).Status)
}
