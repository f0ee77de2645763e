package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soitmed/medops-api/internal/models"
	"github.com/soitmed/medops-api/internal/repository"
	"github.com/soitmed/medops-api/pkg/clock"
	"github.com/soitmed/medops-api/pkg/config"
	appErrors "github.com/soitmed/medops-api/pkg/errors"
)

func candidate(id string, workload int, active bool, governorates ...models.GovernorateAssignment) models.EngineerCandidate {
	return models.EngineerCandidate{
		Engineer:     models.Engineer{ID: id, UserID: "user-" + id, FullName: id, Active: active},
		Governorates: governorates,
		Workload:     workload,
	}
}

func area(governorate string, active bool) models.GovernorateAssignment {
	return models.GovernorateAssignment{Governorate: governorate, Active: active}
}

func TestSelectEngineerPicksLowestWorkload(t *testing.T) {
	pool := []models.EngineerCandidate{
		candidate("e1", 3, true, area("Cairo", true)),
		candidate("e2", 1, true, area("Cairo", true)),
		candidate("e3", 0, true, area("Alexandria", true)),
	}

	selected := SelectEngineer("Cairo University Hospital", pool)
	require.NotNil(t, selected)
	assert.Equal(t, "e2", selected.ID)
}

func TestSelectEngineerSubstringMatchIsCaseSensitive(t *testing.T) {
	pool := []models.EngineerCandidate{
		candidate("e1", 0, true, area("cairo", true)),
	}
	assert.Nil(t, SelectEngineer("Cairo University Hospital", pool))

	pool[0].Governorates = []models.GovernorateAssignment{area("Cairo", true)}
	assert.NotNil(t, SelectEngineer("Cairo University Hospital", pool))
}

func TestSelectEngineerSkipsInactiveEngineersAndAreas(t *testing.T) {
	pool := []models.EngineerCandidate{
		candidate("e1", 0, false, area("Cairo", true)),
		candidate("e2", 0, true, area("Cairo", false)),
		candidate("e3", 5, true, area("Cairo", true)),
	}

	selected := SelectEngineer("Cairo", pool)
	require.NotNil(t, selected)
	assert.Equal(t, "e3", selected.ID)
}

func TestSelectEngineerTieKeepsEarliestPoolEntry(t *testing.T) {
	pool := []models.EngineerCandidate{
		candidate("e1", 2, true, area("Giza", true)),
		candidate("e2", 2, true, area("Giza", true)),
	}

	selected := SelectEngineer("Giza", pool)
	require.NotNil(t, selected)
	assert.Equal(t, "e1", selected.ID)
}

func TestSelectEngineerEmptyPool(t *testing.T) {
	assert.Nil(t, SelectEngineer("Cairo", nil))
}

func TestSelectEngineerSkipsEmptyGovernorate(t *testing.T) {
	// An empty governorate would substring-match every location.
	pool := []models.EngineerCandidate{
		candidate("e1", 0, true, area("", true)),
	}
	assert.Nil(t, SelectEngineer("Cairo", pool))
}

type assignmentStoreStub struct {
	pool       []models.EngineerCandidate
	err        error
	assignedTo *models.EngineerCandidate
}

func (s *assignmentStoreStub) AssignPending(_ context.Context, _ string, _ time.Time, selector repository.Selector) (*models.EngineerCandidate, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.assignedTo = selector(s.pool)
	return s.assignedTo, nil
}

type equipmentReaderStub struct {
	equipment map[string]*models.Equipment
}

func (s *equipmentReaderStub) GetByID(_ context.Context, id string) (*models.Equipment, error) {
	equipment, ok := s.equipment[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return equipment, nil
}

type engineerReaderStub struct {
	engineers map[string]*models.Engineer
}

func (s *engineerReaderStub) GetByID(_ context.Context, id string) (*models.Engineer, error) {
	engineer, ok := s.engineers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return engineer, nil
}

type repairUpdaterStub struct {
	requests  map[string]*models.RepairRequest
	updateErr error
}

func (s *repairUpdaterStub) GetByID(_ context.Context, id string) (*models.RepairRequest, error) {
	request, ok := s.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *request
	return &copied, nil
}

func (s *repairUpdaterStub) UpdateStatus(_ context.Context, params repository.RepairStatusUpdate) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	request, ok := s.requests[params.ID]
	if !ok || request.Status != params.Expected {
		return sql.ErrNoRows
	}
	request.Status = params.Next
	request.AssignedEngineerID = params.AssignedEngineerID
	request.AssignedAt = params.AssignedAt
	request.UpdatedAt = params.UpdatedAt
	return nil
}

var assignCfg = config.AssignmentConfig{AutoAssignEnabled: true}

func newAssignmentFixture(store *assignmentStoreStub) (*AssignmentService, *equipmentReaderStub, *repairUpdaterStub) {
	equipment := &equipmentReaderStub{equipment: map[string]*models.Equipment{
		"eq-1": {ID: "eq-1", ClientID: "c1", Name: "MRI Scanner", HospitalLocation: "Cairo University Hospital"},
	}}
	engineers := &engineerReaderStub{engineers: map[string]*models.Engineer{
		"e1": {ID: "e1", UserID: "user-e1", Active: true},
		"e9": {ID: "e9", UserID: "user-e9", Active: false},
	}}
	repairs := &repairUpdaterStub{requests: map[string]*models.RepairRequest{
		"r1": {ID: "r1", EquipmentID: "eq-1", RequestedBy: "u1", Status: models.RepairStatusPending},
	}}
	svc := NewAssignmentService(store, equipment, engineers, repairs, assignCfg, clock.Fixed(fixedNow()), nil)
	return svc, equipment, repairs
}

func TestAutoAssignPicksLeastLoadedCoveringEngineer(t *testing.T) {
	store := &assignmentStoreStub{pool: []models.EngineerCandidate{
		candidate("e1", 3, true, area("Cairo", true)),
		candidate("e2", 1, true, area("Cairo", true)),
		candidate("e3", 0, true, area("Alexandria", true)),
	}}
	svc, _, repairs := newAssignmentFixture(store)

	selected, err := svc.AutoAssign(context.Background(), repairs.requests["r1"])
	require.NoError(t, err)
	require.NotNil(t, selected)
	assert.Equal(t, "e2", selected.ID)
}

func TestAutoAssignNoEligibleEngineerIsNotAnError(t *testing.T) {
	store := &assignmentStoreStub{pool: []models.EngineerCandidate{
		candidate("e3", 0, true, area("Alexandria", true)),
	}}
	svc, _, repairs := newAssignmentFixture(store)

	selected, err := svc.AutoAssign(context.Background(), repairs.requests["r1"])
	require.NoError(t, err)
	assert.Nil(t, selected)
}

func TestAutoAssignLostRaceIsConflict(t *testing.T) {
	store := &assignmentStoreStub{err: sql.ErrNoRows}
	svc, _, repairs := newAssignmentFixture(store)

	_, err := svc.AutoAssign(context.Background(), repairs.requests["r1"])
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidTransition.Code))
	assert.Equal(t, 409, appErrors.FromError(err).Status)
}

func TestAutoAssignDisabledIsNoOp(t *testing.T) {
	store := &assignmentStoreStub{pool: []models.EngineerCandidate{
		candidate("e1", 0, true, area("Cairo", true)),
	}}
	equipment := &equipmentReaderStub{}
	repairs := &repairUpdaterStub{}
	svc := NewAssignmentService(store, equipment, nil, repairs,
		config.AssignmentConfig{AutoAssignEnabled: false}, clock.Fixed(fixedNow()), nil)

	selected, err := svc.AutoAssign(context.Background(), &models.RepairRequest{ID: "r1"})
	require.NoError(t, err)
	assert.Nil(t, selected)
	assert.Nil(t, store.assignedTo, "selector must not run when dispatch is disabled")
}

func TestManualAssignRequiresActiveEngineer(t *testing.T) {
	svc, _, _ := newAssignmentFixture(&assignmentStoreStub{})

	_, err := svc.ManualAssign(context.Background(), "r1", "e9")
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidOperation.Code))

	_, err = svc.ManualAssign(context.Background(), "r1", "missing")
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
}

func TestManualAssignStampsEngineerAndTime(t *testing.T) {
	svc, _, _ := newAssignmentFixture(&assignmentStoreStub{})

	request, err := svc.ManualAssign(context.Background(), "r1", "e1")
	require.NoError(t, err)
	assert.Equal(t, models.RepairStatusAssigned, request.Status)
	require.NotNil(t, request.AssignedEngineerID)
	assert.Equal(t, "e1", *request.AssignedEngineerID)
	require.NotNil(t, request.AssignedAt)
	assert.Equal(t, fixedNow(), *request.AssignedAt)
}

func TestManualAssignRejectsNonPendingRequest(t *testing.T) {
	svc, _, repairs := newAssignmentFixture(&assignmentStoreStub{})
	repairs.requests["r1"].Status = models.RepairStatusInProgress

	_, err := svc.ManualAssign(context.Background(), "r1", "e1")
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidTransition.Code))
}
