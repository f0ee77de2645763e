package service

import (
	"context"
	"database/sql"
	"errors"
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

type offerStoreStub struct {
	offers    map[string]*models.Offer
	updateErr error
	updates   []repository.OfferStatusUpdate
}

func newOfferStoreStub(offers ...*models.Offer) *offerStoreStub {
	stub := &offerStoreStub{offers: make(map[string]*models.Offer)}
	for _, offer := range offers {
		stub.offers[offer.ID] = offer
	}
	return stub
}

func (s *offerStoreStub) Create(_ context.Context, offer *models.Offer) error {
	if offer.ID == "" {
		offer.ID = "offer-" + offer.Title
	}
	s.offers[offer.ID] = offer
	return nil
}

func (s *offerStoreStub) GetByID(_ context.Context, id string) (*models.Offer, error) {
	offer, ok := s.offers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *offer
	return &copied, nil
}

func (s *offerStoreStub) List(_ context.Context, _ models.OfferFilter) ([]models.Offer, error) {
	var out []models.Offer
	for _, offer := range s.offers {
		out = append(out, *offer)
	}
	return out, nil
}

func (s *offerStoreStub) UpdateStatus(_ context.Context, params repository.OfferStatusUpdate) error {
	s.updates = append(s.updates, params)
	if s.updateErr != nil {
		return s.updateErr
	}
	offer, ok := s.offers[params.ID]
	if !ok || offer.Status != params.Expected {
		return sql.ErrNoRows
	}
	offer.Status = params.Next
	if params.SentAt != nil {
		offer.SentAt = params.SentAt
	}
	if params.CompletedAt != nil {
		offer.CompletedAt = params.CompletedAt
	}
	if params.ClientResponse != nil {
		offer.ClientResponse = params.ClientResponse
		offer.RespondedAt = params.RespondedAt
	}
	if params.RejectionReason != nil {
		offer.RejectionReason = params.RejectionReason
	}
	offer.UpdatedAt = params.UpdatedAt
	return nil
}

func (s *offerStoreStub) UpdateAmount(_ context.Context, id string, amount float64, updatedAt time.Time) error {
	offer, ok := s.offers[id]
	if !ok || !offer.Editable() {
		return sql.ErrNoRows
	}
	offer.TotalAmount = amount
	offer.UpdatedAt = updatedAt
	return nil
}

type acceptedSinkStub struct {
	offers []*models.Offer
	err    error
}

func (s *acceptedSinkStub) OfferAccepted(_ context.Context, offer *models.Offer) error {
	s.offers = append(s.offers, offer)
	return s.err
}

var offersCfg = config.OffersConfig{ManagerApprovalThreshold: 100000}

func fixedNow() time.Time {
	return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestOfferSendBelowThreshold(t *testing.T) {
	store := newOfferStoreStub(&models.Offer{ID: "o1", Status: models.OfferStatusDraft, TotalAmount: 5000})
	svc := NewOfferService(store, offersCfg, clock.Fixed(fixedNow()), nil)

	offer, err := svc.Send(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusSent, offer.Status)
	require.NotNil(t, offer.SentAt)
	assert.Equal(t, fixedNow(), *offer.SentAt)
}

func TestOfferSendAtThresholdNeedsManagerApproval(t *testing.T) {
	store := newOfferStoreStub(&models.Offer{ID: "o1", Status: models.OfferStatusDraft, TotalAmount: 100000})
	svc := NewOfferService(store, offersCfg, clock.Fixed(fixedNow()), nil)

	offer, err := svc.Send(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusPendingManagerApproval, offer.Status)
	assert.Nil(t, offer.SentAt)
}

func TestOfferSendFromSentRejected(t *testing.T) {
	store := newOfferStoreStub(&models.Offer{ID: "o1", Status: models.OfferStatusSent, TotalAmount: 5000})
	svc := NewOfferService(store, offersCfg, clock.Fixed(fixedNow()), nil)

	_, err := svc.Send(context.Background(), "o1")
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidTransition.Code))
	assert.Empty(t, store.updates, "no write may happen for an illegal transition")
}

func TestOfferTransitionLoserGetsConflict(t *testing.T) {
	store := newOfferStoreStub(&models.Offer{ID: "o1", Status: models.OfferStatusDraft, TotalAmount: 5000})
	store.updateErr = sql.ErrNoRows
	svc := NewOfferService(store, offersCfg, clock.Fixed(fixedNow()), nil)

	_, err := svc.Send(context.Background(), "o1")
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidTransition.Code))
	appErr := appErrors.FromError(err)
	assert.Equal(t, 409, appErr.Status)
}

func TestOfferClientAcceptanceOpensDeal(t *testing.T) {
	store := newOfferStoreStub(&models.Offer{ID: "o1", Status: models.OfferStatusUnderReview, TotalAmount: 5000})
	sink := &acceptedSinkStub{}
	svc := NewOfferService(store, offersCfg, clock.Fixed(fixedNow()), nil, WithOfferAcceptedSink(sink))

	offer, err := svc.RecordClientResponse(context.Background(), "o1", ClientAccepted, nil)
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusAccepted, offer.Status)
	require.Len(t, sink.offers, 1)
	assert.Equal(t, "o1", sink.offers[0].ID)
}

func TestOfferAcceptanceSinkErrorPropagatesButOfferStaysAccepted(t *testing.T) {
	store := newOfferStoreStub(&models.Offer{ID: "o1", Status: models.OfferStatusSent, TotalAmount: 5000})
	sink := &acceptedSinkStub{err: errors.New("downstream failure")}
	svc := NewOfferService(store, offersCfg, clock.Fixed(fixedNow()), nil, WithOfferAcceptedSink(sink))

	_, err := svc.RecordClientResponse(context.Background(), "o1", ClientAccepted, nil)
	require.Error(t, err)
	assert.Equal(t, models.OfferStatusAccepted, store.offers["o1"].Status)
}

func TestOfferClientResponseKeepsStatedReason(t *testing.T) {
	tests := []struct {
		name     string
		response ClientResponse
		want     models.OfferStatus
	}{
		{"rejection", ClientRejected, models.OfferStatusRejected},
		{"modification request", ClientNeedsModification, models.OfferStatusNeedsModification},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newOfferStoreStub(&models.Offer{ID: "o1", Status: models.OfferStatusSent, TotalAmount: 5000})
			svc := NewOfferService(store, offersCfg, clock.Fixed(fixedNow()), nil)

			reason := "pricing too high for this quarter"
			offer, err := svc.RecordClientResponse(context.Background(), "o1", tt.response, &reason)
			require.NoError(t, err)
			assert.Equal(t, tt.want, offer.Status)
			require.NotNil(t, offer.RejectionReason)
			assert.Equal(t, reason, *offer.RejectionReason)
			require.NotNil(t, offer.RespondedAt)
		})
	}
}

func TestOfferExpireRequiresAllDatesElapsed(t *testing.T) {
	validUntil := []time.Time{
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	store := newOfferStoreStub(&models.Offer{
		ID: "o1", Status: models.OfferStatusSent, TotalAmount: 5000, ValidUntil: validUntil,
	})
	svc := NewOfferService(store, offersCfg, clock.Fixed(fixedNow()), nil)

	_, err := svc.Expire(context.Background(), "o1")
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidOperation.Code))

	later := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	svc = NewOfferService(store, offersCfg, clock.Fixed(later), nil)
	offer, err := svc.Expire(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusExpired, offer.Status)
}

func TestOfferWithoutValidityDatesNeverExpires(t *testing.T) {
	store := newOfferStoreStub(&models.Offer{ID: "o1", Status: models.OfferStatusSent, TotalAmount: 5000})
	svc := NewOfferService(store, offersCfg, clock.Fixed(fixedNow().AddDate(10, 0, 0)), nil)

	_, err := svc.Expire(context.Background(), "o1")
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidOperation.Code))
}

func TestOfferReviseReturnsModifiedOfferToDraft(t *testing.T) {
	store := newOfferStoreStub(&models.Offer{ID: "o1", Status: models.OfferStatusNeedsModification, TotalAmount: 5000})
	svc := NewOfferService(store, offersCfg, clock.Fixed(fixedNow()), nil)

	offer, err := svc.Revise(context.Background(), "o1", 7500)
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusDraft, offer.Status)
	assert.Equal(t, 7500.0, offer.TotalAmount)
}

func TestOfferReviseRejectedOutsideEditableStates(t *testing.T) {
	store := newOfferStoreStub(&models.Offer{ID: "o1", Status: models.OfferStatusSent, TotalAmount: 5000})
	svc := NewOfferService(store, offersCfg, clock.Fixed(fixedNow()), nil)

	_, err := svc.Revise(context.Background(), "o1", 7500)
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidOperation.Code))
	assert.Equal(t, 5000.0, store.offers["o1"].TotalAmount)
}
