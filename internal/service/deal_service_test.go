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
	"github.com/soitmed/medops-api/pkg/storage"
)

type dealStoreStub struct {
	deals       map[string]*models.Deal
	byOffer     map[string]*models.Deal
	attachments map[string]*models.DealAttachment
	updateErr   error
}

func newDealStoreStub(deals ...*models.Deal) *dealStoreStub {
	stub := &dealStoreStub{
		deals:       make(map[string]*models.Deal),
		byOffer:     make(map[string]*models.Deal),
		attachments: make(map[string]*models.DealAttachment),
	}
	for _, deal := range deals {
		stub.deals[deal.ID] = deal
		if deal.OfferID != nil {
			stub.byOffer[*deal.OfferID] = deal
		}
	}
	return stub
}

func (s *dealStoreStub) Create(_ context.Context, deal *models.Deal) error {
	if deal.ID == "" {
		deal.ID = "deal-1"
	}
	s.deals[deal.ID] = deal
	if deal.OfferID != nil {
		s.byOffer[*deal.OfferID] = deal
	}
	return nil
}

func (s *dealStoreStub) GetByID(_ context.Context, id string) (*models.Deal, error) {
	deal, ok := s.deals[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *deal
	return &copied, nil
}

func (s *dealStoreStub) GetByOfferID(_ context.Context, offerID string) (*models.Deal, error) {
	deal, ok := s.byOffer[offerID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *deal
	return &copied, nil
}

func (s *dealStoreStub) List(_ context.Context, _ models.DealFilter) ([]models.Deal, error) {
	var out []models.Deal
	for _, deal := range s.deals {
		out = append(out, *deal)
	}
	return out, nil
}

func (s *dealStoreStub) UpdateStatus(_ context.Context, params repository.DealStatusUpdate) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	deal, ok := s.deals[params.ID]
	if !ok || deal.Status != params.Expected {
		return sql.ErrNoRows
	}
	deal.Status = params.Next
	if params.ManagerApprovedBy != nil {
		deal.ManagerApprovedBy = params.ManagerApprovedBy
		deal.ManagerApprovedAt = params.ManagerApprovedAt
	}
	if params.ManagerRejectionReason != nil {
		deal.ManagerRejectionReason = params.ManagerRejectionReason
	}
	if params.SuperAdminApprovedBy != nil {
		deal.SuperAdminApprovedBy = params.SuperAdminApprovedBy
		deal.SuperAdminApprovedAt = params.SuperAdminApprovedAt
	}
	if params.SuperAdminRejectionReason != nil {
		deal.SuperAdminRejectionReason = params.SuperAdminRejectionReason
	}
	if params.ReportText != nil {
		deal.ReportText = params.ReportText
		deal.SentToLegalAt = params.SentToLegalAt
	}
	if params.CompletedAt != nil {
		deal.CompletedAt = params.CompletedAt
	}
	deal.UpdatedAt = params.UpdatedAt
	return nil
}

func (s *dealStoreStub) AddAttachment(_ context.Context, attachment *models.DealAttachment) error {
	if attachment.ID == "" {
		attachment.ID = "att-1"
	}
	s.attachments[attachment.ID] = attachment
	return nil
}

func (s *dealStoreStub) GetAttachment(_ context.Context, id string) (*models.DealAttachment, error) {
	attachment, ok := s.attachments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *attachment
	return &copied, nil
}

func (s *dealStoreStub) ListAttachments(_ context.Context, dealID string) ([]models.DealAttachment, error) {
	var out []models.DealAttachment
	for _, attachment := range s.attachments {
		if attachment.DealID == dealID {
			out = append(out, *attachment)
		}
	}
	return out, nil
}

func TestDealCreateFromOfferIsUniquePerOffer(t *testing.T) {
	offerID := "offer-1"
	store := newDealStoreStub()
	svc := NewDealService(store, clock.Fixed(fixedNow()), nil)

	offer := &models.Offer{
		ID: offerID, ClientID: "c1", SalespersonID: "s1",
		Status: models.OfferStatusAccepted, TotalAmount: 9000,
	}
	deal, err := svc.CreateFromOffer(context.Background(), offer)
	require.NoError(t, err)
	assert.Equal(t, models.DealStatusPendingManagerApproval, deal.Status)
	assert.Equal(t, 9000.0, deal.DealValue)

	_, err = svc.CreateFromOffer(context.Background(), offer)
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrConflict.Code))
}

func TestDealCreateFromOfferRequiresAcceptedOffer(t *testing.T) {
	store := newDealStoreStub()
	svc := NewDealService(store, clock.Fixed(fixedNow()), nil)

	for _, status := range models.AllOfferStatuses() {
		if status == models.OfferStatusAccepted {
			continue
		}
		offer := &models.Offer{
			ID: "o1", ClientID: "c1", SalespersonID: "s1",
			Status: status, TotalAmount: 1000,
		}
		_, err := svc.CreateFromOffer(context.Background(), offer)
		require.Error(t, err, "status %s", status)
		assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidOperation.Code), "status %s", status)
	}
	assert.Empty(t, store.deals, "no deal may open from a non-accepted offer")
}

func TestDealManagerApprovalAdvancesToSuperAdminQueue(t *testing.T) {
	store := newDealStoreStub(&models.Deal{ID: "d1", SalespersonID: "s1", Status: models.DealStatusPendingManagerApproval})
	svc := NewDealService(store, clock.Fixed(fixedNow()), nil)

	deal, err := svc.ManagerReview(context.Background(), "d1", "mgr-1", true, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, models.DealStatusPendingSuperAdminApproval, deal.Status)
	require.NotNil(t, deal.ManagerApprovedBy)
	assert.Equal(t, "mgr-1", *deal.ManagerApprovedBy)
	assert.Nil(t, deal.SuperAdminApprovedBy)
}

func TestDealManagerRejectionNeedsTypedReason(t *testing.T) {
	store := newDealStoreStub(&models.Deal{ID: "d1", Status: models.DealStatusPendingManagerApproval})
	svc := NewDealService(store, clock.Fixed(fixedNow()), nil)

	_, err := svc.ManagerReview(context.Background(), "d1", "mgr-1", false, nil, nil)
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))

	bogus := models.DealRejectionReason("WHIM")
	_, err = svc.ManagerReview(context.Background(), "d1", "mgr-1", false, &bogus, nil)
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))

	reason := models.DealRejectionMoney
	deal, err := svc.ManagerReview(context.Background(), "d1", "mgr-1", false, &reason, nil)
	require.NoError(t, err)
	assert.Equal(t, models.DealStatusRejectedByManager, deal.Status)
	require.NotNil(t, deal.ManagerRejectionReason)
	assert.Equal(t, models.DealRejectionMoney, *deal.ManagerRejectionReason)
}

func TestDealSuperAdminCannotActBeforeManager(t *testing.T) {
	for _, status := range models.AllDealStatuses() {
		if status == models.DealStatusPendingSuperAdminApproval {
			continue
		}
		store := newDealStoreStub(&models.Deal{ID: "d1", Status: status})
		svc := NewDealService(store, clock.Fixed(fixedNow()), nil)

		_, err := svc.SuperAdminReview(context.Background(), "d1", "admin-1", true, nil, nil)
		require.Error(t, err, "status %s", status)
		assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidTransition.Code), "status %s", status)
	}
}

func TestDealSuperAdminApprovalAdvances(t *testing.T) {
	store := newDealStoreStub(&models.Deal{ID: "d1", Status: models.DealStatusPendingSuperAdminApproval})
	svc := NewDealService(store, clock.Fixed(fixedNow()), nil)

	deal, err := svc.SuperAdminReview(context.Background(), "d1", "admin-1", true, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, models.DealStatusAwaitingClientAccountCreation, deal.Status)
	require.NotNil(t, deal.SuperAdminApprovedBy)
	assert.Equal(t, "admin-1", *deal.SuperAdminApprovedBy)
}

func TestDealConcurrentReviewLoserGetsConflict(t *testing.T) {
	store := newDealStoreStub(&models.Deal{ID: "d1", Status: models.DealStatusPendingManagerApproval})
	store.updateErr = sql.ErrNoRows
	svc := NewDealService(store, clock.Fixed(fixedNow()), nil)

	_, err := svc.ManagerReview(context.Background(), "d1", "mgr-2", true, nil, nil)
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidTransition.Code))
	assert.Equal(t, 409, appErrors.FromError(err).Status)
}

func TestDealReportSubmissionSendsToLegal(t *testing.T) {
	store := newDealStoreStub(&models.Deal{ID: "d1", SalespersonID: "s1", Status: models.DealStatusAwaitingSalesmanReport})
	svc := NewDealService(store, clock.Fixed(fixedNow()), nil)

	deal, err := svc.SubmitReport(context.Background(), "d1", "s1", "installation completed", nil)
	require.NoError(t, err)
	assert.Equal(t, models.DealStatusSentToLegal, deal.Status)
	require.NotNil(t, deal.ReportText)
	assert.Equal(t, "installation completed", *deal.ReportText)
	require.NotNil(t, deal.SentToLegalAt)
}

func TestDealReportRejectedOutsideAwaitingReport(t *testing.T) {
	store := newDealStoreStub(&models.Deal{ID: "d1", Status: models.DealStatusPendingManagerApproval})
	svc := NewDealService(store, clock.Fixed(fixedNow()), nil)

	_, err := svc.SubmitReport(context.Background(), "d1", "s1", "too early", nil)
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidTransition.Code))
}

func TestDealFullChain(t *testing.T) {
	store := newDealStoreStub(&models.Deal{ID: "d1", SalespersonID: "s1", Status: models.DealStatusPendingManagerApproval})
	svc := NewDealService(store, clock.Fixed(fixedNow()), nil)
	ctx := context.Background()

	_, err := svc.ManagerReview(ctx, "d1", "mgr-1", true, nil, nil)
	require.NoError(t, err)
	_, err = svc.SuperAdminReview(ctx, "d1", "admin-1", true, nil, nil)
	require.NoError(t, err)
	_, err = svc.MarkClientAccountCreated(ctx, "d1")
	require.NoError(t, err)
	_, err = svc.SubmitReport(ctx, "d1", "s1", "delivered and installed", nil)
	require.NoError(t, err)
	deal, err := svc.Complete(ctx, "d1")
	require.NoError(t, err)

	assert.Equal(t, models.DealStatusSuccess, deal.Status)
	require.NotNil(t, deal.CompletedAt)
	assert.Equal(t, fixedNow(), deal.CompletedAt.UTC())
	assert.True(t, deal.Status.Terminal())
}

func TestDealFailFromAnyLiveState(t *testing.T) {
	store := newDealStoreStub(&models.Deal{ID: "d1", Status: models.DealStatusSentToLegal})
	svc := NewDealService(store, clock.Fixed(fixedNow()), nil)

	notes := "client backed out"
	deal, err := svc.Fail(context.Background(), "d1", &notes)
	require.NoError(t, err)
	assert.Equal(t, models.DealStatusFailed, deal.Status)

	_, err = svc.Fail(context.Background(), "d1", nil)
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidTransition.Code))
}

func TestDealAttachmentScopedToDeal(t *testing.T) {
	store := newDealStoreStub(&models.Deal{ID: "d1", Status: models.DealStatusSentToLegal})
	store.attachments["att-1"] = &models.DealAttachment{
		ID: "att-1", DealID: "other-deal", FileName: "report.pdf", StoragePath: "deals/other/report.pdf",
		CreatedAt: time.Now(),
	}
	signer := storage.NewSignedURLSigner("test-secret", time.Minute)
	svc := NewDealService(store, clock.Fixed(fixedNow()), nil,
		WithDealAttachments(nil, signer, config.AttachmentsConfig{}))

	_, _, err := svc.SignAttachment(context.Background(), "d1", "att-1")
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
}
