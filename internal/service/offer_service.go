package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/soitmed/medops-api/internal/models"
	"github.com/soitmed/medops-api/internal/repository"
	"github.com/soitmed/medops-api/pkg/clock"
	"github.com/soitmed/medops-api/pkg/config"
	appErrors "github.com/soitmed/medops-api/pkg/errors"
)

// OfferStore is the persistence surface the offer workflow needs.
type OfferStore interface {
	Create(ctx context.Context, offer *models.Offer) error
	GetByID(ctx context.Context, id string) (*models.Offer, error)
	List(ctx context.Context, filter models.OfferFilter) ([]models.Offer, error)
	UpdateStatus(ctx context.Context, params repository.OfferStatusUpdate) error
	UpdateAmount(ctx context.Context, id string, amount float64, updatedAt time.Time) error
}

// OfferAcceptedSink receives offers the moment a client accepts them.
type OfferAcceptedSink interface {
	OfferAccepted(ctx context.Context, offer *models.Offer) error
}

// OfferService drives the offer lifecycle. Every status change goes through
// the transition table and a guarded update keyed on the expected pre-state.
type OfferService struct {
	store     OfferStore
	sink      OfferAcceptedSink
	notifier  Notifier
	clock     clock.Clock
	metrics   *MetricsService
	threshold float64
	logger    *zap.Logger
}

// OfferServiceOption customises construction.
type OfferServiceOption func(*OfferService)

// WithOfferAcceptedSink wires the downstream consumer of accepted offers.
func WithOfferAcceptedSink(sink OfferAcceptedSink) OfferServiceOption {
	return func(s *OfferService) { s.sink = sink }
}

// WithOfferNotifier wires best-effort notification delivery.
func WithOfferNotifier(n Notifier) OfferServiceOption {
	return func(s *OfferService) { s.notifier = n }
}

// WithOfferMetrics wires transition counters.
func WithOfferMetrics(m *MetricsService) OfferServiceOption {
	return func(s *OfferService) { s.metrics = m }
}

// NewOfferService constructs the offer workflow service.
func NewOfferService(store OfferStore, cfg config.OffersConfig, clk clock.Clock, logger *zap.Logger, opts ...OfferServiceOption) *OfferService {
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &OfferService{
		store:     store,
		notifier:  NopNotifier(),
		clock:     clk,
		threshold: cfg.ManagerApprovalThreshold,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new draft offer.
func (s *OfferService) Create(ctx context.Context, offer *models.Offer) error {
	if offer.ClientID == "" || offer.Title == "" {
		return appErrors.Clone(appErrors.ErrValidation, "client_id and title are required")
	}
	if offer.TotalAmount <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "total_amount must be positive")
	}
	offer.Status = models.OfferStatusDraft
	offer.CreatedAt = s.clock.Now()

	if err := s.store.Create(ctx, offer); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create offer")
	}
	s.logger.Sugar().Infow("offer created", "offer_id", offer.ID, "client_id", offer.ClientID, "amount", offer.TotalAmount)
	return nil
}

// Get fetches an offer by identifier.
func (s *OfferService) Get(ctx context.Context, id string) (*models.Offer, error) {
	offer, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offer")
	}
	return offer, nil
}

// List returns offers matching the filter.
func (s *OfferService) List(ctx context.Context, filter models.OfferFilter) ([]models.Offer, error) {
	offers, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list offers")
	}
	return offers, nil
}

// Send pushes a draft toward the client. Offers at or above the manager
// approval threshold detour through PENDING_MANAGER_APPROVAL instead of
// going out directly.
func (s *OfferService) Send(ctx context.Context, id string) (*models.Offer, error) {
	offer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	target := models.OfferStatusSent
	if offer.TotalAmount >= s.threshold {
		target = models.OfferStatusPendingManagerApproval
	}

	now := s.clock.Now()
	update := repository.OfferStatusUpdate{
		ID:        offer.ID,
		Expected:  offer.Status,
		Next:      target,
		UpdatedAt: now,
	}
	if target == models.OfferStatusSent {
		update.SentAt = &now
	}
	if err := s.transition(ctx, offer, update); err != nil {
		return nil, err
	}

	if target == models.OfferStatusSent {
		s.notifier.Notify(ctx, models.Notification{
			UserID:     offer.SalespersonID,
			Event:      models.NotificationOfferSent,
			Message:    fmt.Sprintf("Offer %q was sent to the client", offer.Title),
			EntityType: "offer",
			EntityID:   offer.ID,
		})
	}
	return s.Get(ctx, id)
}

// ApproveByManager releases a threshold-held offer to the client.
func (s *OfferService) ApproveByManager(ctx context.Context, id, managerID string, comment *string) (*models.Offer, error) {
	offer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	update := repository.OfferStatusUpdate{
		ID:                offer.ID,
		Expected:          offer.Status,
		Next:              models.OfferStatusSent,
		SentAt:            &now,
		ManagerApprovedBy: &managerID,
		ManagerApprovedAt: &now,
		ManagerComment:    comment,
		UpdatedAt:         now,
	}
	if err := s.transition(ctx, offer, update); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, models.Notification{
		UserID:     offer.SalespersonID,
		Event:      models.NotificationOfferApproved,
		Message:    fmt.Sprintf("Offer %q was approved and sent to the client", offer.Title),
		EntityType: "offer",
		EntityID:   offer.ID,
	})
	return s.Get(ctx, id)
}

// RejectByManager blocks a threshold-held offer from going out.
func (s *OfferService) RejectByManager(ctx context.Context, id, managerID, reason string) (*models.Offer, error) {
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection reason is required")
	}
	offer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	update := repository.OfferStatusUpdate{
		ID:                offer.ID,
		Expected:          offer.Status,
		Next:              models.OfferStatusRejected,
		ManagerApprovedBy: &managerID,
		ManagerApprovedAt: &now,
		RejectionReason:   &reason,
		UpdatedAt:         now,
	}
	if err := s.transition(ctx, offer, update); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, models.Notification{
		UserID:     offer.SalespersonID,
		Event:      models.NotificationOfferRejected,
		Message:    fmt.Sprintf("Offer %q was rejected by the manager", offer.Title),
		EntityType: "offer",
		EntityID:   offer.ID,
	})
	return s.Get(ctx, id)
}

// MarkUnderReview records that the client opened the offer.
func (s *OfferService) MarkUnderReview(ctx context.Context, id string) (*models.Offer, error) {
	offer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	update := repository.OfferStatusUpdate{
		ID:        offer.ID,
		Expected:  offer.Status,
		Next:      models.OfferStatusUnderReview,
		UpdatedAt: s.clock.Now(),
	}
	if err := s.transition(ctx, offer, update); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// ClientResponse captures what the client answered to an offer.
type ClientResponse string

const (
	ClientAccepted          ClientResponse = "ACCEPTED"
	ClientRejected          ClientResponse = "REJECTED"
	ClientNeedsModification ClientResponse = "NEEDS_MODIFICATION"
)

// RecordClientResponse applies a client verdict. Acceptance hands the offer
// to the accepted-sink (which opens a deal); a sink failure is surfaced to
// the caller while the offer stays ACCEPTED.
func (s *OfferService) RecordClientResponse(ctx context.Context, id string, response ClientResponse, comment *string) (*models.Offer, error) {
	var target models.OfferStatus
	switch response {
	case ClientAccepted:
		target = models.OfferStatusAccepted
	case ClientRejected:
		target = models.OfferStatusRejected
	case ClientNeedsModification:
		target = models.OfferStatusNeedsModification
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown client response")
	}

	offer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	responseText := string(response)
	update := repository.OfferStatusUpdate{
		ID:             offer.ID,
		Expected:       offer.Status,
		Next:           target,
		ClientResponse: &responseText,
		RespondedAt:    &now,
		UpdatedAt:      now,
	}
	// Rejections and modification requests both carry the client's stated
	// reason; acceptance has nothing to explain.
	if (response == ClientRejected || response == ClientNeedsModification) && comment != nil {
		update.RejectionReason = comment
	}
	if err := s.transition(ctx, offer, update); err != nil {
		return nil, err
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if response == ClientAccepted {
		s.notifier.Notify(ctx, models.Notification{
			UserID:     offer.SalespersonID,
			Event:      models.NotificationOfferAccepted,
			Message:    fmt.Sprintf("Client accepted offer %q", offer.Title),
			EntityType: "offer",
			EntityID:   offer.ID,
		})
		if s.sink != nil {
			if err := s.sink.OfferAccepted(ctx, updated); err != nil {
				return updated, err
			}
		}
	}
	return updated, nil
}

// Expire moves an offer to EXPIRED once every validity date has elapsed.
// An offer with no validity dates never expires this way.
func (s *OfferService) Expire(ctx context.Context, id string) (*models.Offer, error) {
	offer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !offer.Expired(s.clock.Now()) {
		return nil, appErrors.Clone(appErrors.ErrInvalidOperation, "offer validity dates have not all elapsed")
	}

	update := repository.OfferStatusUpdate{
		ID:        offer.ID,
		Expected:  offer.Status,
		Next:      models.OfferStatusExpired,
		UpdatedAt: s.clock.Now(),
	}
	if err := s.transition(ctx, offer, update); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, models.Notification{
		UserID:     offer.SalespersonID,
		Event:      models.NotificationOfferExpired,
		Message:    fmt.Sprintf("Offer %q expired", offer.Title),
		EntityType: "offer",
		EntityID:   offer.ID,
	})
	return s.Get(ctx, id)
}

// Complete closes an accepted offer after fulfilment.
func (s *OfferService) Complete(ctx context.Context, id string) (*models.Offer, error) {
	offer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	update := repository.OfferStatusUpdate{
		ID:          offer.ID,
		Expected:    offer.Status,
		Next:        models.OfferStatusCompleted,
		CompletedAt: &now,
		UpdatedAt:   now,
	}
	if err := s.transition(ctx, offer, update); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Revise updates the amount of an editable offer. An offer returned by the
// client as NEEDS_MODIFICATION goes back to DRAFT so it can be re-sent.
func (s *OfferService) Revise(ctx context.Context, id string, amount float64) (*models.Offer, error) {
	if amount <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "total_amount must be positive")
	}
	offer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !offer.Editable() {
		return nil, appErrors.Clone(appErrors.ErrInvalidOperation, "offer amount is only editable in DRAFT or NEEDS_MODIFICATION")
	}

	now := s.clock.Now()
	if err := s.store.UpdateAmount(ctx, offer.ID, amount, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, conflictErr("offer", offer.ID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update offer amount")
	}

	if offer.Status == models.OfferStatusNeedsModification {
		update := repository.OfferStatusUpdate{
			ID:        offer.ID,
			Expected:  models.OfferStatusNeedsModification,
			Next:      models.OfferStatusDraft,
			UpdatedAt: now,
		}
		if err := s.transition(ctx, offer, update); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

func (s *OfferService) transition(ctx context.Context, offer *models.Offer, update repository.OfferStatusUpdate) error {
	if !update.Expected.CanTransition(update.Next) {
		return appErrors.InvalidTransition("offer", string(update.Expected), string(update.Next))
	}
	if err := s.store.UpdateStatus(ctx, update); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return conflictErr("offer", update.ID)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update offer status")
	}
	if s.metrics != nil {
		s.metrics.RecordOfferTransition(update.Expected, update.Next)
	}
	s.logger.Sugar().Infow("offer transition",
		"offer_id", update.ID, "from", update.Expected, "to", update.Next)
	return nil
}
