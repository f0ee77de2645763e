package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/soitmed/medops-api/internal/models"
)

// DealCreator opens a deal for an accepted offer.
type DealCreator interface {
	CreateFromOffer(ctx context.Context, offer *models.Offer) (*models.Deal, error)
}

// RepairAssigner attempts automatic dispatch for a repair request.
type RepairAssigner interface {
	AutoAssign(ctx context.Context, request *models.RepairRequest) (*models.EngineerCandidate, error)
}

// WorkflowCoordinator reacts to cross-module events: an accepted offer
// opens a deal, a new repair request goes through automatic dispatch.
// It implements OfferAcceptedSink and RepairCreatedSink.
type WorkflowCoordinator struct {
	deals    DealCreator
	assigner RepairAssigner
	logger   *zap.Logger
}

// NewWorkflowCoordinator wires the coordinator.
func NewWorkflowCoordinator(deals DealCreator, assigner RepairAssigner, logger *zap.Logger) *WorkflowCoordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkflowCoordinator{deals: deals, assigner: assigner, logger: logger}
}

// OfferAccepted opens the approval chain for the accepted offer. The error
// propagates: if a deal already exists for this offer the caller must know,
// even though the offer itself stays ACCEPTED.
func (c *WorkflowCoordinator) OfferAccepted(ctx context.Context, offer *models.Offer) error {
	deal, err := c.deals.CreateFromOffer(ctx, offer)
	if err != nil {
		c.logger.Sugar().Errorw("failed to open deal for accepted offer",
			"offer_id", offer.ID, "error", err)
		return err
	}
	c.logger.Sugar().Infow("deal opened for accepted offer",
		"offer_id", offer.ID, "deal_id", deal.ID)
	return nil
}

// RepairCreated runs automatic dispatch for the new request. A nil
// engineer means nobody covers the location; the request stays PENDING.
func (c *WorkflowCoordinator) RepairCreated(ctx context.Context, request *models.RepairRequest) error {
	selected, err := c.assigner.AutoAssign(ctx, request)
	if err != nil {
		return err
	}
	if selected == nil {
		c.logger.Sugar().Infow("repair request left pending", "request_id", request.ID)
	}
	return nil
}
