package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/soitmed/medops-api/internal/models"
	"github.com/soitmed/medops-api/internal/repository"
	"github.com/soitmed/medops-api/pkg/clock"
	"github.com/soitmed/medops-api/pkg/config"
	appErrors "github.com/soitmed/medops-api/pkg/errors"
	"github.com/soitmed/medops-api/pkg/storage"
)

// DealStore is the persistence surface the deal workflow needs.
type DealStore interface {
	Create(ctx context.Context, deal *models.Deal) error
	GetByID(ctx context.Context, id string) (*models.Deal, error)
	GetByOfferID(ctx context.Context, offerID string) (*models.Deal, error)
	List(ctx context.Context, filter models.DealFilter) ([]models.Deal, error)
	UpdateStatus(ctx context.Context, params repository.DealStatusUpdate) error
	AddAttachment(ctx context.Context, attachment *models.DealAttachment) error
	GetAttachment(ctx context.Context, id string) (*models.DealAttachment, error)
	ListAttachments(ctx context.Context, dealID string) ([]models.DealAttachment, error)
}

// AttachmentWriter stores report attachment bytes.
type AttachmentWriter interface {
	Save(filename string, data []byte) (string, error)
}

// AttachmentUpload carries one report file from the request.
type AttachmentUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// DealService drives the two-tier approval chain of a confirmed sale.
// Manager approval must complete before the super admin tier can act;
// each tier's verdict is written with a guarded update on the pre-state.
type DealService struct {
	store       DealStore
	attachments AttachmentWriter
	signer      *storage.SignedURLSigner
	attachCfg   config.AttachmentsConfig
	notifier    Notifier
	clock       clock.Clock
	metrics     *MetricsService
	logger      *zap.Logger
}

// DealServiceOption customises construction.
type DealServiceOption func(*DealService)

// WithDealAttachments wires attachment storage and signed downloads.
func WithDealAttachments(w AttachmentWriter, signer *storage.SignedURLSigner, cfg config.AttachmentsConfig) DealServiceOption {
	return func(s *DealService) {
		s.attachments = w
		s.signer = signer
		s.attachCfg = cfg
	}
}

// WithDealNotifier wires best-effort notification delivery.
func WithDealNotifier(n Notifier) DealServiceOption {
	return func(s *DealService) { s.notifier = n }
}

// WithDealMetrics wires transition counters.
func WithDealMetrics(m *MetricsService) DealServiceOption {
	return func(s *DealService) { s.metrics = m }
}

// NewDealService constructs the deal workflow service.
func NewDealService(store DealStore, clk clock.Clock, logger *zap.Logger, opts ...DealServiceOption) *DealService {
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &DealService{
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

// CreateFromOffer opens the approval chain for an accepted offer. Only an
// ACCEPTED offer qualifies, and at most one deal may exist per offer; a
// second attempt is a conflict.
func (s *DealService) CreateFromOffer(ctx context.Context, offer *models.Offer) (*models.Deal, error) {
	if offer.Status != models.OfferStatusAccepted {
		return nil, appErrors.Clone(appErrors.ErrInvalidOperation,
			fmt.Sprintf("offer %s is %s, a deal can only open from an accepted offer", offer.ID, offer.Status))
	}
	existing, err := s.store.GetByOfferID(ctx, offer.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check for existing deal")
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("a deal already exists for offer %s", offer.ID))
	}

	deal := &models.Deal{
		OfferID:       &offer.ID,
		ClientID:      offer.ClientID,
		SalespersonID: offer.SalespersonID,
		DealValue:     offer.TotalAmount,
		Status:        models.DealStatusPendingManagerApproval,
		CreatedAt:     s.clock.Now(),
	}
	if err := s.store.Create(ctx, deal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create deal")
	}

	s.logger.Sugar().Infow("deal opened from accepted offer",
		"deal_id", deal.ID, "offer_id", offer.ID, "value", deal.DealValue)
	s.notifier.Notify(ctx, models.Notification{
		UserID:     deal.SalespersonID,
		Event:      models.NotificationDealCreated,
		Message:    "A deal was opened from your accepted offer",
		EntityType: "deal",
		EntityID:   deal.ID,
	})
	return deal, nil
}

// Create opens a deal that did not originate from an offer.
func (s *DealService) Create(ctx context.Context, deal *models.Deal) error {
	if deal.ClientID == "" || deal.SalespersonID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "client_id and salesperson_id are required")
	}
	if deal.DealValue <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "deal_value must be positive")
	}
	deal.Status = models.DealStatusPendingManagerApproval
	deal.CreatedAt = s.clock.Now()
	if err := s.store.Create(ctx, deal); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create deal")
	}
	return nil
}

// Get fetches a deal by identifier.
func (s *DealService) Get(ctx context.Context, id string) (*models.Deal, error) {
	deal, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "deal not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load deal")
	}
	return deal, nil
}

// List returns deals matching the filter.
func (s *DealService) List(ctx context.Context, filter models.DealFilter) ([]models.Deal, error) {
	deals, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list deals")
	}
	return deals, nil
}

// ManagerReview records the first-tier verdict. Approval advances the deal
// to the super admin queue; rejection is terminal and needs a typed reason.
func (s *DealService) ManagerReview(ctx context.Context, id, managerID string, approve bool, reason *models.DealRejectionReason, comment *string) (*models.Deal, error) {
	deal, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	update := repository.DealStatusUpdate{
		ID:                deal.ID,
		Expected:          deal.Status,
		ManagerApprovedBy: &managerID,
		ManagerApprovedAt: &now,
		ManagerComment:    comment,
		UpdatedAt:         now,
	}
	var event string
	if approve {
		update.Next = models.DealStatusPendingSuperAdminApproval
		event = "approved"
	} else {
		if reason == nil || !models.ValidDealRejectionReason(*reason) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "a valid rejection reason is required")
		}
		update.Next = models.DealStatusRejectedByManager
		update.ManagerRejectionReason = reason
		event = "rejected"
	}

	if err := s.transition(ctx, update); err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, models.Notification{
		UserID:     deal.SalespersonID,
		Event:      models.NotificationDealManagerResult,
		Message:    fmt.Sprintf("Your deal was %s by the manager", event),
		EntityType: "deal",
		EntityID:   deal.ID,
	})
	return s.Get(ctx, id)
}

// SuperAdminReview records the second-tier verdict. It only ever succeeds
// on a deal the manager already approved; any other pre-state conflicts.
func (s *DealService) SuperAdminReview(ctx context.Context, id, adminID string, approve bool, reason *models.DealRejectionReason, comment *string) (*models.Deal, error) {
	deal, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	update := repository.DealStatusUpdate{
		ID:                   deal.ID,
		Expected:             deal.Status,
		SuperAdminApprovedBy: &adminID,
		SuperAdminApprovedAt: &now,
		SuperAdminComment:    comment,
		UpdatedAt:            now,
	}
	var event string
	if approve {
		update.Next = models.DealStatusAwaitingClientAccountCreation
		event = "approved"
	} else {
		if reason == nil || !models.ValidDealRejectionReason(*reason) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "a valid rejection reason is required")
		}
		update.Next = models.DealStatusRejectedBySuperAdmin
		update.SuperAdminRejectionReason = reason
		event = "rejected"
	}

	if err := s.transition(ctx, update); err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, models.Notification{
		UserID:     deal.SalespersonID,
		Event:      models.NotificationDealAdminResult,
		Message:    fmt.Sprintf("Your deal was %s by the super admin", event),
		EntityType: "deal",
		EntityID:   deal.ID,
	})
	return s.Get(ctx, id)
}

// MarkClientAccountCreated advances a fully approved deal once finance has
// provisioned the client's account.
func (s *DealService) MarkClientAccountCreated(ctx context.Context, id string) (*models.Deal, error) {
	deal, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	update := repository.DealStatusUpdate{
		ID:        deal.ID,
		Expected:  deal.Status,
		Next:      models.DealStatusAwaitingSalesmanReport,
		UpdatedAt: s.clock.Now(),
	}
	if err := s.transition(ctx, update); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// SubmitReport stores the salesman's closing report plus attachments and
// hands the deal to legal.
func (s *DealService) SubmitReport(ctx context.Context, id, salespersonID, reportText string, uploads []AttachmentUpload) (*models.Deal, error) {
	if reportText == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "report_text is required")
	}
	deal, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if deal.Status != models.DealStatusAwaitingSalesmanReport {
		return nil, appErrors.InvalidTransition("deal", string(deal.Status), string(models.DealStatusSentToLegal))
	}
	for _, upload := range uploads {
		if err := s.validateUpload(upload); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	update := repository.DealStatusUpdate{
		ID:            deal.ID,
		Expected:      deal.Status,
		Next:          models.DealStatusSentToLegal,
		ReportText:    &reportText,
		SentToLegalAt: &now,
		UpdatedAt:     now,
	}
	if err := s.transition(ctx, update); err != nil {
		return nil, err
	}

	for _, upload := range uploads {
		if err := s.storeAttachment(ctx, deal.ID, salespersonID, upload, now); err != nil {
			// The transition already committed; a failed file write is
			// logged, not rolled into a workflow failure.
			s.logger.Sugar().Errorw("failed to store report attachment",
				"deal_id", deal.ID, "file", upload.FileName, "error", err)
		}
	}

	s.notifier.Notify(ctx, models.Notification{
		UserID:     deal.SalespersonID,
		Event:      models.NotificationDealSentToLegal,
		Message:    "Your deal report was submitted and sent to legal",
		EntityType: "deal",
		EntityID:   deal.ID,
	})
	return s.Get(ctx, id)
}

// Complete closes a deal after legal sign-off.
func (s *DealService) Complete(ctx context.Context, id string) (*models.Deal, error) {
	deal, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	update := repository.DealStatusUpdate{
		ID:          deal.ID,
		Expected:    deal.Status,
		Next:        models.DealStatusSuccess,
		CompletedAt: &now,
		UpdatedAt:   now,
	}
	if err := s.transition(ctx, update); err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, models.Notification{
		UserID:     deal.SalespersonID,
		Event:      models.NotificationDealClosed,
		Message:    "Your deal closed successfully",
		EntityType: "deal",
		EntityID:   deal.ID,
	})
	return s.Get(ctx, id)
}

// Fail abandons a deal from any non-terminal state.
func (s *DealService) Fail(ctx context.Context, id string, notes *string) (*models.Deal, error) {
	deal, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	update := repository.DealStatusUpdate{
		ID:        deal.ID,
		Expected:  deal.Status,
		Next:      models.DealStatusFailed,
		Notes:     notes,
		UpdatedAt: s.clock.Now(),
	}
	if err := s.transition(ctx, update); err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, models.Notification{
		UserID:     deal.SalespersonID,
		Event:      models.NotificationDealClosed,
		Message:    "Your deal was marked as failed",
		EntityType: "deal",
		EntityID:   deal.ID,
	})
	return s.Get(ctx, id)
}

// ListAttachments returns the stored attachments of a deal.
func (s *DealService) ListAttachments(ctx context.Context, dealID string) ([]models.DealAttachment, error) {
	if _, err := s.Get(ctx, dealID); err != nil {
		return nil, err
	}
	attachments, err := s.store.ListAttachments(ctx, dealID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attachments")
	}
	return attachments, nil
}

// SignAttachment issues a time-limited download token for an attachment.
func (s *DealService) SignAttachment(ctx context.Context, dealID, attachmentID string) (string, time.Time, error) {
	if s.signer == nil {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrInvalidOperation, "attachment downloads are not configured")
	}
	attachment, err := s.store.GetAttachment(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attachment")
	}
	if attachment.DealID != dealID {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
	}
	token, expires, err := s.signer.Generate(attachment.ID, attachment.StoragePath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign attachment")
	}
	return token, expires, nil
}

// ResolveAttachmentToken validates a download token and returns the
// attachment metadata it references.
func (s *DealService) ResolveAttachmentToken(ctx context.Context, token string) (*models.DealAttachment, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidOperation, "attachment downloads are not configured")
	}
	attachmentID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	attachment, err := s.store.GetAttachment(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attachment")
	}
	if attachment.StoragePath != relPath {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	return attachment, nil
}

func (s *DealService) validateUpload(upload AttachmentUpload) error {
	if upload.FileName == "" || len(upload.Data) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "attachment file name and content are required")
	}
	if s.attachCfg.MaxFileSizeBytes > 0 && int64(len(upload.Data)) > s.attachCfg.MaxFileSizeBytes {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("attachment %s exceeds the size limit", upload.FileName))
	}
	if len(s.attachCfg.AllowedMIMEs) > 0 {
		allowed := false
		for _, mime := range s.attachCfg.AllowedMIMEs {
			if mime == upload.ContentType {
				allowed = true
				break
			}
		}
		if !allowed {
			return appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("attachment type %s is not allowed", upload.ContentType))
		}
	}
	return nil
}

func (s *DealService) storeAttachment(ctx context.Context, dealID, uploadedBy string, upload AttachmentUpload, at time.Time) error {
	if s.attachments == nil {
		return fmt.Errorf("attachment storage not configured")
	}
	relPath := path.Join("deals", dealID, uuid.NewString()+"_"+path.Base(upload.FileName))
	storedPath, err := s.attachments.Save(relPath, upload.Data)
	if err != nil {
		return err
	}
	return s.store.AddAttachment(ctx, &models.DealAttachment{
		DealID:      dealID,
		FileName:    path.Base(upload.FileName),
		StoragePath: storedPath,
		ContentType: upload.ContentType,
		SizeBytes:   int64(len(upload.Data)),
		UploadedBy:  uploadedBy,
		CreatedAt:   at,
	})
}

func (s *DealService) transition(ctx context.Context, update repository.DealStatusUpdate) error {
	if !update.Expected.CanTransition(update.Next) {
		return appErrors.InvalidTransition("deal", string(update.Expected), string(update.Next))
	}
	if err := s.store.UpdateStatus(ctx, update); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return conflictErr("deal", update.ID)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update deal status")
	}
	if s.metrics != nil {
		s.metrics.RecordDealTransition(update.Expected, update.Next)
	}
	s.logger.Sugar().Infow("deal transition",
		"deal_id", update.ID, "from", update.Expected, "to", update.Next)
	return nil
}
