package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/soitmed/medops-api/internal/models"
	"github.com/soitmed/medops-api/pkg/clock"
	"github.com/soitmed/medops-api/pkg/config"
	appErrors "github.com/soitmed/medops-api/pkg/errors"
	"github.com/soitmed/medops-api/pkg/jobs"
)

// Notifier fans a business event out to a user. Delivery is best effort:
// implementations must never fail the workflow transition that produced
// the notification.
type Notifier interface {
	Notify(ctx context.Context, notification models.Notification)
}

// NotificationStore persists user notifications.
type NotificationStore interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
}

// NotificationService persists notifications through a background queue so
// workflow writes never wait on notification storage.
type NotificationService struct {
	store   NotificationStore
	queue   *jobs.Queue
	clock   clock.Clock
	logger  *zap.Logger
	enabled bool
}

// NewNotificationService builds the service and its worker queue.
func NewNotificationService(store NotificationStore, cfg config.NotificationsConfig, clk clock.Clock, logger *zap.Logger) *NotificationService {
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &NotificationService{
		store:   store,
		clock:   clk,
		logger:  logger,
		enabled: cfg.Enabled,
	}
	s.queue = jobs.NewQueue("notifications", s.deliver, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		BufferSize: cfg.QueueSize,
		Logger:     logger,
	})
	return s
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	if s.enabled {
		s.queue.Start(ctx)
	}
}

// Stop drains the delivery workers.
func (s *NotificationService) Stop() {
	if s.enabled {
		s.queue.Stop()
	}
}

// Notify enqueues a notification for persistence. Failures are logged and
// swallowed; the caller's transition has already committed.
func (s *NotificationService) Notify(ctx context.Context, notification models.Notification) {
	if !s.enabled || notification.UserID == "" {
		return
	}
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = s.clock.Now()
	}

	err := s.queue.Enqueue(jobs.Job{
		ID:      notification.ID,
		Type:    string(notification.Event),
		Payload: notification,
	})
	if err != nil {
		s.logger.Sugar().Warnw("dropping notification",
			"event", notification.Event, "user_id", notification.UserID, "error", err)
	}
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	notification, ok := job.Payload.(models.Notification)
	if !ok {
		s.logger.Sugar().Errorw("unexpected notification payload", "job_id", job.ID)
		return nil
	}
	return s.store.Create(ctx, &notification)
}

// ListForUser returns a user's notifications.
func (s *NotificationService) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	return s.store.ListByUser(ctx, userID, unreadOnly, limit)
}

// MarkRead flags a notification as read for its owner.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.store.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update notification")
	}
	return nil
}
