package models

import "time"

// NotificationEvent names the business event a notification announces.
type NotificationEvent string

const (
	NotificationOfferSent          NotificationEvent = "OFFER_SENT"
	NotificationOfferApproved      NotificationEvent = "OFFER_APPROVED"
	NotificationOfferRejected      NotificationEvent = "OFFER_REJECTED"
	NotificationOfferAccepted      NotificationEvent = "OFFER_ACCEPTED"
	NotificationOfferExpired       NotificationEvent = "OFFER_EXPIRED"
	NotificationDealCreated        NotificationEvent = "DEAL_CREATED"
	NotificationDealManagerResult  NotificationEvent = "DEAL_MANAGER_RESULT"
	NotificationDealAdminResult    NotificationEvent = "DEAL_SUPERADMIN_RESULT"
	NotificationDealSentToLegal    NotificationEvent = "DEAL_SENT_TO_LEGAL"
	NotificationDealClosed         NotificationEvent = "DEAL_CLOSED"
	NotificationRepairAssigned     NotificationEvent = "REPAIR_ASSIGNED"
	NotificationRepairUnassignable NotificationEvent = "REPAIR_UNASSIGNABLE"
	NotificationRepairUpdated      NotificationEvent = "REPAIR_UPDATED"
)

// Notification is a persisted per-user message. Delivery beyond persistence
// is best-effort and never blocks the transition that produced it.
type Notification struct {
	ID         string            `db:"id" json:"id"`
	UserID     string            `db:"user_id" json:"user_id"`
	Event      NotificationEvent `db:"event" json:"event"`
	Message    string            `db:"message" json:"message"`
	EntityType string            `db:"entity_type" json:"entity_type"`
	EntityID   string            `db:"entity_id" json:"entity_id"`
	Read       bool              `db:"read" json:"read"`
	CreatedAt  time.Time         `db:"created_at" json:"created_at"`
}
