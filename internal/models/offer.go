package models

import "time"

// OfferStatus captures the lifecycle states of a client offer.
type OfferStatus string

const (
	OfferStatusDraft                  OfferStatus = "DRAFT"
	OfferStatusPendingManagerApproval OfferStatus = "PENDING_MANAGER_APPROVAL"
	OfferStatusSent                   OfferStatus = "SENT"
	OfferStatusUnderReview            OfferStatus = "UNDER_REVIEW"
	OfferStatusAccepted               OfferStatus = "ACCEPTED"
	OfferStatusRejected               OfferStatus = "REJECTED"
	OfferStatusNeedsModification      OfferStatus = "NEEDS_MODIFICATION"
	OfferStatusExpired                OfferStatus = "EXPIRED"
	OfferStatusCompleted              OfferStatus = "COMPLETED"
)

// Offer represents a priced proposal sent to a client. Status changes only
// through the offer workflow service; TotalAmount is editable only while the
// offer is in DRAFT or NEEDS_MODIFICATION.
type Offer struct {
	ID            string      `db:"id" json:"id"`
	ClientID      string      `db:"client_id" json:"client_id"`
	CreatedBy     string      `db:"created_by" json:"created_by"`
	SalespersonID string      `db:"salesperson_id" json:"salesperson_id"`
	Title         string      `db:"title" json:"title"`
	TotalAmount   float64     `db:"total_amount" json:"total_amount"`
	Status        OfferStatus `db:"status" json:"status"`

	// ValidUntil holds every candidate expiry date attached to the offer.
	// The offer expires only once all of them have elapsed; a single
	// future date keeps it alive. Stored in offer_valid_until.
	ValidUntil []time.Time `db:"-" json:"valid_until"`

	SentAt            *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	ManagerApprovedBy *string    `db:"manager_approved_by" json:"manager_approved_by,omitempty"`
	ManagerApprovedAt *time.Time `db:"manager_approved_at" json:"manager_approved_at,omitempty"`
	ManagerComment    *string    `db:"manager_comment" json:"manager_comment,omitempty"`
	RejectionReason   *string    `db:"rejection_reason" json:"rejection_reason,omitempty"`
	ClientResponse    *string    `db:"client_response" json:"client_response,omitempty"`
	RespondedAt       *time.Time `db:"responded_at" json:"responded_at,omitempty"`
	CompletedAt       *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// Expired reports whether every validity date has elapsed at the given
// instant. An offer with no validity dates never expires on its own.
func (o *Offer) Expired(now time.Time) bool {
	if len(o.ValidUntil) == 0 {
		return false
	}
	for _, deadline := range o.ValidUntil {
		if now.Before(deadline) {
			return false
		}
	}
	return true
}

// Editable reports whether the offer amount and line items may change.
func (o *Offer) Editable() bool {
	return o.Status == OfferStatusDraft || o.Status == OfferStatusNeedsModification
}

// OfferFilter constrains offer listing queries.
type OfferFilter struct {
	Status        []OfferStatus
	ClientID      string
	SalespersonID string
	CreatedBy     string
	Limit         int
	Offset        int
}
