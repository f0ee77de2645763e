package models

import "time"

// DealStatus captures the two-tier approval chain of a confirmed sale.
type DealStatus string

const (
	DealStatusPendingManagerApproval        DealStatus = "PENDING_MANAGER_APPROVAL"
	DealStatusRejectedByManager             DealStatus = "REJECTED_BY_MANAGER"
	DealStatusPendingSuperAdminApproval     DealStatus = "PENDING_SUPERADMIN_APPROVAL"
	DealStatusRejectedBySuperAdmin          DealStatus = "REJECTED_BY_SUPERADMIN"
	DealStatusApproved                      DealStatus = "APPROVED"
	DealStatusAwaitingClientAccountCreation DealStatus = "AWAITING_CLIENT_ACCOUNT_CREATION"
	DealStatusAwaitingSalesmanReport        DealStatus = "AWAITING_SALESMAN_REPORT"
	DealStatusSentToLegal                   DealStatus = "SENT_TO_LEGAL"
	DealStatusSuccess                       DealStatus = "SUCCESS"
	DealStatusFailed                        DealStatus = "FAILED"
)

// DealRejectionReason enumerates why an approver declined a deal.
type DealRejectionReason string

const (
	DealRejectionMoney      DealRejectionReason = "MONEY"
	DealRejectionCashFlow   DealRejectionReason = "CASH_FLOW"
	DealRejectionOtherNeeds DealRejectionReason = "OTHER_NEEDS"
)

// ValidDealRejectionReason reports whether the reason is a known value.
func ValidDealRejectionReason(r DealRejectionReason) bool {
	switch r {
	case DealRejectionMoney, DealRejectionCashFlow, DealRejectionOtherNeeds:
		return true
	}
	return false
}

// Deal represents a confirmed sale moving through manager and super admin
// approval before legal handoff. SuperAdmin fields are only ever written
// after the manager tier approved; a rejection at either tier is terminal.
type Deal struct {
	ID            string     `db:"id" json:"id"`
	OfferID       *string    `db:"offer_id" json:"offer_id,omitempty"`
	ClientID      string     `db:"client_id" json:"client_id"`
	SalespersonID string     `db:"salesperson_id" json:"salesperson_id"`
	DealValue     float64    `db:"deal_value" json:"deal_value"`
	Status        DealStatus `db:"status" json:"status"`

	ManagerApprovedBy         *string              `db:"manager_approved_by" json:"manager_approved_by,omitempty"`
	ManagerApprovedAt         *time.Time           `db:"manager_approved_at" json:"manager_approved_at,omitempty"`
	ManagerRejectionReason    *DealRejectionReason `db:"manager_rejection_reason" json:"manager_rejection_reason,omitempty"`
	ManagerComment            *string              `db:"manager_comment" json:"manager_comment,omitempty"`
	SuperAdminApprovedBy      *string              `db:"superadmin_approved_by" json:"superadmin_approved_by,omitempty"`
	SuperAdminApprovedAt      *time.Time           `db:"superadmin_approved_at" json:"superadmin_approved_at,omitempty"`
	SuperAdminRejectionReason *DealRejectionReason `db:"superadmin_rejection_reason" json:"superadmin_rejection_reason,omitempty"`
	SuperAdminComment         *string              `db:"superadmin_comment" json:"superadmin_comment,omitempty"`

	ReportText    *string    `db:"report_text" json:"report_text,omitempty"`
	SentToLegalAt *time.Time `db:"sent_to_legal_at" json:"sent_to_legal_at,omitempty"`
	CompletedAt   *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	Notes         *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// DealAttachment is a file stored alongside a salesman report.
type DealAttachment struct {
	ID          string    `db:"id" json:"id"`
	DealID      string    `db:"deal_id" json:"deal_id"`
	FileName    string    `db:"file_name" json:"file_name"`
	StoragePath string    `db:"storage_path" json:"storage_path"`
	ContentType string    `db:"content_type" json:"content_type"`
	SizeBytes   int64     `db:"size_bytes" json:"size_bytes"`
	UploadedBy  string    `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// DealFilter constrains deal listing queries.
type DealFilter struct {
	Status        []DealStatus
	ClientID      string
	SalespersonID string
	OfferID       string
	Limit         int
	Offset        int
}
