package dto

import "github.com/soitmed/medops-api/internal/models"

// CreateDealRequest opens a deal that did not come from an offer.
type CreateDealRequest struct {
	ClientID      string  `json:"client_id" binding:"required,uuid"`
	SalespersonID string  `json:"salesperson_id" binding:"required,uuid"`
	DealValue     float64 `json:"deal_value" binding:"required,gt=0"`
	Notes         *string `json:"notes"`
}

// ToModel builds the deal model.
func (r CreateDealRequest) ToModel() *models.Deal {
	return &models.Deal{
		ClientID:      r.ClientID,
		SalespersonID: r.SalespersonID,
		DealValue:     r.DealValue,
		Notes:         r.Notes,
	}
}

// DealReviewRequest carries an approval-tier verdict.
type DealReviewRequest struct {
	Approve bool    `json:"approve"`
	Reason  *string `json:"reason" binding:"omitempty,oneof=MONEY CASH_FLOW OTHER_NEEDS"`
	Comment *string `json:"comment"`
}

// RejectionReason converts the raw reason into the typed enum.
func (r DealReviewRequest) RejectionReason() *models.DealRejectionReason {
	if r.Reason == nil {
		return nil
	}
	reason := models.DealRejectionReason(*r.Reason)
	return &reason
}

// SubmitReportRequest carries the salesman's closing report.
type SubmitReportRequest struct {
	ReportText string `json:"report_text" binding:"required"`
}

// FailDealRequest abandons a deal.
type FailDealRequest struct {
	Notes *string `json:"notes"`
}

// ListDealsQuery captures deal list filters.
type ListDealsQuery struct {
	Status        []string `form:"status"`
	ClientID      string   `form:"client_id"`
	SalespersonID string   `form:"salesperson_id"`
	OfferID       string   `form:"offer_id"`
	Limit         int      `form:"limit"`
	Offset        int      `form:"offset"`
}

// ToFilter converts the query into a repository filter.
func (q ListDealsQuery) ToFilter() models.DealFilter {
	filter := models.DealFilter{
		ClientID:      q.ClientID,
		SalespersonID: q.SalespersonID,
		OfferID:       q.OfferID,
		Limit:         q.Limit,
		Offset:        q.Offset,
	}
	for _, status := range q.Status {
		filter.Status = append(filter.Status, models.DealStatus(status))
	}
	return filter
}

// AttachmentURLResponse returns a signed download token.
type AttachmentURLResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}
