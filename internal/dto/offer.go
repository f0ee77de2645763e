package dto

import (
	"time"

	"github.com/soitmed/medops-api/internal/models"
)

// CreateOfferRequest is the payload for registering a draft offer.
type CreateOfferRequest struct {
	ClientID      string      `json:"client_id" binding:"required,uuid"`
	SalespersonID string      `json:"salesperson_id" binding:"required,uuid"`
	Title         string      `json:"title" binding:"required"`
	TotalAmount   float64     `json:"total_amount" binding:"required,gt=0"`
	ValidUntil    []time.Time `json:"valid_until"`
}

// ToModel builds the offer model, stamping the creator.
func (r CreateOfferRequest) ToModel(createdBy string) *models.Offer {
	return &models.Offer{
		ClientID:      r.ClientID,
		CreatedBy:     createdBy,
		SalespersonID: r.SalespersonID,
		Title:         r.Title,
		TotalAmount:   r.TotalAmount,
		ValidUntil:    r.ValidUntil,
	}
}

// ReviseOfferRequest updates the amount of an editable offer.
type ReviseOfferRequest struct {
	TotalAmount float64 `json:"total_amount" binding:"required,gt=0"`
}

// ManagerOfferReviewRequest carries the manager verdict on a held offer.
type ManagerOfferReviewRequest struct {
	Approve bool    `json:"approve"`
	Reason  string  `json:"reason"`
	Comment *string `json:"comment"`
}

// ClientResponseRequest records what the client answered.
type ClientResponseRequest struct {
	Response string  `json:"response" binding:"required,oneof=ACCEPTED REJECTED NEEDS_MODIFICATION"`
	Comment  *string `json:"comment"`
}

// ListOffersQuery captures offer list filters.
type ListOffersQuery struct {
	Status        []string `form:"status"`
	ClientID      string   `form:"client_id"`
	SalespersonID string   `form:"salesperson_id"`
	Limit         int      `form:"limit"`
	Offset        int      `form:"offset"`
}

// ToFilter converts the query into a repository filter.
func (q ListOffersQuery) ToFilter() models.OfferFilter {
	filter := models.OfferFilter{
		ClientID:      q.ClientID,
		SalespersonID: q.SalespersonID,
		Limit:         q.Limit,
		Offset:        q.Offset,
	}
	for _, status := range q.Status {
		filter.Status = append(filter.Status, models.OfferStatus(status))
	}
	return filter
}
