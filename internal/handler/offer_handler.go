package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soitmed/medops-api/internal/dto"
	"github.com/soitmed/medops-api/internal/middleware"
	"github.com/soitmed/medops-api/internal/service"
	appErrors "github.com/soitmed/medops-api/pkg/errors"
	"github.com/soitmed/medops-api/pkg/response"
)

// OfferHandler exposes the offer lifecycle endpoints.
type OfferHandler struct {
	offers *service.OfferService
}

// NewOfferHandler constructs the handler.
func NewOfferHandler(offers *service.OfferService) *OfferHandler {
	return &OfferHandler{offers: offers}
}

// Create godoc
// @Summary Create a draft offer
// @Tags offers
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateOfferRequest true "offer"
// @Success 201 {object} response.Envelope{data=models.Offer}
// @Failure 400 {object} response.Envelope
// @Router /offers [post]
func (h *OfferHandler) Create(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	offer := req.ToModel(claims.UserID)
	if err := h.offers.Create(c.Request.Context(), offer); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, offer)
}

// Get godoc
// @Summary Fetch an offer
// @Tags offers
// @Security BearerAuth
// @Produce json
// @Param id path string true "offer id"
// @Success 200 {object} response.Envelope{data=models.Offer}
// @Failure 404 {object} response.Envelope
// @Router /offers/{id} [get]
func (h *OfferHandler) Get(c *gin.Context) {
	offer, err := h.offers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offer, nil)
}

// List godoc
// @Summary List offers
// @Tags offers
// @Security BearerAuth
// @Produce json
// @Param status query []string false "status filter"
// @Success 200 {object} response.Envelope{data=[]models.Offer}
// @Router /offers [get]
func (h *OfferHandler) List(c *gin.Context) {
	var query dto.ListOffersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	offers, err := h.offers.List(c.Request.Context(), query.ToFilter())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offers, nil)
}

// Send godoc
// @Summary Send a draft offer toward the client
// @Description Offers at or above the manager approval threshold are held
// @Description in PENDING_MANAGER_APPROVAL instead of going out directly.
// @Tags offers
// @Security BearerAuth
// @Produce json
// @Param id path string true "offer id"
// @Success 200 {object} response.Envelope{data=models.Offer}
// @Failure 409 {object} response.Envelope
// @Router /offers/{id}/send [post]
func (h *OfferHandler) Send(c *gin.Context) {
	offer, err := h.offers.Send(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offer, nil)
}

// ManagerReview godoc
// @Summary Manager verdict on a held offer
// @Tags offers
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "offer id"
// @Param request body dto.ManagerOfferReviewRequest true "verdict"
// @Success 200 {object} response.Envelope{data=models.Offer}
// @Failure 409 {object} response.Envelope
// @Router /offers/{id}/review [post]
func (h *OfferHandler) ManagerReview(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ManagerOfferReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	if req.Approve {
		offer, err := h.offers.ApproveByManager(ctx, id, claims.UserID, req.Comment)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, offer, nil)
		return
	}
	offer, err := h.offers.RejectByManager(ctx, id, claims.UserID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offer, nil)
}

// MarkUnderReview godoc
// @Summary Record that the client opened the offer
// @Tags offers
// @Security BearerAuth
// @Produce json
// @Param id path string true "offer id"
// @Success 200 {object} response.Envelope{data=models.Offer}
// @Failure 409 {object} response.Envelope
// @Router /offers/{id}/under-review [post]
func (h *OfferHandler) MarkUnderReview(c *gin.Context) {
	offer, err := h.offers.MarkUnderReview(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offer, nil)
}

// ClientResponse godoc
// @Summary Record the client's answer to an offer
// @Description Acceptance automatically opens a deal in the approval chain.
// @Tags offers
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "offer id"
// @Param request body dto.ClientResponseRequest true "client response"
// @Success 200 {object} response.Envelope{data=models.Offer}
// @Failure 409 {object} response.Envelope
// @Router /offers/{id}/client-response [post]
func (h *OfferHandler) ClientResponse(c *gin.Context) {
	var req dto.ClientResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	offer, err := h.offers.RecordClientResponse(c.Request.Context(), c.Param("id"),
		service.ClientResponse(req.Response), req.Comment)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offer, nil)
}

// Expire godoc
// @Summary Expire an offer whose validity dates have all elapsed
// @Tags offers
// @Security BearerAuth
// @Produce json
// @Param id path string true "offer id"
// @Success 200 {object} response.Envelope{data=models.Offer}
// @Failure 400 {object} response.Envelope
// @Router /offers/{id}/expire [post]
func (h *OfferHandler) Expire(c *gin.Context) {
	offer, err := h.offers.Expire(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offer, nil)
}

// Complete godoc
// @Summary Close an accepted offer after fulfilment
// @Tags offers
// @Security BearerAuth
// @Produce json
// @Param id path string true "offer id"
// @Success 200 {object} response.Envelope{data=models.Offer}
// @Failure 409 {object} response.Envelope
// @Router /offers/{id}/complete [post]
func (h *OfferHandler) Complete(c *gin.Context) {
	offer, err := h.offers.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offer, nil)
}

// Revise godoc
// @Summary Update the amount of an editable offer
// @Tags offers
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "offer id"
// @Param request body dto.ReviseOfferRequest true "new amount"
// @Success 200 {object} response.Envelope{data=models.Offer}
// @Failure 400 {object} response.Envelope
// @Router /offers/{id} [patch]
func (h *OfferHandler) Revise(c *gin.Context) {
	var req dto.ReviseOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	offer, err := h.offers.Revise(c.Request.Context(), c.Param("id"), req.TotalAmount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offer, nil)
}
