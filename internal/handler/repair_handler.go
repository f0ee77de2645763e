package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soitmed/medops-api/internal/dto"
	"github.com/soitmed/medops-api/internal/middleware"
	"github.com/soitmed/medops-api/internal/models"
	"github.com/soitmed/medops-api/internal/service"
	appErrors "github.com/soitmed/medops-api/pkg/errors"
	"github.com/soitmed/medops-api/pkg/response"
)

// RepairHandler exposes repair request and dispatch endpoints.
type RepairHandler struct {
	repairs    *service.RepairService
	dispatcher *service.AssignmentService
}

// NewRepairHandler constructs the handler.
func NewRepairHandler(repairs *service.RepairService, dispatcher *service.AssignmentService) *RepairHandler {
	return &RepairHandler{repairs: repairs, dispatcher: dispatcher}
}

// Create godoc
// @Summary Create a repair request
// @Description New requests go through automatic dispatch: the active
// @Description engineer with matching coverage and the lowest workload is
// @Description assigned. With no eligible engineer the request stays PENDING.
// @Tags repairs
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateRepairRequest true "repair request"
// @Success 201 {object} response.Envelope{data=models.RepairRequest}
// @Failure 400 {object} response.Envelope
// @Router /repairs [post]
func (h *RepairHandler) Create(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateRepairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	request, err := h.repairs.Create(c.Request.Context(), req.ToModel(claims.UserID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// Get godoc
// @Summary Fetch a repair request
// @Tags repairs
// @Security BearerAuth
// @Produce json
// @Param id path string true "request id"
// @Success 200 {object} response.Envelope{data=models.RepairRequest}
// @Failure 404 {object} response.Envelope
// @Router /repairs/{id} [get]
func (h *RepairHandler) Get(c *gin.Context) {
	request, err := h.repairs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// List godoc
// @Summary List repair requests
// @Tags repairs
// @Security BearerAuth
// @Produce json
// @Param status query []string false "status filter"
// @Success 200 {object} response.Envelope{data=[]models.RepairRequest}
// @Router /repairs [get]
func (h *RepairHandler) List(c *gin.Context) {
	var query dto.ListRepairsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	requests, err := h.repairs.List(c.Request.Context(), query.ToFilter())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Transition godoc
// @Summary Move a repair request through its lifecycle
// @Tags repairs
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "request id"
// @Param request body dto.RepairTransitionRequest true "target status"
// @Success 200 {object} response.Envelope{data=models.RepairRequest}
// @Failure 409 {object} response.Envelope
// @Router /repairs/{id}/status [put]
func (h *RepairHandler) Transition(c *gin.Context) {
	var req dto.RepairTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	request, err := h.repairs.Transition(c.Request.Context(), c.Param("id"), models.RepairStatus(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// ManualAssign godoc
// @Summary Dispatch a pending request to a chosen engineer
// @Tags repairs
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "request id"
// @Param request body dto.ManualAssignRequest true "engineer"
// @Success 200 {object} response.Envelope{data=models.RepairRequest}
// @Failure 409 {object} response.Envelope
// @Router /repairs/{id}/assign [post]
func (h *RepairHandler) ManualAssign(c *gin.Context) {
	var req dto.ManualAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	request, err := h.dispatcher.ManualAssign(c.Request.Context(), c.Param("id"), req.EngineerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Retry godoc
// @Summary Re-run automatic dispatch for a pending request
// @Tags repairs
// @Security BearerAuth
// @Produce json
// @Param id path string true "request id"
// @Success 200 {object} response.Envelope{data=models.RepairRequest}
// @Failure 409 {object} response.Envelope
// @Router /repairs/{id}/auto-assign [post]
func (h *RepairHandler) Retry(c *gin.Context) {
	request, err := h.repairs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if _, err := h.dispatcher.AutoAssign(c.Request.Context(), request); err != nil {
		response.Error(c, err)
		return
	}
	request, err = h.repairs.Get(c.Request.Context(), request.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}
