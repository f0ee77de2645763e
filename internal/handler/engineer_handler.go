package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soitmed/medops-api/internal/dto"
	"github.com/soitmed/medops-api/internal/service"
	appErrors "github.com/soitmed/medops-api/pkg/errors"
	"github.com/soitmed/medops-api/pkg/response"
)

// EngineerHandler exposes engineer management endpoints.
type EngineerHandler struct {
	engineers *service.EngineerService
}

// NewEngineerHandler constructs the handler.
func NewEngineerHandler(engineers *service.EngineerService) *EngineerHandler {
	return &EngineerHandler{engineers: engineers}
}

// Create godoc
// @Summary Register an engineer
// @Tags engineers
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateEngineerRequest true "engineer"
// @Success 201 {object} response.Envelope{data=models.Engineer}
// @Failure 400 {object} response.Envelope
// @Router /engineers [post]
func (h *EngineerHandler) Create(c *gin.Context) {
	var req dto.CreateEngineerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	engineer := req.ToModel()
	if err := h.engineers.Create(c.Request.Context(), engineer); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, engineer)
}

// Get godoc
// @Summary Fetch an engineer with coverage areas and workload
// @Tags engineers
// @Security BearerAuth
// @Produce json
// @Param id path string true "engineer id"
// @Success 200 {object} response.Envelope{data=models.EngineerCandidate}
// @Failure 404 {object} response.Envelope
// @Router /engineers/{id} [get]
func (h *EngineerHandler) Get(c *gin.Context) {
	engineer, err := h.engineers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, engineer, nil)
}

// List godoc
// @Summary List engineers
// @Tags engineers
// @Security BearerAuth
// @Produce json
// @Param active query bool false "active filter"
// @Param governorate query string false "coverage filter"
// @Success 200 {object} response.Envelope{data=[]models.Engineer}
// @Router /engineers [get]
func (h *EngineerHandler) List(c *gin.Context) {
	var query dto.ListEngineersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	engineers, err := h.engineers.List(c.Request.Context(), query.ToFilter())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, engineers, nil)
}

// SetActive godoc
// @Summary Toggle an engineer's dispatch availability
// @Tags engineers
// @Security BearerAuth
// @Accept json
// @Param id path string true "engineer id"
// @Param request body dto.SetActiveRequest true "availability"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /engineers/{id}/active [put]
func (h *EngineerHandler) SetActive(c *gin.Context) {
	var req dto.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	if err := h.engineers.SetActive(c.Request.Context(), c.Param("id"), *req.Active); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddGovernorate godoc
// @Summary Attach a coverage area to an engineer
// @Tags engineers
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "engineer id"
// @Param request body dto.AddGovernorateRequest true "coverage area"
// @Success 201 {object} response.Envelope{data=models.GovernorateAssignment}
// @Failure 404 {object} response.Envelope
// @Router /engineers/{id}/governorates [post]
func (h *EngineerHandler) AddGovernorate(c *gin.Context) {
	var req dto.AddGovernorateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	assignment, err := h.engineers.AddGovernorate(c.Request.Context(), c.Param("id"), req.Governorate)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// SetGovernorateActive godoc
// @Summary Toggle a coverage area
// @Tags engineers
// @Security BearerAuth
// @Accept json
// @Param id path string true "engineer id"
// @Param assignmentID path string true "coverage assignment id"
// @Param request body dto.SetActiveRequest true "state"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /engineers/{id}/governorates/{assignmentID} [put]
func (h *EngineerHandler) SetGovernorateActive(c *gin.Context) {
	var req dto.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	if err := h.engineers.SetGovernorateActive(c.Request.Context(), c.Param("assignmentID"), *req.Active); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
