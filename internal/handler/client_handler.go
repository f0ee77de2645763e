package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soitmed/medops-api/internal/dto"
	"github.com/soitmed/medops-api/internal/service"
	appErrors "github.com/soitmed/medops-api/pkg/errors"
	"github.com/soitmed/medops-api/pkg/response"
)

// ClientHandler exposes the client registry endpoints.
type ClientHandler struct {
	clients *service.ClientService
}

// NewClientHandler constructs the handler.
func NewClientHandler(clients *service.ClientService) *ClientHandler {
	return &ClientHandler{clients: clients}
}

// Create godoc
// @Summary Register a client organization
// @Tags clients
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateClientRequest true "client"
// @Success 201 {object} response.Envelope{data=models.Client}
// @Failure 400 {object} response.Envelope
// @Router /clients [post]
func (h *ClientHandler) Create(c *gin.Context) {
	var req dto.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	client := req.ToModel()
	if err := h.clients.Create(c.Request.Context(), client); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, client)
}

// Get godoc
// @Summary Fetch a client
// @Tags clients
// @Security BearerAuth
// @Produce json
// @Param id path string true "client id"
// @Success 200 {object} response.Envelope{data=models.Client}
// @Failure 404 {object} response.Envelope
// @Router /clients/{id} [get]
func (h *ClientHandler) Get(c *gin.Context) {
	client, err := h.clients.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, client, nil)
}

// List godoc
// @Summary List clients
// @Tags clients
// @Security BearerAuth
// @Produce json
// @Param search query string false "name search"
// @Success 200 {object} response.Envelope{data=[]models.Client}
// @Router /clients [get]
func (h *ClientHandler) List(c *gin.Context) {
	var query dto.ListClientsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	clients, err := h.clients.List(c.Request.Context(), query.ToFilter())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clients, nil)
}

// Update godoc
// @Summary Update a client's details
// @Tags clients
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "client id"
// @Param request body dto.UpdateClientRequest true "client"
// @Success 200 {object} response.Envelope{data=models.Client}
// @Failure 404 {object} response.Envelope
// @Router /clients/{id} [put]
func (h *ClientHandler) Update(c *gin.Context) {
	var req dto.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	client, err := h.clients.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	req.Apply(client)
	if err := h.clients.Update(c.Request.Context(), client); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, client, nil)
}

// AddEquipment godoc
// @Summary Register equipment at a client site
// @Tags clients
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "client id"
// @Param request body dto.CreateEquipmentRequest true "equipment"
// @Success 201 {object} response.Envelope{data=models.Equipment}
// @Failure 404 {object} response.Envelope
// @Router /clients/{id}/equipment [post]
func (h *ClientHandler) AddEquipment(c *gin.Context) {
	var req dto.CreateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	equipment := req.ToModel(c.Param("id"))
	if err := h.clients.AddEquipment(c.Request.Context(), equipment); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, equipment)
}

// ListEquipment godoc
// @Summary List equipment installed at a client
// @Tags clients
// @Security BearerAuth
// @Produce json
// @Param id path string true "client id"
// @Success 200 {object} response.Envelope{data=[]models.Equipment}
// @Router /clients/{id}/equipment [get]
func (h *ClientHandler) ListEquipment(c *gin.Context) {
	equipment, err := h.clients.ListEquipment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, equipment, nil)
}
