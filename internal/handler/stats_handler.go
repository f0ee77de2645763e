package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/soitmed/medops-api/internal/middleware"
	"github.com/soitmed/medops-api/internal/service"
	appErrors "github.com/soitmed/medops-api/pkg/errors"
	"github.com/soitmed/medops-api/pkg/response"
)

// StatsHandler exposes the operations dashboard and notification feeds.
type StatsHandler struct {
	stats         *service.StatsService
	notifications *service.NotificationService
}

// NewStatsHandler constructs the handler.
func NewStatsHandler(stats *service.StatsService, notifications *service.NotificationService) *StatsHandler {
	return &StatsHandler{stats: stats, notifications: notifications}
}

// Dashboard godoc
// @Summary Pipeline counts for the operations dashboard
// @Tags stats
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope{data=models.OpsStats}
// @Router /stats/dashboard [get]
func (h *StatsHandler) Dashboard(c *gin.Context) {
	stats, err := h.stats.Dashboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Notifications godoc
// @Summary List the caller's notifications
// @Tags notifications
// @Security BearerAuth
// @Produce json
// @Param unread query bool false "unread only"
// @Param limit query int false "page size"
// @Success 200 {object} response.Envelope{data=[]models.Notification}
// @Router /notifications [get]
func (h *StatsHandler) Notifications(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	unreadOnly, _ := strconv.ParseBool(c.DefaultQuery("unread", "false"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	notifications, err := h.notifications.ListForUser(c.Request.Context(), claims.UserID, unreadOnly, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notifications, nil)
}

// MarkNotificationRead godoc
// @Summary Mark one of the caller's notifications as read
// @Tags notifications
// @Security BearerAuth
// @Param id path string true "notification id"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /notifications/{id}/read [post]
func (h *StatsHandler) MarkNotificationRead(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
