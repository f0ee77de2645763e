package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/soitmed/medops-api/api/swagger"
	"github.com/soitmed/medops-api/internal/middleware"
	"github.com/soitmed/medops-api/internal/models"
	"github.com/soitmed/medops-api/internal/service"
	"github.com/soitmed/medops-api/pkg/config"
	"github.com/soitmed/medops-api/pkg/logger"
	"github.com/soitmed/medops-api/pkg/middleware/cors"
	"github.com/soitmed/medops-api/pkg/middleware/requestid"
)

// Services bundles everything the router needs.
type Services struct {
	Auth          *service.AuthService
	Offers        *OfferHandler
	Deals         *DealHandler
	Repairs       *RepairHandler
	Engineers     *EngineerHandler
	Clients       *ClientHandler
	Stats         *StatsHandler
	AuthEndpoints *AuthHandler
	Metrics       *service.MetricsService
}

// NewRouter assembles the Gin engine with middleware and all routes.
func NewRouter(cfg *config.Config, log *zap.Logger, s Services) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.Middleware())
	router.Use(logger.GinMiddleware(log))
	router.Use(cors.New(cfg.CORS.AllowedOrigins))
	if s.Metrics != nil {
		router.Use(middleware.Metrics(s.Metrics))
		router.GET("/metrics", gin.WrapH(s.Metrics.Handler()))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group(cfg.APIPrefix)

	// Public endpoints.
	api.POST("/auth/login", s.AuthEndpoints.Login)
	api.POST("/auth/refresh", s.AuthEndpoints.Refresh)
	api.GET("/attachments/download", s.Deals.DownloadAttachment)

	authed := api.Group("")
	authed.Use(middleware.Auth(s.Auth))

	authed.GET("/auth/me", s.AuthEndpoints.Me)
	authed.POST("/auth/logout", s.AuthEndpoints.Logout)
	authed.PUT("/auth/password", s.AuthEndpoints.ChangePassword)

	salesAndUp := middleware.RequireRoles(models.RoleSalesperson, models.RoleManager, models.RoleSuperAdmin)
	managerAndUp := middleware.RequireRoles(models.RoleManager, models.RoleSuperAdmin)
	superAdminOnly := middleware.RequireRoles(models.RoleSuperAdmin)

	offers := authed.Group("/offers")
	{
		offers.POST("", salesAndUp, s.Offers.Create)
		offers.GET("", s.Offers.List)
		offers.GET("/:id", s.Offers.Get)
		offers.PATCH("/:id", salesAndUp, s.Offers.Revise)
		offers.POST("/:id/send", salesAndUp, s.Offers.Send)
		offers.POST("/:id/review", managerAndUp, s.Offers.ManagerReview)
		offers.POST("/:id/under-review", salesAndUp, s.Offers.MarkUnderReview)
		offers.POST("/:id/client-response", salesAndUp, s.Offers.ClientResponse)
		offers.POST("/:id/expire", salesAndUp, s.Offers.Expire)
		offers.POST("/:id/complete", salesAndUp, s.Offers.Complete)
	}

	deals := authed.Group("/deals")
	{
		deals.POST("", salesAndUp, s.Deals.Create)
		deals.GET("", s.Deals.List)
		deals.GET("/:id", s.Deals.Get)
		deals.POST("/:id/manager-review", managerAndUp, s.Deals.ManagerReview)
		deals.POST("/:id/superadmin-review", superAdminOnly, s.Deals.SuperAdminReview)
		deals.POST("/:id/client-account", managerAndUp, s.Deals.MarkClientAccountCreated)
		deals.POST("/:id/report", salesAndUp, s.Deals.SubmitReport)
		deals.POST("/:id/complete", managerAndUp, s.Deals.Complete)
		deals.POST("/:id/fail", managerAndUp, s.Deals.Fail)
		deals.GET("/:id/attachments", s.Deals.ListAttachments)
		deals.GET("/:id/attachments/:attachmentID/url", s.Deals.SignAttachment)
	}

	repairs := authed.Group("/repairs")
	{
		repairs.POST("", s.Repairs.Create)
		repairs.GET("", s.Repairs.List)
		repairs.GET("/:id", s.Repairs.Get)
		repairs.PUT("/:id/status", s.Repairs.Transition)
		repairs.POST("/:id/assign", managerAndUp, s.Repairs.ManualAssign)
		repairs.POST("/:id/auto-assign", managerAndUp, s.Repairs.Retry)
	}

	engineers := authed.Group("/engineers")
	{
		engineers.POST("", managerAndUp, s.Engineers.Create)
		engineers.GET("", s.Engineers.List)
		engineers.GET("/:id", s.Engineers.Get)
		engineers.PUT("/:id/active", managerAndUp, s.Engineers.SetActive)
		engineers.POST("/:id/governorates", managerAndUp, s.Engineers.AddGovernorate)
		engineers.PUT("/:id/governorates/:assignmentID", managerAndUp, s.Engineers.SetGovernorateActive)
	}

	clients := authed.Group("/clients")
	{
		clients.POST("", salesAndUp, s.Clients.Create)
		clients.GET("", s.Clients.List)
		clients.GET("/:id", s.Clients.Get)
		clients.PUT("/:id", salesAndUp, s.Clients.Update)
		clients.POST("/:id/equipment", salesAndUp, s.Clients.AddEquipment)
		clients.GET("/:id/equipment", s.Clients.ListEquipment)
	}

	authed.GET("/stats/dashboard", managerAndUp, s.Stats.Dashboard)
	authed.GET("/notifications", s.Stats.Notifications)
	authed.POST("/notifications/:id/read", s.Stats.MarkNotificationRead)

	return router
}
