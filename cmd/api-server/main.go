// @title MedOps API
// @version 1.0
// @description Sales and maintenance operations platform for medical equipment.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/soitmed/medops-api/internal/handler"
	"github.com/soitmed/medops-api/internal/repository"
	"github.com/soitmed/medops-api/internal/service"
	"github.com/soitmed/medops-api/pkg/cache"
	"github.com/soitmed/medops-api/pkg/clock"
	"github.com/soitmed/medops-api/pkg/config"
	"github.com/soitmed/medops-api/pkg/database"
	"github.com/soitmed/medops-api/pkg/logger"
	"github.com/soitmed/medops-api/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The dashboard cache is optional; everything else works without it.
		log.Warn("redis unavailable, stats caching disabled", zap.Error(err))
		redisClient = nil
	}

	attachmentStorage, err := storage.NewLocalStorage(cfg.Attachments.StorageDir)
	if err != nil {
		return fmt.Errorf("prepare attachment storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Attachments.SignedURLSecret, cfg.Attachments.SignedURLTTL)

	clk := clock.System()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	clientRepo := repository.NewClientRepository(db)
	equipmentRepo := repository.NewEquipmentRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	dealRepo := repository.NewDealRepository(db)
	repairRepo := repository.NewRepairRepository(db)
	engineerRepo := repository.NewEngineerRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	// Services.
	metrics := service.NewMetricsService()
	notifications := service.NewNotificationService(notificationRepo, cfg.Notifications, clk, log)

	authSvc := service.NewAuthService(userRepo, cfg.JWT, clk, log)
	clientSvc := service.NewClientService(clientRepo, equipmentRepo, clk, log)
	engineerSvc := service.NewEngineerService(engineerRepo, repairRepo, clk, log)
	dealSvc := service.NewDealService(dealRepo, clk, log,
		service.WithDealAttachments(attachmentStorage, signer, cfg.Attachments),
		service.WithDealNotifier(notifications),
		service.WithDealMetrics(metrics),
	)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, equipmentRepo, engineerRepo, repairRepo,
		cfg.Assignment, clk, log,
		service.WithAssignmentNotifier(notifications),
		service.WithAssignmentMetrics(metrics),
	)
	coordinator := service.NewWorkflowCoordinator(dealSvc, assignmentSvc, log)
	offerSvc := service.NewOfferService(offerRepo, cfg.Offers, clk, log,
		service.WithOfferAcceptedSink(coordinator),
		service.WithOfferNotifier(notifications),
		service.WithOfferMetrics(metrics),
	)
	repairSvc := service.NewRepairService(repairRepo, clk, log,
		service.WithRepairCreatedSink(coordinator),
		service.WithRepairNotifier(notifications),
	)
	statsSvc := service.NewStatsService(statsRepo, cacheRepo, cfg.Stats, clk, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notifications.Start(ctx)
	defer notifications.Stop()

	router := handler.NewRouter(cfg, log, handler.Services{
		Auth:          authSvc,
		AuthEndpoints: handler.NewAuthHandler(authSvc),
		Offers:        handler.NewOfferHandler(offerSvc),
		Deals:         handler.NewDealHandler(dealSvc, attachmentStorage),
		Repairs:       handler.NewRepairHandler(repairSvc, assignmentSvc),
		Engineers:     handler.NewEngineerHandler(engineerSvc),
		Clients:       handler.NewClientHandler(clientSvc),
		Stats:         handler.NewStatsHandler(statsSvc, notifications),
		Metrics:       metrics,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.Int("port", cfg.Port), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := cacheRepo.Close(); err != nil {
		log.Warn("failed to close redis", zap.Error(err))
	}
	return nil
}
