package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/soitmed/medops-api/internal/models"
	"github.com/soitmed/medops-api/pkg/clock"
	"github.com/soitmed/medops-api/pkg/config"
	appErrors "github.com/soitmed/medops-api/pkg/errors"
)

const statsCacheKey = "stats:dashboard"

// StatsSource reads the aggregate pipeline counts.
type StatsSource interface {
	OfferCounts(ctx context.Context) ([]models.StatusCount, error)
	DealCounts(ctx context.Context) ([]models.StatusCount, error)
	RepairCounts(ctx context.Context) ([]models.StatusCount, error)
	EngineerWorkloads(ctx context.Context) ([]models.EngineerWorkload, error)
}

// StatsCache stores rendered dashboard payloads.
type StatsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// StatsService serves the operations dashboard, cached in Redis. Cache
// failures degrade to a direct read; they never fail the request.
type StatsService struct {
	source  StatsSource
	cache   StatsCache
	ttl     time.Duration
	enabled bool
	clock   clock.Clock
	logger  *zap.Logger
}

// NewStatsService constructs the service.
func NewStatsService(source StatsSource, cache StatsCache, cfg config.StatsConfig, clk clock.Clock, logger *zap.Logger) *StatsService {
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{
		source:  source,
		cache:   cache,
		ttl:     cfg.CacheTTL,
		enabled: cfg.Enabled,
		clock:   clk,
		logger:  logger,
	}
}

// Dashboard returns pipeline counts, served from cache when fresh.
func (s *StatsService) Dashboard(ctx context.Context) (*models.OpsStats, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrInvalidOperation, "stats are disabled")
	}

	if s.cache != nil {
		var cached models.OpsStats
		err := s.cache.Get(ctx, statsCacheKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Sugar().Warnw("stats cache read failed", "error", err)
		}
	}

	stats, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, statsCacheKey, stats, s.ttl); err != nil {
			s.logger.Sugar().Warnw("stats cache write failed", "error", err)
		}
	}
	return stats, nil
}

func (s *StatsService) collect(ctx context.Context) (*models.OpsStats, error) {
	stats := &models.OpsStats{GeneratedAt: s.clock.Now()}
	var err error
	if stats.Offers, err = s.source.OfferCounts(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count offers")
	}
	if stats.Deals, err = s.source.DealCounts(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count deals")
	}
	if stats.Repairs, err = s.source.RepairCounts(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count repairs")
	}
	if stats.Engineers, err = s.source.EngineerWorkloads(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read workloads")
	}
	return stats, nil
}
