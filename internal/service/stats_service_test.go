package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soitmed/medops-api/internal/models"
	"github.com/soitmed/medops-api/pkg/clock"
	"github.com/soitmed/medops-api/pkg/config"
	appErrors "github.com/soitmed/medops-api/pkg/errors"
)

type statsSourceStub struct {
	calls int
	err   error
}

func (s *statsSourceStub) OfferCounts(_ context.Context) ([]models.StatusCount, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []models.StatusCount{{Status: "SENT", Count: 4}}, nil
}

func (s *statsSourceStub) DealCounts(_ context.Context) ([]models.StatusCount, error) {
	return []models.StatusCount{{Status: "PENDING_MANAGER_APPROVAL", Count: 2}}, nil
}

func (s *statsSourceStub) RepairCounts(_ context.Context) ([]models.StatusCount, error) {
	return []models.StatusCount{{Status: "PENDING", Count: 1}}, nil
}

func (s *statsSourceStub) EngineerWorkloads(_ context.Context) ([]models.EngineerWorkload, error) {
	return []models.EngineerWorkload{{EngineerID: "e1", FullName: "Engineer One", Workload: 3}}, nil
}

type statsCacheStub struct {
	stored *models.OpsStats
	getErr error
	setErr error
}

func (s *statsCacheStub) Get(_ context.Context, _ string, dest interface{}) error {
	if s.getErr != nil {
		return s.getErr
	}
	if s.stored == nil {
		return appErrors.ErrCacheMiss
	}
	*dest.(*models.OpsStats) = *s.stored
	return nil
}

func (s *statsCacheStub) Set(_ context.Context, _ string, value interface{}, _ time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	stats := value.(*models.OpsStats)
	copied := *stats
	s.stored = &copied
	return nil
}

var statsCfg = config.StatsConfig{Enabled: true, CacheTTL: time.Minute}

func TestStatsDashboardPopulatesCacheOnMiss(t *testing.T) {
	source := &statsSourceStub{}
	cache := &statsCacheStub{}
	svc := NewStatsService(source, cache, statsCfg, clock.Fixed(fixedNow()), nil)

	stats, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls)
	assert.Equal(t, fixedNow(), stats.GeneratedAt)
	require.NotNil(t, cache.stored, "a fresh read must populate the cache")

	_, err = svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls, "the second read must come from cache")
}

func TestStatsDashboardDegradesOnCacheFailure(t *testing.T) {
	source := &statsSourceStub{}
	cache := &statsCacheStub{getErr: errors.New("redis down"), setErr: errors.New("redis down")}
	svc := NewStatsService(source, cache, statsCfg, clock.Fixed(fixedNow()), nil)

	stats, err := svc.Dashboard(context.Background())
	require.NoError(t, err, "cache failures must never fail the request")
	require.Len(t, stats.Offers, 1)
	assert.Equal(t, 4, stats.Offers[0].Count)
}

func TestStatsDashboardWithoutCache(t *testing.T) {
	source := &statsSourceStub{}
	svc := NewStatsService(source, nil, statsCfg, clock.Fixed(fixedNow()), nil)

	stats, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	require.Len(t, stats.Engineers, 1)
	assert.Equal(t, "e1", stats.Engineers[0].EngineerID)
}

func TestStatsDashboardDisabled(t *testing.T) {
	svc := NewStatsService(&statsSourceStub{}, nil, config.StatsConfig{Enabled: false}, clock.Fixed(fixedNow()), nil)

	_, err := svc.Dashboard(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidOperation.Code))
}

func TestStatsDashboardSourceErrorSurfaces(t *testing.T) {
	source := &statsSourceStub{err: errors.New("db down")}
	svc := NewStatsService(source, nil, statsCfg, clock.Fixed(fixedNow()), nil)

	_, err := svc.Dashboard(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInternal.Code))
}
