package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/aleator-backend/internal/data/repos"
	types "github.com/yungbote/aleator-backend/internal/domain"
	"github.com/yungbote/aleator-backend/internal/pkg/dbctx"
	"github.com/yungbote/aleator-backend/internal/pkg/logger"
)

// StatsCache stores the last computed site stats. Get reports false on a
// miss or an expired entry.
type StatsCache interface {
	Get(ctx context.Context) (*types.SiteStats, bool, error)
	Set(ctx context.Context, stats *types.SiteStats, ttl time.Duration) error
}

type SiteStatsResponse struct {
	*types.SiteStats
	UptimeSeconds int64 `json:"uptime_seconds"`
}

type StatsService interface {
	Get(ctx context.Context) (*SiteStatsResponse, error)
}

type statsService struct {
	log       *logger.Logger
	decisions repos.DecisionRepo
	rolls     repos.RollRepo
	cache     StatsCache
	ttl       time.Duration
	started   time.Time
	now       func() time.Time
}

func NewStatsService(log *logger.Logger, decisions repos.DecisionRepo, rolls repos.RollRepo, cache StatsCache, ttl time.Duration) StatsService {
	if cache == nil {
		cache = NewMemoryStatsCache()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	now := func() time.Time { return time.Now().UTC() }
	return &statsService{
		log:       log.With("service", "StatsService"),
		decisions: decisions,
		rolls:     rolls,
		cache:     cache,
		ttl:       ttl,
		started:   now(),
		now:       now,
	}
}

func (s *statsService) Get(ctx context.Context) (*SiteStatsResponse, error) {
	stats, ok, err := s.cache.Get(ctx)
	if err != nil {
		s.log.Warn("Stats cache read failed", "error", err)
	}
	if !ok {
		stats, err = s.compute(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, stats, s.ttl); err != nil {
			s.log.Warn("Stats cache write failed", "error", err)
		}
	}
	return &SiteStatsResponse{SiteStats: stats, UptimeSeconds: int64(s.now().Sub(s.started).Seconds())}, nil
}

func (s *statsService) compute(ctx context.Context) (*types.SiteStats, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	out := &types.SiteStats{GeneratedAt: now}

	g, gctx := errgroup.WithContext(ctx)
	dbc := dbctx.Context{Ctx: gctx}
	counts := []struct {
		dst *int64
		fn  func() (int64, error)
	}{
		{&out.TotalDecisions, func() (int64, error) { return s.decisions.CountAll(dbc) }},
		{&out.TotalRolls, func() (int64, error) { return s.rolls.CountAll(dbc) }},
		{&out.TotalOwners, func() (int64, error) { return s.decisions.CountDistinctOwners(dbc) }},
		{&out.DecisionsToday, func() (int64, error) { return s.decisions.CountCreatedSince(dbc, today) }},
		{&out.RollsToday, func() (int64, error) { return s.rolls.CountCreatedSince(dbc, today) }},
		{&out.ActiveOwnersToday, func() (int64, error) { return s.rolls.CountActiveOwnersSince(dbc, today) }},
	}
	for _, c := range counts {
		c := c
		g.Go(func() error {
			n, err := c.fn()
			if err != nil {
				return err
			}
			*c.dst = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("compute site stats: %w", err)
	}
	return out, nil
}

type memoryStatsCache struct {
	mu      sync.Mutex
	stats   *types.SiteStats
	expires time.Time
	now     func() time.Time
}

// NewMemoryStatsCache keeps stats in process; used when Redis is not set up.
func NewMemoryStatsCache() StatsCache {
	return &memoryStatsCache{now: time.Now}
}

func (c *memoryStatsCache) Get(ctx context.Context) (*types.SiteStats, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stats == nil || !c.now().Before(c.expires) {
		return nil, false, nil
	}
	cp := *c.stats
	return &cp, true, nil
}

func (c *memoryStatsCache) Set(ctx context.Context, stats *types.SiteStats, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *stats
	c.stats = &cp
	c.expires = c.now().Add(ttl)
	return nil
}
