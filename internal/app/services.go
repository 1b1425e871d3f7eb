package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/aleator-backend/internal/clients/redis"
	"github.com/yungbote/aleator-backend/internal/data/store"
	"github.com/yungbote/aleator-backend/internal/engine"
	"github.com/yungbote/aleator-backend/internal/observability"
	"github.com/yungbote/aleator-backend/internal/pkg/logger"
	"github.com/yungbote/aleator-backend/internal/services"
)

type Services struct {
	Engine    *engine.Engine
	Auth      services.AuthService
	Decisions services.DecisionService
	Rolls     services.RollService
	Analytics services.AnalyticsService
	Stats     services.StatsService

	redisCache *redis.StatsCache
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")
	limits := services.Limits{
		MaxDecisionsPerUser: cfg.MaxDecisionsPerUser,
		MaxRollsPerUser:     cfg.MaxRollsPerUser,
		TimelinePoints:      cfg.TimelinePoints,
	}
	eng := engine.New(
		store.NewDecisionStore(db, log, r.Decision, r.Roll, r.WeightHistory),
		engine.WithLogger(log),
	)

	out := Services{
		Engine:    eng,
		Auth:      services.NewAuthService(log, cfg.JWTSecretKey),
		Decisions: services.NewDecisionService(db, log, r.Decision, r.WeightHistory, limits),
		Rolls:     services.NewRollService(log, eng, r.Decision, r.Roll, limits, metrics),
		Analytics: services.NewAnalyticsService(log, eng, r.Decision, r.Roll, limits),
	}

	var cache services.StatsCache
	if cfg.RedisAddr != "" {
		rc, err := redis.NewStatsCache(log, redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			log.Warn("Redis stats cache unavailable, using in-process cache", "error", err)
		} else {
			out.redisCache = rc
			cache = rc
		}
	}
	out.Stats = services.NewStatsService(log, r.Decision, r.Roll, cache, cfg.StatsCacheTTL)
	return out
}

func (s *Services) Close() {
	if s.redisCache != nil {
		_ = s.redisCache.Close()
		s.redisCache = nil
	}
}
