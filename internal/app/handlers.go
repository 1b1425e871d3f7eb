package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/aleator-backend/internal/http"
	httpH "github.com/yungbote/aleator-backend/internal/http/handlers"
	httpMW "github.com/yungbote/aleator-backend/internal/http/middleware"
	"github.com/yungbote/aleator-backend/internal/observability"
	"github.com/yungbote/aleator-backend/internal/pkg/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health    *httpH.HealthHandler
	Stats     *httpH.StatsHandler
	Decision  *httpH.DecisionHandler
	Roll      *httpH.RollHandler
	Analytics *httpH.AnalyticsHandler
}

func wireHandlers(log *logger.Logger, services Services, db httpH.Pinger) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    httpH.NewHealthHandler(db),
		Stats:     httpH.NewStatsHandler(log, services.Stats),
		Decision:  httpH.NewDecisionHandler(log, services.Decisions),
		Roll:      httpH.NewRollHandler(log, services.Rolls),
		Analytics: httpH.NewAnalyticsHandler(log, services.Analytics),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:              log,
		ServiceName:      cfg.OtelServiceName,
		TracingEnabled:   cfg.OtelEnabled,
		CORSOrigins:      cfg.CORSOrigins,
		Metrics:          metrics,
		AuthMiddleware:   middleware.Auth,
		HealthHandler:    handlers.Health,
		StatsHandler:     handlers.Stats,
		DecisionHandler:  handlers.Decision,
		RollHandler:      handlers.Roll,
		AnalyticsHandler: handlers.Analytics,
	})
}
