package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/aleator-backend/internal/http/handlers"
	httpMW "github.com/yungbote/aleator-backend/internal/http/middleware"
	"github.com/yungbote/aleator-backend/internal/observability"
	"github.com/yungbote/aleator-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	TracingEnabled bool
	CORSOrigins    []string
	Metrics        *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler    *httpH.HealthHandler
	StatsHandler     *httpH.StatsHandler
	DecisionHandler  *httpH.DecisionHandler
	RollHandler      *httpH.RollHandler
	AnalyticsHandler *httpH.AnalyticsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	if cfg.StatsHandler != nil {
		api.GET("/stats", cfg.StatsHandler.Get)
	}

	protected := api.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}

	// Decisions
	if h := cfg.DecisionHandler; h != nil {
		protected.GET("/decisions", h.List)
		protected.POST("/decisions", h.Create)
		protected.POST("/decisions/reorder", h.Reorder)
		protected.GET("/decisions/:id", h.Get)
		protected.PUT("/decisions/:id", h.Update)
		protected.DELETE("/decisions/:id", h.Delete)
		protected.GET("/decisions/:id/history", h.History)
	}

	// Rolls
	if h := cfg.RollHandler; h != nil {
		protected.POST("/decisions/:id/draft", h.AdjustDraft)
		protected.POST("/decisions/:id/roll", h.Roll)
		protected.GET("/decisions/:id/pending-roll", h.PendingRoll)
		protected.GET("/decisions/:id/status", h.Status)
		protected.POST("/decisions/:id/rolls/:roll_id/confirm", h.Confirm)
	}

	// Analytics
	if h := cfg.AnalyticsHandler; h != nil {
		protected.GET("/decisions/:id/analytics", h.Decision)
		protected.GET("/analytics/overview", h.Overview)
	}

	return r
}
