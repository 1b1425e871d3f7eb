package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	dbpkg "github.com/yungbote/aleator-backend/internal/data/db"
	"github.com/yungbote/aleator-backend/internal/http"
	"github.com/yungbote/aleator-backend/internal/observability"
	"github.com/yungbote/aleator-backend/internal/pkg/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *dbpkg.DatabaseService
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Metrics  *observability.Metrics

	otelShutdown func(context.Context) error
}

func init() {
	// Weights travel as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Options trims what New builds; the CLI's migrate and seed commands do not
// need an HTTP stack.
type Options struct {
	SkipHTTP bool
	// Migrate overrides DB_AUTO_MIGRATE when non-nil.
	Migrate *bool
}

func New(ctx context.Context, opts Options) (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if cfg.JWTSecretKey == "" && !opts.SkipHTTP {
		log.Warn("JWT_SECRET_KEY is empty; every authenticated request will be rejected")
	}

	database, err := dbpkg.NewDatabaseService(log, cfg.DatabaseOptions())
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	migrate := cfg.DBAutoMigrate
	if opts.Migrate != nil {
		migrate = *opts.Migrate
	}
	if migrate {
		if err := database.Migrate(); err != nil {
			_ = database.Close()
			log.Sync()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}

	a := &App{Log: log, DB: database, Cfg: cfg}
	if cfg.MetricsEnabled {
		a.Metrics = observability.NewMetrics()
	}
	a.Repos = wireRepos(database.DB(), log)
	a.Services = wireServices(database.DB(), log, cfg, a.Repos, a.Metrics)
	if opts.SkipHTTP {
		return a, nil
	}

	a.otelShutdown = observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.OtelEnabled,
		ServiceName: cfg.OtelServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
		Endpoint:    cfg.OtelEndpoint,
		Headers:     observability.ParseHeaders(cfg.OtelHeaders),
		Insecure:    cfg.OtelInsecure,
		SampleRatio: cfg.OtelSampleRatio,
	})
	if cfg.LogMode == "production" || cfg.LogMode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	sqlDB, err := database.DB().DB()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("database handle: %w", err)
	}
	handlerset := wireHandlers(log, a.Services, sqlDB)
	middleware := wireMiddleware(log, a.Services)
	a.Router = wireRouter(log, cfg, a.Metrics, handlerset, middleware)
	return a, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("Server listening", "addr", addr)
	return http.NewServer(a.Router).Run(ctx, addr, a.Cfg.ShutdownTimeout)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
		a.otelShutdown = nil
	}
	a.Services.Close()
	if a.DB != nil {
		_ = a.DB.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
