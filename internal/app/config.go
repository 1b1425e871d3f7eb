package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	dbpkg "github.com/yungbote/aleator-backend/internal/data/db"
)

type Config struct {
	LogMode     string `env:"LOG_MODE" envDefault:"development"`
	Environment string `env:"APP_ENV" envDefault:"development"`
	Version     string `env:"APP_VERSION" envDefault:"dev"`
	Port        string `env:"PORT" envDefault:"8080"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	DBDriver       string        `env:"DB_DRIVER" envDefault:"postgres"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	PostgresHost   string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort   string        `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser   string        `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPass   string        `env:"POSTGRES_PASSWORD"`
	PostgresName   string        `env:"POSTGRES_NAME" envDefault:"aleator"`
	PostgresSSL    string        `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	SQLitePath     string        `env:"SQLITE_PATH" envDefault:"aleator.db"`
	DBAutoMigrate  bool          `env:"DB_AUTO_MIGRATE" envDefault:"true"`
	DBSlowQueryLog time.Duration `env:"DB_SLOW_QUERY_THRESHOLD" envDefault:"200ms"`

	JWTSecretKey string   `env:"JWT_SECRET_KEY"`
	CORSOrigins  []string `env:"CORS_ORIGINS" envSeparator:","`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	StatsCacheTTL time.Duration `env:"STATS_CACHE_TTL" envDefault:"1h"`

	MaxDecisionsPerUser int64 `env:"MAX_DECISIONS_PER_USER" envDefault:"100"`
	MaxRollsPerUser     int64 `env:"MAX_ROLLS_PER_USER" envDefault:"1000000"`
	TimelinePoints      int   `env:"TIMELINE_POINTS" envDefault:"10"`

	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`

	OtelEnabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OtelServiceName string  `env:"OTEL_SERVICE_NAME" envDefault:"aleator"`
	OtelEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelHeaders     string  `env:"OTEL_EXPORTER_OTLP_HEADERS"`
	OtelInsecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"false"`
	OtelSampleRatio float64 `env:"OTEL_SAMPLER_RATIO" envDefault:"0.1"`
}

// LoadConfig reads an optional .env file, then the process environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.DBDriver)) {
	case "postgres", "postgresql", "pg", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
	}
	if c.MaxDecisionsPerUser <= 0 || c.MaxRollsPerUser <= 0 || c.TimelinePoints <= 0 {
		return fmt.Errorf("limits must be positive")
	}
	return nil
}

// DatabaseOptions resolves the driver and DSN. DATABASE_URL wins over the
// POSTGRES_* parts.
func (c Config) DatabaseOptions() dbpkg.Options {
	opts := dbpkg.Options{Driver: c.DBDriver, SlowThreshold: c.DBSlowQueryLog}
	switch strings.ToLower(strings.TrimSpace(c.DBDriver)) {
	case "sqlite", "sqlite3":
		opts.DSN = c.SQLitePath
	default:
		opts.DSN = c.DatabaseURL
		if opts.DSN == "" {
			opts.DSN = dbpkg.PostgresDSN(c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPass, c.PostgresName, c.PostgresSSL)
		}
	}
	return opts
}
