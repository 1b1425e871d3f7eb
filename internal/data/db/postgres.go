package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/aleator-backend/internal/pkg/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Options struct {
	Driver string
	// DSN is used as-is for postgres; for sqlite it is the database file or
	// a "file:...?mode=memory" URI.
	DSN           string
	SlowThreshold time.Duration
	Silent        bool
}

type DatabaseService struct {
	db     *gorm.DB
	driver string
	log    *logger.Logger
}

func NewDatabaseService(logg *logger.Logger, opts Options) (*DatabaseService, error) {
	serviceLog := logg.With("service", "DatabaseService", "driver", opts.Driver)

	db, err := Open(opts)
	if err != nil {
		return nil, err
	}
	serviceLog.Info("Database connected")
	return &DatabaseService{db: db, driver: normalizeDriver(opts.Driver), log: serviceLog}, nil
}

// Open connects with the given driver. Driver errors are translated so a
// unique violation surfaces as gorm.ErrDuplicatedKey.
func Open(opts Options) (*gorm.DB, error) {
	slow := opts.SlowThreshold
	if slow <= 0 {
		slow = time.Second
	}
	level := gormLogger.Warn
	if opts.Silent {
		level = gormLogger.Silent
	}
	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             slow,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	cfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   gormLog,
	}

	switch normalizeDriver(opts.Driver) {
	case DriverPostgres:
		db, err := gorm.Open(postgres.Open(opts.DSN), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
		return db, nil
	case DriverSQLite:
		db, err := gorm.Open(sqlite.Open(opts.DSN), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		// One writer at a time; transactions serialize on the single connection.
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", opts.Driver)
	}
}

// PostgresDSN builds a URL from the discrete POSTGRES_* settings.
func PostgresDSN(host, port, user, password, name, sslMode string) string {
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		user,
		password,
		host,
		port,
		name,
		sslMode,
	)
}

func normalizeDriver(driver string) string {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "postgres", "postgresql", "pg":
		return DriverPostgres
	case "sqlite", "sqlite3":
		return DriverSQLite
	default:
		return strings.ToLower(strings.TrimSpace(driver))
	}
}

func (s *DatabaseService) DB() *gorm.DB { return s.db }

func (s *DatabaseService) Driver() string { return s.driver }

func (s *DatabaseService) Migrate() error {
	s.log.Info("Running migrations")
	if err := AutoMigrateAll(s.db); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if err := EnsureRollIndexes(s.db); err != nil {
		return err
	}
	return nil
}

func (s *DatabaseService) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
