package testutil

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"gorm.io/gorm"

	dbpkg "github.com/yungbote/aleator-backend/internal/data/db"
	"github.com/yungbote/aleator-backend/internal/pkg/logger"
)

var (
	pgOnce sync.Once
	pgDB   *gorm.DB
	pgErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error

	sqliteSeq atomic.Int64
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB returns a migrated database. With TEST_POSTGRES_DSN set every caller
// shares one Postgres connection pool; otherwise each caller gets its own
// in-memory SQLite database.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		pgOnce.Do(func() {
			pgDB, pgErr = dbpkg.Open(dbpkg.Options{Driver: dbpkg.DriverPostgres, DSN: dsn, Silent: true})
			if pgErr != nil {
				return
			}
			pgErr = migrate(pgDB)
		})
		if pgErr != nil {
			tb.Fatalf("failed to init test db: %v", pgErr)
		}
		return pgDB
	}

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", sqliteSeq.Add(1))
	db, err := dbpkg.Open(dbpkg.Options{Driver: dbpkg.DriverSQLite, DSN: dsn, Silent: true})
	if err != nil {
		tb.Fatalf("failed to open sqlite: %v", err)
	}
	if err := migrate(db); err != nil {
		tb.Fatalf("failed to migrate sqlite: %v", err)
	}
	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Isolated reports whether DB hands out a private database, so tests that
// commit real transactions do not leak rows into other tests.
func Isolated() bool {
	return os.Getenv("TEST_POSTGRES_DSN") == ""
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

func migrate(db *gorm.DB) error {
	if err := dbpkg.AutoMigrateAll(db); err != nil {
		return err
	}
	return dbpkg.EnsureRollIndexes(db)
}
