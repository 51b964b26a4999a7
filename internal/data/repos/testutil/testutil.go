package testutil

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	types "github.com/yungbote/learnquest-backend/internal/domain/progression"
	"github.com/yungbote/learnquest-backend/internal/platform/logger"
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	return logger.Nop()
}

// DB returns a migrated database private to the test. TEST_POSTGRES_DSN selects Postgres;
// otherwise each test gets its own in-memory SQLite database.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	cfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	}

	var (
		db  *gorm.DB
		err error
	)
	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	} else {
		name := fmt.Sprintf("file:lq_%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
		db, err = gorm.Open(sqlite.Open(name), cfg)
	}
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("test db handle: %v", err)
	}
	if db.Dialector.Name() == "sqlite" {
		// One connection keeps the in-memory database alive and serializes writers.
		sqlDB.SetMaxOpenConns(1)
	}
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(types.Models()...); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	if db.Dialector.Name() == "postgres" {
		truncateAll(tb, db)
	}
	return db
}

func truncateAll(tb testing.TB, db *gorm.DB) {
	tb.Helper()
	for _, m := range types.Models() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			tb.Fatalf("parse model: %v", err)
		}
		if err := db.Exec("TRUNCATE TABLE " + stmt.Schema.Table).Error; err != nil {
			tb.Fatalf("truncate %s: %v", stmt.Schema.Table, err)
		}
	}
}

// Tx opens a transaction that is rolled back when the test ends.
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

func PtrUUID(id uuid.UUID) *uuid.UUID { return &id }

// Day returns midday UTC on the given date, far from any day boundary.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

// SeedStats inserts a user_stats row with the given totals.
func SeedStats(tb testing.TB, db *gorm.DB, userID uuid.UUID, totalXP int, name string) *types.UserStats {
	tb.Helper()
	row := types.NewUserStats(userID, time.Now().UTC())
	row.TotalXP = totalXP
	row.Level = types.LevelForXP(totalXP)
	row.DisplayName = name
	if err := db.Create(row).Error; err != nil {
		tb.Fatalf("seed user_stats: %v", err)
	}
	return row
}
