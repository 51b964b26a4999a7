package db

import (
	"path/filepath"
	"strings"
	"testing"

	types "github.com/yungbote/learnquest-backend/internal/domain/progression"
	"github.com/yungbote/learnquest-backend/internal/platform/logger"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	cfg := Config{Driver: DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "lq.db")}
	db, err := Open(cfg, logger.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := AutoMigrate(db, logger.Nop()); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	for _, m := range types.Models() {
		if !db.Migrator().HasTable(m) {
			t.Fatalf("missing table for %T", m)
		}
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "mysql"}, logger.Nop()); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestPostgresDSNEscapesPassword(t *testing.T) {
	cfg := Config{
		PostgresHost:     "db",
		PostgresPort:     "5432",
		PostgresUser:     "lq",
		PostgresPassword: "p@ss/word",
		PostgresName:     "learnquest",
		PostgresSSLMode:  "require",
	}
	dsn := cfg.postgresDSN()
	if !strings.HasPrefix(dsn, "postgres://lq:p%40ss%2Fword@db:5432/learnquest") || !strings.HasSuffix(dsn, "sslmode=require") {
		t.Fatalf("dsn: got=%s", dsn)
	}
}
