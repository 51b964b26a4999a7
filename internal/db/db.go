package db

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	types "github.com/yungbote/learnquest-backend/internal/domain/progression"
	"github.com/yungbote/learnquest-backend/internal/platform/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver string `env:"DB_DRIVER" envDefault:"postgres"`

	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PostgresName     string `env:"POSTGRES_NAME" envDefault:"learnquest"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	SQLitePath string `env:"SQLITE_PATH" envDefault:"learnquest.db"`

	MaxOpenConns int  `env:"DB_MAX_OPEN_CONNS" envDefault:"20"`
	LogQueries   bool `env:"DB_LOG_QUERIES" envDefault:"false"`
}

func (c Config) postgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     c.PostgresHost + ":" + c.PostgresPort,
		Path:     "/" + c.PostgresName,
		RawQuery: "sslmode=" + url.QueryEscape(c.PostgresSSLMode),
	}
	return u.String()
}

func (c Config) sqliteDSN() string {
	path := strings.TrimSpace(c.SQLitePath)
	if strings.HasPrefix(path, "file:") {
		return path
	}
	return "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL"
}

// Open connects with the configured driver.
func Open(cfg Config, log *logger.Logger) (*gorm.DB, error) {
	serviceLog := log.With("service", "Database")
	gcfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Warn),
	}
	if cfg.LogQueries {
		gcfg.Logger = gormLogger.Default.LogMode(gormLogger.Info)
	}

	var (
		db  *gorm.DB
		err error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverPostgres, "":
		serviceLog.Info("Connecting to Postgres...", "host", cfg.PostgresHost, "db", cfg.PostgresName)
		db, err = gorm.Open(postgres.Open(cfg.postgresDSN()), gcfg)
	case DriverSQLite:
		serviceLog.Info("Opening SQLite database...", "path", cfg.SQLitePath)
		db, err = gorm.Open(sqlite.Open(cfg.sqliteDSN()), gcfg)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
	if err != nil {
		serviceLog.Error("Failed to open database", "error", err)
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	if db.Dialector.Name() == DriverSQLite {
		// SQLite allows one writer; a single connection serializes them without SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	}
	return db, nil
}

// AutoMigrate creates or updates every progression table.
func AutoMigrate(db *gorm.DB, log *logger.Logger) error {
	log.Info("Auto migrating progression tables...")
	if err := db.AutoMigrate(types.Models()...); err != nil {
		log.Error("Auto migration failed", "error", err)
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
