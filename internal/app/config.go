package app

import (
	"fmt"
	"time"

	"github.com/yungbote/learnquest-backend/internal/db"
	"github.com/yungbote/learnquest-backend/internal/observability"
	"github.com/yungbote/learnquest-backend/internal/platform/config"
)

type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	LogMode string `env:"LOG_MODE" envDefault:"development"`

	DB db.Config

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecretKey string `env:"JWT_SECRET_KEY,notEmpty"`
	JWTIssuer    string `env:"JWT_ISSUER"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`

	// Empty uses the built-in catalog.
	AchievementCatalogPath string        `env:"ACHIEVEMENT_CATALOG_PATH"`
	DuplicateWindow        time.Duration `env:"DUPLICATE_WINDOW" envDefault:"2m"`
	MaxBackdate            time.Duration `env:"MAX_BACKDATE" envDefault:"24h"`
	LeaderboardCacheTTL    time.Duration `env:"LEADERBOARD_CACHE_TTL" envDefault:"30s"`

	Otel observability.OtelConfig
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.DuplicateWindow < 0 {
		return Config{}, fmt.Errorf("DUPLICATE_WINDOW must not be negative")
	}
	if cfg.MaxBackdate <= 0 {
		return Config{}, fmt.Errorf("MAX_BACKDATE must be positive")
	}
	if cfg.LeaderboardCacheTTL <= 0 {
		return Config{}, fmt.Errorf("LEADERBOARD_CACHE_TTL must be positive")
	}
	return cfg, nil
}

func (c Config) Address() string {
	return ":" + c.Port
}
