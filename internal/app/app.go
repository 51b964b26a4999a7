package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	redisclient "github.com/yungbote/learnquest-backend/internal/clients/redis"
	"github.com/yungbote/learnquest-backend/internal/db"
	httpapi "github.com/yungbote/learnquest-backend/internal/http"
	httpH "github.com/yungbote/learnquest-backend/internal/http/handlers"
	httpMW "github.com/yungbote/learnquest-backend/internal/http/middleware"
	"github.com/yungbote/learnquest-backend/internal/modules/progression"
	"github.com/yungbote/learnquest-backend/internal/observability"
	"github.com/yungbote/learnquest-backend/internal/platform/identity"
	"github.com/yungbote/learnquest-backend/internal/platform/logger"
)

type App struct {
	Log    *logger.Logger
	DB     *gorm.DB
	Cfg    Config
	Engine *progression.Engine
	Server *httpapi.Server

	redis        *goredis.Client
	otelShutdown func(context.Context) error
}

// New loads configuration, opens storage and wires the progression engine behind the HTTP API.
func New(ctx context.Context) (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a, err := NewWithConfig(ctx, cfg, log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

func NewWithConfig(ctx context.Context, cfg Config, log *logger.Logger) (*App, error) {
	a := &App{Log: log, Cfg: cfg}
	a.otelShutdown = observability.InitOTel(ctx, log, cfg.Otel)

	theDB, err := db.Open(cfg.DB, log)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.DB = theDB
	if err := db.AutoMigrate(theDB, log); err != nil {
		a.Close(ctx)
		return nil, err
	}

	var cache progression.LeaderboardCache
	if cfg.RedisAddr != "" {
		rdb, err := redisclient.NewClient(ctx, redisclient.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			// The leaderboard falls back to SQL without a cache.
			log.Warn("Redis unavailable, leaderboard cache disabled", "error", err)
		} else {
			a.redis = rdb
			cache = redisclient.NewLeaderboardCache(rdb, cfg.LeaderboardCacheTTL, log)
		}
	}

	catalog, err := progression.LoadCatalog(cfg.AchievementCatalogPath, progression.DefaultPredicates())
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("load achievement catalog: %w", err)
	}
	log.Info("Achievement catalog loaded", "achievements", catalog.Len(), "path", cfg.AchievementCatalogPath)

	engine, err := progression.NewEngine(progression.EngineDeps{
		DB:              theDB,
		Log:             log,
		Catalog:         catalog,
		Cache:           cache,
		DuplicateWindow: cfg.DuplicateWindow,
		MaxBackdate:     cfg.MaxBackdate,
	})
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("init progression engine: %w", err)
	}
	a.Engine = engine

	verifier, err := identity.NewVerifier(cfg.JWTSecretKey, cfg.JWTIssuer)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("init token verifier: %w", err)
	}

	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	a.Server = httpapi.NewServer(httpapi.RouterConfig{
		Log:                log,
		ServiceName:        serviceName,
		CORSOrigins:        cfg.CORSOrigins,
		AuthMiddleware:     httpMW.NewAuthMiddleware(log, verifier),
		ProgressHandler:    httpH.NewProgressHandler(log, engine),
		LeaderboardHandler: httpH.NewLeaderboardHandler(log, engine),
		AchievementHandler: httpH.NewAchievementHandler(engine),
		HealthHandler:      httpH.NewHealthHandler(theDB),
	})
	return a, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Starting server...", "address", a.Cfg.Address())
	return a.Server.Run(ctx, a.Cfg.Address())
}

func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("OTel shutdown failed", "error", err)
		}
		a.otelShutdown = nil
	}
	if a.redis != nil {
		_ = a.redis.Close()
		a.redis = nil
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
