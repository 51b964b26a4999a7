package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/learnquest-backend/internal/http/handlers"
	httpMW "github.com/yungbote/learnquest-backend/internal/http/middleware"
	"github.com/yungbote/learnquest-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware

	ProgressHandler    *httpH.ProgressHandler
	LeaderboardHandler *httpH.LeaderboardHandler
	AchievementHandler *httpH.AchievementHandler
	HealthHandler      *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.RequestContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Public read models
		if cfg.AchievementHandler != nil {
			api.GET("/achievements", cfg.AchievementHandler.ListCatalog)
		}
		if cfg.LeaderboardHandler != nil {
			api.GET("/leaderboard", cfg.LeaderboardHandler.GetLeaderboard)
		}
	}

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Progression
		if cfg.ProgressHandler != nil {
			protected.POST("/progress/completions", cfg.ProgressHandler.SubmitCompletion)
			protected.GET("/progress/me/stats", cfg.ProgressHandler.GetMyStats)
			protected.GET("/progress/me/records", cfg.ProgressHandler.ListMyRecords)
			protected.GET("/progress/me/achievements", cfg.ProgressHandler.ListMyAchievements)
			protected.PUT("/progress/me/leaderboard-profile", cfg.ProgressHandler.UpdateLeaderboardProfile)
		}
	}

	return r
}
