package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/learnquest-backend/internal/platform/identity"
	"github.com/yungbote/learnquest-backend/internal/platform/logger"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "app.db"))
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("OTEL_ENABLED", "false")
}

func TestLoadConfigDefaults(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("Address: want=:8080 got=%s", cfg.Address())
	}
	if cfg.DuplicateWindow != 2*time.Minute {
		t.Fatalf("DuplicateWindow: want=2m got=%v", cfg.DuplicateWindow)
	}
	if cfg.MaxBackdate != 24*time.Hour {
		t.Fatalf("MaxBackdate: want=24h got=%v", cfg.MaxBackdate)
	}
	if cfg.LeaderboardCacheTTL != 30*time.Second {
		t.Fatalf("LeaderboardCacheTTL: want=30s got=%v", cfg.LeaderboardCacheTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("CORSOrigins: got=%v", cfg.CORSOrigins)
	}
	if cfg.DB.Driver != "sqlite" {
		t.Fatalf("DB.Driver: want=sqlite got=%s", cfg.DB.Driver)
	}
	if cfg.Otel.ServiceName != "learnquest" {
		t.Fatalf("Otel.ServiceName: want=learnquest got=%s", cfg.Otel.ServiceName)
	}
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_SECRET_KEY", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error without JWT_SECRET_KEY")
	}
}

func TestLoadConfigRejectsNegativeWindow(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DUPLICATE_WINDOW", "-1s")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for negative DUPLICATE_WINDOW")
	}
}

func TestLoadConfigRejectsZeroBackdate(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("MAX_BACKDATE", "0s")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for zero MAX_BACKDATE")
	}
}

func TestNewWithConfigServesAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)
	setBaseEnv(t)
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	ctx := context.Background()
	a, err := NewWithConfig(ctx, cfg, logger.Nop())
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	t.Cleanup(func() { a.Close(ctx) })

	w := httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("healthcheck: want=200 got=%d", w.Code)
	}

	w = httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/progress/me/stats", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("stats without token: want=401 got=%d", w.Code)
	}

	v, err := identity.NewVerifier(cfg.JWTSecretKey, cfg.JWTIssuer)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	tok, err := v.Mint(uuid.New(), time.Hour)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/progress/me/stats", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("stats with token: want=200 got=%d body=%s", w.Code, w.Body.String())
	}
}
