package observability

import (
	"context"
	"testing"

	"github.com/yungbote/learnquest-backend/internal/platform/config"
)

func TestOtelConfigFromEnv(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "x-team=progress,x-env=dev")
	t.Setenv("OTEL_SAMPLER_RATIO", "0.5")

	var cfg OtelConfig
	if err := config.ParseEnv(&cfg); err != nil {
		t.Fatalf("ParseEnv: %v", err)
	}
	if !cfg.Enabled || cfg.Endpoint != "collector:4318" || cfg.SampleRatio != 0.5 {
		t.Fatalf("config: got=%+v", cfg)
	}
	if cfg.ServiceName != "learnquest" {
		t.Fatalf("service default: got=%q", cfg.ServiceName)
	}
	if cfg.Headers["x-team"] != "progress" || cfg.Headers["x-env"] != "dev" {
		t.Fatalf("headers: got=%v", cfg.Headers)
	}
}

func TestClampRatio(t *testing.T) {
	cases := map[float64]float64{-1: 0, 0.25: 0.25, 3: 1}
	for in, want := range cases {
		if got := clampRatio(in); got != want {
			t.Fatalf("clampRatio(%v): want=%v got=%v", in, want, got)
		}
	}
}

func TestInitOTelDisabledIsNoop(t *testing.T) {
	shutdown := InitOTel(context.Background(), nil, OtelConfig{})
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
