package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/clinic_test")
	t.Setenv("ENV", "test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("Port = %q, want 8000", cfg.Port)
	}
	if cfg.VisitClusterWindowHours != 12 {
		t.Errorf("VisitClusterWindowHours = %d, want 12", cfg.VisitClusterWindowHours)
	}
	if cfg.AIModel == "" {
		t.Error("AIModel default missing")
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ENV", "test")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail without DATABASE_URL")
	}
}

func TestVisitClusterWindowFallback(t *testing.T) {
	tests := []struct {
		hours int
		want  time.Duration
	}{
		{12, 12 * time.Hour},
		{24, 24 * time.Hour},
		{0, 12 * time.Hour},
		{-5, 12 * time.Hour},
	}
	for _, tt := range tests {
		cfg := &Config{VisitClusterWindowHours: tt.hours}
		if got := cfg.VisitClusterWindow(); got != tt.want {
			t.Errorf("VisitClusterWindow(%d) = %v, want %v", tt.hours, got, tt.want)
		}
	}
}

func TestValidateProductionNeedsJWTSecret(t *testing.T) {
	cfg := &Config{Env: "production"}
	if err := cfg.Validate(); err == nil {
		t.Error("production config without JWT_SECRET should fail validation")
	}

	cfg.JWTSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestValidateRejectsNegativeWindow(t *testing.T) {
	cfg := &Config{Env: "test", VisitClusterWindowHours: -1}
	if err := cfg.Validate(); err == nil {
		t.Error("negative clustering window should fail validation")
	}
}

func TestAIConfigured(t *testing.T) {
	cfg := &Config{}
	if cfg.AIConfigured() {
		t.Error("AIConfigured() = true without key")
	}
	cfg.AIAPIKey = "sk-test"
	if !cfg.AIConfigured() {
		t.Error("AIConfigured() = false with key")
	}
}
