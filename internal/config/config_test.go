package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("LLM_STUB_MODE", "")
	t.Setenv("LLM_TIMEOUT", "")
	t.Setenv("APP_MODE", "")

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.AppMode != "embedded" {
		t.Errorf("expected app mode embedded, got %s", cfg.AppMode)
	}
	if cfg.LLMModel != "gpt-4o" {
		t.Errorf("expected model gpt-4o, got %s", cfg.LLMModel)
	}
	if cfg.LLMTimeout != 60*time.Second {
		t.Errorf("expected 60s timeout, got %s", cfg.LLMTimeout)
	}
	if !cfg.LLMStubMode {
		t.Errorf("expected stub mode when no API key is configured")
	}
	if cfg.SessionSecret == "" {
		t.Errorf("expected default session secret to be filled in")
	}
	if cfg.SourceRefreshCron != "0 */6 * * *" {
		t.Errorf("expected six-hourly refresh schedule, got %s", cfg.SourceRefreshCron)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_TIMEOUT", "15s")
	t.Setenv("LLM_STUB_MODE", "false")
	t.Setenv("SEED_DEV_DATA", "true")
	t.Setenv("ENV", "production")

	cfg := Load()

	if cfg.LLMStubMode {
		t.Errorf("expected stub mode off when API key is set")
	}
	if cfg.LLMTimeout != 15*time.Second {
		t.Errorf("expected 15s timeout, got %s", cfg.LLMTimeout)
	}
	if !cfg.SeedDevData {
		t.Errorf("expected SeedDevData true")
	}
	if !cfg.IsProduction() {
		t.Errorf("expected production env")
	}
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("LLM_TIMEOUT", "soon")

	if got := getEnvDuration("LLM_TIMEOUT", time.Minute); got != time.Minute {
		t.Errorf("expected fallback of 1m, got %s", got)
	}
}
