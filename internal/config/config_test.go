package config

import (
	"testing"
	"time"
)

func TestLoadDefaultsWithFakeGateways(t *testing.T) {
	t.Setenv("APP_USE_FAKE_GATEWAYS", "1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want :8080", cfg.BindAddr)
	}
	if cfg.CallInactivityTimeout != 2*time.Minute {
		t.Fatalf("CallInactivityTimeout = %s, want 2m", cfg.CallInactivityTimeout)
	}
	if !cfg.UseFakeGateways {
		t.Fatalf("UseFakeGateways = false, want true")
	}
}

func TestLoadRequiresKeysForRealGateways(t *testing.T) {
	t.Setenv("APP_USE_FAKE_GATEWAYS", "0")
	t.Setenv("TRANSCRIPTION_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() expected error without upstream API keys")
	}
}

func TestLoadRejectsShortInactivityTimeout(t *testing.T) {
	t.Setenv("APP_USE_FAKE_GATEWAYS", "1")
	t.Setenv("APP_CALL_INACTIVITY_TIMEOUT", "1s")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() expected error for 1s inactivity timeout")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("APP_USE_FAKE_GATEWAYS", "yes")
	t.Setenv("APP_BIND_ADDR", ":9191")
	t.Setenv("APP_CALL_INACTIVITY_TIMEOUT", "45s")
	t.Setenv("APP_ALLOW_ANY_ORIGIN", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9191" {
		t.Fatalf("BindAddr = %q", cfg.BindAddr)
	}
	if cfg.CallInactivityTimeout != 45*time.Second {
		t.Fatalf("CallInactivityTimeout = %s", cfg.CallInactivityTimeout)
	}
	if !cfg.AllowAnyOrigin {
		t.Fatalf("AllowAnyOrigin = false, want true")
	}
}
