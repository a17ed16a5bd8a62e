package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config contains all runtime settings for the companion call service.
type Config struct {
	BindAddr        string
	ShutdownTimeout time.Duration

	CallInactivityTimeout time.Duration
	JanitorInterval       time.Duration

	AllowAnyOrigin bool

	DatabaseURL string

	AuthServiceURL string
	DevAuthToken   string

	TranscriptionURL    string
	TranscriptionAPIKey string
	TranscriptionModel  string

	GenerationURL    string
	GenerationAPIKey string
	GenerationModel  string

	SynthesisBaseURL      string
	SynthesisAPIKey       string
	SynthesisOutputFormat string

	// UseFakeGateways swaps the upstream adapters for deterministic fakes,
	// for local development without any API keys.
	UseFakeGateways bool
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:              envOrDefault("APP_BIND_ADDR", ":8080"),
		ShutdownTimeout:       15 * time.Second,
		CallInactivityTimeout: 2 * time.Minute,
		JanitorInterval:       15 * time.Second,
		DatabaseURL:           envTrimmed("DATABASE_URL"),
		AuthServiceURL:        envTrimmed("AUTH_SERVICE_URL"),
		DevAuthToken:          envTrimmed("DEV_AUTH_TOKEN"),
		TranscriptionURL:      envOrDefault("TRANSCRIPTION_URL", "https://api.openai.com/v1/audio/transcriptions"),
		TranscriptionAPIKey:   envTrimmed("TRANSCRIPTION_API_KEY"),
		TranscriptionModel:    envOrDefault("TRANSCRIPTION_MODEL", "whisper-1"),
		GenerationURL:         envOrDefault("GENERATION_URL", "https://api.openai.com/v1/chat/completions"),
		GenerationAPIKey:      envTrimmed("GENERATION_API_KEY"),
		GenerationModel:       envOrDefault("GENERATION_MODEL", "gpt-4o-mini"),
		SynthesisBaseURL:      envOrDefault("SYNTHESIS_BASE_URL", "https://api.elevenlabs.io"),
		SynthesisAPIKey:       envTrimmed("SYNTHESIS_API_KEY"),
		SynthesisOutputFormat: envOrDefault("SYNTHESIS_OUTPUT_FORMAT", "mp3_44100_128"),
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.CallInactivityTimeout, err = durationFromEnv("APP_CALL_INACTIVITY_TIMEOUT", cfg.CallInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.JanitorInterval, err = durationFromEnv("APP_JANITOR_INTERVAL", cfg.JanitorInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", false)
	if err != nil {
		return Config{}, err
	}
	cfg.UseFakeGateways, err = boolFromEnv("APP_USE_FAKE_GATEWAYS", false)
	if err != nil {
		return Config{}, err
	}

	if cfg.CallInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_CALL_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.JanitorInterval <= 0 {
		return Config{}, fmt.Errorf("APP_JANITOR_INTERVAL must be positive")
	}
	if !cfg.UseFakeGateways {
		if cfg.TranscriptionAPIKey == "" {
			return Config{}, fmt.Errorf("TRANSCRIPTION_API_KEY is required (or set APP_USE_FAKE_GATEWAYS=1)")
		}
		if cfg.GenerationAPIKey == "" {
			return Config{}, fmt.Errorf("GENERATION_API_KEY is required (or set APP_USE_FAKE_GATEWAYS=1)")
		}
		if cfg.SynthesisAPIKey == "" {
			return Config{}, fmt.Errorf("SYNTHESIS_API_KEY is required (or set APP_USE_FAKE_GATEWAYS=1)")
		}
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(envTrimmed(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
