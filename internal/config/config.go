package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries every tunable the service reads from the environment.
// The similarity and confidence thresholds are here deliberately: the
// historical defaults have no empirical derivation and need tuning in
// the field, not recompilation.
type Config struct {
	Port string

	// OCR gateway
	OCRProvider           string // "google" or "mock"; empty = auto-detect
	GoogleCredentialsFile string
	GeminiAPIKey          string
	OCRTimeout            time.Duration

	// Matching and gating
	SimilarityThreshold float64
	ConfidenceFloor     float64
	ConfidenceCeiling   float64
	DefaultCountryCode  string

	// Sessions
	SessionTTL time.Duration
	RedisAddr  string

	// Outcome archive (optional)
	DatabaseURL string

	// Share links
	ShareTokenSecret string
	FrontendBaseURL  string
}

// Load reads the environment with safe defaults.
func Load() Config {
	return Config{
		Port:                  envOr("PORT", "8080"),
		OCRProvider:           os.Getenv("OCR_PROVIDER"),
		GoogleCredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		GeminiAPIKey:          os.Getenv("GEMINI_API_KEY"),
		OCRTimeout:            envDuration("OCR_TIMEOUT", 30*time.Second),
		SimilarityThreshold:   envFloat("SIMILARITY_THRESHOLD", 0.8),
		ConfidenceFloor:       envFloat("CONFIDENCE_FLOOR", 0.5),
		ConfidenceCeiling:     envFloat("CONFIDENCE_CEILING", 0.9),
		DefaultCountryCode:    envOr("DEFAULT_COUNTRY_CODE", "+91"),
		SessionTTL:            envDuration("SESSION_TTL", 30*time.Minute),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		DatabaseURL:           envOr("DATABASE_URL", os.Getenv("DB_URL")),
		ShareTokenSecret:      envOr("SHARE_TOKEN_SECRET", os.Getenv("JWT_SECRET")),
		FrontendBaseURL:       envOr("FRONTEND_BASE_URL", "http://localhost:3000"),
	}
}

// UseMockOCR reports whether the deterministic fallback provider should
// serve extractions: either asked for explicitly, or no live credential
// is configured.
func (c Config) UseMockOCR() bool {
	if c.OCRProvider == "mock" {
		return true
	}
	if c.OCRProvider == "google" {
		return false
	}
	return c.GeminiAPIKey == "" && c.GoogleCredentialsFile == ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
