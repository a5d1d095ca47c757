package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPrimaryModel   = "gemini-2.0-flash"
	defaultPrimaryBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	defaultFallbackModel  = "gpt-4o-mini"
	defaultFallbackURL    = "https://api.openai.com/v1/"
)

// Provider describes one OpenAI-compatible model backend.
type Provider struct {
	Name    string
	APIKey  string
	Model   string
	BaseURL string
}

// Config holds application configuration.
type Config struct {
	Port             string
	Env              string
	LogLevel         string
	LogFormat        string
	CORSAllowOrigin  []string
	DatabaseURL      string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	KafkaBrokers     []string
	KafkaEventsTopic string
	Primary          Provider
	Fallback         Provider
	LLMTimeout       time.Duration
	AnalyzerTimeout  time.Duration
	CatalogFile      string
	RateLimitRPS     float64
	RateLimitBurst   int
	OnboardingTTL    time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	return Config{
		Port:             getEnv("PORT", "8080"),
		Env:              normalizeEnv(getEnv("ENV", "dev")),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
		CORSAllowOrigin:  splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          getInt("REDIS_DB", 0),
		KafkaBrokers:     splitAndTrim(os.Getenv("KAFKA_BROKERS")),
		KafkaEventsTopic: getEnv("KAFKA_EVENTS_TOPIC", "shoppa.events"),
		Primary: Provider{
			Name:    getEnv("PRIMARY_LLM_NAME", "gemini"),
			APIKey:  os.Getenv("PRIMARY_LLM_API_KEY"),
			Model:   getEnv("PRIMARY_LLM_MODEL", defaultPrimaryModel),
			BaseURL: getEnv("PRIMARY_LLM_BASE_URL", defaultPrimaryBaseURL),
		},
		Fallback: Provider{
			Name:    getEnv("FALLBACK_LLM_NAME", "openai"),
			APIKey:  os.Getenv("FALLBACK_LLM_API_KEY"),
			Model:   getEnv("FALLBACK_LLM_MODEL", defaultFallbackModel),
			BaseURL: getEnv("FALLBACK_LLM_BASE_URL", defaultFallbackURL),
		},
		LLMTimeout:      time.Duration(getInt("LLM_TIMEOUT_SECONDS", 45)) * time.Second,
		AnalyzerTimeout: time.Duration(getInt("ANALYZER_TIMEOUT_SECONDS", 20)) * time.Second,
		CatalogFile:     os.Getenv("CATALOG_FILE"),
		RateLimitRPS:    getFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst:  getInt("RATE_LIMIT_BURST", 10),
		OnboardingTTL:   time.Duration(getInt("ONBOARDING_TTL_MINUTES", 60)) * time.Minute,
	}
}

// Validate reports configuration errors that must stop the process at startup.
func (c Config) Validate() error {
	var errs []error
	for _, p := range []struct {
		prefix string
		p      Provider
	}{{"PRIMARY", c.Primary}, {"FALLBACK", c.Fallback}} {
		if strings.TrimSpace(p.p.APIKey) == "" {
			errs = append(errs, fmt.Errorf("%s_LLM_API_KEY is required", p.prefix))
		}
		if strings.TrimSpace(p.p.Model) == "" {
			errs = append(errs, fmt.Errorf("%s_LLM_MODEL is required", p.prefix))
		}
	}
	if c.Env == "production" && strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("DATABASE_URL is required in production"))
	}
	return errors.Join(errs...)
}

// IsDevLike reports whether in-memory fallbacks are acceptable.
func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "local"
}

func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		// Load never overrides variables that are already set.
		_ = godotenv.Load(path)
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

func getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return def
	}
	return v
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}
