package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration loaded from environment variables
type Config struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
	SessionSecret      string
	EncryptionKey      string
	Env                string
	Port               string
	AppMode            string // web, worker or embedded

	DatabaseURL string
	RedisURL    string
	SeedDevData bool

	LogLevel  string
	LogFormat string

	// Completion backend
	OpenAIAPIKey  string
	OpenAIBaseURL string
	LLMModel      string
	LLMTimeout    time.Duration
	LLMStubMode   bool

	ContentCatalogPath string

	// Source ingestion
	SourceFeedsPath   string
	SourceRefreshCron string
	SchedulerTimezone string

	// Payments
	StripeWebhookSecret string
	StripePaymentLink   string
}

// Load reads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		GoogleClientID:      os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:  os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:   getEnvWithDefault("GOOGLE_CALLBACK_URL", "http://localhost:8080/auth/google/callback"),
		SessionSecret:       os.Getenv("SESSION_SECRET"),
		EncryptionKey:       os.Getenv("ENCRYPTION_KEY"),
		Env:                 getEnvWithDefault("ENV", "development"),
		Port:                getEnvWithDefault("PORT", "8080"),
		AppMode:             getEnvWithDefault("APP_MODE", "embedded"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            os.Getenv("REDIS_URL"),
		SeedDevData:         getEnvBool("SEED_DEV_DATA", false),
		LogLevel:            getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvWithDefault("LOG_FORMAT", "text"),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:       getEnvWithDefault("OPENAI_BASE_URL", "https://api.openai.com/v1/"),
		LLMModel:            getEnvWithDefault("LLM_MODEL", "gpt-4o"),
		LLMTimeout:          getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		LLMStubMode:         getEnvBool("LLM_STUB_MODE", false),
		ContentCatalogPath:  os.Getenv("CONTENT_CATALOG_PATH"),
		SourceFeedsPath:     os.Getenv("SOURCE_FEEDS_PATH"),
		SourceRefreshCron:   getEnvWithDefault("SOURCE_REFRESH_CRON", "0 */6 * * *"),
		SchedulerTimezone:   getEnvWithDefault("SCHEDULER_TIMEZONE", "UTC"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripePaymentLink:   os.Getenv("STRIPE_PAYMENT_LINK"),
	}

	// Warn if using default session secret (insecure for production)
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "dev-secret-change-in-production-use-openssl-rand-hex-32"
		log.Println("WARNING: Using default SESSION_SECRET. Generate a secure secret with: openssl rand -hex 32")
	}

	if cfg.OpenAIAPIKey == "" && !cfg.LLMStubMode {
		cfg.LLMStubMode = true
		log.Println("WARNING: OPENAI_API_KEY not set. Falling back to stub completions (LLM_STUB_MODE=true).")
	}

	if cfg.StripeWebhookSecret == "" {
		log.Println("WARNING: STRIPE_WEBHOOK_SECRET not set. Payment webhooks will be rejected.")
	}

	return cfg
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("WARNING: invalid boolean for %s=%q, using %t", key, value, defaultValue)
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("WARNING: invalid duration for %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
