package config

import (
	"time"

	"github.com/joho/godotenv"

	pkgconfig "github.com/chainboard/chainboard/pkg/config"
)

// Config holds the runtime configuration for a dashboard backend instance.
// It supports environment-based initialization, with sensible defaults.
type Config struct {
	ServiceName string // "chainboard"
	Env         string // e.g. "dev", "uat", "prod"
	LogLevel    string // "debug", "info", etc.
	Port        int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	HTTPBodyLimit    int

	DatabaseURL string // optional; empty runs cache-only
	NATSURL     string // optional; empty disables event publishing
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	AWSRegion      string
	UseAWSSecrets  bool
	SecretCacheTTL time.Duration

	// Upstream endpoints and credentials. Keys set here win over the
	// secrets manager; both may be empty for public tiers.
	MarketDataBaseURL string
	MarketDataAPIKey  string
	RepoHostBaseURL   string
	RepoHostToken     string
	LLMBaseURL        string
	LLMAPIKey         string
	LLMModel          string

	// Upstream pacing: requests per second per API.
	MarketDataRPS int
	RepoHostRPS   int
	LLMRPS        int
	PageDelay     time.Duration

	// Cache lifetimes.
	CatalogTTL      time.Duration
	IDMapTTL        time.Duration
	OverviewTTL     time.Duration
	ChartTTL        time.Duration
	ActivityTTL     time.Duration
	AssessmentTTL   time.Duration
	RefreshInterval time.Duration

	PGMaxConns          int
	PGMinConns          int
	PGMaxConnLifetime   time.Duration
	PGMaxConnIdleTime   time.Duration
	PGHealthCheckPeriod time.Duration
}

// Load loads configuration from environment variables and .env file if present.
func Load() *Config {
	// load .env silently (no error if missing)
	_ = godotenv.Load()

	return &Config{
		ServiceName: pkgconfig.GetEnv("SERVICE_NAME", "chainboard"),
		Env:         pkgconfig.GetEnv("ENV", "dev"),
		LogLevel:    pkgconfig.GetEnv("LOG_LEVEL", "info"),
		Port:        pkgconfig.GetEnvInt("PORT", 9040),

		HTTPReadTimeout:  pkgconfig.GetEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout: pkgconfig.GetEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		HTTPIdleTimeout:  pkgconfig.GetEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		HTTPBodyLimit:    pkgconfig.GetEnvInt("HTTP_BODY_LIMIT", 1*1024*1024),

		DatabaseURL: pkgconfig.GetEnv("DATABASE_URL", ""),
		NATSURL:     pkgconfig.GetEnv("NATS_URL", ""),
		RedisAddr:   pkgconfig.GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:     pkgconfig.GetEnvInt("REDIS_DB", 0),
		RedisPass:   pkgconfig.GetEnv("REDIS_PASS", ""),

		AWSRegion:      pkgconfig.GetEnv("AWS_REGION", "us-east-2"),
		UseAWSSecrets:  pkgconfig.GetEnvBool("USE_AWS_SECRETS", false),
		SecretCacheTTL: pkgconfig.GetEnvDuration("SECRET_CACHE_TTL", 15*time.Minute),

		MarketDataBaseURL: pkgconfig.GetEnv("MARKETDATA_BASE_URL", "https://api.coingecko.com/api/v3"),
		MarketDataAPIKey:  pkgconfig.GetEnv("MARKETDATA_API_KEY", ""),
		RepoHostBaseURL:   pkgconfig.GetEnv("REPOHOST_BASE_URL", "https://api.github.com"),
		RepoHostToken:     pkgconfig.GetEnv("REPOHOST_TOKEN", ""),
		LLMBaseURL:        pkgconfig.GetEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMAPIKey:         pkgconfig.GetEnv("LLM_API_KEY", ""),
		LLMModel:          pkgconfig.GetEnv("LLM_MODEL", "gpt-4o-mini"),

		MarketDataRPS: pkgconfig.GetEnvInt("MARKETDATA_RPS", 2),
		RepoHostRPS:   pkgconfig.GetEnvInt("REPOHOST_RPS", 5),
		LLMRPS:        pkgconfig.GetEnvInt("LLM_RPS", 1),
		PageDelay:     pkgconfig.GetEnvDuration("PAGE_DELAY", 200*time.Millisecond),

		CatalogTTL:      pkgconfig.GetEnvDuration("CATALOG_TTL", 24*time.Hour),
		IDMapTTL:        pkgconfig.GetEnvDuration("IDMAP_TTL", 24*time.Hour),
		OverviewTTL:     pkgconfig.GetEnvDuration("OVERVIEW_TTL", 30*time.Minute),
		ChartTTL:        pkgconfig.GetEnvDuration("CHART_TTL", 10*time.Minute),
		ActivityTTL:     pkgconfig.GetEnvDuration("ACTIVITY_TTL", 6*time.Hour),
		AssessmentTTL:   pkgconfig.GetEnvDuration("ASSESSMENT_TTL", 24*time.Hour),
		RefreshInterval: pkgconfig.GetEnvDuration("CATALOG_REFRESH_INTERVAL", 23*time.Hour),

		PGMaxConns:          pkgconfig.GetEnvInt("PG_MAX_CONNS", 10),
		PGMinConns:          pkgconfig.GetEnvInt("PG_MIN_CONNS", 2),
		PGMaxConnLifetime:   pkgconfig.GetEnvDuration("PG_MAX_CONN_LIFETIME", 30*time.Minute),
		PGMaxConnIdleTime:   pkgconfig.GetEnvDuration("PG_MAX_CONN_IDLE_TIME", 5*time.Minute),
		PGHealthCheckPeriod: pkgconfig.GetEnvDuration("PG_HEALTH_CHECK_PERIOD", 1*time.Minute),
	}
}
