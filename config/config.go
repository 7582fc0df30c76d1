package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"ofertaglobal/dealfinder/internal/locale"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Session ordering policies
const (
	PolicyLastResolved = "last_resolved"
	PolicyLatestIssued = "latest_issued"
)

// Config represents the application configuration
type Config struct {
	// Generative model configuration
	GeminiAPIKey  string
	GeminiModel   string
	SearchTimeout time.Duration

	// Session configuration
	DefaultLocation string
	SessionPolicy   string

	// HTTP configuration
	HTTPPort    string
	CORSOrigins string

	// Memcache configuration, empty address disables the result cache
	MemcacheAddr string
	CacheTTL     time.Duration

	// Redis configuration, empty address disables the deal feed
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Image enrichment
	EnrichImages      bool
	EnrichConcurrency int

	// Trending warmer, zero disables it
	TrendingInterval time.Duration

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	redisStreamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	redisStreamMaxLength, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "1000"))
	searchTimeout, _ := strconv.Atoi(getEnv("SEARCH_TIMEOUT_SECONDS", "0"))
	cacheTTL, _ := strconv.Atoi(getEnv("CACHE_TTL_SECONDS", "600"))
	enrichConcurrency, _ := strconv.Atoi(getEnv("ENRICH_CONCURRENCY", "4"))
	trendingInterval, _ := strconv.Atoi(getEnv("TRENDING_INTERVAL_SECONDS", "0"))
	enrichImages, _ := strconv.ParseBool(getEnv("ENRICH_IMAGES", "false"))

	return &Config{
		GeminiAPIKey:         getEnv("GEMINI_API_KEY", os.Getenv("API_KEY")),
		GeminiModel:          getEnv("GEMINI_MODEL", "gemini-3-flash-preview"),
		SearchTimeout:        time.Duration(searchTimeout) * time.Second,
		DefaultLocation:      getEnv("DEFAULT_LOCATION", locale.DefaultCountry),
		SessionPolicy:        strings.ToLower(getEnv("SESSION_POLICY", PolicyLastResolved)),
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		CORSOrigins:          getEnv("CORS_ORIGINS", "*"),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		CacheTTL:             time.Duration(cacheTTL) * time.Second,
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "deals"),
		RedisStreamCount:     redisStreamCount,
		RedisStreamMaxLength: redisStreamMaxLength,
		EnrichImages:         enrichImages,
		EnrichConcurrency:    enrichConcurrency,
		TrendingInterval:     time.Duration(trendingInterval) * time.Second,
		Environment:          getEnv("DEALFINDER_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the application cannot run with
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.GeminiAPIKey, validation.Required),
		validation.Field(&c.GeminiModel, validation.Required),
		validation.Field(&c.DefaultLocation,
			validation.Required,
			validation.By(supportedCountry),
		),
		validation.Field(&c.SessionPolicy, validation.In(PolicyLastResolved, PolicyLatestIssued)),
		validation.Field(&c.HTTPPort, validation.Required),
		validation.Field(&c.SearchTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.CacheTTL, validation.Min(time.Second)),
		validation.Field(&c.RedisStreamCount, validation.Min(1)),
		validation.Field(&c.RedisStreamMaxLength, validation.Min(1)),
		validation.Field(&c.EnrichConcurrency, validation.Min(1)),
		validation.Field(&c.TrendingInterval, validation.Min(time.Duration(0))),
	)
}

// IsProduction reports whether the application runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func supportedCountry(value interface{}) error {
	country, _ := value.(string)
	if !locale.IsSupported(country) {
		return validation.NewError("validation_unsupported_country", "must be one of the supported countries")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
