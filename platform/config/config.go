// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetRateLimitPerSecond() float64
	GetRateLimitBurst() int
}

// NATSConfig provides settings for the NATS event publisher.
type NATSConfig interface {
	GetNATSURL() string
	GetEventSubjectPrefix() string
	IsNATSEnabled() bool
}

// RedisConfig provides settings for the Redis tariff cache.
type RedisConfig interface {
	GetRedisAddr() string
	GetTariffCacheTTL() time.Duration
	IsRedisEnabled() bool
}

// GatewayConfig provides settings for remote collaborator clients.
type GatewayConfig interface {
	GetOriginationAPIURL() string
	GetViabilityServiceURL() string
	GetTariffServiceURL() string
	GetGatewayTimeout() time.Duration
}

// OrchestratorConfig provides tunables for the PRE process orchestrator.
type OrchestratorConfig interface {
	GetDefaultTariffCentsPerKWh() float64
	GetTierFactorTolerance() float64
	GetDefaultTierCode() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                      string
	HTTPAddr                 string
	CORSAllowAll             bool
	CORSOrigins              []string
	CORSAllowCreds           bool
	RateLimitPerSecond       float64
	RateLimitBurst           int
	NATSURL                  string
	EventSubjectPrefix       string
	RedisAddr                string
	TariffCacheTTL           time.Duration
	OriginationAPIURL        string
	ViabilityServiceURL      string
	TariffServiceURL         string
	GatewayTimeout           time.Duration
	DefaultTariffCentsPerKWh float64
	TierFactorTolerance      float64
	DefaultTierCode          string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string            { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool          { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string       { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool        { return c.CORSAllowCreds }
func (c *Config) GetRateLimitPerSecond() float64 { return c.RateLimitPerSecond }
func (c *Config) GetRateLimitBurst() int         { return c.RateLimitBurst }

// NATSConfig implementation
func (c *Config) GetNATSURL() string            { return c.NATSURL }
func (c *Config) GetEventSubjectPrefix() string { return c.EventSubjectPrefix }
func (c *Config) IsNATSEnabled() bool           { return c.NATSURL != "" }

// RedisConfig implementation
func (c *Config) GetRedisAddr() string             { return c.RedisAddr }
func (c *Config) GetTariffCacheTTL() time.Duration { return c.TariffCacheTTL }
func (c *Config) IsRedisEnabled() bool             { return c.RedisAddr != "" }

// GatewayConfig implementation
func (c *Config) GetOriginationAPIURL() string     { return c.OriginationAPIURL }
func (c *Config) GetViabilityServiceURL() string   { return c.ViabilityServiceURL }
func (c *Config) GetTariffServiceURL() string      { return c.TariffServiceURL }
func (c *Config) GetGatewayTimeout() time.Duration { return c.GatewayTimeout }

// OrchestratorConfig implementation
func (c *Config) GetDefaultTariffCentsPerKWh() float64 { return c.DefaultTariffCentsPerKWh }
func (c *Config) GetTierFactorTolerance() float64      { return c.TierFactorTolerance }
func (c *Config) GetDefaultTierCode() string           { return c.DefaultTierCode }

// =============================================================================
// Loading
// =============================================================================

// Load reads configuration from the environment, with .env support.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                      getEnv("APP_ENV", "development"),
		HTTPAddr:                 getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll:             corsAllowAll,
		CORSOrigins:              corsOrigins,
		CORSAllowCreds:           strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RateLimitPerSecond:       mustFloat(getEnv("RATE_LIMIT_PER_SECOND", "20")),
		RateLimitBurst:           int(mustInt64(getEnv("RATE_LIMIT_BURST", "40"))),
		NATSURL:                  getEnv("NATS_URL", "nats://localhost:4222"),
		EventSubjectPrefix:       getEnv("EVENT_SUBJECT_PREFIX", "origination"),
		RedisAddr:                getEnv("REDIS_ADDR", ""),
		TariffCacheTTL:           mustDuration(getEnv("TARIFF_CACHE_TTL", "1h")),
		OriginationAPIURL:        getEnv("ORIGINATION_API_URL", "http://origination_api:8000"),
		ViabilityServiceURL:      getEnv("VIABILITY_SERVICE_URL", "http://viability_service:8010"),
		TariffServiceURL:         getEnv("ANEEL_TARIFFS_URL", "http://aneel_tariffs:8011"),
		GatewayTimeout:           mustDuration(getEnv("GATEWAY_TIMEOUT", "10s")),
		DefaultTariffCentsPerKWh: mustFloat(getEnv("DEFAULT_TARIFF_CENTS_PER_KWH", "120.0")),
		TierFactorTolerance:      mustFloat(getEnv("TIER_FACTOR_TOLERANCE", "0.01")),
		DefaultTierCode:          getEnv("DEFAULT_TIER_CODE", "T115"),
	}

	if cfg.OriginationAPIURL == "" || cfg.ViabilityServiceURL == "" || cfg.TariffServiceURL == "" {
		return nil, fmt.Errorf("ORIGINATION_API_URL, VIABILITY_SERVICE_URL and ANEEL_TARIFFS_URL are required")
	}
	if cfg.GatewayTimeout <= 0 {
		return nil, fmt.Errorf("GATEWAY_TIMEOUT must be a positive duration")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
