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

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// TelephonyConfig provides settings for the outbound telephony provider.
type TelephonyConfig interface {
	GetTelephonyBaseURL() string
	GetTelephonyAccountSID() string
	GetTelephonyAuthToken() string
	GetTelephonyOriginNumber() string
	GetTelephonyTimeout() time.Duration
	GetDefaultCountryCode() string
	GetCallbackBaseURL() string
	IsTelephonyEnabled() bool
}

// SchedulerConfig provides settings for the asynq task queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// ReconcilerConfig provides settings for the recording reconciliation loop.
type ReconcilerConfig interface {
	GetReconcileInterval() time.Duration
	GetReconcileLookback() time.Duration
	GetReconcileBatchLimit() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                   string
	HTTPAddr              string
	DatabaseURL           string
	JWTAccessSecret       string
	CORSAllowAll          bool
	CORSOrigins           []string
	CORSAllowCreds        bool
	AppBaseURL            string
	TelephonyBaseURL      string
	TelephonyAccountSID   string
	TelephonyAuthToken    string
	TelephonyOriginNumber string
	TelephonyTimeout      time.Duration
	DefaultCountryCode    string
	RedisURL              string
	RedisTLSInsecure      bool
	AsynqQueueName        string
	AsynqConcurrency      int
	ReconcileInterval     time.Duration
	ReconcileLookback     time.Duration
	ReconcileBatchLimit   int
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// TelephonyConfig implementation
func (c *Config) GetTelephonyBaseURL() string        { return c.TelephonyBaseURL }
func (c *Config) GetTelephonyAccountSID() string     { return c.TelephonyAccountSID }
func (c *Config) GetTelephonyAuthToken() string      { return c.TelephonyAuthToken }
func (c *Config) GetTelephonyOriginNumber() string   { return c.TelephonyOriginNumber }
func (c *Config) GetTelephonyTimeout() time.Duration { return c.TelephonyTimeout }
func (c *Config) GetDefaultCountryCode() string      { return c.DefaultCountryCode }
func (c *Config) GetCallbackBaseURL() string         { return c.AppBaseURL }
func (c *Config) IsTelephonyEnabled() bool {
	return c.TelephonyBaseURL != "" && c.TelephonyAccountSID != ""
}

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// ReconcilerConfig implementation
func (c *Config) GetReconcileInterval() time.Duration { return c.ReconcileInterval }
func (c *Config) GetReconcileLookback() time.Duration { return c.ReconcileLookback }
func (c *Config) GetReconcileBatchLimit() int         { return c.ReconcileBatchLimit }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		JWTAccessSecret:       getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:          corsAllowAll,
		CORSOrigins:           corsOrigins,
		CORSAllowCreds:        strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AppBaseURL:            getEnv("APP_BASE_URL", "http://localhost:8080"),
		TelephonyBaseURL:      getEnv("TELEPHONY_BASE_URL", ""),
		TelephonyAccountSID:   getEnv("TELEPHONY_ACCOUNT_SID", ""),
		TelephonyAuthToken:    getEnv("TELEPHONY_AUTH_TOKEN", ""),
		TelephonyOriginNumber: getEnv("TELEPHONY_ORIGIN_NUMBER", ""),
		TelephonyTimeout:      mustDuration(getEnv("TELEPHONY_TIMEOUT", "10s")),
		DefaultCountryCode:    getEnv("DEFAULT_COUNTRY_CODE", "+91"),
		RedisURL:              getEnv("REDIS_URL", ""),
		RedisTLSInsecure:      strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:        getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:      mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		ReconcileInterval:     mustDuration(getEnv("RECONCILE_INTERVAL", "10m")),
		ReconcileLookback:     mustDuration(getEnv("RECONCILE_LOOKBACK", "24h")),
		ReconcileBatchLimit:   mustInt(getEnv("RECONCILE_BATCH_LIMIT", "100")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.IsTelephonyEnabled() && cfg.TelephonyOriginNumber == "" {
		return nil, fmt.Errorf("TELEPHONY_ORIGIN_NUMBER is required when telephony is configured")
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

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
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
