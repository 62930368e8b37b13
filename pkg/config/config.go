package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/membergate/pkg/observability"
	"github.com/platinummonkey/membergate/pkg/session"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Storage backends
	Storage StorageConfig

	// Identity provider configuration
	Providers ProvidersConfig

	// Session configuration
	Session SessionConfig

	// Activity log configuration
	ActivityLog ActivityLogConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// StorageConfig holds connection settings for the account, session, and
// activity log backends.
type StorageConfig struct {
	PostgresURL  string
	RedisURL     string
	ActivityPath string
}

// ProvidersConfig locates and selects identity providers.
type ProvidersConfig struct {
	// File is the path to the providers YAML file.
	File string
	// ActiveID names the single provider allowed to authenticate.
	ActiveID string
	// WatchFile enables hot reload of the providers file.
	WatchFile bool
}

// SessionConfig holds session lifecycle settings.
type SessionConfig struct {
	// IdleThreshold before an inactive session is terminated.
	IdleThreshold time.Duration
	// PostLoginURL is where the browser lands after a successful login.
	PostLoginURL string
	// PostLogoutURL is where terminated sessions are sent.
	PostLogoutURL string
}

// ActivityLogConfig holds activity log behavior.
type ActivityLogConfig struct {
	Enabled         bool
	Granularity     time.Duration
	RetentionMonths int
	ArchiveSchedule string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		Providers:     loadProvidersConfig(),
		Session:       loadSessionConfig(),
		ActivityLog:   loadActivityLogConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("MEMBERGATE_HOST", "0.0.0.0"),
		Port:            getEnv("MEMBERGATE_PORT", "8080"),
		ReadTimeout:     getEnvDuration("MEMBERGATE_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("MEMBERGATE_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("MEMBERGATE_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("MEMBERGATE_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("MEMBERGATE_HEALTH_PORT", "9090"),
	}
}

// loadStorageConfig loads storage configuration from environment
func loadStorageConfig() StorageConfig {
	return StorageConfig{
		PostgresURL:  getEnv("MEMBERGATE_POSTGRES_URL", ""),
		RedisURL:     getEnv("MEMBERGATE_REDIS_URL", "redis://localhost:6379/0"),
		ActivityPath: getEnv("MEMBERGATE_ACTIVITY_LOG_PATH", "membergate_activity.db"),
	}
}

// loadProvidersConfig loads provider selection from environment
func loadProvidersConfig() ProvidersConfig {
	return ProvidersConfig{
		File:      getEnv("MEMBERGATE_PROVIDERS_FILE", "providers.yaml"),
		ActiveID:  getEnv("MEMBERGATE_ACTIVE_PROVIDER", "dummy"),
		WatchFile: getEnvBool("MEMBERGATE_PROVIDERS_WATCH", true),
	}
}

// loadSessionConfig loads session settings from environment. The idle
// threshold env var is in seconds.
func loadSessionConfig() SessionConfig {
	seconds := getEnvInt("MEMBERGATE_IDLE_THRESHOLD_SECONDS", 0)
	threshold := session.DefaultIdleThreshold
	if seconds > 0 {
		threshold = time.Duration(seconds) * time.Second
	}
	return SessionConfig{
		IdleThreshold: threshold,
		PostLoginURL:  getEnv("MEMBERGATE_POST_LOGIN_URL", "/"),
		PostLogoutURL: getEnv("MEMBERGATE_POST_LOGOUT_URL", "/gate/login"),
	}
}

// loadActivityLogConfig loads activity log settings from environment
func loadActivityLogConfig() ActivityLogConfig {
	return ActivityLogConfig{
		Enabled:         getEnvBool("MEMBERGATE_ACTIVITY_LOG_ENABLED", true),
		Granularity:     getEnvDuration("MEMBERGATE_ACTIVITY_LOG_GRANULARITY", 300*time.Second),
		RetentionMonths: getEnvInt("MEMBERGATE_ACTIVITY_LOG_RETENTION_MONTHS", 12),
		ArchiveSchedule: getEnv("MEMBERGATE_ACTIVITY_LOG_ARCHIVE_SCHEDULE", ""),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	cfg := ObservabilityConfig{
		LogLevel:           parseLogLevel(getEnv("MEMBERGATE_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("MEMBERGATE_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("MEMBERGATE_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("MEMBERGATE_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("MEMBERGATE_OTEL_SERVICE_NAME", "membergate"),
		OTelServiceVersion: getEnv("MEMBERGATE_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("MEMBERGATE_OTEL_INSECURE", true),
	}

	return cfg
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Storage.PostgresURL == "" {
		return fmt.Errorf("postgres URL is required")
	}
	if c.Storage.RedisURL == "" {
		return fmt.Errorf("redis URL is required")
	}

	if c.Providers.File == "" {
		return fmt.Errorf("providers file is required")
	}
	if c.Providers.ActiveID == "" {
		return fmt.Errorf("active provider is required")
	}

	if c.Session.IdleThreshold <= 0 {
		return fmt.Errorf("session idle threshold must be positive")
	}

	if c.ActivityLog.Enabled && c.Storage.ActivityPath == "" {
		return fmt.Errorf("activity log path is required when the activity log is enabled")
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
