package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Phrases   PhraseConfig
	Resources ResourceConfig
	Policies  PolicyConfig
	EventLog  EventLogConfig
	Dispatch  DispatchConfig
	FollowUp  FollowUpConfig
	Logging   LoggingConfig
	Metrics   MetricsConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestSize int64
}

// PhraseConfig points at an optional phrase set file
type PhraseConfig struct {
	File string // empty uses the built-in phrases
}

// ResourceConfig points at an optional emergency resource directory file
type ResourceConfig struct {
	File string // empty uses the built-in directory
}

// PolicyConfig holds Cedar policy loading settings
type PolicyConfig struct {
	Path         string // empty uses the embedded policies
	WatchChanges bool
}

// EventLogConfig holds anonymized event log settings
type EventLogConfig struct {
	Driver string // jsonl, sqlite
	Path   string // file path or DSN; empty jsonl path writes to stdout
}

// DispatchConfig holds emergency dispatch settings
type DispatchConfig struct {
	GatewayURL string // empty logs launches instead of calling a gateway
	Timeout    time.Duration
	Breaker    BreakerConfig
}

// BreakerConfig holds circuit breaker settings for the dispatch gateway
type BreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
}

// FollowUpConfig holds follow-up scheduling settings
type FollowUpConfig struct {
	Default string        // Go duration string used when policy names no window
	Grace   time.Duration // how long a missed follow-up stays pending
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string // info, error
}

// MetricsConfig holds metrics/monitoring settings
type MetricsConfig struct {
	Enabled  bool
	Endpoint string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:    time.Duration(getEnvInt("SERVER_READ_TIMEOUT_SEC", 15)) * time.Second,
			WriteTimeout:   time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT_SEC", 30)) * time.Second,
			MaxRequestSize: int64(getEnvInt("SERVER_MAX_REQUEST_SIZE", 64*1024)), // 64KB default
		},
		Phrases: PhraseConfig{
			File: getEnv("PHRASES_FILE", ""),
		},
		Resources: ResourceConfig{
			File: getEnv("RESOURCES_FILE", ""),
		},
		Policies: PolicyConfig{
			Path:         getEnv("POLICY_PATH", ""),
			WatchChanges: getEnvBool("POLICY_WATCH_CHANGES", true),
		},
		EventLog: EventLogConfig{
			Driver: getEnv("EVENT_LOG_DRIVER", "jsonl"),
			Path:   getEnv("EVENT_LOG_PATH", ""),
		},
		Dispatch: DispatchConfig{
			GatewayURL: getEnv("DISPATCH_GATEWAY_URL", ""),
			Timeout:    time.Duration(getEnvInt("DISPATCH_TIMEOUT_SEC", 5)) * time.Second,
			Breaker: BreakerConfig{
				Enabled:          getEnvBool("BREAKER_ENABLED", true),
				FailureThreshold: getEnvInt("BREAKER_FAILURE_THRESHOLD", 5),
				SuccessThreshold: getEnvInt("BREAKER_SUCCESS_THRESHOLD", 2),
				Timeout:          getEnvDuration("BREAKER_TIMEOUT", 30*time.Second),
			},
		},
		FollowUp: FollowUpConfig{
			Default: getEnv("FOLLOWUP_DEFAULT", "24h"),
			Grace:   getEnvDuration("FOLLOWUP_GRACE", 12*time.Hour),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Enabled:  getEnvBool("METRICS_ENABLED", true),
			Endpoint: getEnv("METRICS_ENDPOINT", "/metrics"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
