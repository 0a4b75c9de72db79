package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"ticketshub/internal/status"

	"github.com/joho/godotenv"
)

const (
	BackendRedis  = "redis"
	BackendMemory = "memory"

	TransportRedis  = "redis"
	TransportPubNub = "pubnub"
	TransportNone   = "none"
)

type Config struct {
	Environment string
	LogLevel    string

	// Storage configuration
	StorageBackend string
	RedisURL       string
	RedisKeyPrefix string

	// Tab identity. ProfileID plays the browser profile, TabID one open tab.
	ProfileID string
	TabID     string

	// Cross-tab sync configuration
	SyncTransport       string
	PubNubPublishKey    string
	PubNubSubscribeKey  string
	PubNubSecretKey     string
	PubNubChannelPrefix string

	// Demo credentials
	DemoEmail    string
	DemoPassword string

	// Location detection
	LocationDetectURL     string
	LocationDetectTimeout time.Duration

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

// LoadConfig reads configuration from the environment. A .env file in the
// working directory, when present, is loaded first and never overrides
// variables that are already set.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Storage
		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", BackendRedis)),
		RedisURL:       getEnv("REDIS_URL", "localhost:6379"),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "ticketshub:profile:"),

		// Identity
		ProfileID: getEnv("PROFILE_ID", "default"),
		TabID:     getEnv("TAB_ID", ""),

		// Sync
		SyncTransport:       strings.ToLower(getEnv("SYNC_TRANSPORT", TransportRedis)),
		PubNubPublishKey:    getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey:  getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:     getEnv("PUBNUB_SECRET_KEY", ""),
		PubNubChannelPrefix: getEnv("PUBNUB_CHANNEL_PREFIX", "ticketshub-"),

		// Demo
		DemoEmail:    getEnv("DEMO_EMAIL", "demo@ticketshub.com"),
		DemoPassword: getEnv("DEMO_PASSWORD", "demo123"),

		// Location
		LocationDetectURL:     getEnv("LOCATION_DETECT_URL", "https://ipapi.co/json/"),
		LocationDetectTimeout: getEnvAsDuration("LOCATION_DETECT_TIMEOUT", "5s"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", false),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

// Validate rejects backend and transport names the host cannot build.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("%w: %q", status.ErrUnknownBackend, c.StorageBackend)
	}

	switch c.SyncTransport {
	case TransportRedis:
		if c.StorageBackend != BackendRedis {
			return fmt.Errorf("%w: redis sync needs the redis storage backend", status.ErrUnknownTransport)
		}
	case TransportPubNub:
		if c.PubNubSubscribeKey == "" || c.PubNubPublishKey == "" {
			return fmt.Errorf("%w: pubnub sync needs PUBNUB_PUBLISH_KEY and PUBNUB_SUBSCRIBE_KEY", status.ErrUnknownTransport)
		}
	case TransportNone:
	default:
		return fmt.Errorf("%w: %q", status.ErrUnknownTransport, c.SyncTransport)
	}

	return nil
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
