// Package config loads process configuration for the canopy commands from
// the environment, with optional .env file overrides.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries the settings shared by the serve and mcp commands.
type Config struct {
	LogLevel     string
	ListenAddr   string
	Sink         string
	SinkDSN      string
	FileDir      string
	RedisURL     string
	PostgresURL  string
	KafkaBrokers []string
	KafkaTopic   string
}

// FromEnv assembles a Config from the process environment.
func FromEnv() Config {
	return Config{
		LogLevel:     GetEnv("CANOPY_LOG_LEVEL", "info"),
		ListenAddr:   GetEnv("CANOPY_LISTEN_ADDR", ":8080"),
		Sink:         GetEnv("CANOPY_SINK", "memory"),
		SinkDSN:      GetEnv("CANOPY_SINK_DSN", ""),
		FileDir:      GetEnv("CANOPY_FILE_DIR", ""),
		RedisURL:     GetEnv("CANOPY_REDIS_URL", "redis://localhost:6379/0"),
		PostgresURL:  GetEnv("CANOPY_POSTGRES_URL", ""),
		KafkaBrokers: SplitList(GetEnv("CANOPY_KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   GetEnv("CANOPY_KAFKA_TOPIC", "canopy.commits"),
	}
}

// LoadEnv loads environment variables from local .env files, if present.
func LoadEnv(logger *slog.Logger) {
	files := []string{".env", ".env.local"}
	loaded := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Overload(file); err != nil {
			logger.Warn("failed to load env file", "file", file, "error", err)
			continue
		}
		loaded = append(loaded, file)
	}
	if len(loaded) == 0 {
		logger.Debug("no local env files loaded; relying on process environment")
		return
	}
	logger.Debug("loaded env files", "files", strings.Join(loaded, ", "))
}

// GetEnv gets an environment variable with a default value.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt gets an integer environment variable with a default value.
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetEnvBool gets a boolean environment variable with a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// SplitList splits a comma-separated variable into trimmed entries.
func SplitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
