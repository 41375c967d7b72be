package config

import (
	"os"
	"strconv"
	"sync"
	"time"
)

// Config holds application configuration from environment.
type Config struct {
	HTTPPort    string
	JWTSecret   string
	FailureRate float64 // injected 500 rate on POST/PATCH, 0..1

	APIBaseURL    string
	QueueBackend  string // "file" or "redis"
	QueuePath     string
	QueueKey      string
	RedisURL      string
	RetryLimit    int
	ProbeInterval time.Duration
	UndoWindow    time.Duration

	BoardUser     string
	BoardPassword string
}

var (
	cfg     *Config
	cfgOnce sync.Once
)

// Get returns the application config (loads once from env).
func Get() *Config {
	cfgOnce.Do(func() {
		cfg = &Config{
			HTTPPort:      getEnv("HTTP_PORT", "8080"),
			JWTSecret:     getEnv("JWT_SECRET", "dev-secret"),
			FailureRate:   getFloatEnv("FAILURE_RATE", 0.1),
			APIBaseURL:    getEnv("API_BASE_URL", "http://localhost:8080"),
			QueueBackend:  getEnv("QUEUE_BACKEND", "file"),
			QueuePath:     getEnv("QUEUE_PATH", "offline-queue.json"),
			QueueKey:      getEnv("QUEUE_KEY", "offline:queue"),
			RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
			RetryLimit:    getIntEnv("QUEUE_RETRY_LIMIT", 3),
			ProbeInterval: time.Duration(getIntEnv("PROBE_INTERVAL_SEC", 5)) * time.Second,
			UndoWindow:    time.Duration(getIntEnv("UNDO_WINDOW_SEC", 5)) * time.Second,
			BoardUser:     getEnv("BOARD_USER", "demo"),
			BoardPassword: getEnv("BOARD_PASSWORD", "demo"),
		}
	})
	return cfg
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
