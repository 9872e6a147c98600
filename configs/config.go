package config

import (
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Config struct {
	PostgresURI string
	RedisURI    string
	SecretKey   string
	CookieName  string
	ListenAddr  string
	MetricsAddr string

	R2 R2

	// Timing surface for the scheduler and the analytics sync layer.
	PollInterval          time.Duration
	AnalyticsSyncInterval time.Duration
	AdapterTimeout        time.Duration

	AnalyticsRetryBase   time.Duration
	AnalyticsMaxAttempts int
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI: getEnv("POSTGRES_URI", ""),
		RedisURI:    getEnv("REDIS_URI", "127.0.0.1:6379"),
		SecretKey:   getEnv("SECRET_KEY", ""),
		CookieName:  getEnv("COOKIE_NAME", "postpilot_session"),
		ListenAddr:  getEnv("LISTEN_ADDR", ":3000"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9100"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		PollInterval:          getDuration("POLL_INTERVAL", time.Minute),
		AnalyticsSyncInterval: getDuration("ANALYTICS_SYNC_INTERVAL", 6*time.Hour),
		AdapterTimeout:        getDuration("ADAPTER_TIMEOUT", 20*time.Second),
		AnalyticsRetryBase:    getDuration("ANALYTICS_RETRY_BASE", 2*time.Second),
		AnalyticsMaxAttempts:  getInt("ANALYTICS_MAX_ATTEMPTS", 3),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
