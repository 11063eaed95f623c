package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
	Fetch    FetchConfig
	Metrics  MetricsConfig
	Schedule ScheduleConfig
	Market   MarketConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers         []string
	EventTopic      string
	CorrectionTopic string
	GroupID         string
}

// RedisConfig holds Redis configuration for the latest-quote projection
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// FetchConfig bounds the fetch orchestrator
type FetchConfig struct {
	Workers        int
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	AttemptTimeout time.Duration
	RatePerSecond  float64
}

// MetricsConfig holds tunables for the derived-metrics engine
type MetricsConfig struct {
	LookbackYears int
	TradingYear   int // trading days treated as one year for extrema windows
}

// ScheduleConfig maps job names to their fixed local fire times ("15:04")
type ScheduleConfig struct {
	Jobs map[string]string
}

// MarketConfig carries the market calendar context. The timezone is explicit
// configuration passed down at startup, never process-global state.
type MarketConfig struct {
	Timezone *time.Location
}

// Load reads configuration from environment variables
func Load() *Config {
	_ = godotenv.Load()

	tz, err := time.LoadLocation(getEnv("MARKET_TIMEZONE", "Asia/Taipei"))
	if err != nil {
		tz = time.UTC
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "stockpipeline"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Kafka: KafkaConfig{
			Brokers:         strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			EventTopic:      getEnv("KAFKA_EVENT_TOPIC", "market-events"),
			CorrectionTopic: getEnv("KAFKA_CORRECTION_TOPIC", "security-corrections"),
			GroupID:         getEnv("KAFKA_GROUP_ID", "stock-pipeline"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Fetch: FetchConfig{
			Workers:        getEnvInt("FETCH_WORKERS", 8),
			MaxAttempts:    getEnvInt("FETCH_MAX_ATTEMPTS", 3),
			InitialDelay:   getEnvDuration("FETCH_INITIAL_DELAY", time.Second),
			MaxDelay:       getEnvDuration("FETCH_MAX_DELAY", 30*time.Second),
			Multiplier:     getEnvFloat("FETCH_BACKOFF_MULTIPLIER", 2.0),
			AttemptTimeout: getEnvDuration("FETCH_ATTEMPT_TIMEOUT", 15*time.Second),
			RatePerSecond:  getEnvFloat("FETCH_RATE_PER_SECOND", 4.0),
		},
		Metrics: MetricsConfig{
			LookbackYears: getEnvInt("ESTIMATE_LOOKBACK_YEARS", 10),
			TradingYear:   getEnvInt("TRADING_DAYS_PER_YEAR", 240),
		},
		Schedule: ScheduleConfig{
			Jobs: map[string]string{
				"refresh-net-asset-value": getEnv("JOB_REFRESH_NAV", "01:00"),
				"refresh-security-list":   getEnv("JOB_REFRESH_SECURITIES", "05:00"),
				"refresh-revenue":         getEnv("JOB_REFRESH_REVENUE", "05:00"),
				"refresh-stock-weight":    getEnv("JOB_REFRESH_WEIGHT", "05:00"),
				"notify-ex-dividend":      getEnv("JOB_NOTIFY_EX_DIVIDEND", "08:00"),
				"ingest-closing-quotes":   getEnv("JOB_INGEST_QUOTES", "15:00"),
				"ingest-market-index":     getEnv("JOB_INGEST_INDEX", "15:00"),
				"compute-daily-metrics":   getEnv("JOB_COMPUTE_METRICS", "15:30"),
				"compute-estimates":       getEnv("JOB_COMPUTE_ESTIMATES", "15:30"),
				"compute-yield-rank":      getEnv("JOB_COMPUTE_YIELD_RANK", "15:30"),
				"compute-money-history":   getEnv("JOB_COMPUTE_MONEY_HISTORY", "16:00"),
				"refresh-dividends":       getEnv("JOB_REFRESH_DIVIDENDS", "21:00"),
				"refresh-foreign-holding": getEnv("JOB_REFRESH_QFII", "22:00"),
			},
		},
		Market: MarketConfig{
			Timezone: tz,
		},
	}
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
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
