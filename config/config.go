package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	ListenAddr string
	LogLevel   string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTSecret string

	ResultsAPIURL  string
	RequestTimeout int // seconds

	HistoryLimit    int
	CacheTTLSeconds int
	CacheMaxEntries int

	DefaultDraw    string
	TelegramToken  string
	TelegramChatID int64
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := &Config{
		ListenAddr: getEnvWithDefault("LISTEN_ADDR", ":8080"),
		LogLevel:   getEnvWithDefault("LOG_LEVEL", "info"),

		DBHost:     getEnvWithDefault("DB_HOST", "localhost"),
		DBPort:     getEnvWithDefault("DB_PORT", "5432"),
		DBUser:     getEnvWithDefault("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnvWithDefault("DB_NAME", "lotobonheur"),
		DBSSLMode:  getEnvWithDefault("DB_SSLMODE", "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		ResultsAPIURL:  getEnvWithDefault("RESULTS_API_URL", "https://lotobonheur.ci/api/results"),
		RequestTimeout: getEnvIntWithDefault("REQUEST_TIMEOUT", 30),

		HistoryLimit:    getEnvIntWithDefault("HISTORY_LIMIT", 300),
		CacheTTLSeconds: getEnvIntWithDefault("CACHE_TTL_SECONDS", 300),
		CacheMaxEntries: getEnvIntWithDefault("CACHE_MAX_ENTRIES", 128),

		DefaultDraw:    getEnvWithDefault("DEFAULT_DRAW", "Reveil"),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatID: getEnvInt64WithDefault("TELEGRAM_CHAT_ID", 0),
	}

	return cfg, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
