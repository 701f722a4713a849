package config

import (
	"os"
	"strconv"
	"time"

	"github.com/dhanbyte/shopwave-sub001/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	JWTSecret   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Bound applied to every storage call made by the ledger.
	StorageTimeout time.Duration

	// History/report sizes
	HistoryLimit      int
	TopReferrersLimit int

	// Rate limits for the public API group
	APIRateLimit  int
	APIRateWindow time.Duration

	LogLevel string
	LogJSON  bool
}

// Load reads configuration from the environment. Required vars are fatal
// when missing; everything else has a default.
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	return &Config{
		AppPort:     port,
		DatabaseURL: dbURL,
		JWTSecret:   jwtSecret,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		StorageTimeout: time.Duration(envInt("STORAGE_TIMEOUT_SECONDS", 5)) * time.Second,

		HistoryLimit:      envInt("HISTORY_LIMIT", 100),
		TopReferrersLimit: envInt("TOP_REFERRERS_LIMIT", 10),

		APIRateLimit:  envInt("API_RATE_LIMIT", 60),
		APIRateWindow: time.Duration(envInt("API_RATE_WINDOW_SECONDS", 60)) * time.Second,

		LogLevel: envStr("LOG_LEVEL", "info"),
		LogJSON:  os.Getenv("LOG_JSON") == "true",
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
