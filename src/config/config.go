package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"formulate-backend/src/logger"

	"github.com/joho/godotenv"
)

// Config is read once at startup from the environment, after .env is loaded.
type Config struct {
	MongoURI       string
	MongoDB        string
	RedisURI       string
	RedisPassword  string
	AppPort        string
	JWTSecret      string
	AllowedOrigins string
	LogLevel       string
	LogJSON        bool
	PublicBaseURL  string
	WebhookTimeout time.Duration
	DuplicateTTL   time.Duration
	WorkerConc     int
	// SeedCreatorID, when set, seeds sample forms for that user at startup.
	SeedCreatorID  string
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPass       string
	SMTPFrom       string
}

// Load reads .env when present and fills Config with defaults for anything
// unset. A missing MONGO_URI is left for the caller to reject.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		logger.Warnf("⚠️ No .env file found, using process environment")
	}
	return Config{
		MongoURI:       os.Getenv("MONGO_URI"),
		MongoDB:        getenv("MONGO_DB", "formulate"),
		RedisURI:       os.Getenv("REDIS_URI"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		AppPort:        getenv("APP_URI", "8888"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AllowedOrigins: getenv("ALLOWED_ORIGINS", "*"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogJSON:        strings.EqualFold(os.Getenv("LOG_FORMAT"), "json"),
		PublicBaseURL:  strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
		WebhookTimeout: time.Duration(getint("WEBHOOK_TIMEOUT_SECONDS", 10)) * time.Second,
		DuplicateTTL:   time.Duration(getint("DUPLICATE_GUARD_HOURS", 24*30)) * time.Hour,
		WorkerConc:     getint("WORKER_CONCURRENCY", 10),
		SeedCreatorID:  os.Getenv("SEED_CREATOR_ID"),
		SMTPHost:       os.Getenv("SMTP_HOST"),
		SMTPPort:       getint("SMTP_PORT", 587),
		SMTPUser:       os.Getenv("SMTP_USER"),
		SMTPPass:       os.Getenv("SMTP_PASS"),
		SMTPFrom:       os.Getenv("SMTP_FROM"),
	}
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		logger.Warnf("⚠️ %s=%q is not a positive integer, using %d", key, v, def)
		return def
	}
	return n
}
