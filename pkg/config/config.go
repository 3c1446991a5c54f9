package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	ServerPort         string
	RateLimitPerMinute int

	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// RabbitMQ
	RabbitMQHost     string
	RabbitMQPort     string
	RabbitMQUser     string
	RabbitMQPassword string

	// AWS S3
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSEndpoint        string
	S3UseSSL           string
	S3BucketName       string

	// Storage tiers, in load priority order
	StorageTiers []string
	StorageDir   string

	// Per-client settings file and how often the worker re-reads it
	ClientsFile    string
	ClientsRefresh time.Duration

	// External collaborators
	GeneratorURL     string
	NewsletterAPIURL string
	NewsletterAPIKey string
	TelegramAPIURL   string
	TelegramBotToken string

	// Pipeline timing
	CallTimeout     time.Duration
	SchedulerTick   time.Duration
	SweepInterval   time.Duration
	DispatchLease   time.Duration
	DispatchWorkers int
}

func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	config := &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 100),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "content_engine"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "content.db"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RabbitMQHost:     getEnv("RABBITMQ_HOST", ""),
		RabbitMQPort:     getEnv("RABBITMQ_PORT", "5672"),
		RabbitMQUser:     getEnv("RABBITMQ_USER", "guest"),
		RabbitMQPassword: getEnv("RABBITMQ_PASSWORD", "guest"),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpoint:        getEnv("AWS_ENDPOINT", ""),
		S3UseSSL:           getEnv("S3_USE_SSL", "true"),
		S3BucketName:       getEnv("S3_BUCKET_NAME", ""),

		StorageTiers: getEnvList("STORAGE_TIERS", []string{"db", "redis", "file"}),
		StorageDir:   getEnv("STORAGE_DIR", "data"),

		ClientsFile:    getEnv("CLIENTS_FILE", "clients.yaml"),
		ClientsRefresh: getEnvDuration("CLIENTS_REFRESH", 10*time.Minute),

		GeneratorURL:     getEnv("GENERATOR_URL", "http://localhost:8090"),
		NewsletterAPIURL: getEnv("NEWSLETTER_API_URL", "https://api.beehiiv.com/v2"),
		NewsletterAPIKey: getEnv("NEWSLETTER_API_KEY", ""),
		TelegramAPIURL:   getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),

		CallTimeout:     getEnvDuration("CALL_TIMEOUT", 60*time.Second),
		SchedulerTick:   getEnvDuration("SCHEDULER_TICK", time.Minute),
		SweepInterval:   getEnvDuration("SWEEP_INTERVAL", 5*time.Minute),
		DispatchLease:   getEnvDuration("DISPATCH_LEASE", 15*time.Minute),
		DispatchWorkers: getEnvInt("DISPATCH_WORKERS", 1),
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
