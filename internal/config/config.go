package config

import (
	"os"
	"strconv"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// EmailConfig holds settings for the outbound transactional email provider.
// PublicKey/PrivateKey are the API key pair used for HTTP Basic auth.
type EmailConfig struct {
	BaseURL     string
	SenderEmail string
	SenderName  string
	PublicKey   string
	PrivateKey  string
	TimeoutSec  int
}

// AdminConfig holds credentials protecting the admin endpoints.
// PasswordHash is an argon2id hash in PHC string format.
type AdminConfig struct {
	Username     string
	PasswordHash string
}

// RedisConfig holds optional Redis settings. Rate limiting of the public
// subscribe endpoint is enabled only when Addr is set.
type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	SubscribeLimit int
	WindowSec      int
}

// DeliveryConfig controls the background newsletter delivery worker.
type DeliveryConfig struct {
	Workers         int
	BatchSize       int
	MaxAttempts     int
	PollIntervalSec int
}

// StorageConfig holds object storage settings for published issue archives.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	BaseURL  string
	Timezone string
	Database DatabaseConfig
	Email    EmailConfig
	Admin    AdminConfig
	Redis    RedisConfig
	Delivery DeliveryConfig
	Storage  StorageConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:8080"),
		Port:     getEnv("PORT", "8080"), // default only for non-sensitive value
		BaseURL:  getEnv("APP_BASE_URL", "http://localhost:8080"),
		Timezone: getEnv("APP_TIMEZONE", "UTC"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Email: EmailConfig{
			BaseURL:     getEnv("EMAIL_BASE_URL", ""),
			SenderEmail: getEnv("EMAIL_SENDER", ""),
			SenderName:  getEnv("EMAIL_SENDER_NAME", "Newsletter"),
			PublicKey:   getEnv("EMAIL_API_PUBLIC_KEY", ""),
			PrivateKey:  getEnv("EMAIL_API_PRIVATE_KEY", ""),
			TimeoutSec:  getEnvInt("EMAIL_TIMEOUT_SEC", 10),
		},
		Admin: AdminConfig{
			Username:     getEnv("ADMIN_USERNAME", ""),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		},
		Redis: RedisConfig{
			Addr:           getEnv("REDIS_ADDR", ""),
			Password:       getEnv("REDIS_PASSWORD", ""),
			DB:             getEnvInt("REDIS_DB", 0),
			SubscribeLimit: getEnvInt("SUBSCRIBE_RATE_LIMIT", 10),
			WindowSec:      getEnvInt("SUBSCRIBE_RATE_WINDOW_SEC", 60),
		},
		Delivery: DeliveryConfig{
			Workers:         getEnvInt("DELIVERY_WORKERS", 4),
			BatchSize:       getEnvInt("DELIVERY_BATCH_SIZE", 50),
			MaxAttempts:     getEnvInt("DELIVERY_MAX_ATTEMPTS", 3),
			PollIntervalSec: getEnvInt("DELIVERY_POLL_INTERVAL_SEC", 5),
		},
		Storage: StorageConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
