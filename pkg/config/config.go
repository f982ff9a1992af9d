package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const retryInFlightMargin = 30 * time.Second

type Config struct {
	// Server
	ServerPort string
	LogLevel   string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

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

	// JWT
	JWTSecret string

	// Identity used when a request carries no token user (local/dev setups)
	DefaultUserID string

	// AWS S3
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSEndpoint        string
	S3BucketName       string
	S3UseSSL           string

	// Publish API
	PublishAPIURL  string
	PublishTimeout time.Duration

	// Calendar
	CalendarTimezone string
	RetryStateTTL    time.Duration

	// Metrics
	MetricsEnabled bool
}

func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	config := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "social_scheduler"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RabbitMQHost:     getEnv("RABBITMQ_HOST", "localhost"),
		RabbitMQPort:     getEnv("RABBITMQ_PORT", "5672"),
		RabbitMQUser:     getEnv("RABBITMQ_USER", "guest"),
		RabbitMQPassword: getEnv("RABBITMQ_PASSWORD", "guest"),

		JWTSecret:     getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		DefaultUserID: getEnv("DEFAULT_USER_ID", ""),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpoint:        getEnv("AWS_ENDPOINT", ""),
		S3BucketName:       getEnv("S3_BUCKET_NAME", "social-scheduler-media"),
		S3UseSSL:           getEnv("S3_USE_SSL", "true"),

		PublishAPIURL:  getEnv("PUBLISH_API_URL", "http://localhost:5000"),
		PublishTimeout: getEnvPositiveDuration("PUBLISH_TIMEOUT", 30*time.Second),

		CalendarTimezone: getEnv("CALENDAR_TIMEZONE", ""),
		RetryStateTTL:    getEnvDuration("RETRY_STATE_TTL", 24*time.Hour),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
	}

	return config, nil
}

// RetryInFlightTTL is how long a retry may hold its pair key. It outlasts the
// publish call by a margin that covers loading and persisting the post.
func (c *Config) RetryInFlightTTL() time.Duration {
	return c.PublishTimeout + retryInFlightMargin
}

// Location resolves CalendarTimezone, falling back to the process local zone.
func (c *Config) Location() *time.Location {
	if c.CalendarTimezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.CalendarTimezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvPositiveDuration(key string, defaultValue time.Duration) time.Duration {
	if d := getEnvDuration(key, defaultValue); d > 0 {
		return d
	}
	return defaultValue
}
