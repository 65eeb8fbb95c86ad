package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL    string
	DatabaseDriver string
	RedisURL       string
	JWTSecret      string
	JWTExpiry      time.Duration
	ServerPort     string
	Environment    string
	CORSOrigins    []string
	// TrustedProxies may set X-Forwarded-For; empty means the peer address is the client IP.
	TrustedProxies []string

	ActivityLogPath    string
	ActivityRetention  time.Duration
	PaymentSuccessRate float64
	ShutdownTimeout    time.Duration

	// Rate limiting
	RateLimitMaxRequests int
	RateLimitWindow      time.Duration
	RateLimitBlockTime   time.Duration

	// Event stream (optional)
	KafkaBrokers []string
	KafkaTopic   string

	// Image storage (optional)
	S3Endpoint       string
	S3AccessKey      string
	S3SecretKey      string
	S3Bucket         string
	S3UseSSL         bool
	S3PublicEndpoint string

	// invalid holds values that failed to parse; reported by Validate.
	invalid []string
}

// Load reads configuration from the environment.
// A .env file is loaded first when present; containers use environment variables directly.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DatabaseDriver: getEnv("DATABASE_DRIVER", "postgres"),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		ServerPort:     getEnv("SERVER_PORT", ":5000"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		CORSOrigins:    splitList(getEnv("CORS_ORIGIN", "http://localhost:3000")),
		TrustedProxies: splitList(os.Getenv("TRUSTED_PROXIES")),

		ActivityLogPath: getEnv("ACTIVITY_LOG_PATH", "data/activity.log"),

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "booking.events"),

		S3Endpoint:       os.Getenv("S3_ENDPOINT"),
		S3AccessKey:      os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:      os.Getenv("S3_SECRET_KEY"),
		S3Bucket:         getEnv("S3_BUCKET", "apartment-images"),
		S3PublicEndpoint: os.Getenv("S3_PUBLIC_ENDPOINT"),
	}

	cfg.JWTExpiry = cfg.getEnvAsDuration("JWT_EXPIRY", "24h")
	cfg.ShutdownTimeout = cfg.getEnvAsDuration("SHUTDOWN_TIMEOUT", "10s")
	cfg.ActivityRetention = cfg.getEnvAsDuration("ACTIVITY_RETENTION", "720h")
	cfg.PaymentSuccessRate = cfg.getEnvAsFloat("PAYMENT_SUCCESS_RATE", 1.0)
	cfg.S3UseSSL = cfg.getEnvAsBool("S3_USE_SSL", false)

	// Rate limiting defaults
	cfg.RateLimitMaxRequests = cfg.getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 100)
	cfg.RateLimitWindow = cfg.getEnvAsDuration("RATE_LIMIT_WINDOW", "1m")
	cfg.RateLimitBlockTime = cfg.getEnvAsDuration("RATE_LIMIT_BLOCK_TIME", "5m")

	return cfg
}

// Validate reports missing required settings and values that failed to parse.
func (c *Config) Validate() error {
	var errs []error
	for _, key := range c.invalid {
		errs = append(errs, fmt.Errorf("invalid value for %s", key))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.DatabaseDriver != "postgres" && c.DatabaseDriver != "sqlite" {
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", c.DatabaseDriver))
	}
	if c.PaymentSuccessRate < 0 || c.PaymentSuccessRate > 1 {
		errs = append(errs, errors.New("PAYMENT_SUCCESS_RATE must be between 0 and 1"))
	}
	if c.JWTExpiry <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRY must be positive"))
	}
	for _, proxy := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(proxy); err != nil && net.ParseIP(proxy) == nil {
			errs = append(errs, fmt.Errorf("TRUSTED_PROXIES: %q is not an IP or CIDR", proxy))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// KafkaEnabled reports whether reservation events should also go to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// S3Enabled reports whether apartment image uploads are configured.
func (c *Config) S3Enabled() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// getEnvAsInt retrieves environment variable as int with default value
func (c *Config) getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		c.invalid = append(c.invalid, key)
		return defaultVal
	}
	return val
}

func (c *Config) getEnvAsFloat(key string, defaultVal float64) float64 {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		c.invalid = append(c.invalid, key)
		return defaultVal
	}
	return val
}

func (c *Config) getEnvAsBool(key string, defaultVal bool) bool {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		c.invalid = append(c.invalid, key)
		return defaultVal
	}
	return val
}

// getEnvAsDuration retrieves environment variable as duration with default value
func (c *Config) getEnvAsDuration(key string, defaultVal string) time.Duration {
	valStr := os.Getenv(key)
	if valStr == "" {
		valStr = defaultVal
	}
	duration, err := time.ParseDuration(valStr)
	if err != nil {
		c.invalid = append(c.invalid, key)
		duration, _ = time.ParseDuration(defaultVal)
	}
	return duration
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
