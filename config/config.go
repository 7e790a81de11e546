package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL        string
	DBMaxOpenConns     int
	DBMaxIdleConns     int
	DBConnMaxLifetime  time.Duration
	Port               string
	GoEnv              string
	JWTSecret          string
	JWTIssuer          string
	JWTAudience        string
	TokenTTL           time.Duration
	OTPTTL             time.Duration
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	RabbitMQURL        string
	EventsExchange     string
	FrontendURL        string
	RateLimitWindow    time.Duration
	RateLimitMax       int
	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	UploadDir          string
	PublicBaseURL      string
	CommissionRate     float64
	ReconcileInterval  time.Duration
	SeedAdminPhone     string
	SeedAdminPassword  string
	LogLevel           string
}

var appConfig *Config

// Load reads .env.<GO_ENV> (or .env) into the environment, then builds and
// validates a Config from it. Variables already set in the process win.
func Load() (*Config, error) {
	loadEnvFiles(envOr("GO_ENV", "development"))

	config := &Config{
		DatabaseURL:        envOr("DATABASE_URL", ""),
		DBMaxOpenConns:     parsedEnvOr("DB_MAX_OPEN_CONNS", 100, strconv.Atoi),
		DBMaxIdleConns:     parsedEnvOr("DB_MAX_IDLE_CONNS", 10, strconv.Atoi),
		DBConnMaxLifetime:  parsedEnvOr("DB_CONN_MAX_LIFETIME", time.Hour, time.ParseDuration),
		Port:               envOr("PORT", "8080"),
		GoEnv:              envOr("GO_ENV", "development"),
		JWTSecret:          envOr("JWT_SECRET", "devsecret"),
		JWTIssuer:          envOr("JWT_ISSUER", "stichup"),
		JWTAudience:        envOr("JWT_AUDIENCE", "stichup-api"),
		TokenTTL:           parsedEnvOr("TOKEN_TTL", 30*24*time.Hour, time.ParseDuration),
		OTPTTL:             parsedEnvOr("OTP_TTL", 5*time.Minute, time.ParseDuration),
		RedisAddr:          envOr("REDIS_ADDR", ""),
		RedisPassword:      envOr("REDIS_PASSWORD", ""),
		RedisDB:            parsedEnvOr("REDIS_DB", 0, strconv.Atoi),
		RabbitMQURL:        envOr("RABBITMQ_URL", ""),
		EventsExchange:     envOr("EVENTS_EXCHANGE", "job_events"),
		FrontendURL:        envOr("FRONTEND_URL", "http://localhost:5173"),
		RateLimitWindow:    parsedEnvOr("RATE_LIMIT_WINDOW", 15*time.Minute, time.ParseDuration),
		RateLimitMax:       parsedEnvOr("RATE_LIMIT_MAX", 100, strconv.Atoi),
		AWSRegion:          envOr("AWS_REGION", "us-east-1"),
		AWSS3Bucket:        envOr("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:     envOr("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: envOr("AWS_SECRET_ACCESS_KEY", ""),
		UploadDir:          envOr("UPLOAD_DIR", "./uploads"),
		PublicBaseURL:      envOr("PUBLIC_BASE_URL", "http://localhost:8080"),
		CommissionRate:     parsedEnvOr("COMMISSION_RATE", 0.10, parseFloat),
		ReconcileInterval:  parsedEnvOr("RECONCILE_INTERVAL", time.Duration(0), time.ParseDuration),
		SeedAdminPhone:     envOr("SEED_ADMIN_PHONE", ""),
		SeedAdminPassword:  envOr("SEED_ADMIN_PASSWORD", ""),
		LogLevel:           envOr("LOG_LEVEL", "info"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	appConfig = config
	return config, nil
}

func loadEnvFiles(env string) {
	file := ".env." + env
	if err := godotenv.Load(file); err == nil {
		log.Info().Str("file", file).Msg("Loaded configuration")
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using process environment")
	}
}

// Validate reports every problem with c at once
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	switch {
	case c.JWTSecret == "":
		errs = append(errs, errors.New("JWT_SECRET is required"))
	case c.IsProduction() && len(c.JWTSecret) < 32:
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters in production"))
	}
	if c.RateLimitMax < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX must not be negative"))
	}
	if c.CommissionRate < 0 || c.CommissionRate > 1 {
		errs = append(errs, fmt.Errorf("COMMISSION_RATE must be between 0 and 1, got %v", c.CommissionRate))
	}
	return errors.Join(errs...)
}

func GetConfig() *Config {
	return appConfig
}

// SetConfig replaces the loaded configuration; tests use it to inject their own
func SetConfig(cfg *Config) {
	appConfig = cfg
}

func (c *Config) IsProduction() bool  { return c.GoEnv == "production" }
func (c *Config) IsTest() bool        { return c.GoEnv == "test" }
func (c *Config) IsDevelopment() bool { return c.GoEnv == "development" }

// RedisEnabled reports whether a Redis server is configured
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// S3Enabled reports whether uploads go to S3 rather than local disk
func (c *Config) S3Enabled() bool {
	return c.AWSS3Bucket != ""
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parsedEnvOr parses key with parse, logging and falling back when the value is malformed
func parsedEnvOr[T any](key string, fallback T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := parse(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Msg("Invalid value, using default")
		return fallback
	}
	return value
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
