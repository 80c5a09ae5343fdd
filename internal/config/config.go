package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// VerificationPolicy selects how a new account proves it is legitimate
type VerificationPolicy string

const (
	VerificationNone    VerificationPolicy = "none"
	VerificationCaptcha VerificationPolicy = "captcha"
	VerificationCode    VerificationPolicy = "code"
)

// Blob storage drivers
const (
	BlobDriverLocal  = "local"
	BlobDriverVercel = "vercel"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Auth      AuthConfig
	Email     EmailConfig
	Blob      BlobConfig
}

type ServerConfig struct {
	Port            string
	Env             string // dev or prod
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedOrigins  []string // CORS allowed origins for cookie auth
}

type DatabaseConfig struct {
	URL            string // full DSN, takes precedence over the discrete fields
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	ChannelBinding string // "require" for Neon DB, empty for local
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type AuthConfig struct {
	Verification    VerificationPolicy
	TurnstileSecret string
	TurnstileURL    string
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	From         string
	SiteName     string
}

type BlobConfig struct {
	Driver        string
	Token         string
	APIURL        string
	LocalDir      string
	PublicBaseURL string
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("APP_ENV", "dev"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			TrustedOrigins:  getSliceEnv("TRUSTED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: databaseFromEnv(),
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			Requests: getIntEnv("RATE_LIMIT_REQUESTS", 20),
			Window:   getDurationEnv("RATE_LIMIT_WINDOW", 15*time.Minute),
		},
		Auth: AuthConfig{
			Verification:    VerificationPolicy(strings.ToLower(getEnv("REGISTRATION_VERIFICATION", string(VerificationCode)))),
			TurnstileSecret: getEnv("TURNSTILE_SECRET", ""),
			TurnstileURL:    getEnv("TURNSTILE_VERIFY_URL", "https://challenges.cloudflare.com/turnstile/v0/siteverify"),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUser:     getEnv("SMTP_USER", ""),
			SMTPPassword: getEnv("SMTP_PASS", ""),
			From:         getEnv("MAIL_FROM", ""),
			SiteName:     getEnv("SITE_NAME", "NovelVerse"),
		},
		Blob: BlobConfig{
			Driver:        strings.ToLower(getEnv("BLOB_DRIVER", BlobDriverLocal)),
			Token:         getEnv("BLOB_READ_WRITE_TOKEN", ""),
			APIURL:        getEnv("BLOB_API_URL", "https://blob.vercel-storage.com"),
			LocalDir:      getEnv("BLOB_LOCAL_DIR", "./uploads"),
			PublicBaseURL: getEnv("BLOB_PUBLIC_BASE_URL", "http://localhost:8080/uploads"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDatabase reads only the Postgres settings. Feature policy checks are
// skipped, so tooling such as migrations runs without SMTP or captcha setup.
func LoadDatabase() DatabaseConfig {
	_ = godotenv.Load()
	return databaseFromEnv()
}

func databaseFromEnv() DatabaseConfig {
	return DatabaseConfig{
		URL:            getEnv("DATABASE_URL", ""),
		Host:           getEnv("DB_HOST", "localhost"),
		Port:           getEnv("DB_PORT", "5432"),
		User:           getEnv("DB_USER", "postgres"),
		Password:       getEnv("DB_PASSWORD", "postgres"),
		DBName:         getEnv("DB_NAME", "novelverse"),
		SSLMode:        getEnv("DB_SSLMODE", "disable"),
		ChannelBinding: getEnv("DB_CHANNEL_BINDING", ""),
	}
}

// Validate performs presence checks on settings the selected features depend on
func (c *Config) Validate() error {
	switch c.Auth.Verification {
	case VerificationNone:
	case VerificationCaptcha:
		if c.Auth.TurnstileSecret == "" {
			return fmt.Errorf("TURNSTILE_SECRET is required when REGISTRATION_VERIFICATION=captcha")
		}
	case VerificationCode:
		if c.Email.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required when REGISTRATION_VERIFICATION=code")
		}
		if c.Email.From == "" {
			return fmt.Errorf("MAIL_FROM is required when REGISTRATION_VERIFICATION=code")
		}
	default:
		return fmt.Errorf("unknown REGISTRATION_VERIFICATION %q (want none, captcha or code)", c.Auth.Verification)
	}

	switch c.Blob.Driver {
	case BlobDriverLocal:
		if c.Blob.LocalDir == "" {
			return fmt.Errorf("BLOB_LOCAL_DIR is required when BLOB_DRIVER=local")
		}
	case BlobDriverVercel:
		if c.Blob.Token == "" {
			return fmt.Errorf("BLOB_READ_WRITE_TOKEN is required when BLOB_DRIVER=vercel")
		}
	default:
		return fmt.Errorf("unknown BLOB_DRIVER %q (want local or vercel)", c.Blob.Driver)
	}

	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)

	// Add channel_binding if configured (required for Neon DB)
	if c.ChannelBinding != "" {
		connStr += fmt.Sprintf(" channel_binding=%s", c.ChannelBinding)
	}

	return connStr
}

// Address returns Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Address returns the listen address for the HTTP server
func (c *ServerConfig) Address() string {
	return ":" + c.Port
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// getDurationEnv reads a whole number of seconds
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	seconds, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return time.Duration(seconds) * time.Second
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
