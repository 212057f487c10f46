package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	NodeID      int64

	OTLPEndpoint string

	Auth         AuthConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	RateLimit    RateLimitConfig
	Notification NotificationConfig
	Email        EmailConfig
}

type AuthConfig struct {
	JWTSecret            string
	Issuer               string
	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	AdminRegistrationKey string
	MaxAdmins            int
}

type DatabaseConfig struct {
	Type            string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	Path            string
	MaxIdleConn     int
	MaxOpenConn     int
	ConnMaxLifetime int
	ConnMaxIdleTime int
	AutoMigrate     bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	LoginCapacity   int64
	LoginRefillRate float64
}

type NotificationConfig struct {
	DispatchInterval time.Duration
	BatchSize        int
	MaxAttempts      int
	RetryBackoff     time.Duration
	ReminderCron     string
	ReminderDays     int
	TemplatesPath    string
}

type EmailConfig struct {
	Provider  string
	FromEmail string
	FromName  string
	SMTP      SMTPConfig
	SendGrid  SendGridConfig
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

type SendGridConfig struct {
	APIKey string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:      getenv("APP_SERVICE", "volunteerhub"),
		AppVersion:   getenv("APP_VERSION", "0.1.0"),
		Environment:  getenv("ENVIRONMENT", "development"),
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		NodeID:       getenvInt64("NODE_ID", 1),
		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),
		Auth: AuthConfig{
			JWTSecret:            strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),
			Issuer:               getenv("AUTH_JWT_ISSUER", "volunteerhub"),
			AccessTokenTTL:       getenvDuration("AUTH_ACCESS_TOKEN_TTL", 30*time.Minute),
			RefreshTokenTTL:      getenvDuration("AUTH_REFRESH_TOKEN_TTL", 7*24*time.Hour),
			AdminRegistrationKey: strings.TrimSpace(getenv("ADMIN_REGISTRATION_KEY", "")),
			MaxAdmins:            getenvInt("AUTH_MAX_ADMINS", 3),
		},
		Database: DatabaseConfig{
			Type:            getenv("DATABASE_TYPE", "postgres"),
			Host:            getenv("DATABASE_HOST", "localhost"),
			Port:            getenv("DATABASE_PORT", "5432"),
			Name:            getenv("DATABASE_NAME", "volunteerhub"),
			User:            getenv("DATABASE_USER", "postgres"),
			Password:        getenv("DATABASE_PASSWORD", ""),
			SSLMode:         getenv("DATABASE_SSLMODE", "disable"),
			Path:            getenv("DATABASE_PATH", "volunteerhub.db"),
			MaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 10),
			MaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 50),
			ConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
			AutoMigrate:     getenvBool("DATABASE_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getenvInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			LoginCapacity:   getenvInt64("RATE_LIMIT_LOGIN_CAPACITY", 10),
			LoginRefillRate: getenvFloat("RATE_LIMIT_LOGIN_REFILL_PER_SEC", 0.2),
		},
		Notification: NotificationConfig{
			DispatchInterval: getenvDuration("NOTIFY_DISPATCH_INTERVAL", 5*time.Second),
			BatchSize:        getenvInt("NOTIFY_BATCH_SIZE", 50),
			MaxAttempts:      getenvInt("NOTIFY_MAX_ATTEMPTS", 5),
			RetryBackoff:     getenvDuration("NOTIFY_RETRY_BACKOFF", 30*time.Second),
			ReminderCron:     getenv("NOTIFY_REMINDER_CRON", "0 0 8 * * *"),
			ReminderDays:     getenvInt("NOTIFY_REMINDER_DAYS", 3),
			TemplatesPath:    strings.TrimSpace(getenv("NOTIFY_TEMPLATES_PATH", "")),
		},
		Email: EmailConfig{
			Provider:  strings.ToLower(getenv("EMAIL_PROVIDER", "log")),
			FromEmail: getenv("EMAIL_FROM", "no-reply@volunteerhub.local"),
			FromName:  getenv("EMAIL_FROM_NAME", "VolunteerHub"),
			SMTP: SMTPConfig{
				Host:     getenv("SMTP_HOST", "localhost"),
				Port:     getenvInt("SMTP_PORT", 587),
				Username: getenv("SMTP_USERNAME", ""),
				Password: getenv("SMTP_PASSWORD", ""),
			},
			SendGrid: SendGridConfig{
				APIKey: strings.TrimSpace(getenv("SENDGRID_API_KEY", "")),
			},
		},
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
