package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App         AppConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	Logger      LoggerConfig
	Identity    IdentityConfig
	ActionToken ActionTokenConfig
	Mail        MailConfig
	Storage     StorageConfig
	Calendar    CalendarConfig
	RateLimit   RateLimitConfig
	Analytics   AnalyticsConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	PublicURL             string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// IdentityConfig points at the hosted identity provider.
type IdentityConfig struct {
	APIURL        string
	SecretKey     string
	JWTPublicKey  string
	SignInURL     string
	SessionCookie string
	TimeoutSec    int
}

// ActionTokenConfig signs visitor response links.
type ActionTokenConfig struct {
	Secret   string
	TTLHours int
}

// MailConfig configures the transactional email provider.
type MailConfig struct {
	APIKey string
	From   string
}

// StorageConfig configures the S3 compatible upload bucket.
type StorageConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
	MaxUploadMB   int
}

// CalendarConfig holds OAuth client credentials for calendar providers.
type CalendarConfig struct {
	GoogleClientID      string
	GoogleClientSecret  string
	OutlookClientID     string
	OutlookClientSecret string
	OutlookTenant       string
	TokenKeyHex         string
}

// RateLimitConfig controls throttling of unauthenticated endpoints.
type RateLimitConfig struct {
	PublicPerMinute int
}

// AnalyticsConfig controls report caching.
type AnalyticsConfig struct {
	CacheTTLSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	port := getEnv("APP_PORT", "8080")
	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "frontdesk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  port,
			Version:               getEnv("APP_VERSION", "dev"),
			PublicURL:             strings.TrimRight(getEnv("APP_PUBLIC_URL", "http://localhost:"+port), "/"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Identity: IdentityConfig{
			APIURL:        strings.TrimRight(getEnv("IDENTITY_API_URL", "https://api.clerk.com/v1"), "/"),
			SecretKey:     os.Getenv("IDENTITY_SECRET_KEY"),
			JWTPublicKey:  os.Getenv("IDENTITY_JWT_PUBLIC_KEY"),
			SignInURL:     os.Getenv("IDENTITY_SIGN_IN_URL"),
			SessionCookie: getEnv("IDENTITY_SESSION_COOKIE", "__session"),
			TimeoutSec:    getEnvAsInt("IDENTITY_TIMEOUT_SECONDS", 5),
		},
		ActionToken: ActionTokenConfig{
			Secret:   os.Getenv("ACTION_TOKEN_SECRET"),
			TTLHours: getEnvAsInt("ACTION_TOKEN_TTL_HOURS", 24),
		},
		Mail: MailConfig{
			APIKey: os.Getenv("MAIL_API_KEY"),
			From:   getEnv("MAIL_FROM", "Front Desk <noreply@example.com>"),
		},
		Storage: StorageConfig{
			Endpoint:      os.Getenv("STORAGE_ENDPOINT"),
			AccessKey:     os.Getenv("STORAGE_ACCESS_KEY"),
			SecretKey:     os.Getenv("STORAGE_SECRET_KEY"),
			Bucket:        getEnv("STORAGE_BUCKET", "frontdesk"),
			UseSSL:        getEnvAsBool("STORAGE_USE_SSL", true),
			PublicBaseURL: strings.TrimRight(os.Getenv("STORAGE_PUBLIC_BASE_URL"), "/"),
			MaxUploadMB:   getEnvAsInt("UPLOAD_MAX_MB", 5),
		},
		Calendar: CalendarConfig{
			GoogleClientID:      os.Getenv("GOOGLE_CLIENT_ID"),
			GoogleClientSecret:  os.Getenv("GOOGLE_CLIENT_SECRET"),
			OutlookClientID:     os.Getenv("OUTLOOK_CLIENT_ID"),
			OutlookClientSecret: os.Getenv("OUTLOOK_CLIENT_SECRET"),
			OutlookTenant:       getEnv("OUTLOOK_TENANT", "common"),
			TokenKeyHex:         os.Getenv("CALENDAR_TOKEN_KEY"),
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute: getEnvAsInt("RATE_LIMIT_PUBLIC_PER_MINUTE", 60),
		},
		Analytics: AnalyticsConfig{
			CacheTTLSeconds: getEnvAsInt("ANALYTICS_CACHE_TTL_SECONDS", 60),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Calendar.TokenKeyHex != "" {
		key, err := hex.DecodeString(c.Calendar.TokenKeyHex)
		if err != nil || len(key) != 32 {
			return fmt.Errorf("CALENDAR_TOKEN_KEY must be 32 bytes hex encoded")
		}
	}
	if c.App.IsDevelopment() {
		return nil
	}
	if c.ActionToken.Secret == "" {
		return fmt.Errorf("ACTION_TOKEN_SECRET is required outside development")
	}
	if c.Calendar.TokenKeyHex == "" {
		return fmt.Errorf("CALENDAR_TOKEN_KEY is required outside development")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsDevelopment reports whether the service runs in development mode.
func (a AppConfig) IsDevelopment() bool {
	return strings.EqualFold(a.Env, "development")
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the identity provider HTTP timeout.
func (i IdentityConfig) Timeout() time.Duration {
	if i.TimeoutSec <= 0 {
		return 5 * time.Second
	}
	return time.Duration(i.TimeoutSec) * time.Second
}

// TTL returns the validity window of visitor action tokens.
func (a ActionTokenConfig) TTL() time.Duration {
	if a.TTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(a.TTLHours) * time.Hour
}

// TokenKey returns the decoded calendar token encryption key, nil when unset.
func (c CalendarConfig) TokenKey() []byte {
	if c.TokenKeyHex == "" {
		return nil
	}
	key, err := hex.DecodeString(c.TokenKeyHex)
	if err != nil {
		return nil
	}
	return key
}

// MaxUploadBytes returns the upload size ceiling.
func (s StorageConfig) MaxUploadBytes() int64 {
	if s.MaxUploadMB <= 0 {
		return 5 << 20
	}
	return int64(s.MaxUploadMB) << 20
}

// CacheTTL returns the analytics cache lifetime.
func (a AnalyticsConfig) CacheTTL() time.Duration {
	if a.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(a.CacheTTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
