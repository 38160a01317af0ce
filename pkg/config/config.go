package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port            string
		Env             string
		ReadTimeout     time.Duration
		ShutdownTimeout time.Duration
	}

	// Storage selects and bounds the per-profile key-value store
	Storage struct {
		Backend    string // memory, redis, postgres, sqlite
		QuotaBytes int64
		KeyPrefix  string
	}

	// Redis configuration, used when Storage.Backend is "redis"
	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	// Database configuration, used by the postgres and sqlite backends
	Database struct {
		Host       string
		Port       string
		User       string
		Password   string
		Name       string
		SSLMode    string
		SQLitePath string
		MaxConns   int
		Retries    int
		RetryDelay time.Duration
	}

	// JWT configuration
	JWT struct {
		Secret string
		Expiry time.Duration
		Issuer string
	}

	// Security configuration
	Security struct {
		RateLimit      float64
		RateLimitBurst int
		AllowedOrigins []string
		MaxBodySize    int64
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// AI configuration for the generation backend
	AI struct {
		Provider        string // gemini, openai
		GeminiAPIKey    string
		OpenAIAPIKey    string
		OpenAIBaseURL   string
		TextModel       string
		ImageModel      string
		RequestTimeout  time.Duration
		BreakerFailures uint
		BreakerCooldown time.Duration
	}

	// Auth configuration for the identity provider
	Auth struct {
		Provider       string // firebase, dev
		FirebaseAPIKey string
		FirebaseURL    string
		OTPTTL         time.Duration
	}

	// Vault configuration for the secrets manager
	Vault struct {
		Enabled     bool
		Address     string
		Token       string
		Namespace   string
		SecretsPath string
		Mount       string
	}

	// Observability configuration
	Observability struct {
		ServiceName   string
		TraceStdout   bool
		OpenAPISchema string
	}
}

var (
	instance *Config
	once     sync.Once
)

// New returns the process configuration, loading it on first use.
// Loading also reads a .env file when present.
func New() *Config {
	once.Do(func() {
		_ = godotenv.Load()
		instance = Load()
	})
	return instance
}

// Get returns the process configuration
func Get() *Config {
	return New()
}

// Load builds a fresh Config from the current environment without caching it
func Load() *Config {
	cfg := &Config{}

	cfg.Server.Port = getEnvString("PORT", "8081")
	cfg.Server.Env = getEnvString("APP_ENV", "development")
	cfg.Server.ReadTimeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)
	cfg.Server.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second)

	cfg.Storage.Backend = strings.ToLower(getEnvString("STORAGE_BACKEND", "memory"))
	cfg.Storage.QuotaBytes = getEnvInt64("STORAGE_QUOTA_BYTES", 5<<20) // 5MB, the browser local storage budget
	cfg.Storage.KeyPrefix = getEnvString("STORAGE_KEY_PREFIX", "companion")

	cfg.Redis.Addr = getEnvString("REDIS_URL", "localhost:6379")
	cfg.Redis.Password = getEnvString("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.Database.Host = getEnvString("DB_HOST", "localhost")
	cfg.Database.Port = getEnvString("DB_PORT", "5432")
	cfg.Database.User = getEnvString("DB_USER", "postgres")
	cfg.Database.Password = getEnvString("DB_PASSWORD", "postgres")
	cfg.Database.Name = getEnvString("DB_NAME", "companion_chat")
	cfg.Database.SSLMode = getEnvString("DB_SSL_MODE", "disable")
	cfg.Database.SQLitePath = getEnvString("SQLITE_PATH", "companion.db")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 20)
	cfg.Database.Retries = getEnvInt("DB_RETRIES", 5)
	cfg.Database.RetryDelay = getEnvDuration("DB_RETRY_DELAY", 5*time.Second)

	cfg.JWT.Secret = getEnvString("JWT_SECRET", "default-jwt-secret-do-not-use-in-production")
	cfg.JWT.Expiry = getEnvDuration("JWT_EXPIRY", 30*24*time.Hour)
	cfg.JWT.Issuer = getEnvString("JWT_ISSUER", "companion-chat")

	cfg.Security.RateLimit = getEnvFloat("RATE_LIMIT", 5)
	cfg.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 10)
	cfg.Security.AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS", []string{"*"})
	cfg.Security.MaxBodySize = getEnvInt64("MAX_BODY_SIZE", 12<<20) // photos travel as data URIs

	cfg.Logging.Level = getEnvString("LOG_LEVEL", "info")
	cfg.Logging.Format = getEnvString("LOG_FORMAT", "json")

	cfg.AI.Provider = strings.ToLower(getEnvString("AI_PROVIDER", "gemini"))
	cfg.AI.GeminiAPIKey = getEnvString("GEMINI_API_KEY", "")
	cfg.AI.OpenAIAPIKey = getEnvString("OPENAI_API_KEY", "")
	cfg.AI.OpenAIBaseURL = getEnvString("OPENAI_BASE_URL", "")
	cfg.AI.TextModel = getEnvString("AI_TEXT_MODEL", "gemini-2.0-flash")
	cfg.AI.ImageModel = getEnvString("AI_IMAGE_MODEL", "gemini-2.0-flash-preview-image-generation")
	cfg.AI.RequestTimeout = getEnvDuration("AI_REQUEST_TIMEOUT", 60*time.Second)
	cfg.AI.BreakerFailures = uint(getEnvInt("AI_BREAKER_FAILURES", 5))
	cfg.AI.BreakerCooldown = getEnvDuration("AI_BREAKER_COOLDOWN", 30*time.Second)

	cfg.Auth.Provider = strings.ToLower(getEnvString("IDENTITY_PROVIDER", "dev"))
	cfg.Auth.FirebaseAPIKey = getEnvString("FIREBASE_API_KEY", "")
	cfg.Auth.FirebaseURL = getEnvString("FIREBASE_IDENTITY_URL", "https://identitytoolkit.googleapis.com")
	cfg.Auth.OTPTTL = getEnvDuration("OTP_TTL", 5*time.Minute)

	cfg.Vault.Enabled = getEnvBool("VAULT_ENABLED", false)
	cfg.Vault.Address = getEnvString("VAULT_ADDR", "")
	cfg.Vault.Token = getEnvString("VAULT_TOKEN", "")
	cfg.Vault.Namespace = getEnvString("VAULT_NAMESPACE", "")
	cfg.Vault.SecretsPath = getEnvString("VAULT_SECRETS_PATH", "companion-chat")
	cfg.Vault.Mount = getEnvString("VAULT_MOUNT", "secret")

	cfg.Observability.ServiceName = getEnvString("SERVICE_NAME", "companion-chat")
	cfg.Observability.TraceStdout = getEnvBool("TRACE_STDOUT", false)
	cfg.Observability.OpenAPISchema = getEnvString("OPENAPI_SCHEMA_PATH", "")

	return cfg
}

// IsProduction reports whether the server runs with production settings
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}
