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
		Port    string
		Env     string
		Timeout time.Duration
		BaseURL string
	}

	// Gemini configuration
	Gemini struct {
		APIKey         string
		TextModel      string
		ImageModel     string
		ThinkingBudget int32
		CallTimeout    time.Duration
		// Circuit breaker around the upstream client
		BreakerThreshold uint
		BreakerRetry     time.Duration
	}

	// Quiz content configuration
	Quiz struct {
		QuestionsPerSession int
		QuestionPoolPath    string
		PromptContentPath   string
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

	// Session cache settings
	Session struct {
		TTL         time.Duration
		MaxSize     int
		PurgeWindow time.Duration
	}

	// Vault configuration
	Vault struct {
		Enabled     bool
		Address     string
		Token       string
		Namespace   string
		SecretsPath string
	}

	// Observability settings
	Observability struct {
		TracingEnabled    bool
		OpenAPISchemaPath string
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables
// Uses singleton pattern to ensure only one instance exists
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = Load()
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// Load reads a fresh Config from the environment without touching the singleton.
func Load() *Config {
	cfg := &Config{}

	// Server config
	cfg.Server.Port = getEnvString("PORT", "8081")
	cfg.Server.Env = getEnvString("APP_ENV", "development")
	cfg.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)
	cfg.Server.BaseURL = getEnvString("BASE_URL", "http://localhost:"+cfg.Server.Port)

	// Gemini config
	cfg.Gemini.APIKey = getEnvString("GEMINI_API_KEY", "")
	cfg.Gemini.TextModel = getEnvString("TEXT_MODEL", "gemini-3-pro-preview")
	cfg.Gemini.ImageModel = getEnvString("IMAGE_MODEL", "gemini-2.5-flash-image")
	cfg.Gemini.ThinkingBudget = int32(getEnvInt("THINKING_BUDGET", 32768))
	cfg.Gemini.CallTimeout = getEnvDuration("AI_CALL_TIMEOUT", 90*time.Second)
	cfg.Gemini.BreakerThreshold = uint(getEnvInt("AI_BREAKER_THRESHOLD", 5))
	cfg.Gemini.BreakerRetry = getEnvDuration("AI_BREAKER_RETRY", 30*time.Second)

	// Quiz config
	cfg.Quiz.QuestionsPerSession = getEnvInt("QUESTIONS_PER_SESSION", 7)
	cfg.Quiz.QuestionPoolPath = getEnvString("QUESTION_POOL_PATH", "")
	cfg.Quiz.PromptContentPath = getEnvString("PROMPT_CONTENT_PATH", "")

	// Security config
	cfg.Security.RateLimit = float64(getEnvInt("RATE_LIMIT", 5))
	cfg.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 10)
	cfg.Security.AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS", []string{"*"})
	cfg.Security.MaxBodySize = getEnvInt64("MAX_BODY_SIZE", 1<<20) // 1MB

	// Logging config
	cfg.Logging.Level = getEnvString("LOG_LEVEL", "info")
	cfg.Logging.Format = getEnvString("LOG_FORMAT", "json")

	// Session cache
	cfg.Session.TTL = getEnvDuration("SESSION_TTL", 2*time.Hour)
	cfg.Session.MaxSize = getEnvInt("SESSION_MAX", 10000)
	cfg.Session.PurgeWindow = getEnvDuration("SESSION_PURGE_WINDOW", 10*time.Minute)

	// Vault
	cfg.Vault.Enabled = getEnvBool("VAULT_ENABLED", false)
	cfg.Vault.Address = getEnvString("VAULT_ADDR", "")
	cfg.Vault.Token = getEnvString("VAULT_TOKEN", "")
	cfg.Vault.Namespace = getEnvString("VAULT_NAMESPACE", "")
	cfg.Vault.SecretsPath = getEnvString("VAULT_SECRETS_PATH", "solo-persona")

	// Observability
	cfg.Observability.TracingEnabled = getEnvBool("OTEL_TRACING_ENABLED", false)
	cfg.Observability.OpenAPISchemaPath = getEnvString("OPENAPI_SCHEMA_PATH", "")

	return cfg
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
		return strings.Split(value, ",")
	}
	return defaultValue
}
