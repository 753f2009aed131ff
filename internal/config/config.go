package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// DefaultAdminUserID is the well-known id of the single administrative profile.
const DefaultAdminUserID = "00000000-0000-0000-0000-000000000001"

type Config struct {
	// Server
	Port string
	Env  string

	// Supabase REST
	SupabaseURL            string
	SupabaseServiceRoleKey string
	DatastoreTimeout       time.Duration

	// JWT
	JWTSecret string
	TokenTTL  time.Duration

	// Admin identity
	AdminEmail    string
	AdminPassword string
	AdminUserID   uuid.UUID

	// LLM
	LLMProvider       string
	LLMModel          string
	OllamaBaseURL     string
	GeminiAPIKey      string
	LLMTimeout        time.Duration
	LLMConcurrentReqs int

	// Streaming
	StreamTokenDelay time.Duration

	// Login throttling
	RedisURL       string
	LoginRateLimit int

	// Logging / tracing
	LogFilePath  string
	OTelEnabled  bool
	OTelEndpoint string

	// Frontend
	FrontendURLs []string
}

// Load reads the process environment (and .env when present) once at startup.
// The returned Config is never mutated afterwards.
func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	adminID, err := uuid.Parse(getEnvOrDefault("ADMIN_USER_ID", DefaultAdminUserID))
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_USER_ID: %w", err)
	}

	llmProvider := strings.ToLower(getEnvOrDefault("LLM_PROVIDER", "ollama"))
	defaultModel := "llama3"
	if llmProvider == "gemini" {
		defaultModel = "gemini-1.5-flash"
	}

	cfg := &Config{
		Port:                   getEnvOrDefault("PORT", "8000"),
		Env:                    getEnvOrDefault("ENV", "development"),
		SupabaseURL:            strings.TrimRight(mustGetEnv("SUPABASE_URL"), "/"),
		SupabaseServiceRoleKey: mustGetEnv("SUPABASE_SERVICE_ROLE_KEY"),
		DatastoreTimeout:       getEnvAsDurationOrDefault("DATASTORE_TIMEOUT", 10*time.Second),
		JWTSecret:              getEnvOrDefault("JWT_SECRET", "change_this_secret"),
		TokenTTL:               getEnvAsDurationOrDefault("TOKEN_TTL", 12*time.Hour),
		AdminEmail:             getEnvOrDefault("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword:          getEnvOrDefault("ADMIN_PASSWORD", "password123"),
		AdminUserID:            adminID,
		LLMProvider:            llmProvider,
		LLMModel:               getEnvOrDefault("LLM_MODEL", defaultModel),
		OllamaBaseURL:          strings.TrimRight(getEnvOrDefault("OLLAMA_BASE_URL", "http://localhost:11434"), "/"),
		GeminiAPIKey:           getEnvOrDefault("GEMINI_API_KEY", ""),
		LLMTimeout:             getEnvAsDurationOrDefault("LLM_TIMEOUT", 60*time.Second),
		LLMConcurrentReqs:      getEnvAsIntOrDefault("LLM_CONCURRENT_REQUESTS", 1),
		StreamTokenDelay:       getEnvAsDurationOrDefault("STREAM_TOKEN_DELAY", 3*time.Millisecond),
		RedisURL:               getEnvOrDefault("REDIS_URL", ""),
		LoginRateLimit:         getEnvAsIntOrDefault("LOGIN_RATE_LIMIT", 10),
		LogFilePath:            getEnvOrDefault("LOG_FILE_PATH", "logs/app.log"),
		OTelEnabled:            getEnvOrDefault("OTEL_ENABLED", "false") == "true",
		OTelEndpoint:           getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		FrontendURLs:           splitList(getEnvOrDefault("FRONTEND_URLS", "http://localhost:5173,http://127.0.0.1:5173")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the invariants the rest of the process relies on.
func (c *Config) Validate() error {
	if c.SupabaseURL == "" || c.SupabaseServiceRoleKey == "" {
		return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY must be set")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.AdminUserID == uuid.Nil {
		return fmt.Errorf("ADMIN_USER_ID must not be the nil UUID")
	}
	if c.LLMConcurrentReqs < 1 {
		return fmt.Errorf("LLM_CONCURRENT_REQUESTS must be at least 1, got %d", c.LLMConcurrentReqs)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	return nil
}

// IsProduction reports whether the process runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// RESTEndpoint is the PostgREST root under the Supabase project URL.
func (c *Config) RESTEndpoint() string {
	return c.SupabaseURL + "/rest/v1"
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
