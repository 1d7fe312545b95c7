package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Conceptual-Machines/bidrohi/internal/llm"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	environmentProduction = "production"
)

// Config holds the application configuration.
// Everything is read from the environment (optionally seeded from a .env file).
type Config struct {
	// Environment
	Environment string
	Port        string

	// LLM backend
	Provider      string // "gemini" or "openai"; inferred from Model when unset
	Model         string // Empty means the provider default
	GeminiAPIKey  string // Google Gemini API key
	OpenAIAPIKey  string // OpenAI API key
	OpenAIBaseURL string // Optional OpenAI-compatible endpoint

	// Reveal and request timing
	RevealInterval    time.Duration // Pause between revealed lines
	GenerationTimeout time.Duration // Upper bound for one HTTP-triggered cycle

	// Sessions
	SessionSecret    string
	SessionCacheSize int
	SessionTTL       time.Duration

	// Prompt style override (YAML file); empty uses the embedded style
	PromptStylePath string

	// Observability
	SentryDSN         string // Sentry DSN for error tracking
	LangfusePublicKey string // Langfuse public key
	LangfuseSecretKey string // Langfuse secret key
	LangfuseHost      string // Langfuse host URL (cloud or self-hosted)
	LangfuseEnabled   bool   // Feature flag for Langfuse
	CloudWatchEnabled bool   // Push generation metrics to CloudWatch

	// Sidebar attribution footer (optional)
	AttributionName string
	AttributionURL  string
}

// ConfigurationError reports a startup-time problem that must halt the process.
type ConfigurationError struct {
	Key     string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error (%s): %s", e.Key, e.Message)
}

func Load() *Config {
	cfg := &Config{
		Environment:       getEnv("ENVIRONMENT", "development"),
		Port:              getEnv("PORT", "8080"),
		Provider:          strings.ToLower(getEnv("LLM_PROVIDER", "")),
		Model:             getEnv("LLM_MODEL", ""),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		RevealInterval:    time.Duration(getEnvInt("REVEAL_INTERVAL_MS", 500)) * time.Millisecond,
		GenerationTimeout: time.Duration(getEnvInt("GENERATION_TIMEOUT_SECONDS", 60)) * time.Second,
		SessionSecret:     getEnv("SESSION_SECRET", ""),
		SessionCacheSize:  getEnvInt("SESSION_CACHE_SIZE", 1024),
		SessionTTL:        time.Duration(getEnvInt("SESSION_TTL_MINUTES", 60)) * time.Minute,
		PromptStylePath:   getEnv("PROMPT_STYLE_PATH", ""),
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		LangfusePublicKey: getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey: getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:      getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:   getEnv("LANGFUSE_ENABLED", "false") == "true",
		CloudWatchEnabled: getEnv("CLOUDWATCH_ENABLED", "false") == "true",
		AttributionName:   getEnv("ATTRIBUTION_NAME", ""),
		AttributionURL:    getEnv("ATTRIBUTION_URL", ""),
	}
	if cfg.Provider == "" {
		cfg.Provider = llm.ProviderNameForModel(cfg.Model)
	}
	return cfg
}

// Validate checks the settings the process cannot start without.
// A missing backend credential is fatal: no request is ever attempted without one.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini:
		if strings.TrimSpace(c.GeminiAPIKey) == "" {
			return &ConfigurationError{
				Key:     "GEMINI_API_KEY",
				Message: "API key not found; add GEMINI_API_KEY to the environment or .env file",
			}
		}
	case ProviderOpenAI:
		if strings.TrimSpace(c.OpenAIAPIKey) == "" {
			return &ConfigurationError{
				Key:     "OPENAI_API_KEY",
				Message: "API key not found; add OPENAI_API_KEY to the environment or .env file",
			}
		}
	default:
		return &ConfigurationError{
			Key:     "LLM_PROVIDER",
			Message: fmt.Sprintf("unknown provider %q (allowed: gemini, openai)", c.Provider),
		}
	}

	if c.RevealInterval < 0 {
		return &ConfigurationError{Key: "REVEAL_INTERVAL_MS", Message: "must not be negative"}
	}
	if c.SessionCacheSize <= 0 {
		return &ConfigurationError{Key: "SESSION_CACHE_SIZE", Message: "must be positive"}
	}
	return nil
}

// APIKey returns the credential for the configured provider.
func (c *Config) APIKey() string {
	if c.Provider == ProviderOpenAI {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

// IsProduction reports whether the service runs in the production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == environmentProduction
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
