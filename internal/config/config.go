// Package config loads worker configuration and sets up logging.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider selects an LLM / embedding backend.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderMistral   Provider = "mistral"
)

// Config holds all configuration values. Constructed once in main and
// injected into each collaborator.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string `yaml:"surrealdb_url"`
	SurrealDBNamespace string `yaml:"surrealdb_namespace"`
	SurrealDBDatabase  string `yaml:"surrealdb_database"`
	SurrealDBUser      string `yaml:"surrealdb_user"`
	SurrealDBPass      string `yaml:"surrealdb_pass"`
	SurrealDBAuthLevel string `yaml:"surrealdb_auth_level"`

	// LLM generation
	LLMProvider     Provider `yaml:"llm_provider"`
	LLMModel        string   `yaml:"llm_model"`
	OpenAIAPIKey    string   `yaml:"openai_api_key"`
	AnthropicAPIKey string   `yaml:"anthropic_api_key"`
	MistralAPIKey   string   `yaml:"mistral_api_key"`
	OllamaHost      string   `yaml:"ollama_host"`

	// Embeddings
	EmbedProvider  Provider `yaml:"embed_provider"`
	EmbedModel     string   `yaml:"embed_model"`
	EmbedDimension int      `yaml:"embed_dimension"`

	// Matching tolerances
	DateToleranceDays      int     `yaml:"date_tolerance_days"`
	AmountTolerancePercent float64 `yaml:"amount_tolerance_percent"`

	// Scheduler
	IngestMaxAttempts    int           `yaml:"ingest_max_attempts"`
	ReconcileMaxAttempts int           `yaml:"reconcile_max_attempts"`
	IngestCooldown       time.Duration `yaml:"ingest_cooldown"`
	ReconcileCooldown    time.Duration `yaml:"reconcile_cooldown"`
	AttemptTimeout       time.Duration `yaml:"attempt_timeout"`

	// Storage
	StoragePath string `yaml:"storage_path"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`
}

// Load reads configuration from environment variables. Defaults match the
// production deployment.
func Load() Config {
	return Config{
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "ledgerly"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "main"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		LLMProvider:     Provider(getEnv("LEDGERLY_LLM_PROVIDER", string(ProviderMistral))),
		LLMModel:        getEnv("LEDGERLY_LLM_MODEL", "mistral-large-latest"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		MistralAPIKey:   os.Getenv("MISTRAL_API_KEY"),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),

		EmbedProvider:  Provider(getEnv("LEDGERLY_EMBED_PROVIDER", string(ProviderMistral))),
		EmbedModel:     getEnv("LEDGERLY_EMBED_MODEL", "mistral-embed"),
		EmbedDimension: getEnvInt("LEDGERLY_EMBED_DIMENSION", 1024),

		DateToleranceDays:      getEnvInt("LEDGERLY_DATE_TOLERANCE_DAYS", 3),
		AmountTolerancePercent: getEnvFloat("LEDGERLY_AMOUNT_TOLERANCE_PCT", 0.01),

		IngestMaxAttempts:    getEnvInt("LEDGERLY_INGEST_MAX_ATTEMPTS", 3),
		ReconcileMaxAttempts: getEnvInt("LEDGERLY_RECONCILE_MAX_ATTEMPTS", 2),
		IngestCooldown:       getEnvDuration("LEDGERLY_INGEST_COOLDOWN", 60*time.Second),
		ReconcileCooldown:    getEnvDuration("LEDGERLY_RECONCILE_COOLDOWN", 120*time.Second),
		AttemptTimeout:       getEnvDuration("LEDGERLY_ATTEMPT_TIMEOUT", 10*time.Minute),

		StoragePath: getEnv("LEDGERLY_STORAGE_PATH", "./storage"),

		LogFile:  getEnv("LEDGERLY_LOG_FILE", "/tmp/ledgerly-worker.log"),
		LogLevel: parseLogLevel(getEnv("LEDGERLY_LOG_LEVEL", "INFO")),
	}
}

// LoadFile overlays values from a YAML file onto the env-loaded config.
// Keys absent from the file keep their existing values.
func LoadFile(cfg Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	overlay := cfg
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return overlay, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
