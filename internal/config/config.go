package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Vector index backends
const (
	BackendPgvector = "pgvector"
	BackendQdrant   = "qdrant"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL  PostgreSQLConfig
	Server      ServerConfig
	Search      SearchConfig
	VectorIndex VectorIndexConfig
	Session     SessionConfig
	Logging     LoggingConfig
	OpenAI      OpenAIConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, wins over the parts below
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
}

// SearchConfig holds search-related configuration
type SearchConfig struct {
	DefaultTopK int
	MaxTopK     int
}

// VectorIndexConfig selects and configures the similarity index
type VectorIndexConfig struct {
	Backend    string // pgvector or qdrant
	QdrantAddr string // gRPC address, e.g. localhost:6334
	Collection string
	Dimensions int
}

// SessionConfig holds per-user session cache settings
type SessionConfig struct {
	TTL time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Env   string // prod, dev, local
	Level string
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey              string
	APIBase             string
	ChatModel           string
	ChatTemperature     float64
	ChatMaxTokens       int
	EmbeddingModel      string
	EmbeddingDimensions int
	BatchSize           int
	Timeout             int
	ExplainMode         string // llm or fast
	Enabled             bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "rental_assistant"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Search: SearchConfig{
			DefaultTopK: getEnvAsInt("SEARCH_DEFAULT_TOP_K", 10),
			MaxTopK:     getEnvAsInt("SEARCH_MAX_TOP_K", 100),
		},
		VectorIndex: VectorIndexConfig{
			Backend:    strings.ToLower(getEnv("VECTOR_BACKEND", BackendPgvector)),
			QdrantAddr: getEnv("QDRANT_ADDR", "localhost:6334"),
			Collection: getEnv("VECTOR_COLLECTION", "listings"),
			Dimensions: getEnvAsInt("OPENAI_EMBEDDING_DIMENSIONS", 1536),
		},
		Session: SessionConfig{
			TTL: getEnvAsDuration("SESSION_TTL", 2*time.Hour),
		},
		Logging: LoggingConfig{
			Env:   getEnv("APP_ENV", "prod"),
			Level: getEnv("LOG_LEVEL", "info"),
		},
		OpenAI: OpenAIConfig{
			APIKey:              getEnv("OPENAI_API_KEY", ""),
			APIBase:             getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"),
			ChatModel:           getEnv("OPENAI_CHAT_MODEL", "gpt-3.5-turbo"),
			ChatTemperature:     getEnvAsFloat("OPENAI_CHAT_TEMPERATURE", 0.2),
			ChatMaxTokens:       getEnvAsInt("OPENAI_CHAT_MAX_TOKENS", 180),
			EmbeddingModel:      getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDimensions: getEnvAsInt("OPENAI_EMBEDDING_DIMENSIONS", 1536),
			BatchSize:           getEnvAsInt("OPENAI_BATCH_SIZE", 100),
			Timeout:             getEnvAsInt("OPENAI_TIMEOUT", 30),
			ExplainMode:         strings.ToLower(getEnv("EXPLAIN_MODE", "llm")),
			Enabled:             getEnv("OPENAI_API_KEY", "") != "",
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have no safe fallback
func (c *Config) Validate() error {
	switch c.VectorIndex.Backend {
	case BackendPgvector, BackendQdrant:
	default:
		return fmt.Errorf("unknown VECTOR_BACKEND %q (want %s or %s)", c.VectorIndex.Backend, BackendPgvector, BackendQdrant)
	}
	if c.Search.DefaultTopK <= 0 || c.Search.MaxTopK <= 0 {
		return fmt.Errorf("search top_k limits must be positive")
	}
	if c.Search.DefaultTopK > c.Search.MaxTopK {
		return fmt.Errorf("SEARCH_DEFAULT_TOP_K (%d) exceeds SEARCH_MAX_TOP_K (%d)", c.Search.DefaultTopK, c.Search.MaxTopK)
	}
	switch c.OpenAI.ExplainMode {
	case "llm", "fast":
	default:
		return fmt.Errorf("unknown EXPLAIN_MODE %q (want llm or fast)", c.OpenAI.ExplainMode)
	}
	return nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration value for %s, using default %s", key, defaultValue)
		return defaultValue
	}
	return value
}
