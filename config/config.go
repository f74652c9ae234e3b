package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	OpenAI        OpenAIConfig
	Generation    GenerationConfig
	Retrieval     RetrievalConfig
	Evaluation    EvaluationConfig
	Batch         BatchConfig
	Auth          AuthConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// OpenAIConfig holds LLM provider configuration
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// GenerationConfig holds grounded-generation parameters
type GenerationConfig struct {
	Model           string
	Temperature     float64
	MaxTokens       int
	MaxHistoryTurns int
}

// RetrievalConfig selects and configures the vector store backend
type RetrievalConfig struct {
	// Backend is "chroma" or "qdrant"
	Backend string

	// TopK passages retrieved per question
	TopK int

	Chroma ChromaConfig
	Qdrant QdrantConfig

	// EmbeddingModel used by backends whose query interface takes vectors
	EmbeddingModel string
}

// ChromaConfig holds connection details for a ChromaDB server
type ChromaConfig struct {
	URL        string
	Collection string
	Timeout    time.Duration
}

// QdrantConfig holds connection details for a Qdrant server
type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	Collection string
}

// EvaluationConfig holds connection details for the RAGAS evaluation service
type EvaluationConfig struct {
	URL     string
	Timeout time.Duration
}

// BatchConfig holds batch evaluation configuration
type BatchConfig struct {
	// Workers bounds independent-question concurrency; 1 is fully sequential
	Workers int
}

// AuthConfig holds optional bearer-token authentication configuration.
// The HTTP surface is open when JWTSecret is empty.
type AuthConfig struct {
	JWTSecret string
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or text
}

// New creates a new Config instance by loading environment variables
func New() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		OpenAI: OpenAIConfig{
			APIKey:     getEnv("OPENAI_API_KEY", ""),
			BaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Timeout:    getEnvAsDuration("OPENAI_TIMEOUT", 60*time.Second),
			MaxRetries: getEnvAsInt("OPENAI_MAX_RETRIES", 3),
		},
		Generation: GenerationConfig{
			Model:           getEnv("MODEL_NAME", "gpt-3.5-turbo"),
			Temperature:     getEnvAsFloat("GENERATION_TEMPERATURE", 0.3),
			MaxTokens:       getEnvAsInt("GENERATION_MAX_TOKENS", 600),
			MaxHistoryTurns: getEnvAsInt("MAX_HISTORY_TURNS", 5),
		},
		Retrieval: RetrievalConfig{
			Backend: getEnv("VECTOR_STORE", "chroma"),
			TopK:    getEnvAsInt("RETRIEVAL_TOP_K", 3),
			Chroma: ChromaConfig{
				URL:        getEnv("CHROMA_URL", "http://localhost:8000"),
				Collection: getEnv("CHROMA_COLLECTION", "nasa_missions"),
				Timeout:    getEnvAsDuration("CHROMA_TIMEOUT", 15*time.Second),
			},
			Qdrant: QdrantConfig{
				Host:       getEnv("QDRANT_HOST", "localhost"),
				Port:       getEnvAsInt("QDRANT_PORT", 6334),
				APIKey:     getEnv("QDRANT_API_KEY", ""),
				Collection: getEnv("QDRANT_COLLECTION", "nasa_missions"),
			},
			EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		},
		Evaluation: EvaluationConfig{
			URL:     getEnv("RAGAS_URL", "http://localhost:8100"),
			Timeout: getEnvAsDuration("RAGAS_TIMEOUT", 120*time.Second),
		},
		Batch: BatchConfig{
			Workers: getEnvAsInt("EVAL_WORKERS", 1),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	// The LLM credential is required before any work starts.
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}

	switch c.Retrieval.Backend {
	case "chroma", "qdrant":
	default:
		return fmt.Errorf("unsupported vector store backend: %s", c.Retrieval.Backend)
	}

	if c.Retrieval.TopK < 1 {
		return fmt.Errorf("retrieval top-k must be at least 1")
	}

	if c.Generation.MaxHistoryTurns < 1 {
		return fmt.Errorf("max history turns must be at least 1")
	}

	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch workers must be at least 1")
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
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
		return defaultValue
	}
	return value
}
