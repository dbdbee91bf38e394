package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	pkgRetry "github.com/neuraltalk/chat-backend/internal/pkg/retry"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr         string        `env:"SERVER_ADDR" envDefault:":8080"`
	ServerReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	ServerIdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	ChatRequestTimeout time.Duration `env:"CHAT_REQUEST_TIMEOUT" envDefault:"120s"`

	// Database configuration
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// External service configurations
	OpenAICfg OpenAIConfig      `envPrefix:"OPENAI_"`
	VectorCfg VectorStoreConfig `envPrefix:"VECTOR_"`
	ChainCfg  ChainConfig       `envPrefix:"CHAIN_"`

	// Tenancy
	DefaultNamespace string `env:"DEFAULT_NAMESPACE"`
	RequireNamespace bool   `env:"REQUIRE_NAMESPACE" envDefault:"false"`

	RateLimitCfg RateLimitConfig    `envPrefix:"RATE_LIMIT_"`
	DocumentCfg  DocumentConfig     `envPrefix:"DOCUMENT_"`
	StoreCfg     StoreConfig        `envPrefix:"STORE_"`
	ClientCfg    ChatClientConfig   `envPrefix:"CHAT_CLIENT_"`
	ChatbotCache ChatbotCacheConfig `envPrefix:"CHATBOT_CACHE_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Telegram bot configuration (optional)
	TelegramCfg TelegramConfig `envPrefix:"TELEGRAM_"`

	// Environment (set from flag, not from env var)
	Environment string
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken           string        `env:"BOT_TOKEN"`
	UpdateTimeout      int           `env:"UPDATE_TIMEOUT" envDefault:"60"`
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`
	RateLimitBurst     int           `env:"RATE_LIMIT_BURST" envDefault:"5"`
	EditInterval       time.Duration `env:"EDIT_INTERVAL" envDefault:"1s"`
	ShutdownTimeout    int           `env:"SHUTDOWN_TIMEOUT" envDefault:"30"` // seconds
	DefaultNamespace   string        `env:"DEFAULT_NAMESPACE"`
}

type OpenAIConfig struct {
	HTTPClientConfig
	APIKey         string               `env:"API_KEY"`
	ChatModel      string               `env:"CHAT_MODEL" envDefault:"gpt-3.5-turbo"`
	EmbeddingModel string               `env:"EMBEDDING_MODEL" envDefault:"text-embedding-ada-002"`
	Retry          pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"0s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"60s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL"`
}

type VectorStoreBackend string

const (
	VectorBackendPostgres VectorStoreBackend = "postgres"
	VectorBackendChromem  VectorStoreBackend = "chromem"
	VectorBackendWeaviate VectorStoreBackend = "weaviate"
)

type VectorStoreConfig struct {
	Backend          VectorStoreBackend   `env:"BACKEND" envDefault:"postgres"`
	TopK             int                  `env:"TOP_K" envDefault:"8"`
	KeywordK         int                  `env:"KEYWORD_K" envDefault:"8"`
	EmbeddingDims    int                  `env:"EMBEDDING_DIMS" envDefault:"1536"`
	ChromemPath      string               `env:"CHROMEM_PATH"`
	ChromemCompress  bool                 `env:"CHROMEM_COMPRESS" envDefault:"false"`
	WeaviateHost     string               `env:"WEAVIATE_HOST" envDefault:"localhost:8081"`
	WeaviateScheme   string               `env:"WEAVIATE_SCHEME" envDefault:"http"`
	WeaviateAPIKey   string               `env:"WEAVIATE_API_KEY"`
	WeaviateClass    string               `env:"WEAVIATE_CLASS" envDefault:"Document"`
	WriteRetry       pkgRetry.RetryConfig `envPrefix:"RETRY_"`
	CollectionPrefix string               `env:"COLLECTION_PREFIX" envDefault:"documents"`
}

type ChainConfig struct {
	Temperature float32 `env:"TEMPERATURE" envDefault:"0.7"`
	// AlwaysCondense calls the condensation stage even when the chat history is empty.
	AlwaysCondense bool `env:"ALWAYS_CONDENSE" envDefault:"false"`
}

type RateLimitConfig struct {
	Enabled           bool          `env:"ENABLED" envDefault:"true"`
	RequestsPerMinute int           `env:"REQUESTS_PER_MINUTE" envDefault:"30"`
	Burst             int           `env:"BURST" envDefault:"10"`
	IdleExpiry        time.Duration `env:"IDLE_EXPIRY" envDefault:"10m"`
}

// DocumentConfig holds ingestion limits and chunking settings
type DocumentConfig struct {
	MaxDocuments    int `env:"MAX_DOCUMENTS" envDefault:"64"`
	MaxDocumentSize int `env:"MAX_DOCUMENT_SIZE" envDefault:"1048576"` // 1 MiB
	ChunkSize       int `env:"CHUNK_SIZE" envDefault:"1000"`
	ChunkOverlap    int `env:"CHUNK_OVERLAP" envDefault:"200"`
}

type StoreDriver string

const (
	StoreDriverLocal    StoreDriver = "local"
	StoreDriverPostgres StoreDriver = "postgres"
)

type StoreConfig struct {
	Driver StoreDriver          `env:"DRIVER" envDefault:"local"`
	File   string               `env:"FILE"`
	Retry  pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type ChatClientConfig struct {
	HTTPClientConfig
	Endpoint  string `env:"ENDPOINT" envDefault:"/api/chat"`
	Namespace string `env:"NAMESPACE"`
}

type ChatbotCacheConfig struct {
	TTL             time.Duration `env:"TTL" envDefault:"5m"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"10m"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	return Load(*envFlag)
}

// Load reads the env file for the given environment and parses the configuration
func Load(environment string) (*Config, error) {
	envFile := getEnvFile(environment)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = environment

	// Validate configuration
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errors []string

	if cfg.VectorCfg.TopK < 1 || cfg.VectorCfg.TopK > 50 {
		errors = append(errors, fmt.Sprintf("VECTOR_TOP_K must be between 1 and 50, got %d", cfg.VectorCfg.TopK))
	}

	if cfg.VectorCfg.KeywordK < 0 || cfg.VectorCfg.KeywordK > 50 {
		errors = append(errors, fmt.Sprintf("VECTOR_KEYWORD_K must be between 0 and 50, got %d", cfg.VectorCfg.KeywordK))
	}

	switch cfg.VectorCfg.Backend {
	case VectorBackendPostgres, VectorBackendChromem, VectorBackendWeaviate:
	default:
		errors = append(errors, fmt.Sprintf("VECTOR_BACKEND must be one of postgres, chromem, weaviate, got %q", cfg.VectorCfg.Backend))
	}

	switch cfg.StoreCfg.Driver {
	case StoreDriverLocal, StoreDriverPostgres:
	default:
		errors = append(errors, fmt.Sprintf("STORE_DRIVER must be local or postgres, got %q", cfg.StoreCfg.Driver))
	}

	if cfg.ChainCfg.Temperature < 0 || cfg.ChainCfg.Temperature > 2 {
		errors = append(errors, fmt.Sprintf("CHAIN_TEMPERATURE must be between 0 and 2, got %.2f", cfg.ChainCfg.Temperature))
	}

	if cfg.RateLimitCfg.Enabled && (cfg.RateLimitCfg.RequestsPerMinute < 1 || cfg.RateLimitCfg.RequestsPerMinute > 6000) {
		errors = append(errors, fmt.Sprintf("RATE_LIMIT_REQUESTS_PER_MINUTE must be between 1 and 6000, got %d", cfg.RateLimitCfg.RequestsPerMinute))
	}

	if cfg.DocumentCfg.ChunkSize < 1 || cfg.DocumentCfg.ChunkOverlap < 0 || cfg.DocumentCfg.ChunkOverlap >= cfg.DocumentCfg.ChunkSize {
		errors = append(errors, fmt.Sprintf("DOCUMENT_CHUNK_OVERLAP(%d) must be smaller than DOCUMENT_CHUNK_SIZE(%d)", cfg.DocumentCfg.ChunkOverlap, cfg.DocumentCfg.ChunkSize))
	}

	// Validate Database configuration
	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
		errors = append(errors, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
	}

	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		errors = append(errors, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// NeedsDatabase reports whether any configured component talks to PostgreSQL
func (c *Config) NeedsDatabase() bool {
	return c.VectorCfg.Backend == VectorBackendPostgres || c.StoreCfg.Driver == StoreDriverPostgres || c.DatabaseURL != ""
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
