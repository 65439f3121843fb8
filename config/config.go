package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultServiceName is reported when OTEL_SERVICE_NAME is not set.
const DefaultServiceName = "AI Translator API"

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Gateway       GatewayConfig
	Translation   TranslationConfig
	Evaluation    EvaluationConfig
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
	AllowedOrigins  []string
}

// DatabaseConfig holds the optional PostgreSQL configuration.
// An empty ConnectionString means evaluations and feedback are kept in memory.
type DatabaseConfig struct {
	ConnectionString string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// GatewayConfig holds the chat-completions gateway configuration.
// APIVersion selects the Azure OpenAI URL layout; leave it empty for plain OpenAI.
type GatewayConfig struct {
	BaseURL      string
	APIKey       string
	DeploymentID string
	APIVersion   string
	Model        string
	Timeout      time.Duration
	MaxRetries   int
}

// TranslationConfig holds the parameters sent with every gateway call
type TranslationConfig struct {
	MaxTokens   int
	Temperature float64
}

// EvaluationConfig controls automatic evaluation of finished translations.
// Workers == 0 runs every evaluation on its own goroutine.
type EvaluationConfig struct {
	Enabled   bool
	Workers   int
	QueueSize int
}

// ObservabilityConfig holds telemetry export and logging configuration
type ObservabilityConfig struct {
	ServiceName    string
	Endpoint       string
	Protocol       string // grpc or http/protobuf
	SampleRatio    float64
	LogLevel       string
	LogFormat      string // json or console
	ConsoleTraces  bool
	MetricsEnabled bool
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	deployment := getEnv("OPENAI_DEPLOYMENT_ID", "")

	cfg := &Config{
		Environment: getEnv("APP__ENVIRONMENT", "Unspecified"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			ConnectionString: getEnv("DATABASE_URL", ""),
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Gateway: GatewayConfig{
			BaseURL:      getEnv("OPENAI_API_BASE", ""),
			APIKey:       getEnv("OPENAI_API_KEY", ""),
			DeploymentID: deployment,
			APIVersion:   getEnv("OPENAI_API_VERSION", "2024-02-01"),
			Model:        getEnv("OPENAI_MODEL", deployment),
			Timeout:      getEnvAsDuration("OPENAI_TIMEOUT", 60*time.Second),
			MaxRetries:   getEnvAsInt("OPENAI_MAX_RETRIES", 2),
		},
		Translation: TranslationConfig{
			MaxTokens:   getEnvAsInt("TRANSLATION_MAX_TOKENS", 4096),
			Temperature: getEnvAsFloat("TRANSLATION_TEMPERATURE", 0.5),
		},
		Evaluation: EvaluationConfig{
			Enabled:   getEnvAsBool("EVALUATION_ENABLED", true),
			Workers:   getEnvAsInt("EVALUATION_WORKERS", 4),
			QueueSize: getEnvAsInt("EVALUATION_QUEUE_SIZE", 256),
		},
		Observability: ObservabilityConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", DefaultServiceName),
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Protocol:       getEnv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"),
			SampleRatio:    getEnvAsFloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
			LogLevel:       getEnv("OTEL_LOG_LEVEL", "INFO"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			ConsoleTraces:  getEnvAsBool("OTEL_TRACES_CONSOLE", false),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d is out of range", c.Server.Port)
	}

	if c.IsProduction() {
		if c.Gateway.BaseURL == "" {
			return fmt.Errorf("gateway base URL is required in production")
		}
		if c.Gateway.APIKey == "" {
			return fmt.Errorf("gateway API key is required in production")
		}
		if c.Gateway.DeploymentID == "" {
			return fmt.Errorf("gateway deployment ID is required in production")
		}
	}

	if c.Translation.MaxTokens <= 0 {
		return fmt.Errorf("translation max tokens must be positive")
	}
	if c.Translation.Temperature < 0 || c.Translation.Temperature > 2 {
		return fmt.Errorf("translation temperature must be between 0 and 2")
	}

	if c.Evaluation.Workers < 0 || c.Evaluation.QueueSize < 0 {
		return fmt.Errorf("evaluation workers and queue size must not be negative")
	}
	if c.Evaluation.Workers > 0 && c.Evaluation.QueueSize == 0 {
		return fmt.Errorf("evaluation queue size is required when workers are set")
	}

	if c.Observability.SampleRatio < 0 || c.Observability.SampleRatio > 1 {
		return fmt.Errorf("trace sample ratio must be between 0.0 and 1.0")
	}
	switch c.Observability.Protocol {
	case "grpc", "http/protobuf":
	default:
		return fmt.Errorf("unsupported OTLP protocol %q", c.Observability.Protocol)
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Environment)
	return env == "production" || env == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Environment)
	return env == "development" || env == "dev"
}

// Enabled reports whether a database connection is configured
func (c *DatabaseConfig) Enabled() bool {
	return c.ConnectionString != ""
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return c.ConnectionString
}

// LogString returns a safe string for logging (no password).
func (c *DatabaseConfig) LogString() string {
	u, err := url.Parse(c.ConnectionString)
	if err != nil || u.Host == "" {
		return "host=<from DATABASE_URL>"
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("host=%s port=%s database=%s", u.Hostname(), port, strings.TrimPrefix(u.Path, "/"))
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8000)
func getPort() int {
	for _, key := range []string{"PORT", "SERVER_PORT"} {
		if value := os.Getenv(key); value != "" {
			if p, err := strconv.Atoi(value); err == nil {
				return p
			}
		}
	}
	return 8000
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
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
