package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Env               string
	LogLevel          string
	HTTPHost          string
	HTTPPort          int
	ShutdownTimeout   time.Duration
	ReadHeaderTimeout time.Duration
	CORSOrigins       []string

	NewsAPIURL     string
	NewsAPITimeout time.Duration

	OllamaURL            string
	OllamaModel          string
	OllamaTimeout        time.Duration
	OllamaRetryAttempts  int
	OllamaRetryDelay     time.Duration
	OllamaMaxConcurrency int

	BooleanMode string
	PromptsFile string

	DataBackend       string
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration

	MetricsEnabled bool

	TracingEnabled    bool
	TracingEndpoint   string
	TracingSampleRate float64
}

const (
	defaultEnv               = "development"
	defaultHTTPHost          = "0.0.0.0"
	defaultHTTPPort          = 9000
	defaultShutdownTimeout   = 10 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultCORSOrigins       = "*"

	defaultNewsAPIURL     = "http://172.31.32.224:9001/search-keywords"
	defaultNewsAPITimeout = 10 * time.Second

	defaultOllamaURL            = "http://localhost:11434/api/generate"
	defaultOllamaModel          = "mistral-small3.1:latest"
	defaultOllamaTimeout        = 120 * time.Second
	defaultOllamaRetryAttempts  = 3
	defaultOllamaRetryDelay     = 500 * time.Millisecond
	defaultOllamaMaxConcurrency = 4

	defaultBooleanMode = "OR"

	defaultDataBackend       = "memory"
	defaultDatabaseURL       = "searchagent.db"
	defaultDBMaxOpenConns    = 1
	defaultDBMaxIdleConns    = 1
	defaultDBConnMaxLifetime = time.Hour
	defaultDBConnMaxIdleTime = 30 * time.Minute

	defaultTracingEndpoint   = "http://localhost:4318/v1/traces"
	defaultTracingSampleRate = 1.0
)

// Load reads an optional .env file (ENV_FILE, else ./.env), then
// configuration values from the environment, applying defaults where
// necessary.
func Load() (Config, error) {
	return LoadFile(os.Getenv("ENV_FILE"))
}

// LoadFile is Load with an explicit env file; an empty path falls back to
// ./.env when present. Variables already set in the environment win.
func LoadFile(envFile string) (Config, error) {
	if err := loadDotEnv(envFile); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Env:               getEnv("APP_ENV", defaultEnv),
		LogLevel:          os.Getenv("LOG_LEVEL"),
		HTTPHost:          getEnv("HTTP_HOST", defaultHTTPHost),
		HTTPPort:          getInt("HTTP_PORT", defaultHTTPPort),
		ShutdownTimeout:   getDuration("SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		ReadHeaderTimeout: getDuration("READ_HEADER_TIMEOUT", defaultReadHeaderTimeout),
		CORSOrigins:       splitList(getEnv("CORS_ALLOWED_ORIGINS", defaultCORSOrigins)),

		NewsAPIURL:     getEnv("NEWS_API_URL", defaultNewsAPIURL),
		NewsAPITimeout: getDuration("NEWS_API_TIMEOUT", defaultNewsAPITimeout),

		OllamaURL:            getEnv("OLLAMA_URL", defaultOllamaURL),
		OllamaModel:          getEnv("OLLAMA_MODEL", defaultOllamaModel),
		OllamaTimeout:        getDuration("OLLAMA_TIMEOUT", defaultOllamaTimeout),
		OllamaRetryAttempts:  getInt("OLLAMA_RETRY_ATTEMPTS", defaultOllamaRetryAttempts),
		OllamaRetryDelay:     getDuration("OLLAMA_RETRY_DELAY", defaultOllamaRetryDelay),
		OllamaMaxConcurrency: getInt("OLLAMA_MAX_CONCURRENCY", defaultOllamaMaxConcurrency),

		BooleanMode: strings.ToUpper(getEnv("BOOLEAN_MODE", defaultBooleanMode)),
		PromptsFile: os.Getenv("PROMPTS_FILE"),

		DataBackend:       getEnv("DATA_BACKEND", defaultDataBackend),
		DatabaseURL:       getEnv("DATABASE_URL", defaultDatabaseURL),
		DBMaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", defaultDBMaxOpenConns),
		DBMaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", defaultDBMaxIdleConns),
		DBConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", defaultDBConnMaxLifetime),
		DBConnMaxIdleTime: getDuration("DB_CONN_MAX_IDLE_TIME", defaultDBConnMaxIdleTime),

		MetricsEnabled: getBool("METRICS_ENABLED", true),

		TracingEnabled:    getBool("TRACING_ENABLED", false),
		TracingEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", defaultTracingEndpoint),
		TracingSampleRate: getFloat("TRACING_SAMPLE_RATE", defaultTracingSampleRate),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var result *multierror.Error

	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		result = multierror.Append(result, fmt.Errorf("HTTP_PORT out of range: %d", c.HTTPPort))
	}
	if c.NewsAPIURL == "" {
		result = multierror.Append(result, errors.New("NEWS_API_URL is required"))
	}
	if c.OllamaURL == "" {
		result = multierror.Append(result, errors.New("OLLAMA_URL is required"))
	}
	if c.OllamaModel == "" {
		result = multierror.Append(result, errors.New("OLLAMA_MODEL is required"))
	}
	if c.OllamaRetryAttempts < 1 {
		result = multierror.Append(result, fmt.Errorf("OLLAMA_RETRY_ATTEMPTS must be at least 1, got %d", c.OllamaRetryAttempts))
	}
	if c.OllamaMaxConcurrency < 0 {
		result = multierror.Append(result, fmt.Errorf("OLLAMA_MAX_CONCURRENCY must be non-negative, got %d", c.OllamaMaxConcurrency))
	}

	switch c.BooleanMode {
	case "OR", "AND", "COMBO":
	default:
		result = multierror.Append(result, fmt.Errorf("unknown BOOLEAN_MODE value: %s", c.BooleanMode))
	}

	switch c.DataBackend {
	case "memory":
		// no-op
	case "sqlite":
		if c.DatabaseURL == "" {
			result = multierror.Append(result, errors.New("DATABASE_URL is required when DATA_BACKEND=sqlite"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unknown DATA_BACKEND value: %s", c.DataBackend))
	}

	if c.TracingSampleRate < 0 || c.TracingSampleRate > 1 {
		result = multierror.Append(result, fmt.Errorf("TRACING_SAMPLE_RATE must be within [0,1], got %v", c.TracingSampleRate))
	}

	return result.ErrorOrNil()
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTPHost, c.HTTPPort)
}

// loadDotEnv loads path, or ./.env when path is empty. A missing default
// file is not an error; a missing explicit one is.
func loadDotEnv(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func getEnv(key string, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
