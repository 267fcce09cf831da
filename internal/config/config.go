package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
// Precedence order:
// 1. Vault (if configured) - Highest priority
// 2. Config file values
// 3. Environment variables (WHYNOINT_AI_APIKEY, etc.)
// 4. Default values - Lowest priority
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Titles        TitlesConfig        `mapstructure:"titles"`
	Lifecycle     LifecycleConfig     `mapstructure:"lifecycle"`
	Retention     RetentionConfig     `mapstructure:"retention"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AIConfig holds reasoning-capability configuration.
type AIConfig struct {
	// Global/fallback configuration
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	APIKey      string        `mapstructure:"apiKey"`
	MaxRetries  int           `mapstructure:"maxRetries"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int32         `mapstructure:"maxTokens"`

	// Operation-specific configurations. Extract runs deterministic-style
	// prompts (near-zero temperature); Diagnose runs the exploratory ones.
	Extract  OperationAIConfig `mapstructure:"extract"`
	Diagnose OperationAIConfig `mapstructure:"diagnose"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// OperationAIConfig holds AI configuration for a specific operation.
// Pointer fields distinguish "unset" from zero so fallbacks can fill them.
type OperationAIConfig struct {
	Provider       string               `mapstructure:"provider"`
	Model          string               `mapstructure:"model"`
	Timeout        *time.Duration       `mapstructure:"timeout"`
	APIKey         string               `mapstructure:"apiKey"`
	MaxRetries     *int                 `mapstructure:"maxRetries"`
	Temperature    *float32             `mapstructure:"temperature"`
	MaxTokens      *int32               `mapstructure:"maxTokens"`
	SystemPrompt   string               `mapstructure:"systemPrompt"`
	SystemPromptFile string             `mapstructure:"systemPromptFile"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslMode"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
	LogQueries      bool          `mapstructure:"logQueries"`
}

// DSN renders the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`

	// API Authentication
	APIKeys []string `mapstructure:"apiKeys"`

	// Rate Limiting Configuration
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	RequestsPerMin int           `mapstructure:"requestsPerMin"`
	BurstCapacity  int           `mapstructure:"burstCapacity"`
	ByIP           bool          `mapstructure:"byIP"`
	ByAPIKey       bool          `mapstructure:"byAPIKey"`
	Window         time.Duration `mapstructure:"window"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel     string   `mapstructure:"logLevel"`
	MaxFileSize  int64    `mapstructure:"maxFileSize"`
	MaxPageCount int      `mapstructure:"maxPageCount"`
	MinTextChars int      `mapstructure:"minTextChars"`
	FileTypes    []string `mapstructure:"fileTypes"`

	// CLI output
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
}

// TitlesConfig holds job-title normalization configuration.
type TitlesConfig struct {
	SeedFile            string        `mapstructure:"seedFile"`
	WatchSeedFile       bool          `mapstructure:"watchSeedFile"`
	SimilarityFloor     float64       `mapstructure:"similarityFloor"`     // candidates below are discarded
	AcceptanceThreshold int           `mapstructure:"acceptanceThreshold"` // similarity*100 needed for auto-accept
	SuggestionLimit     int           `mapstructure:"suggestionLimit"`
	CacheTTL            time.Duration `mapstructure:"cacheTTL"`
	CacheSweepInterval  time.Duration `mapstructure:"cacheSweepInterval"`
}

// LifecycleConfig holds per-stage pipeline budgets and worker settings.
type LifecycleConfig struct {
	ParseTimeout    time.Duration `mapstructure:"parseTimeout"`
	DiagnoseTimeout time.Duration `mapstructure:"diagnoseTimeout"`
	OverallTimeout  time.Duration `mapstructure:"overallTimeout"`
	WorkerCount     int           `mapstructure:"workerCount"`
	QueueSize       int           `mapstructure:"queueSize"`
	PollInterval    time.Duration `mapstructure:"pollInterval"`
}

// RetentionConfig holds the data-protection window and sweep cadence.
type RetentionConfig struct {
	Window        time.Duration `mapstructure:"window"`
	SweepInterval time.Duration `mapstructure:"sweepInterval"`
	// EncryptionKey is the hex-encoded 32-byte sealing key. Vault overrides
	// it when configured. Never persisted alongside ciphertext.
	EncryptionKey string `mapstructure:"encryptionKey"`
}

// VaultConfig holds HashiCorp Vault configuration for secret sourcing.
type VaultConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Address    string        `mapstructure:"address"`
	Token      string        `mapstructure:"token"`
	SecretPath string        `mapstructure:"secretPath"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled        bool             `mapstructure:"enabled"`
	ServiceName    string           `mapstructure:"serviceName"`
	ServiceVersion string           `mapstructure:"serviceVersion"`
	SampleRate     float64          `mapstructure:"sampleRate"`
	ConsoleOutput  bool             `mapstructure:"consoleOutput"`
	Prometheus     PrometheusConfig `mapstructure:"prometheus"`
	OTLP           OTLPConfig       `mapstructure:"otlp"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP trace exporter configuration
type OTLPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

// LoadConfig loads configuration from environment variables and a config file
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("WHYNOINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/whynointerviews/")
	v.AddConfigPath("$HOME/.whynointerviews")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()

	if err := config.loadSystemPromptFiles(); err != nil {
		return nil, fmt.Errorf("failed to load prompt files: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks configuration invariants that defaults cannot guarantee
// once overridden.
func (c *Config) Validate() error {
	if c.Titles.SimilarityFloor < 0 || c.Titles.SimilarityFloor > 1 {
		return fmt.Errorf("titles.similarityFloor must be in [0,1], got %v", c.Titles.SimilarityFloor)
	}
	if c.Titles.AcceptanceThreshold < 0 || c.Titles.AcceptanceThreshold > 100 {
		return fmt.Errorf("titles.acceptanceThreshold must be in [0,100], got %d", c.Titles.AcceptanceThreshold)
	}
	if c.Titles.SuggestionLimit <= 0 {
		return fmt.Errorf("titles.suggestionLimit must be positive, got %d", c.Titles.SuggestionLimit)
	}
	if c.Lifecycle.ParseTimeout <= 0 || c.Lifecycle.DiagnoseTimeout <= 0 || c.Lifecycle.OverallTimeout <= 0 {
		return fmt.Errorf("lifecycle timeouts must be positive")
	}
	if c.Lifecycle.OverallTimeout < c.Lifecycle.ParseTimeout ||
		c.Lifecycle.OverallTimeout < c.Lifecycle.DiagnoseTimeout {
		return fmt.Errorf("lifecycle.overallTimeout must cover each stage budget")
	}
	if c.Lifecycle.WorkerCount <= 0 {
		return fmt.Errorf("lifecycle.workerCount must be positive, got %d", c.Lifecycle.WorkerCount)
	}
	if c.Retention.Window <= 0 {
		return fmt.Errorf("retention.window must be positive, got %v", c.Retention.Window)
	}
	if c.Retention.SweepInterval <= 0 {
		return fmt.Errorf("retention.sweepInterval must be positive, got %v", c.Retention.SweepInterval)
	}
	if c.App.MaxPageCount <= 0 {
		return fmt.Errorf("app.maxPageCount must be positive, got %d", c.App.MaxPageCount)
	}
	if c.Vault.Enabled && c.Vault.Address == "" {
		return fmt.Errorf("vault.address is required when vault is enabled")
	}
	return nil
}
