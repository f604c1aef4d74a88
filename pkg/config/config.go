package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for leadforge-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (database password, API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8090"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Authentication configuration
	Auth AuthConfig `yaml:"auth"`

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// AI provider configuration
	AI AIConfig `yaml:"ai"`

	// Per-key quota limits
	Quota QuotaConfig `yaml:"quota"`

	// Extraction scoring knobs
	Extraction ExtractionConfig `yaml:"extraction"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// EnableVerification controls whether JWT tokens are validated.
	// Set to false for local development without an auth server.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"false"`

	// JWKSEndpointsStr is a comma-separated list of issuer=jwks_url pairs.
	// Format: "issuer1=url1,issuer2=url2"
	JWKSEndpointsStr string `yaml:"jwks_endpoints" env:"JWKS_ENDPOINTS" env-default:""`

	// JWKSEndpoints is the parsed map from JWKSEndpointsStr (not from config file).
	JWKSEndpoints map[string]string `yaml:"-"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"leadforge"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"leadforge_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// AIConfig holds generative AI provider configuration.
// The default endpoint is Gemini's OpenAI-compatible surface; any
// OpenAI-compatible endpoint works, and provider "anthropic" switches
// to the Anthropic Messages API.
type AIConfig struct {
	Provider string `yaml:"provider" env:"AI_PROVIDER" env-default:"openai"`
	Endpoint string `yaml:"endpoint" env:"AI_ENDPOINT" env-default:"https://generativelanguage.googleapis.com/v1beta/openai"`
	Model    string `yaml:"model" env:"AI_MODEL" env-default:"gemini-2.0-flash"`

	// APIKeysStr is a comma-separated, ordered list of API keys.
	// Rotation walks this list round-robin. Secret - not in YAML.
	APIKeysStr string   `yaml:"-" env:"AI_API_KEYS"`
	APIKeys    []string `yaml:"-"`

	Temperature           float64 `yaml:"temperature" env:"AI_TEMPERATURE" env-default:"0.2"`
	MaxTokens             int     `yaml:"max_tokens" env:"AI_MAX_TOKENS" env-default:"2048"`
	RequestTimeoutSeconds int     `yaml:"request_timeout_seconds" env:"AI_REQUEST_TIMEOUT_SECONDS" env-default:"30"`
}

// QuotaConfig holds per-key usage limits for the AI provider.
// Defaults match the provider's free-tier windows.
type QuotaConfig struct {
	MinuteRequestLimit int `yaml:"minute_request_limit" env:"QUOTA_MINUTE_REQUEST_LIMIT" env-default:"15"`
	DailyRequestLimit  int `yaml:"daily_request_limit" env:"QUOTA_DAILY_REQUEST_LIMIT" env-default:"1500"`
	MinuteTokenLimit   int `yaml:"minute_token_limit" env:"QUOTA_MINUTE_TOKEN_LIMIT" env-default:"1000000"`

	// RotationErrorThreshold is how many consecutive provider errors a key
	// absorbs before rotation moves to the next key.
	RotationErrorThreshold int `yaml:"rotation_error_threshold" env:"QUOTA_ROTATION_ERROR_THRESHOLD" env-default:"3"`
}

// ExtractionConfig holds confidence scoring knobs. The weights are
// heuristics, not law; they must sum to 100.
type ExtractionConfig struct {
	CoverageWeight   int `yaml:"coverage_weight" env:"EXTRACTION_COVERAGE_WEIGHT" env-default:"60"`
	ContactWeight    int `yaml:"contact_weight" env:"EXTRACTION_CONTACT_WEIGHT" env-default:"20"`
	CoreSignalWeight int `yaml:"core_signal_weight" env:"EXTRACTION_CORE_SIGNAL_WEIGHT" env-default:"20"`

	// FallbackConfidenceCap caps the confidence of pattern-fallback leads
	// to signal reduced trust compared to AI extraction.
	FallbackConfidenceCap int `yaml:"fallback_confidence_cap" env:"EXTRACTION_FALLBACK_CONFIDENCE_CAP" env-default:"60"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time and set on the
// returned Config. Secrets (PGPASSWORD, AI_API_KEYS) must come from
// environment variables (yaml:"-" fields).
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.parseComplexFields(); err != nil {
		return nil, fmt.Errorf("failed to parse config fields: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// parseComplexFields handles fields that need post-processing after loading.
func (c *Config) parseComplexFields() error {
	c.Auth.JWKSEndpoints = parseJWKSEndpoints(c.Auth.JWKSEndpointsStr)
	c.AI.APIKeys = splitAndTrim(c.AI.APIKeysStr)
	return nil
}

// validate rejects configurations the service cannot run with.
// An empty key pool is allowed: the service then serves pattern-fallback
// extraction only.
func (c *Config) validate() error {
	switch c.AI.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported ai provider %q (want openai or anthropic)", c.AI.Provider)
	}

	if c.Quota.MinuteRequestLimit <= 0 || c.Quota.DailyRequestLimit <= 0 || c.Quota.MinuteTokenLimit <= 0 {
		return fmt.Errorf("quota limits must be positive")
	}
	if c.Quota.RotationErrorThreshold <= 0 {
		return fmt.Errorf("rotation error threshold must be positive")
	}

	w := c.Extraction
	if w.CoverageWeight+w.ContactWeight+w.CoreSignalWeight != 100 {
		return fmt.Errorf("extraction weights must sum to 100, got %d",
			w.CoverageWeight+w.ContactWeight+w.CoreSignalWeight)
	}
	if w.FallbackConfidenceCap < 0 || w.FallbackConfidenceCap > 100 {
		return fmt.Errorf("fallback confidence cap must be within [0,100]")
	}

	if c.Auth.EnableVerification && len(c.Auth.JWKSEndpoints) == 0 {
		return fmt.Errorf("auth verification enabled but no JWKS endpoints configured")
	}

	return nil
}

// parseJWKSEndpoints parses the JWKS endpoints string into a map.
// Format: "issuer1=url1,issuer2=url2"
func parseJWKSEndpoints(value string) map[string]string {
	endpoints := make(map[string]string)
	if value == "" {
		return endpoints
	}

	pairs := strings.Split(value, ",")
	for _, pair := range pairs {
		parts := strings.Split(pair, "=")
		if len(parts) == 2 {
			endpoints[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return endpoints
}

// splitAndTrim splits a comma-separated list, dropping empty entries.
func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// RequestTimeout returns the per-call AI request timeout as a duration.
func (c *AIConfig) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
