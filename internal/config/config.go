package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/batch-picker/internal/inventory"
	"github.com/eugenenazirov/batch-picker/internal/search"
	"github.com/eugenenazirov/batch-picker/internal/storage"
)

const (
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > Environment variables > YAML config > Defaults
type Config struct {
	Port                 string           `yaml:"port"`
	Batches              []inventory.Spec `yaml:"batches"`
	Window               int              `yaml:"window"`
	SearchTimeout        time.Duration    `yaml:"search_timeout"`
	ShutdownGracePeriod  time.Duration    `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    time.Duration    `yaml:"read_header_timeout"`
	WriteTimeout         time.Duration    `yaml:"write_timeout"`
	IdleTimeout          time.Duration    `yaml:"idle_timeout"`
	EnableRequestLogging bool             `yaml:"enable_request_logging"`
	LogLevel             string           `yaml:"log_level"`
	RateLimitRPS         float64          `yaml:"-"`
	RateLimitBurst       int              `yaml:"-"`
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string           `yaml:"port"`
	Batches              []inventory.Spec `yaml:"batches"`
	Window               *int             `yaml:"window"`
	SearchTimeout        string           `yaml:"search_timeout"`
	ShutdownGracePeriod  string           `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string           `yaml:"read_header_timeout"`
	WriteTimeout         string           `yaml:"write_timeout"`
	IdleTimeout          string           `yaml:"idle_timeout"`
	EnableRequestLogging *bool            `yaml:"enable_request_logging"`
	LogLevel             string           `yaml:"log_level"`
	RateLimit            yamlRateLimit    `yaml:"rate_limit"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	BatchesStr     *string
	Window         *int
	SearchTimeout  *time.Duration
	LogLevel       *string
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > Environment variables > YAML config > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Load from YAML file if specified
	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		applyYAMLConfig(&cfg, yamlCfg)
	}

	// Apply environment variables (override YAML)
	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		if err := applyCLIOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
	}

	// Validate final configuration
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		Batches:              storage.DefaultBatches(),
		Window:               search.DefaultWindow,
		SearchTimeout:        30 * time.Second,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         45 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		LogLevel:             defaultLogLevel,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}

	if len(yamlCfg.Batches) > 0 {
		cfg.Batches = yamlCfg.Batches
	}

	if yamlCfg.Window != nil {
		cfg.Window = *yamlCfg.Window
	}

	applyDuration(&cfg.SearchTimeout, yamlCfg.SearchTimeout)
	applyDuration(&cfg.ShutdownGracePeriod, yamlCfg.ShutdownGracePeriod)
	applyDuration(&cfg.ReadHeaderTimeout, yamlCfg.ReadHeaderTimeout)
	applyDuration(&cfg.WriteTimeout, yamlCfg.WriteTimeout)
	applyDuration(&cfg.IdleTimeout, yamlCfg.IdleTimeout)

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}

	if yamlCfg.RateLimit.RPS != nil && *yamlCfg.RateLimit.RPS >= 0 {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}

	if yamlCfg.RateLimit.Burst != nil && *yamlCfg.RateLimit.Burst >= 0 {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}
}

func applyDuration(dst *time.Duration, raw string) {
	if raw == "" {
		return
	}
	if d, err := time.ParseDuration(raw); err == nil {
		*dst = d
	}
}

// applyEnvConfig applies environment variable configuration. A malformed BATCHES value is
// an error; other malformed values are ignored.
func applyEnvConfig(cfg *Config) error {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	if rawBatches := strings.TrimSpace(os.Getenv("BATCHES")); rawBatches != "" {
		batches, err := parseBatches(rawBatches)
		if err != nil {
			return fmt.Errorf("BATCHES: %w", err)
		}
		cfg.Batches = batches
	}

	if window := strings.TrimSpace(os.Getenv("WINDOW")); window != "" {
		if value, err := strconv.Atoi(window); err == nil && value >= 0 {
			cfg.Window = value
		}
	}

	if timeout := strings.TrimSpace(os.Getenv("SEARCH_TIMEOUT")); timeout != "" {
		applyDuration(&cfg.SearchTimeout, timeout)
	}

	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}

	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) error {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.BatchesStr != nil && *overrides.BatchesStr != "" {
		batches, err := parseBatches(*overrides.BatchesStr)
		if err != nil {
			return fmt.Errorf("parse batches: %w", err)
		}
		cfg.Batches = batches
	}

	if overrides.Window != nil {
		cfg.Window = *overrides.Window
	}

	if overrides.SearchTimeout != nil && *overrides.SearchTimeout > 0 {
		cfg.SearchTimeout = *overrides.SearchTimeout
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	return nil
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if cfg.Window < 0 {
		return fmt.Errorf("window must be >= 0, got %d", cfg.Window)
	}
	if cfg.SearchTimeout <= 0 {
		return fmt.Errorf("search timeout must be positive")
	}
	if len(cfg.Batches) == 0 {
		return fmt.Errorf("batches cannot be empty")
	}
	if _, err := inventory.Load(cfg.Batches); err != nil {
		return fmt.Errorf("batches: %w", err)
	}
	return nil
}

// parseBatches parses a comma-separated list of SIZExCOUNT pairs, e.g. "12x117,17x81".
// Order is kept: it is the order batches are searched in.
func parseBatches(raw string) ([]inventory.Spec, error) {
	parts := strings.Split(raw, ",")
	batches := make([]inventory.Spec, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sizeStr, countStr, ok := strings.Cut(strings.ToLower(part), "x")
		if !ok {
			return nil, fmt.Errorf("invalid batch %q, expected SIZExCOUNT", part)
		}
		size, err := strconv.Atoi(strings.TrimSpace(sizeStr))
		if err != nil {
			return nil, fmt.Errorf("invalid unit size in %q", part)
		}
		count, err := strconv.Atoi(strings.TrimSpace(countStr))
		if err != nil {
			return nil, fmt.Errorf("invalid unit count in %q", part)
		}
		if size <= 0 || count <= 0 {
			return nil, fmt.Errorf("batch %q: %w", part, inventory.ErrInvalidBatch)
		}
		batches = append(batches, inventory.Spec{UnitSize: size, UnitCount: count})
	}
	if len(batches) == 0 {
		return nil, fmt.Errorf("no batches provided")
	}
	return batches, nil
}
