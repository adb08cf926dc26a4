package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/bitsync/internal/domain/search/request"
)

// Driver names accepted by database.driver.
const (
	DriverSynthetic = "synthetic"
	DriverRedis     = "redis"
	DriverValkey    = "valkey"
)

// Config holds the bitsync API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Search   SearchConfig   `yaml:"search"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig selects and connects the catalog source.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // synthetic, redis, valkey (default: synthetic)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	DialTimeoutSec   int      `yaml:"dial_timeout_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	HealthTimeoutMs  int      `yaml:"health_timeout_ms"`
	SeedFile         string   `yaml:"seed_file"` // optional fixtures loaded at startup
}

// DialTimeout returns the connect timeout for redis and valkey.
func (d DatabaseConfig) DialTimeout() time.Duration {
	return time.Duration(d.DialTimeoutSec) * time.Second
}

// HealthTimeout bounds each /health check.
func (d DatabaseConfig) HealthTimeout() time.Duration {
	return time.Duration(d.HealthTimeoutMs) * time.Millisecond
}

// SearchConfig holds query pipeline settings.
type SearchConfig struct {
	TimeoutMs          int     `yaml:"timeout_ms"`
	SimulatedLatencyMs int     `yaml:"simulated_latency_ms"` // synthetic driver only
	DefaultLimit       int     `yaml:"default_limit"`
	MaxLimit           int     `yaml:"max_limit"`
	RateLimitRPS       float64 `yaml:"rate_limit_rps"` // 0 = unlimited
	RateLimitBurst     int     `yaml:"rate_limit_burst"`
}

// Timeout returns the per-query deadline.
func (s SearchConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// SimulatedLatency returns the synthetic source delay.
func (s SearchConfig) SimulatedLatency() time.Duration {
	return time.Duration(s.SimulatedLatencyMs) * time.Millisecond
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// ConfigPathEnv overrides the config file lookup.
const ConfigPathEnv = "BITSYNC_CONFIG"

// Load reads configuration for env (local, docker, prod). BITSYNC_CONFIG,
// when set, names the file directly.
func Load(env string) (Config, error) {
	configPath := os.Getenv(ConfigPathEnv)
	if configPath == "" {
		configPath = findConfigPath(env)
	}

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSynthetic
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.DialTimeoutSec <= 0 {
		c.Database.DialTimeoutSec = 5
	}
	if c.Database.HealthTimeoutMs <= 0 {
		c.Database.HealthTimeoutMs = 2000
	}
	if c.Search.TimeoutMs <= 0 {
		c.Search.TimeoutMs = 5000
	}
	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = 10
	}
	if c.Search.MaxLimit <= 0 {
		c.Search.MaxLimit = request.MaxLimit
	}
	if c.Search.RateLimitRPS > 0 && c.Search.RateLimitBurst <= 0 {
		c.Search.RateLimitBurst = int(c.Search.RateLimitRPS) + 1
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "bitsync:"
	}
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}
	switch c.Database.Driver {
	case DriverSynthetic:
		if c.Database.SeedFile != "" {
			errs = append(errs, errors.New("database.seed_file requires a redis or valkey driver"))
		}
	case DriverRedis, DriverValkey:
		if len(c.Database.Addrs) == 0 {
			errs = append(errs, fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver must be one of synthetic, redis, valkey, got %q", c.Database.Driver))
	}
	if c.Database.DB < 0 {
		errs = append(errs, fmt.Errorf("database.db must not be negative, got %d", c.Database.DB))
	}
	if c.Search.SimulatedLatencyMs < 0 {
		errs = append(errs, fmt.Errorf("search.simulated_latency_ms must not be negative, got %d", c.Search.SimulatedLatencyMs))
	}
	if c.Search.MaxLimit > request.MaxLimit {
		errs = append(errs, fmt.Errorf("search.max_limit must not exceed %d, got %d", request.MaxLimit, c.Search.MaxLimit))
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		errs = append(errs, fmt.Errorf("search.default_limit (%d) exceeds search.max_limit (%d)",
			c.Search.DefaultLimit, c.Search.MaxLimit))
	}
	if c.Search.RateLimitRPS < 0 {
		errs = append(errs, fmt.Errorf("search.rate_limit_rps must not be negative, got %v", c.Search.RateLimitRPS))
	}
	return errors.Join(errs...)
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
