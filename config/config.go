// Package config provides configuration management for the relay server:
// YAML loading with defaults, struct-tag validation, and hot reloading.
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config represents the complete server configuration.
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Logging        LoggingConfig        `yaml:"logging"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// ServerConfig holds server-specific configuration for the HTTP server.
type ServerConfig struct {
	// Port specifies the HTTP server port (default: 8080)
	Port int `yaml:"port" validate:"gte=1,lte=65535"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body (default: 30s)
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response (default: 30s)
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing request headers (default: 1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes" validate:"gte=0"`

	// ShutdownTimeout specifies how long to wait for in-flight requests
	// before forcing termination (default: 30s)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// RequestTimeout bounds per-request handler time; requests exceeding
	// it receive a 504. Zero disables the timeout middleware (default: 0)
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// LoggingConfig controls the zap logger built at startup.
type LoggingConfig struct {
	// Level is the minimum level emitted (default: info)
	Level string `yaml:"level" validate:"oneof=debug info warn error"`

	// Format selects the encoder (default: json)
	Format string `yaml:"format" validate:"oneof=json console"`
}

// RateLimitConfig controls per-client request rate limiting.
type RateLimitConfig struct {
	// Enabled toggles the rate limiting middleware (default: true)
	Enabled bool `yaml:"enabled"`

	// RequestsPerSecond is the sustained per-IP rate (default: 10)
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gte=0"`

	// Burst is the per-IP burst allowance (default: 20)
	Burst int `yaml:"burst" validate:"gte=0"`
}

// CircuitBreakerConfig controls the breaker guarding wrapped handlers.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before the
	// circuit opens (default: 5)
	FailureThreshold uint32 `yaml:"failure_threshold" validate:"gte=0"`

	// ResetTimeout is how long the circuit stays open before probing
	// (default: 30s)
	ResetTimeout time.Duration `yaml:"reset_timeout"`

	// HalfOpenRequests is the number of probe requests allowed while
	// half-open (default: 1)
	HalfOpenRequests uint32 `yaml:"half_open_requests" validate:"gte=0"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 10,
			Burst:             20,
		},
		CircuitBreaker: CircuitBreakerConfig{
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
			HalfOpenRequests: 1,
		},
	}
}

// Load reads a YAML configuration from r, fills in defaults for omitted
// fields, and validates the result.
func Load(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()

	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads and validates the configuration at path.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Validate checks the configuration against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}
