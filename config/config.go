// Package config provides YAML configuration parsing for the sharework binary.
//
// The file describes where the task configuration lives and how the host
// process behaves. The task itself (type, schedule, target url) is never in
// this file; it is always fetched from config_url at start.
//
// Example configuration:
//
//	config_url: https://${CONFIG_HOST:-config.example.com}/share-work.json
//	request_timeout: 5s
//	log_level: info
//	status_port: 8080
//
//	headers:
//	  Authorization: "Bearer ${CONFIG_TOKEN}"
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by [Parse] and [Default].
const (
	DefaultRequestTimeout = 10 * time.Second
	DefaultLogLevel       = "info"
)

// maxRequestTimeout is the largest accepted request_timeout.
const maxRequestTimeout = 5 * time.Minute

// Config is the root configuration structure for the sharework binary.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// ConfigURL is the config-source URL the task configuration is fetched from.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	ConfigURL string `yaml:"config_url"`

	// RequestTimeout bounds the config fetch and every tick request.
	// Defaults to 10s.
	RequestTimeout Duration `yaml:"request_timeout"`

	// Headers are sent with the config fetch only.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers"`

	// LogLevel is one of debug, info, warn, error. Defaults to info.
	LogLevel string `yaml:"log_level"`

	// StatusPort serves the read-only status API when non-zero.
	StatusPort int `yaml:"status_port"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Default returns a Config with every default applied and no config_url.
func Default() *Config {
	return &Config{
		RequestTimeout: Duration(DefaultRequestTimeout),
		LogLevel:       DefaultLogLevel,
	}
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before validation.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in ConfigURL and Header values.
// Defaults are applied for RequestTimeout (10s) and LogLevel (info).
//
// An empty config_url is allowed here; the CLI may supply it from a flag or
// environment variable. Call [Config.Validate] once every layer is merged.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = Duration(DefaultRequestTimeout)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if err := cfg.expand(); err != nil {
		return nil, err
	}
	if err := cfg.check(false); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks a fully merged configuration, including that config_url is set.
func (c *Config) Validate() error {
	return c.check(true)
}

// SlogLevel returns the slog level named by LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	return ParseLogLevel(c.LogLevel)
}

// ParseLogLevel maps debug, info, warn and error (case-insensitive) to slog levels.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log_level must be debug, info, warn, or error, got %q", s)
}

// expand substitutes environment variables in place.
func (c *Config) expand() error {
	expanded, err := expandEnvVars(c.ConfigURL)
	if err != nil {
		return fmt.Errorf("config_url: %w", err)
	}
	c.ConfigURL = expanded

	for k, v := range c.Headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("headers[%s]: %w", k, err)
		}
		c.Headers[k] = expanded
	}
	return nil
}

func (c *Config) check(requireURL bool) error {
	if c.ConfigURL == "" {
		if requireURL {
			return errors.New("config_url is required")
		}
	} else {
		parsedURL, err := url.Parse(c.ConfigURL)
		if err != nil {
			return fmt.Errorf("invalid config_url: %w", err)
		}
		if parsedURL.Scheme == "" {
			return errors.New("config_url must have a scheme (http:// or https://)")
		}
		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return fmt.Errorf("config_url scheme must be http or https, got %q", parsedURL.Scheme)
		}
		if parsedURL.Host == "" {
			return errors.New("config_url must have a host")
		}
	}

	timeout := c.RequestTimeout.Duration()
	if timeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", timeout)
	}
	if timeout > maxRequestTimeout {
		return fmt.Errorf("request_timeout must not exceed %s, got %s", maxRequestTimeout, timeout)
	}

	for k := range c.Headers {
		if strings.TrimSpace(k) == "" {
			return errors.New("headers: header name cannot be empty")
		}
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}

	if c.StatusPort < 0 || c.StatusPort > 65535 {
		return fmt.Errorf("status_port must be between 0 and 65535, got %d", c.StatusPort)
	}

	return nil
}
