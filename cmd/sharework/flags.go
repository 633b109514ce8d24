package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jpalmerr/sharework/config"
)

const envPrefix = "SHAREWORK"

// addHostFlags registers the flags shared by run and check.
func addHostFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "path to a YAML host config file")
	cmd.Flags().String("config-url", "", "config-source URL serving the task configuration")
	cmd.Flags().Duration("timeout", config.DefaultRequestTimeout, "timeout for the config fetch and each tick request")
	cmd.Flags().String("log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	cmd.Flags().StringArrayP("header", "H", nil, `header sent with the config fetch, as "Name: value" (repeatable)`)
}

// resolveConfig merges the host configuration.
//
// Precedence is flag, then SHAREWORK_* environment variable, then YAML
// file, then built-in default. Headers from -H are added on top of the file.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	base := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		base = loaded
	}

	v := viper.New()
	v.SetDefault("config-url", base.ConfigURL)
	v.SetDefault("timeout", base.RequestTimeout.Duration())
	v.SetDefault("log-level", base.LogLevel)
	v.SetDefault("status-port", base.StatusPort)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	cfg := *base
	cfg.ConfigURL = v.GetString("config-url")
	cfg.RequestTimeout = config.Duration(v.GetDuration("timeout"))
	cfg.LogLevel = v.GetString("log-level")
	cfg.StatusPort = v.GetInt("status-port")

	headers := make(map[string]string, len(base.Headers))
	for k, val := range base.Headers {
		headers[k] = val
	}
	raw, _ := cmd.Flags().GetStringArray("header")
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q: expected \"Name: value\"", h)
		}
		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	cfg.Headers = headers

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// headerPairs flattens headers into sorted key-value pairs for sharework.WithHeaders.
func headerPairs(headers map[string]string) []string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, k, headers[k])
	}
	return pairs
}

// newLogger creates a JSON logger for CLI use.
func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
