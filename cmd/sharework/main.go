// Package main is the entry point for the sharework CLI.
//
// Sharework can be embedded as a library or run as a standalone binary.
// This CLI provides the standalone binary approach.
//
// Usage:
//
//	sharework run --config-url https://example.com/share-work.json
//	sharework run -c sharework.yaml     # Read host settings from YAML
//	sharework check -c sharework.yaml   # Fetch and validate the task config
//	sharework version                   # Show version info
//
// Every flag can also be set with a SHAREWORK_ environment variable, for
// example SHAREWORK_CONFIG_URL or SHAREWORK_STATUS_PORT.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "sharework",
	Short: "Run a remotely configured periodic request",
	Long: `Sharework fetches a task configuration from a config-source URL and
then sends a GET request to the configured target on a fixed schedule.

The config-source must answer with JSON:
  {"type": "Request", "schedule": 1000, "url": "https://target.example.com/ping"}

schedule is in milliseconds.

Quick start:
  sharework check --config-url https://example.com/share-work.json
  sharework run   --config-url https://example.com/share-work.json --status-port 8080`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this sharework binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sharework %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", commit)
		fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
