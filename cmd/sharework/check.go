package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/sharework"
)

// checkCmd fetches and validates the task configuration without running it.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fetch and validate the task configuration",
	Long: `Fetch the task configuration from the config-source and validate it
without sending any request to the target.

It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Configuration is valid
  1 - Configuration could not be retrieved or is invalid

Example:
  sharework check --config-url https://example.com/share-work.json
  sharework check -c /etc/sharework/sharework.yaml`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	addHostFlags(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}

	svc, err := sharework.New(cfg.ConfigURL,
		sharework.WithLogger(newLogger(level)),
		sharework.WithRequestTimeout(cfg.RequestTimeout.Duration()),
		sharework.WithHeaders(headerPairs(cfg.Headers)...),
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer svc.Teardown()

	task, err := svc.FetchConfig(cmd.Context())
	if err != nil {
		if sharework.IsValidation(err) {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration is valid!\n")
	fmt.Fprintf(out, "  Source:   %s\n", cfg.ConfigURL)
	fmt.Fprintf(out, "  Type:     %s\n", task.Type)
	fmt.Fprintf(out, "  Schedule: %s\n", task.Schedule.Round(time.Microsecond))
	fmt.Fprintf(out, "  URL:      %s\n", task.URL)
	if !task.Type.Known() {
		fmt.Fprintf(out, "  Warning:  unknown type %q, it will run as %s\n", task.Type, sharework.TypeRequest)
	}

	return nil
}
