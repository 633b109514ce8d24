package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/sharework"
	"github.com/jpalmerr/sharework/internal/server"
	"github.com/jpalmerr/sharework/internal/store"
)

const (
	shutdownTimeout = 10 * time.Second

	// tickHistory is the number of ticks kept for the status API.
	tickHistory = 100
)

// runCmd fetches the task configuration and runs it until interrupted.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch the task configuration and run it",
	Long: `Fetch the task configuration from the config-source and send the
configured request on its schedule.

The configuration is fetched once. If it cannot be retrieved or is invalid
the command exits with an error and no request is sent.

The task runs until interrupted (Ctrl+C) or SIGTERM. With --status-port set,
a read-only status API is served on that port:
  GET /api/status   current state, run id, tick count, last tick
  GET /api/ticks    recent ticks (?n=N)
  GET /api/sse      live tick events

Example:
  sharework run --config-url https://example.com/share-work.json
  SHAREWORK_CONFIG_URL=https://example.com/share-work.json sharework run
  sharework run -c /etc/sharework/sharework.yaml --status-port 8080`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	addHostFlags(runCmd)
	runCmd.Flags().Int("status-port", 0, "serve the status API on this port (0 disables)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	logger := newLogger(level)

	// cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := store.NewMemoryStore(cfg.ConfigURL, tickHistory)

	svc, err := sharework.New(cfg.ConfigURL,
		sharework.WithLogger(logger),
		sharework.WithRequestTimeout(cfg.RequestTimeout.Duration()),
		sharework.WithHeaders(headerPairs(cfg.Headers)...),
		sharework.WithTickCallback(func(tk sharework.Tick) {
			st.Record(store.TickEvent{
				RunID:   tk.RunID,
				Seq:     tk.Seq,
				URL:     tk.URL,
				FiredAt: tk.FiredAt,
			})
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	if cfg.StatusPort != 0 {
		srv := server.NewServer(st, cfg.StatusPort, logger)
		if err := srv.Start(ctx); err != nil {
			return err
		}
	}

	err = svc.Start(ctx)
	st.SetState(svc.State().String(), svc.RunID())
	if err != nil {
		svc.Teardown()
		if errors.Is(err, sharework.ErrStoppedDuringFetch) || (ctx.Err() != nil && errors.Is(err, context.Canceled)) {
			logger.Info("shutdown complete")
			return nil
		}
		return fmt.Errorf("failed to start: %w", err)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	svc.Teardown()
	st.SetState(svc.State().String(), svc.RunID())

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := svc.Drain(drainCtx); err != nil {
		logger.Warn("shutdown timed out",
			"timeout", shutdownTimeout.String(),
			"action", "abandoning in-flight requests",
		)
		return nil
	}

	logger.Info("shutdown complete")
	return nil
}
