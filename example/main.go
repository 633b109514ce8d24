package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/sharework"
)

func main() {
	// start mock config-source and target (see mock_server.go)
	go StartMockServer(":9999", 2000)
	time.Sleep(100 * time.Millisecond)

	svc, err := sharework.New("http://localhost:9999/share-work.json",
		sharework.WithRequestTimeout(5*time.Second),
		sharework.WithTickCallback(func(tk sharework.Tick) {
			slog.Info("tick", "run_id", tk.RunID, "seq", tk.Seq, "url", tk.URL)
		}),
	)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  Sharework Demo")
	fmt.Println()
	fmt.Println("  Config-source: http://localhost:9999/share-work.json")
	fmt.Println("  Target:        http://localhost:9999/ping every 2s")
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil {
		slog.Error("sharework error", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	svc.Teardown()

	drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = svc.Drain(drainCtx)
}
