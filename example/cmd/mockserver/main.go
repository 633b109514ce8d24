// Standalone mock config-source and target for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/sharework run -c example/sharework.yaml
//
// Send SIGHUP to toggle the config-source between a valid document and a
// 502, to see how the CLI reports a fetch failure.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

func main() {
	addr := flag.String("addr", ":9999", "listen address")
	schedule := flag.Int("schedule", 1000, "schedule in milliseconds served to clients")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	var (
		pings  atomic.Int64
		broken atomic.Bool
	)

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			logger.Info("config-source toggled", "broken", !broken.Load())
			broken.Store(!broken.Load())
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/share-work.json", func(w http.ResponseWriter, r *http.Request) {
		if broken.Load() {
			logger.Info("config requested, answering 502", "remote", r.RemoteAddr)
			http.Error(w, "bad gateway", http.StatusBadGateway)
			return
		}
		logger.Info("config requested", "remote", r.RemoteAddr, "authorization", r.Header.Get("Authorization") != "")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type":     "Request",
			"schedule": *schedule,
			"url":      "http://localhost" + *addr + "/ping",
		})
	})
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		logger.Info("ping received", "count", pings.Add(1))
		w.WriteHeader(http.StatusNoContent)
	})

	fmt.Printf("Mock config-source on %s/share-work.json\n", *addr)
	fmt.Printf("Target on %s/ping (schedule %dms)\n", *addr, *schedule)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	if err := http.ListenAndServe(*addr, mux); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
