package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// StartMockServer runs a config-source at /share-work.json and a target at
// /ping on addr. The config points the service at the target.
// Call this in a goroutine before starting the service.
func StartMockServer(addr string, schedule int) {
	var pings atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/share-work.json", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("config requested", "remote", r.RemoteAddr)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type":     "Request",
			"schedule": schedule,
			"url":      "http://localhost" + addr + "/ping",
		})
	})
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("ping received", "count", pings.Add(1))
		w.WriteHeader(http.StatusNoContent)
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock server error", "error", err)
	}
}
