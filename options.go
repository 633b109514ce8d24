package sharework

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/facebookgo/clock"
)

// svcConfig holds mutable state during Service construction.
type svcConfig struct {
	logger         *slog.Logger
	clock          clock.Clock
	httpClient     *http.Client
	requestTimeout time.Duration
	headers        map[string]string
	tickCallbacks  []func(Tick)
}

// Option is a function that configures a [Service] during construction.
//
// Option implements the functional options pattern. Options return an
// error if validation fails.
//
// Built-in options: [WithLogger], [WithClock], [WithHTTPClient],
// [WithRequestTimeout], [WithHeaders], [WithTickCallback].
type Option func(*svcConfig) error

// WithLogger sets a custom [slog.Logger] for the Service.
//
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *svcConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithClock sets the clock that drives the repeating timer.
//
// Defaults to the wall clock. Tests pass clock.NewMock() to advance time
// deterministically.
//
// Returns an error if the clock is nil.
func WithClock(c clock.Clock) Option {
	return func(cfg *svcConfig) error {
		if c == nil {
			return errors.New("clock cannot be nil")
		}
		cfg.clock = c
		return nil
	}
}

// WithHTTPClient sets the http.Client used for the config fetch and for
// every tick request.
//
// Defaults to a client with a small pooled transport and no global timeout.
//
// Returns an error if the client is nil.
func WithHTTPClient(hc *http.Client) Option {
	return func(cfg *svcConfig) error {
		if hc == nil {
			return errors.New("http client cannot be nil")
		}
		cfg.httpClient = hc
		return nil
	}
}

// WithRequestTimeout bounds each outbound request, the config fetch and
// every tick. Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *svcConfig) error {
		if d <= 0 {
			return errors.New("request timeout must be positive")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithHeaders adds HTTP headers to the config fetch.
//
// Tick requests are sent without them.
//
// Accepts variadic key-value pairs. Returns an error if an odd number of
// arguments is provided.
//
// Example:
//
//	svc, err := sharework.New(configURL,
//	    sharework.WithHeaders("Authorization", "Bearer token123"),
//	)
func WithHeaders(keyValues ...string) Option {
	return func(cfg *svcConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithTickCallback registers a function called once per tick.
//
// The callback receives a [Tick] describing the request that was just
// dispatched. It never sees the response. Callbacks run on the request
// goroutine once the request has completed or failed, in registration
// order. Panics are recovered and logged.
//
// Nil callbacks are silently ignored.
func WithTickCallback(cb func(Tick)) Option {
	return func(cfg *svcConfig) error {
		if cb == nil {
			return nil
		}
		cfg.tickCallbacks = append(cfg.tickCallbacks, cb)
		return nil
	}
}
