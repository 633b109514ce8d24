package sharework

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"

	"github.com/jpalmerr/sharework/internal/poller"
)

const defaultRequestTimeout = 10 * time.Second

// ErrStoppedDuringFetch is returned by [Service.Start] when Stop or
// Teardown ran while the configuration was being fetched. No timer is
// armed in that case.
var ErrStoppedDuringFetch = errors.New("service stopped while fetching configuration")

// Tick describes one periodic request dispatched by a [Service].
type Tick struct {
	// RunID identifies the arm cycle that produced the tick. Every
	// successful Start begins a new cycle.
	RunID string

	// Seq is the 1-based tick number within the cycle.
	Seq uint64

	// URL is the target URL that was requested.
	URL string

	// FiredAt is the timer time of the tick.
	FiredAt time.Time
}

// Service fetches a task configuration from a config-source URL and then
// issues a fire-and-forget GET to the configured target on every interval.
//
// The typical lifecycle is:
//
//	svc, err := sharework.New("https://example.com/share-work.json")
//	if err != nil {
//	    return err
//	}
//	if err := svc.Start(ctx); err != nil {
//	    return err // configuration could not be fetched or was invalid
//	}
//	defer svc.Teardown()
//
// At most one timer is armed per Service. Start may be called again to
// re-fetch the configuration; the previous timer is cancelled before the
// new one is registered.
//
// All methods are safe for concurrent use.
type Service struct {
	configURL      string
	configBase     *url.URL
	client         *poller.Client
	clock          clock.Clock
	requestTimeout time.Duration
	headers        map[string]string
	tickCallbacks  []func(Tick)
	logger         *slog.Logger

	mu    sync.Mutex
	state State
	timer *poller.Scheduler
	runID string
	// epoch is bumped by Stop so that a fetch started earlier cannot arm
	epoch uint64

	inflight sync.WaitGroup
}

// New creates a [Service] that will read its task configuration from
// configURL.
//
// configURL must be an absolute http or https URL. The Service does nothing
// until [Service.Start] is called.
func New(configURL string, opts ...Option) (*Service, error) {
	if configURL == "" {
		return nil, errors.New("config url cannot be empty")
	}
	parsed, err := url.Parse(configURL)
	if err != nil {
		return nil, fmt.Errorf("invalid config url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("config url scheme must be http or https, got %q", parsed.Scheme)
	}

	cfg := &svcConfig{
		requestTimeout: defaultRequestTimeout,
		headers:        make(map[string]string),
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := cfg.clock
	if clk == nil {
		clk = clock.New()
	}

	return &Service{
		configURL:      configURL,
		configBase:     parsed,
		client:         poller.NewClient(cfg.httpClient),
		clock:          clk,
		requestTimeout: cfg.requestTimeout,
		headers:        cfg.headers,
		tickCallbacks:  cfg.tickCallbacks,
		logger:         logger,
		state:          StateUninitialized,
	}, nil
}

// ConfigURL returns the config-source URL the Service was created with.
func (s *Service) ConfigURL() string {
	return s.configURL
}

// State returns the current lifecycle state.
//
// While a re-Start fetches with an earlier timer still ticking, the state
// stays [StateArmed]; [StateFetchingConfig] is only reported when no timer
// is armed.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RunID returns the id of the current arm cycle, or "" if no timer is armed.
func (s *Service) RunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil {
		return ""
	}
	return s.runID
}

// Start fetches the task configuration once, validates it, and arms the
// repeating timer.
//
// Start blocks only for the fetch. It returns a [*FetchError] if the
// config-source could not be reached, answered with a non-2xx status, or
// returned a body that is not JSON, and a [*ValidationError] if the
// configuration was rejected. Neither is retried. On failure no new timer
// is armed; a timer armed by an earlier Start keeps running.
//
// The first tick fires one schedule after Start returns. Ticks are not
// bound to ctx; they run until [Service.Stop] or [Service.Teardown].
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	epoch := s.epoch
	if s.timer == nil {
		s.state = StateFetchingConfig
	}
	s.mu.Unlock()

	s.logger.Info("fetching configuration", "config_url", s.configURL)

	cfg, err := s.FetchConfig(ctx)
	if err != nil {
		s.mu.Lock()
		if s.timer != nil {
			s.state = StateArmed
		} else {
			s.state = StateFailed
		}
		s.mu.Unlock()
		return err
	}

	return s.arm(epoch, cfg)
}

// FetchConfig performs the config-source request and validates the body
// without arming anything.
//
// A relative target url is resolved against the config-source URL, so
// {"url": "/ping"} served from https://example.com/share-work.json targets
// https://example.com/ping.
func (s *Service) FetchConfig(ctx context.Context) (TaskConfig, error) {
	resp := s.client.Get(ctx, s.configURL, s.headers, s.requestTimeout)
	if resp.Error != nil {
		return TaskConfig{}, &FetchError{URL: s.configURL, Err: resp.Error}
	}
	if !resp.OK() {
		return TaskConfig{}, &FetchError{URL: s.configURL, StatusCode: resp.StatusCode}
	}

	cfg, err := ParseConfig(resp.Body)
	if err != nil {
		if IsValidation(err) {
			return TaskConfig{}, err
		}
		return TaskConfig{}, &FetchError{URL: s.configURL, Err: err}
	}

	cfg.URL = s.resolveTarget(cfg.URL)

	if !cfg.Type.Known() {
		s.logger.Warn("unknown task type, treating as request",
			"type", cfg.Type.String(),
			"config_url", s.configURL,
		)
	}
	return cfg, nil
}

// resolveTarget resolves a relative target reference against the
// config-source URL. Absolute URLs are returned unchanged.
func (s *Service) resolveTarget(target string) string {
	ref, err := url.Parse(target)
	if err != nil || ref.IsAbs() {
		return target
	}
	return s.configBase.ResolveReference(ref).String()
}

// arm replaces any armed timer with one bound to cfg.
func (s *Service) arm(epoch uint64, cfg TaskConfig) error {
	runID := uuid.NewString()
	target := cfg.URL
	logger := s.logger.With("run_id", runID)

	timer, err := poller.NewScheduler(cfg.Schedule, s.clock, func(seq uint64, at time.Time) {
		s.dispatch(Tick{RunID: runID, Seq: seq, URL: target, FiredAt: at}, logger)
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to arm timer: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		if s.timer == nil {
			s.state = StateStopped
		}
		return ErrStoppedDuringFetch
	}

	if s.timer != nil {
		s.timer.Stop()
		logger.Info("previous timer cancelled", "previous_run_id", s.runID)
	}

	s.timer = timer
	s.runID = runID
	s.state = StateArmed
	timer.Start()

	logger.Info("periodic task armed",
		"type", cfg.Type.String(),
		"url", cfg.URL,
		"schedule", cfg.Schedule.String(),
	)
	return nil
}

// dispatch issues the tick request without waiting for it.
func (s *Service) dispatch(tick Tick, logger *slog.Logger) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		if err := s.client.Fire(context.Background(), tick.URL, s.requestTimeout); err != nil {
			logger.Debug("tick request failed", "tick", tick.Seq, "url", tick.URL, "error", err.Error())
		}

		for _, cb := range s.tickCallbacks {
			invokeCallbackSafe(cb, tick, logger)
		}
	}()
}

// Stop cancels the armed timer.
//
// After Stop returns no further tick fires. Requests already dispatched are
// left to complete. Stop is idempotent and a no-op when nothing is armed,
// except that it also prevents a Start still fetching from arming.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	if s.timer == nil {
		return
	}

	s.timer.Stop()
	s.timer = nil
	s.state = StateStopped
	s.logger.Info("periodic task stopped", "run_id", s.runID)
}

// Teardown stops the Service and releases idle pooled connections.
//
// It is the destruction hook: once Teardown returns, no periodic request
// fires. The Service may still be started again.
func (s *Service) Teardown() {
	s.Stop()
	s.client.Close()
}

// Drain waits for dispatched tick requests to finish or for ctx to end.
//
// Call Drain after Stop or Teardown; ticks dispatched concurrently with
// Drain may or may not be waited for.
func (s *Service) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// invokeCallbackSafe calls a tick callback with panic recovery.
// Panics are logged with a correlation id but do not propagate.
func invokeCallbackSafe(cb func(Tick), tick Tick, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("tick callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
				"tick", tick.Seq,
			)
		}
	}()
	cb(tick)
}
