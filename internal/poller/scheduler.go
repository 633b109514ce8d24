package poller

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/facebookgo/clock"
)

// TickFunc is invoked once per elapsed interval with a 1-based sequence
// number and the tick time.
//
// TickFunc runs on the scheduler goroutine and must not block; long work
// belongs in a separate goroutine.
type TickFunc func(seq uint64, at time.Time)

// Scheduler owns a single repeating timer.
//
// The first tick fires one interval after [Scheduler.Start]. Ticks continue
// until [Scheduler.Stop]; there is no tick limit and no self-expiry. A
// Scheduler is single-use: once stopped it cannot be restarted, callers
// create a new one instead.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Scheduler struct {
	interval time.Duration
	clock    clock.Clock
	tick     TickFunc
	logger   *slog.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	ticker  *clock.Ticker
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a [Scheduler] that calls tick every interval.
//
// A nil clk means the wall clock. Returns an error if interval is not
// positive or tick is nil.
func NewScheduler(interval time.Duration, clk clock.Clock, tick TickFunc, logger *slog.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, errors.New("interval must be positive")
	}
	if tick == nil {
		return nil, errors.New("tick func cannot be nil")
	}
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		interval: interval,
		clock:    clk,
		tick:     tick,
		logger:   logger,
		done:     make(chan struct{}),
	}, nil
}

// Interval returns the period between ticks.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Start registers the timer and begins the tick loop in a background
// goroutine.
//
// The timer is registered before Start returns, so a clock advanced right
// after Start observes it. Start is idempotent; calls after the first, or
// after Stop, are no-ops.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.ticker = s.clock.Ticker(s.interval)
	ticks := s.ticker.C // capture under lock to avoid race
	done := s.done
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		var seq uint64
		for {
			select {
			case <-done:
				return
			case at := <-ticks:
				// Stop may have raced with this tick
				select {
				case <-done:
					return
				default:
				}
				seq++
				s.tick(seq, at)
			}
		}
	}()

	s.logger.Debug("timer armed", "interval", s.interval.String())
}

// Stop cancels the timer and waits for the tick loop to exit.
//
// After Stop returns no further tick is delivered. Stop is idempotent and
// safe to call before Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.done)
	}
	s.mu.Unlock()

	s.wg.Wait()
}
