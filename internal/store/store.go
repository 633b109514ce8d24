package store

import "time"

// TickEvent is the storage representation of one dispatched tick.
//
// It is decoupled from sharework.Tick so the status API can evolve on its
// own. The target's response is never recorded.
type TickEvent struct {
	// RunID identifies the arm cycle the tick belongs to.
	RunID string `json:"run_id"`

	// Seq is the 1-based tick number within the run.
	Seq uint64 `json:"seq"`

	// URL is the target URL that was requested.
	URL string `json:"url"`

	// FiredAt is when the timer fired.
	FiredAt time.Time `json:"fired_at"`
}

// Snapshot is the current service status as reported by the status API.
type Snapshot struct {
	// State is the service lifecycle state (e.g., "armed", "stopped").
	State string `json:"state"`

	// RunID is the current arm cycle, empty when nothing is armed.
	RunID string `json:"run_id"`

	// ConfigURL is the config-source the task was fetched from.
	ConfigURL string `json:"config_url"`

	// TickCount is the number of ticks recorded since the store was created.
	TickCount uint64 `json:"tick_count"`

	// LastTick is the most recent tick, nil before the first one.
	LastTick *TickEvent `json:"last_tick"`

	// UpdatedAt is when the snapshot last changed.
	UpdatedAt time.Time `json:"updated_at"`
}

// Store defines the interface for recording service status and subscribing
// to tick events.
//
// Store implementations must be safe for concurrent access. The pub/sub
// mechanism allows ticks to be pushed to connected clients
// (e.g., via Server-Sent Events).
type Store interface {
	// SetState records the lifecycle state and current run id.
	SetState(state, runID string)

	// Record stores a tick and notifies all subscribers.
	Record(ev TickEvent)

	// Snapshot returns the current status.
	Snapshot() Snapshot

	// Recent returns up to the last n ticks, oldest first.
	// The returned slice is a copy; modifications do not affect the store.
	Recent(n int) []TickEvent

	// Subscribe returns a channel that receives tick events.
	// The returned channel has a buffer; slow consumers may miss events.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan TickEvent

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan TickEvent)
}
