package store

import (
	"sync"
	"time"
)

// DefaultHistory is the number of ticks kept when NewMemoryStore is given
// a non-positive size.
const DefaultHistory = 100

// MemoryStore is an in-memory implementation of [Store].
//
// Ticks are kept in a fixed-size ring; once full, the oldest tick is
// overwritten. Subscribers receive events via buffered channels (buffer
// size 100). Events are sent non-blocking; if a subscriber's buffer is
// full, the event is dropped for that subscriber.
type MemoryStore struct {
	mu        sync.RWMutex
	configURL string
	state     string
	runID     string
	count     uint64
	updatedAt time.Time
	ring      []TickEvent
	next      int
	filled    bool

	subscribers map[chan TickEvent]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory [Store] keeping the last history
// ticks for the given config-source.
func NewMemoryStore(configURL string, history int) *MemoryStore {
	if history <= 0 {
		history = DefaultHistory
	}
	return &MemoryStore{
		configURL:   configURL,
		state:       "uninitialized",
		updatedAt:   time.Now(),
		ring:        make([]TickEvent, history),
		subscribers: make(map[chan TickEvent]struct{}),
	}
}

// SetState records the lifecycle state and run id.
func (m *MemoryStore) SetState(state, runID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = state
	m.runID = runID
	m.updatedAt = time.Now()
}

// Record stores a [TickEvent] and notifies all subscribers.
func (m *MemoryStore) Record(ev TickEvent) {
	m.mu.Lock()
	m.ring[m.next] = ev
	m.next = (m.next + 1) % len(m.ring)
	if m.next == 0 {
		m.filled = true
	}
	m.count++
	m.updatedAt = time.Now()
	m.mu.Unlock()

	m.notifySubscribers(ev)
}

// Snapshot returns the current status. LastTick is a copy.
func (m *MemoryStore) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{
		State:     m.state,
		RunID:     m.runID,
		ConfigURL: m.configURL,
		TickCount: m.count,
		UpdatedAt: m.updatedAt,
	}
	if m.count > 0 {
		last := m.ring[(m.next-1+len(m.ring))%len(m.ring)]
		snap.LastTick = &last
	}
	return snap
}

// Recent returns up to the last n ticks, oldest first. A non-positive n
// returns every retained tick.
func (m *MemoryStore) Recent(n int) []TickEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	size := m.next
	if m.filled {
		size = len(m.ring)
	}
	if n <= 0 || n > size {
		n = size
	}

	events := make([]TickEvent, 0, n)
	start := (m.next - n + len(m.ring)) % len(m.ring)
	for i := 0; i < n; i++ {
		events = append(events, m.ring[(start+i)%len(m.ring)])
	}
	return events
}

// Subscribe creates a new subscription and returns a channel for receiving ticks.
//
// The returned channel has a buffer of 100 messages. If the buffer fills
// (slow consumer), new events are dropped for this subscriber.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan TickEvent {
	ch := make(chan TickEvent, 100)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan TickEvent) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends ev to all active subscribers without blocking.
func (m *MemoryStore) notifySubscribers(ev TickEvent) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- ev:
		default:
			// subscriber is slow, drop the message
		}
	}
}
