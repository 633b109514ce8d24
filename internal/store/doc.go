// Package store keeps the status reported by the sharework binary.
//
// It records the service lifecycle state and a bounded history of tick
// events, and fans ticks out to subscribers for live updates.
//
// The main components are:
//
//   - [Store]: Interface defining recording and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//   - [TickEvent] and [Snapshot]: JSON representations served by internal/server
//
// Subscribers receive events via channels with non-blocking sends (slow
// subscribers will miss events rather than block the tick path).
package store
