// Package poller provides the HTTP client and the repeating timer used by
// the sharework service.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with per-request timeouts and size limits
//   - [Scheduler]: a single repeating timer with idempotent Start/Stop
//
// Users of the sharework library should not need to interact with this
// package directly. Configuration is done through the main sharework package.
package poller
