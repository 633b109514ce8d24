// Package server provides the read-only status API of the sharework binary.
//
//   - REST API: JSON endpoints at "/api/status" and "/api/ticks"
//   - Server-Sent Events: live tick events at "/api/sse"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests. It is only started when the
// binary is given a non-zero status port.
package server
