// Package sharework runs a small periodic task described by a remote
// configuration.
//
// A [Service] fetches a JSON document from a config-source URL once,
// validates it, and then sends a fire-and-forget GET to the configured
// target on a fixed interval. It is a "share work" helper: small periodic
// pings are offloaded to a client instead of being run server-side.
//
// # Quick Start
//
//	svc, err := sharework.New("https://example.com/share-work.json",
//	    sharework.WithLogger(logger),
//	)
//	if err != nil {
//	    return err
//	}
//
//	if err := svc.Start(ctx); err != nil {
//	    return err
//	}
//	defer svc.Teardown()
//
// # Configuration Document
//
// The config-source must answer with a 2xx JSON body of the form:
//
//	{"type": "Request", "schedule": 1000, "url": "https://target.example.com/ping"}
//
// schedule is in milliseconds. A document missing a field is rejected with
// a [*ValidationError]; the checks run in the order url, schedule, type, so
// the first missing field is the one reported. A non-2xx answer, a
// transport failure or a non-JSON body is a [*FetchError]. Neither kind is
// retried and neither leaves a timer armed.
//
// # Ticks
//
// The first request fires one schedule after [Service.Start]. Each tick is
// independent: responses are drained and ignored, failures are logged at
// debug level and dropped, and a slow request never delays the next tick.
// Use [WithTickCallback] to observe ticks.
//
// # Architecture
//
// Sharework consists of several internal packages (under internal/):
//
//   - internal/poller: HTTP client and the repeating timer
//   - internal/store: in-memory tick log with pub/sub for live updates
//   - internal/server: read-only status API used by the CLI
//
// The config package parses the YAML file used by the sharework binary.
package sharework
