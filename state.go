package sharework

// State is the lifecycle position of a [Service].
//
//	Uninitialized -> FetchingConfig -> Armed -> Stopped
//	                       |
//	                       +-> Failed
//
// Stopped and Failed are terminal for one arm cycle; calling
// [Service.Start] again begins a new one.
type State int

const (
	// StateUninitialized is the state of a new Service before Start.
	StateUninitialized State = iota

	// StateFetchingConfig means Start is waiting on the config-source.
	StateFetchingConfig

	// StateArmed means the repeating timer is registered.
	StateArmed

	// StateStopped means Stop or Teardown cancelled the timer.
	StateStopped

	// StateFailed means the last Start could not fetch or validate the
	// configuration. No timer is armed.
	StateFailed
)

// String returns the snake_case name of the state.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateFetchingConfig:
		return "fetching_config"
	case StateArmed:
		return "armed"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
