package sharework

import (
	"errors"
	"fmt"
)

// ErrConfigFetch is matched by every [FetchError].
var ErrConfigFetch = errors.New("could not retrieve configuration")

// Validation reasons. The first four are checked in this order, so the
// first missing field wins when several are absent.
var (
	ErrConfigEmpty   = errors.New("configuration is empty")
	ErrURLEmpty      = errors.New("configuration url is empty")
	ErrScheduleEmpty = errors.New("configuration schedule is empty")
	ErrTypeMissing   = errors.New("configuration type is missing")

	ErrURLInvalid      = errors.New("configuration url is invalid")
	ErrScheduleInvalid = errors.New("configuration schedule must be a positive number of milliseconds")
)

// FetchError reports that the task configuration could not be retrieved:
// a transport failure, a non-2xx status, or a body that is not JSON.
//
// errors.Is(err, ErrConfigFetch) is true for every FetchError.
type FetchError struct {
	// URL is the config-source URL that was requested.
	URL string

	// StatusCode is the HTTP status received, or zero if none was.
	StatusCode int

	// Err is the underlying cause.
	Err error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s returned status %d", ErrConfigFetch, e.URL, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", ErrConfigFetch, e.Err)
	}
	return ErrConfigFetch.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrConfigFetch) succeed.
func (e *FetchError) Is(target error) bool {
	return target == ErrConfigFetch
}

// ValidationError reports that a fetched configuration was rejected.
//
// Reason is one of the Err* validation sentinels, so callers can use
// errors.Is(err, ErrURLEmpty) and friends.
type ValidationError struct {
	Reason error

	// Detail carries extra context for coercion failures, such as the
	// offending value. Empty for the four presence checks.
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail != "" {
		return e.Reason.Error() + ": " + e.Detail
	}
	return e.Reason.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}

// IsValidation reports whether err is or wraps a [ValidationError].
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
