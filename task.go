package sharework

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Type is the category of periodic work a [TaskConfig] describes.
type Type string

// TypeRequest issues a GET to the configured URL on every tick. It is the
// only variant in use; other non-empty types are accepted and treated the
// same way.
const TypeRequest Type = "Request"

// String returns the string representation of the type.
func (t Type) String() string {
	return string(t)
}

// Known reports whether t is a recognised variant.
func (t Type) Known() bool {
	return t == TypeRequest
}

// TaskConfig is the validated task description received from the
// config-source.
//
// The service consumes a TaskConfig to arm its timer and does not keep it
// afterwards.
type TaskConfig struct {
	// Type is the category of work.
	Type Type `json:"type"`

	// Schedule is the period between requests.
	Schedule time.Duration `json:"-"`

	// URL is the address each periodic request is sent to.
	URL string `json:"url"`
}

// ScheduleMillis returns the schedule in milliseconds, the unit used on
// the wire.
func (c TaskConfig) ScheduleMillis() float64 {
	return float64(c.Schedule) / float64(time.Millisecond)
}

// MarshalJSON encodes the config in its wire shape.
func (c TaskConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     Type    `json:"type"`
		Schedule float64 `json:"schedule"`
		URL      string  `json:"url"`
	}{c.Type, c.ScheduleMillis(), c.URL})
}

// ParseConfig decodes a config-source response body and validates it.
//
// A body that is not JSON is a decode error, not a [ValidationError]; the
// service reports it as a fetch failure. An empty body counts as an empty
// configuration.
func ParseConfig(raw []byte) (TaskConfig, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return TaskConfig{}, &ValidationError{Reason: ErrConfigEmpty}
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return TaskConfig{}, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return ValidateConfig(v)
}

// ValidateConfig narrows a decoded JSON value into a [TaskConfig].
//
// The url may be relative; [Service.FetchConfig] resolves it against the
// config-source URL.
//
// Presence is judged by JSON truthiness: null, false, 0 and "" are absent.
// The checks run in a fixed order (whole value, url, schedule, type) and
// the first failure is returned. A schedule of 0 is therefore "empty".
// Coercion checks on the present fields follow.
func ValidateConfig(v any) (TaskConfig, error) {
	if !truthy(v) {
		return TaskConfig{}, &ValidationError{Reason: ErrConfigEmpty}
	}

	// any other truthy value (array, string, number) has no fields
	fields, _ := v.(map[string]any)

	rawURL, rawSchedule, rawType := fields["url"], fields["schedule"], fields["type"]

	if !truthy(rawURL) {
		return TaskConfig{}, &ValidationError{Reason: ErrURLEmpty}
	}
	if !truthy(rawSchedule) {
		return TaskConfig{}, &ValidationError{Reason: ErrScheduleEmpty}
	}
	if !truthy(rawType) {
		return TaskConfig{}, &ValidationError{Reason: ErrTypeMissing}
	}

	target, err := parseTargetURL(rawURL)
	if err != nil {
		return TaskConfig{}, err
	}

	schedule, err := parseSchedule(rawSchedule)
	if err != nil {
		return TaskConfig{}, err
	}

	return TaskConfig{
		Type:     typeOf(rawType),
		Schedule: schedule,
		URL:      target,
	}, nil
}

// parseTargetURL accepts an absolute http(s) URL or a relative reference.
// Relative references are resolved against the config-source by the Service.
func parseTargetURL(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", &ValidationError{Reason: ErrURLInvalid, Detail: fmt.Sprintf("got %T", v)}
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", &ValidationError{Reason: ErrURLInvalid, Detail: err.Error()}
	}
	if u.Scheme == "" {
		return s, nil
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &ValidationError{Reason: ErrURLInvalid, Detail: fmt.Sprintf("scheme must be http or https, got %q", u.Scheme)}
	}
	if u.Host == "" {
		return "", &ValidationError{Reason: ErrURLInvalid, Detail: "missing host"}
	}
	return s, nil
}

// typeOf renders a truthy type value as a Type. Non-string values keep
// their JSON text, so 1 becomes "1".
func typeOf(v any) Type {
	if s, ok := v.(string); ok {
		return Type(s)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return Type(fmt.Sprint(v))
	}
	return Type(data)
}

// maxScheduleMillis keeps the schedule within time.Duration range.
const maxScheduleMillis = float64(math.MaxInt64 / int64(time.Millisecond))

// parseSchedule accepts a JSON number or a numeric string of milliseconds.
func parseSchedule(v any) (time.Duration, error) {
	var ms float64
	switch s := v.(type) {
	case float64:
		ms = s
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, &ValidationError{Reason: ErrScheduleInvalid, Detail: fmt.Sprintf("%q is not a number", s)}
		}
		ms = parsed
	default:
		return 0, &ValidationError{Reason: ErrScheduleInvalid, Detail: fmt.Sprintf("got %T", v)}
	}

	if math.IsNaN(ms) || ms <= 0 || ms > maxScheduleMillis {
		return 0, &ValidationError{Reason: ErrScheduleInvalid, Detail: fmt.Sprintf("got %v", ms)}
	}

	d := time.Duration(ms * float64(time.Millisecond))
	if d <= 0 {
		// positive but below the duration resolution
		return 0, &ValidationError{Reason: ErrScheduleInvalid, Detail: fmt.Sprintf("got %v", ms)}
	}
	return d, nil
}

// truthy reports whether a decoded JSON value counts as present.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case string:
		return t != ""
	default:
		// objects and arrays, even empty ones
		return true
	}
}
