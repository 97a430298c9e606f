package model

import (
	"fmt"
	"strings"
)

// Status classifies the outcome of a single provider call.
// Every failure a provider can encounter maps to exactly one Status, so
// callers never need to inspect raw error text to decide what happened.
type Status int

const (
	// StatusSuccess means the provider returned data.
	StatusSuccess Status = iota

	// StatusNotFound means the provider answered but holds no data for
	// the identifier (no breaches, no geocode match, no WHOIS record).
	StatusNotFound

	// StatusAuthError means the provider rejected the configured credential.
	StatusAuthError

	// StatusRateLimited means the provider or a local quota refused the call.
	StatusRateLimited

	// StatusNetworkError covers timeouts, transport failures, unexpected
	// HTTP status codes and malformed responses.
	StatusNetworkError

	// StatusUnconfigured means a required credential or data file is
	// missing. No network call was made.
	StatusUnconfigured

	// StatusInvalidFormat means the input could not be normalized.
	StatusInvalidFormat
)

var statusNames = map[Status]string{
	StatusSuccess:       "success",
	StatusNotFound:      "not_found",
	StatusAuthError:     "auth_error",
	StatusRateLimited:   "rate_limited",
	StatusNetworkError:  "network_error",
	StatusUnconfigured:  "unconfigured",
	StatusInvalidFormat: "invalid_format",
}

var statusLabels = map[Status]string{
	StatusSuccess:       "Success",
	StatusNotFound:      "NotFound",
	StatusAuthError:     "AuthError",
	StatusRateLimited:   "RateLimited",
	StatusNetworkError:  "NetworkError",
	StatusUnconfigured:  "Unconfigured",
	StatusInvalidFormat: "InvalidFormat",
}

// Statuses returns all statuses in declaration order.
func Statuses() []Status {
	return []Status{
		StatusSuccess,
		StatusNotFound,
		StatusAuthError,
		StatusRateLimited,
		StatusNetworkError,
		StatusUnconfigured,
		StatusInvalidFormat,
	}
}

// String returns the snake_case wire name of the status.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Label returns the CamelCase label used in rendered reports.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return "Unknown"
}

// IsFailure reports whether s is anything other than success.
// NotFound counts as a failure for rendering purposes even though it is a
// definite answer.
func (s Status) IsFailure() bool {
	return s != StatusSuccess
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if _, ok := statusNames[s]; !ok {
		return nil, fmt.Errorf("unknown status %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
// Both wire names and labels are accepted.
func (s *Status) UnmarshalText(text []byte) error {
	v := strings.TrimSpace(string(text))
	for st, name := range statusNames {
		if strings.EqualFold(v, name) || strings.EqualFold(v, statusLabels[st]) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", v)
}
