package config

import "errors"

// Configuration validation errors returned by Config.Validate and
// Config.ValidateRuntime. Callers match them with errors.Is.
var (
	// ErrNoTarget is returned when no input is given to analyze.
	ErrNoTarget = errors.New("no target specified: provide at least one input")

	// ErrInvalidKind is returned when the analysis kind is not one of
	// phone, email, username or ip.
	ErrInvalidKind = errors.New("invalid kind: must be phone, email, username or ip")

	// ErrInvalidTimeout is returned when the provider timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the provider concurrency or
	// the batch size is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidRateLimit is returned when the per-provider rate limit is
	// negative. Use 0 to disable rate limiting.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")

	// ErrConflictingTorModes is returned when both the embedded Tor daemon
	// and an external proxy are requested.
	ErrConflictingTorModes = errors.New("conflicting tor settings: --tor and --tor-proxy cannot be used together")
)
