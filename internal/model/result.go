package model

import (
	"fmt"
	"time"
)

// ProviderResult is the normalized outcome of one provider call.
type ProviderResult struct {
	// Provider is the stable provider name ("phone", "breach", ...).
	Provider string `json:"provider"`

	// Status classifies the outcome.
	Status Status `json:"status"`

	// Payload holds provider data. It may be partially filled on failure,
	// for example the validity state of a phone number that is not valid.
	Payload Payload `json:"payload"`

	// Error is the raw error message. Empty on success.
	Error string `json:"error,omitempty"`

	// Elapsed is the wall time of the call.
	Elapsed time.Duration `json:"elapsed_ns"`
}

// Success builds a successful result.
func Success(provider string, payload Payload) ProviderResult {
	return ProviderResult{
		Provider: provider,
		Status:   StatusSuccess,
		Payload:  payload,
	}
}

// Failure builds a failed result from an error.
// A nil err leaves Error empty.
func Failure(provider string, status Status, err error) ProviderResult {
	r := ProviderResult{
		Provider: provider,
		Status:   status,
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Failuref builds a failed result with a formatted message.
func Failuref(provider string, status Status, format string, args ...any) ProviderResult {
	return ProviderResult{
		Provider: provider,
		Status:   status,
		Error:    fmt.Sprintf(format, args...),
	}
}

// OK reports whether the call succeeded.
func (r ProviderResult) OK() bool {
	return r.Status == StatusSuccess
}

// WithElapsed returns a copy of r with Elapsed set.
func (r ProviderResult) WithElapsed(d time.Duration) ProviderResult {
	r.Elapsed = d
	return r
}

// WithPayload returns a copy of r with Payload set.
func (r ProviderResult) WithPayload(p Payload) ProviderResult {
	r.Payload = p
	return r
}
