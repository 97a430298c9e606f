package model

import (
	"time"

	"github.com/google/uuid"
)

// AggregateReport is the result of analyzing one identifier.
// Results appear in the provider declaration order for the kind,
// independent of completion order.
type AggregateReport struct {
	// ID uniquely identifies this analysis run.
	ID string `json:"id"`

	// Kind is the requested analysis kind.
	Kind Kind `json:"kind"`

	// Input is the raw user input.
	Input string `json:"input"`

	// Identifier is the normalized input; nil if normalization failed.
	Identifier *Identifier `json:"identifier,omitempty"`

	// Results holds one entry per provider that was run.
	Results []ProviderResult `json:"results"`

	// StartedAt is when the analysis began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the last provider finished.
	FinishedAt time.Time `json:"finished_at"`
}

// NewAggregateReport creates an empty report stamped with a fresh ID and
// the current time.
func NewAggregateReport(kind Kind, input string) *AggregateReport {
	return &AggregateReport{
		ID:        uuid.NewString(),
		Kind:      kind,
		Input:     input,
		Results:   make([]ProviderResult, 0),
		StartedAt: time.Now(),
	}
}

// Result returns the result for the named provider.
func (r *AggregateReport) Result(provider string) (ProviderResult, bool) {
	for _, res := range r.Results {
		if res.Provider == provider {
			return res, true
		}
	}
	return ProviderResult{}, false
}

// Count returns how many results have the given status.
func (r *AggregateReport) Count(status Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// StatusCounts returns the number of results per status.
func (r *AggregateReport) StatusCounts() map[Status]int {
	counts := make(map[Status]int, len(r.Results))
	for _, res := range r.Results {
		counts[res.Status]++
	}
	return counts
}

// Failures returns every result that is not a success, in report order.
func (r *AggregateReport) Failures() []ProviderResult {
	var failed []ProviderResult
	for _, res := range r.Results {
		if res.Status.IsFailure() {
			failed = append(failed, res)
		}
	}
	return failed
}

// HasFailures reports whether any result is not a success.
func (r *AggregateReport) HasFailures() bool {
	for _, res := range r.Results {
		if res.Status.IsFailure() {
			return true
		}
	}
	return false
}

// Providers returns the provider names in report order.
func (r *AggregateReport) Providers() []string {
	names := make([]string, len(r.Results))
	for i, res := range r.Results {
		names[i] = res.Provider
	}
	return names
}

// Duration returns the total analysis time.
func (r *AggregateReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
