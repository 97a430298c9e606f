// Package aggregate runs the providers registered for an analysis kind and
// collects their results into one model.AggregateReport.
//
// Providers run concurrently and independently. A provider that fails,
// panics or overruns its timeout produces a failed result in its own slot;
// it never removes, blocks or reorders the results of its siblings. Results
// are stored by declaration index, so the report order is the registry
// order regardless of which provider finishes first.
//
// A Quota and an Observer can be passed as options to count calls against
// daily limits and to export metrics.
package aggregate
