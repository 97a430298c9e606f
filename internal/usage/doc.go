// Package usage provides SQLite-based storage for pheonix.
//
// The Store records:
//   - per-day, per-provider call counters used to enforce daily limits
//   - saved analysis reports for the history command
//
// Store implements the aggregator's Quota interface. A provider with a
// configured daily limit is refused once the limit is reached; providers
// without a limit are counted but never refused. Days are UTC calendar
// days.
package usage
