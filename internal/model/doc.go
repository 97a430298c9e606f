// Package model defines the core data structures used throughout pheonix.
//
// This package contains the following main types:
//   - Identifier: a normalized phone number, email address, username or IPv4
//     address, tagged with its Kind
//   - ProviderResult: the normalized outcome of one lookup against one
//     external source
//   - Payload: the provider-specific data carried by a successful result
//   - AggregateReport: the ordered collection of results for one analysis
//
// Models are kept in their own package so that normalize, provider,
// aggregate and report can share them without import cycles. Every type is
// serializable to JSON for report output and the HTTP API.
//
// A ProviderResult is created per call and never mutated after it is
// returned. Finished reports may be saved by the usage store.
package model
