// Package provider contains one adapter per external information source.
//
// Every adapter implements Provider. Query never returns an error and never
// panics in normal operation: transport failures, bad credentials, quota
// exhaustion and malformed responses are all converted into a
// model.ProviderResult whose Status is chosen by Classify.
//
// Adapters that need an API key report StatusUnconfigured without touching
// the network when the key is missing. Base URLs are configurable so that
// tests can point adapters at local servers.
package provider
