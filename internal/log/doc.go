// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// The SecureHandler masks:
//   - HTTP headers (Authorization, Cookie, X-Api-Key, hibp-api-key)
//   - provider credentials such as "key", "opencage_key" or "geoapifyKey"
//   - secret values detected by pattern matching (tokens, long API keys)
//   - credential query parameters inside logged URLs
//
// With WithIdentifierMasking it also hides most of every email address and
// phone number in logged values, which `pheonix serve` enables.
//
// Even in verbose mode, sensitive values are masked to prevent accidental
// exposure of API keys in logs that may be shared or stored.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Debug("provider request",
//	    "url", "https://api.geoapify.com/v1/ipinfo?ip=8.8.8.8&apiKey=abc", // apiKey=REDACTED
//	    "hibp-api-key", "abc", // ***REDACTED***
//	)
//
// The logger is also handed to tornago when an embedded Tor daemon is used.
package log
