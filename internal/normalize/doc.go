// Package normalize turns raw user input into a model.Identifier.
//
// Each analysis kind has its own rules:
//   - Phone numbers are parsed with international numbering rules and no
//     default region, so input must carry a country code ("+44 20 ...").
//     A parsed number also gets a validity reason computed by a fixed,
//     ordered set of checks (see Reason* constants).
//   - Email addresses must contain exactly one '@' with a non-empty local
//     part and domain. The domain is IDNA-normalized and its registrable
//     domain is derived from the public suffix list.
//   - Usernames are trimmed and a leading '@' is dropped.
//   - IP addresses must be dotted-quad IPv4.
//
// Every failure wraps ErrInvalidFormat. Normalization never panics on any
// input string.
package normalize
