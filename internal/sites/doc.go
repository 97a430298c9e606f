// Package sites probes third-party websites to learn whether an account
// exists for an email address, phone number or username.
//
// Site definitions live in a YAML catalog. The default catalog is embedded
// in the binary and can be replaced with a user file. The catalog has two
// lists:
//   - sites: account-existence checks used by the presence provider
//   - platforms: username checks used by the username enumeration provider
//
// Each definition names a request template and a check type:
//   - status_code: the HTTP status decides (exists_status / missing_status)
//   - message: the response body decides (error_message / exists_message)
//   - response_url: the final URL after redirects decides (error_url)
//
// Templates may use {input} (query-escaped), {raw} (unescaped) and {md5}
// (hex MD5 of the lowercased input, as Gravatar expects).
//
// The Checker runs definitions concurrently with a bounded number of
// in-flight requests and a shared request rate limit. Results keep the
// order of the definitions passed in.
package sites
