package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// sensitiveKeys contains attribute keys that should always be sanitized.
// These keys commonly contain sensitive information that should not be logged.
var sensitiveKeys = map[string]bool{
	// HTTP headers
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"proxy-authorization": true,

	// Authentication
	"password":      true,
	"passwd":        true,
	"secret":        true,
	"token":         true,
	"api_key":       true,
	"apikey":        true,
	"api-key":       true,
	"access_token":  true,
	"refresh_token": true,
	"private_key":   true,
	"privatekey":    true,
	"secret_key":    true,
	"secretkey":     true,

	// Session
	"session":    true,
	"session_id": true,
	"sessionid":  true,
	"sid":        true,
	"jsessionid": true,

	// Credentials
	"credential":  true,
	"credentials": true,
	"auth":        true,

	// Provider credentials
	"key":          true,
	"hibp-api-key": true,
}

// credentialOwners are the prefixes of provider credential names such as
// "opencage_key" or "hibpKey".
var credentialOwners = []string{"opencage", "hibp", "geoapify", "api"}

// credentialSuffixes are matched after a credential owner prefix.
var credentialSuffixes = []string{"_key", "-key", "key"}

// sensitiveQueryParams are URL query parameters whose values are redacted
// when a logged string is a URL.
var sensitiveQueryParams = map[string]bool{
	"key":          true,
	"apikey":       true,
	"api_key":      true,
	"token":        true,
	"access_token": true,
	"hibp-api-key": true,
}

// sensitivePatterns contains regex patterns that indicate sensitive values.
// Values matching these patterns will be sanitized regardless of key name.
var sensitivePatterns = []*regexp.Regexp{
	// JWT tokens
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),

	// Bearer tokens
	regexp.MustCompile(`(?i)^bearer\s+.+`),

	// Basic auth
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),

	// API keys (common formats)
	regexp.MustCompile(`^[a-zA-Z0-9]{32,}$`), // Long alphanumeric strings

	// AWS access keys
	regexp.MustCompile(`^AKIA[0-9A-Z]{16}$`),

	// Private key markers
	regexp.MustCompile(`(?i)-----BEGIN.*(PRIVATE|SECRET).*KEY-----`),
}

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// urlMask replaces redacted query parameter values. It contains no
// characters that query encoding would escape.
const urlMask = "REDACTED"

// SecureHandler wraps an slog.Handler to sanitize sensitive information.
// It intercepts log records and sanitizes attribute values that match
// sensitive key names or value patterns before passing them to the
// underlying handler. Credentials inside logged URLs are redacted while
// the rest of the URL is kept.
type SecureHandler struct {
	// handler is the underlying slog handler that receives sanitized records.
	handler slog.Handler

	// maskIdentifiers masks email addresses and phone numbers found in
	// string and error values.
	maskIdentifiers bool
}

// Option configures a SecureHandler.
type Option func(*SecureHandler)

// WithIdentifierMasking masks email addresses and E.164 phone numbers in
// logged values, for example in the error of an input that failed
// normalization. It is used for server logs, which are usually shipped
// elsewhere.
func WithIdentifierMasking() Option {
	return func(h *SecureHandler) { h.maskIdentifiers = true }
}

// NewSecureHandler creates a new SecureHandler wrapping the given handler.
// All log attributes will be sanitized before being passed to the underlying handler.
// If handler is nil, the returned SecureHandler will use slog.Default().Handler().
func NewSecureHandler(handler slog.Handler, opts ...Option) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	h := &SecureHandler{handler: handler}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// clone returns a handler with the same options wrapping next.
func (h *SecureHandler) clone(next slog.Handler) *SecureHandler {
	return &SecureHandler{handler: next, maskIdentifiers: h.maskIdentifiers}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle sanitizes the record's attributes and passes it to the underlying handler.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	// Create a new record with sanitized attributes
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	// Sanitize each attribute
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(h.sanitizeAttr(a))
		return true
	})

	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are sanitized before being added.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitizedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitizedAttrs[i] = h.sanitizeAttr(a)
	}
	return h.clone(h.handler.WithAttrs(sanitizedAttrs))
}

// WithGroup returns a new handler with the given group name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return h.clone(h.handler.WithGroup(name))
}

// sanitizeAttr sanitizes a single attribute, recursively handling groups.
func (h *SecureHandler) sanitizeAttr(a slog.Attr) slog.Attr {
	// Handle groups recursively
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitizedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			sanitizedAttrs[i] = h.sanitizeAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitizedAttrs...)}
	}

	// Check if the key indicates sensitive data
	keyLower := strings.ToLower(a.Key)
	if sensitiveKeys[keyLower] || containsSensitiveKeyword(keyLower) || isCredentialKey(keyLower) {
		return slog.String(a.Key, MaskValue)
	}

	// Check if the value matches sensitive patterns
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()
		if isSensitiveValue(strVal) {
			return slog.String(a.Key, MaskValue)
		}
		if redacted, ok := RedactURL(strVal); ok {
			strVal = redacted
			a = slog.String(a.Key, redacted)
		}
		if h.maskIdentifiers {
			if masked, ok := MaskIdentifiers(strVal); ok {
				return slog.String(a.Key, masked)
			}
		}
		return a
	}

	if h.maskIdentifiers && a.Value.Kind() == slog.KindAny {
		if err, ok := a.Value.Any().(error); ok && err != nil {
			if masked, ok := MaskIdentifiers(err.Error()); ok {
				return slog.String(a.Key, masked)
			}
		}
	}

	return a
}

// isCredentialKey reports whether key names a provider credential, for
// example "opencage_key", "hibp-key" or "geoapifykey".
func isCredentialKey(key string) bool {
	for _, suffix := range credentialSuffixes {
		owner, ok := strings.CutSuffix(key, suffix)
		if !ok {
			continue
		}
		owner = strings.TrimRight(owner, "_-")
		for _, o := range credentialOwners {
			if owner == o || strings.HasSuffix(owner, "_"+o) || strings.HasSuffix(owner, "-"+o) {
				return true
			}
		}
	}
	return false
}

// RedactURL replaces the values of credential query parameters in s.
// It reports false when s is not an absolute URL or holds no credential.
func RedactURL(s string) (string, bool) {
	if !strings.Contains(s, "://") || !strings.Contains(s, "?") {
		return s, false
	}
	u, err := url.Parse(s)
	if err != nil || u.RawQuery == "" {
		return s, false
	}
	q := u.Query()
	changed := false
	for name := range q {
		if sensitiveQueryParams[strings.ToLower(name)] {
			q.Set(name, urlMask)
			changed = true
		}
	}
	if !changed {
		return s, false
	}
	u.RawQuery = q.Encode()
	return u.String(), true
}

// containsSensitiveKeyword checks if the key contains sensitive keywords.
// The bare "key" keyword is not matched here since it would catch names
// like "primary_key" or "monkey". Credential names are covered by the
// sensitiveKeys map and isCredentialKey.
func containsSensitiveKeyword(key string) bool {
	sensitiveKeywords := []string{
		"password", "passwd", "secret", "token", "auth",
		"credential", "private",
	}

	for _, keyword := range sensitiveKeywords {
		if strings.Contains(key, keyword) {
			return true
		}
	}
	return false
}

// isSensitiveValue checks if a value matches sensitive patterns.
func isSensitiveValue(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// NewSecureLogger creates a text logger that sanitizes sensitive
// information in all output. verbose selects slog.LevelDebug, otherwise
// only warnings and errors are written.
//
// The returned logger can be passed to components that accept
// *slog.Logger, including tornago.
func NewSecureLogger(w io.Writer, verbose bool, opts ...Option) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, handlerOptions(verbose)), opts...))
}

// NewSecureJSONLogger is NewSecureLogger with JSON output, for structured
// log aggregation.
func NewSecureJSONLogger(w io.Writer, verbose bool, opts ...Option) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, handlerOptions(verbose)), opts...))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
