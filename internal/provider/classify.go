package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nao1215/pheonix/internal/model"
)

// Sentinel errors understood by Classify.
var (
	// ErrUnconfigured means a credential or data file is missing.
	ErrUnconfigured = errors.New("not configured")

	// ErrNoData means the source answered but has nothing for the identifier.
	ErrNoData = errors.New("no data")

	// ErrRateLimited means a local limiter or quota refused the call.
	ErrRateLimited = errors.New("rate limited")

	// ErrDecode means the response body could not be decoded.
	ErrDecode = errors.New("malformed response")
)

// HTTPError is a non-success HTTP response.
type HTTPError struct {
	StatusCode int
	Body       string
}

// Error implements error.
func (e *HTTPError) Error() string {
	text := http.StatusText(e.StatusCode)
	if text == "" {
		text = "unexpected status"
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%d - %s", e.StatusCode, text)
	}
	return fmt.Sprintf("%d - %s: %s", e.StatusCode, text, truncate(body, 200))
}

// Classify maps an error to a result status.
//
//	nil                          -> Success
//	ErrUnconfigured              -> Unconfigured
//	ErrNoData, HTTP 404          -> NotFound
//	HTTP 401, 403                -> AuthError
//	ErrRateLimited, HTTP 402/429 -> RateLimited
//	anything else                -> NetworkError
func Classify(err error) model.Status {
	if err == nil {
		return model.StatusSuccess
	}
	switch {
	case errors.Is(err, ErrUnconfigured):
		return model.StatusUnconfigured
	case errors.Is(err, ErrNoData):
		return model.StatusNotFound
	case errors.Is(err, ErrRateLimited):
		return model.StatusRateLimited
	}

	var he *HTTPError
	if errors.As(err, &he) {
		switch he.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return model.StatusAuthError
		case http.StatusPaymentRequired, http.StatusTooManyRequests:
			return model.StatusRateLimited
		case http.StatusNotFound:
			return model.StatusNotFound
		}
	}

	// Timeouts, refused connections, 5xx, decode failures and unknown codes.
	return model.StatusNetworkError
}

// resultFor builds a result from err, keeping payload on failure.
func resultFor(name string, payload model.Payload, err error) model.ProviderResult {
	if err == nil {
		return model.Success(name, payload)
	}
	return model.Failure(name, Classify(err), err).WithPayload(payload)
}

// waitErr converts a limiter wait failure into a rate-limit error.
func waitErr(err error) error {
	return fmt.Errorf("%w: limiter wait: %w", ErrRateLimited, err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
