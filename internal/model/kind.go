package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKind is returned by ParseKind for an unsupported analysis kind.
var ErrUnknownKind = errors.New("unknown analysis kind")

// Kind is the category of identifier being analyzed.
// It selects which providers run and how input is normalized.
type Kind string

const (
	// KindPhone analyzes an international phone number.
	KindPhone Kind = "phone"

	// KindEmail analyzes an email address.
	KindEmail Kind = "email"

	// KindUsername analyzes a social media username.
	KindUsername Kind = "username"

	// KindIP analyzes an IPv4 address.
	KindIP Kind = "ip"
)

// Kinds returns every supported analysis kind in display order.
func Kinds() []Kind {
	return []Kind{KindPhone, KindEmail, KindUsername, KindIP}
}

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	return string(k)
}

// IsValid reports whether k is one of the supported kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindPhone, KindEmail, KindUsername, KindIP:
		return true
	default:
		return false
	}
}

// ParseKind converts s into a Kind. Matching is case-insensitive and
// "number" and "address" are accepted as aliases for phone and ip.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "phone", "number":
		return KindPhone, nil
	case "email", "mail":
		return KindEmail, nil
	case "username", "user":
		return KindUsername, nil
	case "ip", "address":
		return KindIP, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}
