package normalize

import (
	"errors"
	"fmt"

	"github.com/nao1215/pheonix/internal/model"
)

// ErrInvalidFormat is returned when input cannot be normalized for its kind.
var ErrInvalidFormat = errors.New("invalid format")

// Normalize validates raw for the given kind and returns its canonical form.
// The returned error always wraps ErrInvalidFormat.
func Normalize(raw string, kind model.Kind) (*model.Identifier, error) {
	switch kind {
	case model.KindPhone:
		phone, err := Phone(raw)
		if err != nil {
			return nil, err
		}
		return &model.Identifier{Kind: kind, Phone: phone}, nil
	case model.KindEmail:
		email, err := Email(raw)
		if err != nil {
			return nil, err
		}
		return &model.Identifier{Kind: kind, Email: email}, nil
	case model.KindUsername:
		name, err := Username(raw)
		if err != nil {
			return nil, err
		}
		return &model.Identifier{Kind: kind, Username: name}, nil
	case model.KindIP:
		ip, err := IPv4(raw)
		if err != nil {
			return nil, err
		}
		return &model.Identifier{Kind: kind, IP: ip}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported kind %q", ErrInvalidFormat, kind)
	}
}

// invalid wraps ErrInvalidFormat with a description of the input.
func invalid(what, raw, why string) error {
	return fmt.Errorf("%w: %s %q: %s", ErrInvalidFormat, what, raw, why)
}
