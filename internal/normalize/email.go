package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"

	"github.com/nao1215/pheonix/internal/model"
)

// Email checks raw for the basic shape of an email address.
// Deliverability is not checked.
func Email(raw string) (*model.EmailAddress, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, invalid("email", raw, "empty input")
	}
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return nil, invalid("email", raw, "contains whitespace")
	}
	if strings.Count(s, "@") != 1 {
		return nil, invalid("email", raw, "must contain exactly one '@'")
	}

	at := strings.LastIndex(s, "@")
	local, domain := s[:at], s[at+1:]
	if local == "" {
		return nil, invalid("email", raw, "empty local part")
	}
	if domain == "" {
		return nil, invalid("email", raw, "empty domain")
	}

	ascii, err := idna.Lookup.ToASCII(strings.TrimSuffix(domain, "."))
	if err != nil {
		return nil, invalid("email", raw, err.Error())
	}
	ascii = strings.ToLower(ascii)
	if ascii == "" {
		return nil, invalid("email", raw, "empty domain")
	}

	registered, err := publicsuffix.EffectiveTLDPlusOne(ascii)
	if err != nil {
		registered = ascii
	}

	return &model.EmailAddress{
		Address:          local + "@" + ascii,
		Local:            local,
		Domain:           ascii,
		RegisteredDomain: registered,
	}, nil
}
