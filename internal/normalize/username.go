package normalize

import (
	"net/netip"
	"strings"
	"unicode"
)

// Username trims raw and strips a single leading '@'.
func Username(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "@")
	if s == "" {
		return "", invalid("username", raw, "empty input")
	}
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return "", invalid("username", raw, "contains whitespace")
	}
	return s, nil
}

// IPv4 checks that raw is four dot-separated decimal octets.
// Leading zeros are rejected, which netip does by default.
func IPv4(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", invalid("ip address", raw, "empty input")
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return "", invalid("ip address", raw, err.Error())
	}
	if !addr.Is4() {
		return "", invalid("ip address", raw, "not an IPv4 address")
	}
	return addr.String(), nil
}
