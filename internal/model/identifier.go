package model

// PhoneNumber is a parsed phone number.
//
// Valid is true only when the number parses and passes full region-specific
// validation. A number may be Possible (plausible length) without being
// Valid; both are distinct from a number that cannot be parsed at all.
type PhoneNumber struct {
	// Raw is the input exactly as given by the user.
	Raw string `json:"raw"`

	// E164 is the canonical form, for example "+14155552671".
	E164 string `json:"e164"`

	// CountryCode is the international calling code, for example 1 or 44.
	CountryCode int `json:"country_code"`

	// NationalNumber is the national significant number without prefixes.
	NationalNumber uint64 `json:"national_number"`

	// RegionCode is the CLDR region the number belongs to ("US", "GB").
	// Empty when no region can be resolved from the number.
	RegionCode string `json:"region_code,omitempty"`

	// Possible reports whether the length is plausible for the region.
	Possible bool `json:"possible"`

	// Valid reports whether the number passes full validation.
	Valid bool `json:"valid"`

	// Reason explains the validity state in human-readable form.
	Reason string `json:"reason"`
}

// EmailAddress is a syntactically checked email address.
type EmailAddress struct {
	// Address is the normalized address (local part and lowercased domain).
	Address string `json:"address"`

	// Local is the part before the '@'.
	Local string `json:"local"`

	// Domain is the substring after the last '@', IDNA-normalized.
	Domain string `json:"domain"`

	// RegisteredDomain is the registrable domain (eTLD+1) used for WHOIS.
	// It equals Domain when no public suffix can be determined.
	RegisteredDomain string `json:"registered_domain"`
}

// Identifier is the normalized form of user input.
// Exactly one of Phone, Email, Username or IP is set, matching Kind.
type Identifier struct {
	Kind     Kind          `json:"kind"`
	Phone    *PhoneNumber  `json:"phone,omitempty"`
	Email    *EmailAddress `json:"email,omitempty"`
	Username string        `json:"username,omitempty"`
	IP       string        `json:"ip,omitempty"`
}

// String returns the canonical text of the identifier.
func (id *Identifier) String() string {
	if id == nil {
		return ""
	}
	switch id.Kind {
	case KindPhone:
		if id.Phone != nil {
			return id.Phone.E164
		}
	case KindEmail:
		if id.Email != nil {
			return id.Email.Address
		}
	case KindUsername:
		return id.Username
	case KindIP:
		return id.IP
	}
	return ""
}
