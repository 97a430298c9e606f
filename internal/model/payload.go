package model

// Payload carries provider-specific data. Each provider family owns one
// section; a nil section is absent. Fields a provider may omit are either
// pointers or tagged omitempty.
type Payload struct {
	Phone        *PhoneInfo    `json:"phone,omitempty"`
	Geocode      *Geocode      `json:"geocode,omitempty"`
	Presence     *Presence     `json:"presence,omitempty"`
	Whois        *Whois        `json:"whois,omitempty"`
	Breaches     *Breaches     `json:"breaches,omitempty"`
	Usernames    *UsernameScan `json:"usernames,omitempty"`
	IPGeo        *IPGeo        `json:"ip_geo,omitempty"`
	Network      *NetworkInfo  `json:"network,omitempty"`
	MailExchange *MailExchange `json:"mail_exchange,omitempty"`
	SearchLinks  []SearchLink  `json:"search_links,omitempty"`
}

// IsEmpty reports whether no section is set.
func (p Payload) IsEmpty() bool {
	return p.Phone == nil &&
		p.Geocode == nil &&
		p.Presence == nil &&
		p.Whois == nil &&
		p.Breaches == nil &&
		p.Usernames == nil &&
		p.IPGeo == nil &&
		p.Network == nil &&
		p.MailExchange == nil &&
		len(p.SearchLinks) == 0
}

// PhoneInfo is offline metadata about a phone number.
type PhoneInfo struct {
	International string     `json:"international"`
	National      string     `json:"national"`
	E164          string     `json:"e164"`
	Region        string     `json:"region,omitempty"`
	RegionCode    string     `json:"region_code,omitempty"`
	Carrier       string     `json:"carrier"`
	TimeZones     []string   `json:"time_zones,omitempty"`
	NumberType    NumberType `json:"number_type"`
	Valid         bool       `json:"valid"`
	Reason        string     `json:"reason"`
}

// Coordinates is a WGS84 position.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Geocode is the best forward-geocoding match for a phone number's region.
type Geocode struct {
	// Query is the free text that was geocoded.
	Query string `json:"query"`

	Coordinates
	Confidence int    `json:"confidence,omitempty"`
	Formatted  string `json:"formatted,omitempty"`
}

// SiteHit is the definite answer of one site about one identifier.
type SiteHit struct {
	Service string `json:"service"`
	URL     string `json:"url,omitempty"`
	Exists  bool   `json:"exists"`
	Detail  string `json:"detail,omitempty"`
}

// Presence lists the services that gave a definite answer about whether
// an account is registered for the identifier.
type Presence struct {
	Sites []SiteHit `json:"sites"`

	// Checked is the number of sites probed.
	Checked int `json:"checked"`

	// Dropped counts sites whose answer was ambiguous or rate-limited.
	Dropped int `json:"dropped"`
}

// Registered returns the hits where the account exists.
func (p *Presence) Registered() []SiteHit {
	if p == nil {
		return nil
	}
	hits := make([]SiteHit, 0, len(p.Sites))
	for _, s := range p.Sites {
		if s.Exists {
			hits = append(hits, s)
		}
	}
	return hits
}

// Whois is the raw WHOIS response for a domain or IP address.
type Whois struct {
	Target string `json:"target"`
	Server string `json:"server,omitempty"`
	Text   string `json:"text"`
}

// Breach is one entry from a breach database.
type Breach struct {
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Domain      string   `json:"domain,omitempty"`
	BreachDate  string   `json:"breach_date,omitempty"`
	PwnCount    int      `json:"pwn_count,omitempty"`
	DataClasses []string `json:"data_classes,omitempty"`
	IsVerified  bool     `json:"is_verified"`
}

// Breaches lists the breaches an account appears in.
type Breaches struct {
	Account string   `json:"account"`
	Entries []Breach `json:"entries"`
}

// PlatformState is the outcome of a username check on one platform.
type PlatformState string

const (
	// PlatformFound means the username is taken by an existing profile.
	PlatformFound PlatformState = "found"

	// PlatformInvalid means the platform rejects the username or the
	// check could not be completed.
	PlatformInvalid PlatformState = "invalid"
)

// PlatformHit is one platform listed by a username enumeration.
type PlatformHit struct {
	Platform string        `json:"platform"`
	URL      string        `json:"url,omitempty"`
	State    PlatformState `json:"state"`
}

// NoProfilesMessage is reported when no platform has the username.
const NoProfilesMessage = "No profiles found for this username on supported platforms."

// UsernameScan is the result of enumerating a username across platforms.
type UsernameScan struct {
	Username  string        `json:"username"`
	Platforms []PlatformHit `json:"platforms"`
	Message   string        `json:"message,omitempty"`
}

// Found returns the platforms where a profile exists.
func (u *UsernameScan) Found() []PlatformHit {
	if u == nil {
		return nil
	}
	var found []PlatformHit
	for _, p := range u.Platforms {
		if p.State == PlatformFound {
			found = append(found, p)
		}
	}
	return found
}

// IPGeo is an online IP geolocation answer. Every field is optional.
type IPGeo struct {
	IP       string       `json:"ip"`
	City     string       `json:"city,omitempty"`
	State    string       `json:"state,omitempty"`
	Country  string       `json:"country,omitempty"`
	Location *Coordinates `json:"location,omitempty"`
}

// NetworkInfo is offline ASN and city data for an IP address.
type NetworkInfo struct {
	IP           string       `json:"ip"`
	Network      string       `json:"network,omitempty"`
	ASN          uint         `json:"asn,omitempty"`
	Organization string       `json:"organization,omitempty"`
	City         string       `json:"city,omitempty"`
	Country      string       `json:"country,omitempty"`
	CountryCode  string       `json:"country_code,omitempty"`
	Location     *Coordinates `json:"location,omitempty"`
}

// MXRecord is one mail exchanger.
type MXRecord struct {
	Host       string `json:"host"`
	Preference uint16 `json:"preference"`
}

// MailExchange lists the MX records of an email domain.
type MailExchange struct {
	Domain  string     `json:"domain"`
	Records []MXRecord `json:"records"`
}

// SearchLink is a prebuilt link that searches a platform for a phone number.
type SearchLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}
