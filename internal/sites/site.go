package sites

import (
	"crypto/md5" //nolint:gosec // Gravatar addresses accounts by MD5
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/pheonix/internal/model"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// CheckType selects how a response is interpreted.
type CheckType string

const (
	// CheckStatusCode decides by HTTP status code.
	CheckStatusCode CheckType = "status_code"

	// CheckMessage decides by the presence of a substring in the body.
	CheckMessage CheckType = "message"

	// CheckResponseURL decides by the final URL after redirects.
	CheckResponseURL CheckType = "response_url"
)

// Catalog errors.
var (
	ErrNoName      = errors.New("site has no name")
	ErrNoURL       = errors.New("site has no url")
	ErrBadCheck    = errors.New("unknown check type")
	ErrBadPattern  = errors.New("invalid username_pattern")
	ErrNoCondition = errors.New("check has no condition to match")
)

// Site is one probe definition.
type Site struct {
	// Name is the human-readable service name.
	Name string `yaml:"name"`

	// Inputs lists the identifier kinds this site accepts.
	Inputs []model.Kind `yaml:"inputs"`

	// Method is the HTTP method. Defaults to GET.
	Method string `yaml:"method,omitempty"`

	// URL is the probe URL template.
	URL string `yaml:"url"`

	// ProfileURL is the URL shown to the user. Defaults to URL.
	ProfileURL string `yaml:"profile_url,omitempty"`

	// Body is the request body template for POST probes.
	Body string `yaml:"body,omitempty"`

	// Headers are extra request headers.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Check selects the response interpretation.
	Check CheckType `yaml:"check"`

	// ExistsStatus lists status codes meaning the account exists.
	// Defaults to 200 for status_code checks.
	ExistsStatus []int `yaml:"exists_status,omitempty"`

	// MissingStatus lists status codes meaning the account does not exist.
	// Defaults to 404 for status_code checks.
	MissingStatus []int `yaml:"missing_status,omitempty"`

	// ErrorMessage is a body substring meaning the account does not exist.
	ErrorMessage string `yaml:"error_message,omitempty"`

	// ExistsMessage is a body substring meaning the account exists.
	ExistsMessage string `yaml:"exists_message,omitempty"`

	// ErrorURL is a final-URL prefix meaning the account does not exist.
	ErrorURL string `yaml:"error_url,omitempty"`

	// UsernamePattern is a regular expression the input must match for
	// the platform to accept it. Inputs that don't match are reported as
	// invalid without sending a request.
	UsernamePattern string `yaml:"username_pattern,omitempty"`

	pattern *regexp.Regexp
}

// Accepts reports whether the site handles identifiers of kind k.
func (s *Site) Accepts(k model.Kind) bool {
	return slices.Contains(s.Inputs, k)
}

// ValidInput reports whether input satisfies UsernamePattern.
func (s *Site) ValidInput(input string) bool {
	if s.pattern == nil {
		return true
	}
	return s.pattern.MatchString(input)
}

// ProbeURL expands the probe URL for input.
func (s *Site) ProbeURL(input string) string {
	return expand(s.URL, input)
}

// DisplayURL expands the profile URL for input.
func (s *Site) DisplayURL(input string) string {
	if s.ProfileURL == "" {
		return s.ProbeURL(input)
	}
	return expand(s.ProfileURL, input)
}

// prepare fills defaults and validates the definition.
func (s *Site) prepare() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrNoName
	}
	if strings.TrimSpace(s.URL) == "" {
		return fmt.Errorf("%s: %w", s.Name, ErrNoURL)
	}
	if s.Method == "" {
		s.Method = http.MethodGet
	}
	s.Method = strings.ToUpper(s.Method)

	switch s.Check {
	case CheckStatusCode:
		if len(s.ExistsStatus) == 0 {
			s.ExistsStatus = []int{http.StatusOK}
		}
		if len(s.MissingStatus) == 0 {
			s.MissingStatus = []int{http.StatusNotFound}
		}
	case CheckMessage:
		if s.ErrorMessage == "" && s.ExistsMessage == "" {
			return fmt.Errorf("%s: %w", s.Name, ErrNoCondition)
		}
	case CheckResponseURL:
		if s.ErrorURL == "" {
			return fmt.Errorf("%s: %w", s.Name, ErrNoCondition)
		}
	default:
		return fmt.Errorf("%s: %w %q", s.Name, ErrBadCheck, s.Check)
	}

	if s.UsernamePattern != "" {
		re, err := regexp.Compile(s.UsernamePattern)
		if err != nil {
			return fmt.Errorf("%s: %w: %w", s.Name, ErrBadPattern, err)
		}
		s.pattern = re
	}
	return nil
}

// expand substitutes template placeholders.
func expand(tmpl, input string) string {
	r := strings.NewReplacer(
		"{input}", url.QueryEscape(input),
		"{raw}", input,
		"{md5}", md5Hex(input),
	)
	return r.Replace(tmpl)
}

// md5Hex hashes the trimmed, lowercased input the way Gravatar expects.
func md5Hex(input string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(input)))) //nolint:gosec // not used for security
	return hex.EncodeToString(sum[:])
}

// Catalog is a set of site and platform definitions.
type Catalog struct {
	// Sites are account-existence probes.
	Sites []Site `yaml:"sites"`

	// Platforms are username availability probes.
	Platforms []Site `yaml:"platforms"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads and parses a catalog file. An empty path loads the default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path) //nolint:gosec // User-provided catalog path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to read site catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse site catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	for i := range c.Sites {
		if err := c.Sites[i].prepare(); err != nil {
			return nil, err
		}
	}
	for i := range c.Platforms {
		if err := c.Platforms[i].prepare(); err != nil {
			return nil, err
		}
		if !c.Platforms[i].Accepts(model.KindUsername) {
			c.Platforms[i].Inputs = append(c.Platforms[i].Inputs, model.KindUsername)
		}
	}
	return &c, nil
}

// SitesFor returns the presence sites accepting kind k, in catalog order.
func (c *Catalog) SitesFor(k model.Kind) []Site {
	var out []Site
	for _, s := range c.Sites {
		if s.Accepts(k) {
			out = append(out, s)
		}
	}
	return out
}
