package config

import (
	"os"
	"strings"
	"time"
)

// Environment variables that override the API keys of the config file.
const (
	EnvOpenCageKey = "PHEONIX_OPENCAGE_KEY"
	EnvHIBPKey     = "PHEONIX_HIBP_KEY"
	EnvGeoapifyKey = "PHEONIX_GEOAPIFY_KEY"
)

// Keys holds provider API keys. An empty key leaves its provider
// unconfigured.
type Keys struct {
	OpenCage string `yaml:"opencage,omitempty"`
	HIBP     string `yaml:"hibp,omitempty"`
	Geoapify string `yaml:"geoapify,omitempty"`
}

// GeoLite holds the paths of the offline MaxMind databases.
type GeoLite struct {
	City string `yaml:"city,omitempty"`
	ASN  string `yaml:"asn,omitempty"`
}

// Endpoints overrides provider base URLs. Empty values use the public
// service.
type Endpoints struct {
	OpenCage string `yaml:"opencage,omitempty"`
	HIBP     string `yaml:"hibp,omitempty"`
	Geoapify string `yaml:"geoapify,omitempty"`
}

// DNS configures the resolver used for MX lookups.
type DNS struct {
	// Resolver is a "host:port" address. Empty uses 1.1.1.1:53.
	Resolver string `yaml:"resolver,omitempty"`
}

// Tor configures optional Tor routing.
type Tor struct {
	// Proxy is an external SOCKS5 proxy address.
	Proxy string `yaml:"proxy,omitempty"`

	// Embedded starts a Tor daemon managed by pheonix.
	Embedded bool `yaml:"embedded,omitempty"`

	// StartupTimeout bounds the embedded daemon bootstrap.
	StartupTimeout time.Duration `yaml:"startup_timeout,omitempty"`
}

// File represents the structure of the .pheonix configuration file.
type File struct {
	Keys      Keys      `yaml:"keys,omitempty"`
	GeoLite   GeoLite   `yaml:"geolite,omitempty"`
	Endpoints Endpoints `yaml:"endpoints,omitempty"`
	DNS       DNS       `yaml:"dns,omitempty"`
	Tor       Tor       `yaml:"tor,omitempty"`

	// Catalog is the path of a site catalog that replaces the built-in one.
	Catalog string `yaml:"catalog,omitempty"`

	// Limits maps provider names to a daily call limit.
	Limits map[string]int `yaml:"limits,omitempty"`

	// Timeout overrides the per-provider timeout.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Concurrency overrides the number of providers run at once.
	Concurrency int `yaml:"concurrency,omitempty"`

	// RateLimit overrides the per-provider request rate. A pointer so that
	// an explicit 0 (unlimited) is distinguishable from unset.
	RateLimit *float64 `yaml:"rate_limit,omitempty"`

	// UserAgent overrides the HTTP User-Agent header.
	UserAgent string `yaml:"user_agent,omitempty"`

	// DataDir overrides the database directory.
	DataDir string `yaml:"data_dir,omitempty"`
}

// ResolvedKeys returns the API keys with environment overrides applied.
func (f *File) ResolvedKeys() Keys {
	return f.resolveKeys(os.Getenv)
}

func (f *File) resolveKeys(getenv func(string) string) Keys {
	var k Keys
	if f != nil {
		k = f.Keys
	}
	override := func(dst *string, env string) {
		if v := strings.TrimSpace(getenv(env)); v != "" {
			*dst = v
		}
	}
	override(&k.OpenCage, EnvOpenCageKey)
	override(&k.HIBP, EnvHIBPKey)
	override(&k.Geoapify, EnvGeoapifyKey)
	return k
}
