package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/pheonix/internal/model"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "pheonix"

	// DefaultTimeout bounds each provider call. WHOIS servers and breach
	// APIs occasionally take several seconds to answer.
	DefaultTimeout = 30 * time.Second

	// DefaultConcurrency is the number of providers run at once per input.
	DefaultConcurrency = 8

	// DefaultBatchSize is the number of inputs analyzed at once.
	DefaultBatchSize = 4

	// DefaultRateLimit is the request rate allowed per HTTP provider, in
	// requests per second.
	DefaultRateLimit = 2.0

	// DefaultUserAgent is the User-Agent header sent with HTTP requests.
	DefaultUserAgent = "Pheonix-Phone-Tool"

	// DefaultTorProxyAddress is the standard Tor SOCKS5 proxy address.
	DefaultTorProxyAddress = "127.0.0.1:9050"

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute

	// DefaultServeAddr is the listen address of `pheonix serve`.
	DefaultServeAddr = ":8080"
)

// Config holds all configuration options for one pheonix command.
// It is populated from the configuration file and CLI flags and passed
// through the application rather than kept in global state.
type Config struct {
	// Kind is the analysis kind of Targets.
	Kind model.Kind

	// Targets are the raw inputs to analyze.
	Targets []string

	// Providers restricts the run to the named providers. Empty runs all.
	Providers []string

	// Timeout bounds each provider call.
	Timeout time.Duration

	// Concurrency is the number of providers run at once per input.
	Concurrency int

	// BatchSize is the number of inputs analyzed at once.
	BatchSize int

	// RateLimit is the request rate per HTTP provider in requests per
	// second. Zero disables rate limiting.
	RateLimit float64

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONReport enables JSON report output. Mutually exclusive with
	// MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output. Mutually exclusive
	// with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// ConfigFilePath is the explicit path of the configuration file.
	ConfigFilePath string

	// File is the loaded configuration file. Never nil after NewConfig.
	File *File

	// DBDir is the directory of the usage and history database.
	// Defaults to the XDG data directory (~/.local/share/pheonix on Linux).
	DBDir string

	// SaveHistory stores every finished report in the database.
	SaveHistory bool

	// UseTor routes HTTP and WHOIS traffic through an embedded Tor daemon.
	UseTor bool

	// TorProxyAddress routes HTTP and WHOIS traffic through an existing
	// SOCKS5 proxy. Empty means no external proxy.
	TorProxyAddress string

	// TorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon. Only used when UseTor is true.
	TorStartupTimeout time.Duration

	// Addr is the listen address of `pheonix serve`.
	Addr string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:           DefaultTimeout,
		Concurrency:       DefaultConcurrency,
		BatchSize:         DefaultBatchSize,
		RateLimit:         DefaultRateLimit,
		UserAgent:         DefaultUserAgent,
		File:              &File{},
		DBDir:             XDGDataDir(),
		SaveHistory:       true,
		TorStartupTimeout: DefaultTorStartupTimeout,
		Addr:              DefaultServeAddr,
	}
}

// ApplyFile copies the settings held in f over c. Zero values in f leave
// c unchanged.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	c.File = f
	if f.Timeout > 0 {
		c.Timeout = f.Timeout
	}
	if f.Concurrency > 0 {
		c.Concurrency = f.Concurrency
	}
	if f.RateLimit != nil {
		c.RateLimit = *f.RateLimit
	}
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	if f.DataDir != "" {
		c.DBDir = f.DataDir
	}
	if f.Tor.Proxy != "" {
		c.TorProxyAddress = f.Tor.Proxy
	}
	if f.Tor.Embedded {
		c.UseTor = true
	}
	if f.Tor.StartupTimeout > 0 {
		c.TorStartupTimeout = f.Tor.StartupTimeout
	}
}

// TorEnabled reports whether traffic is routed through Tor.
func (c *Config) TorEnabled() bool {
	return c.UseTor || c.TorProxyAddress != ""
}

// XDGDataDir returns the XDG data directory for pheonix.
// On Linux: ~/.local/share/pheonix
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for pheonix.
// On Linux: ~/.config/pheonix
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks that the configuration can run an analysis.
// It returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if !c.Kind.IsValid() {
		return ErrInvalidKind
	}
	if c.BatchSize <= 0 {
		return ErrInvalidConcurrency
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return c.ValidateRuntime()
}

// ValidateRuntime checks the settings shared by every command that
// queries providers, including `pheonix serve`.
func (c *Config) ValidateRuntime() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}
	if c.UseTor && c.TorProxyAddress != "" {
		return ErrConflictingTorModes
	}
	return nil
}
