package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/likexian/whois"
	"golang.org/x/net/proxy"

	"github.com/nao1215/pheonix/internal/model"
)

// WhoisLookup performs a raw WHOIS query. *whois.Client satisfies it.
type WhoisLookup interface {
	Whois(target string, servers ...string) (string, error)
}

// Whois fetches the WHOIS record of an email's registered domain or of an
// IP address.
type Whois struct {
	lookup WhoisLookup
	server string
}

// WhoisOption configures the whois provider.
type WhoisOption func(*whoisConfig)

type whoisConfig struct {
	timeout time.Duration
	dialer  proxy.Dialer
	server  string
	lookup  WhoisLookup
}

// WithWhoisTimeout sets the per-query timeout.
func WithWhoisTimeout(d time.Duration) WhoisOption {
	return func(c *whoisConfig) { c.timeout = d }
}

// WithWhoisDialer routes WHOIS connections through d, for example a Tor
// SOCKS5 dialer.
func WithWhoisDialer(d proxy.Dialer) WhoisOption {
	return func(c *whoisConfig) { c.dialer = d }
}

// WithWhoisServer pins the WHOIS server instead of following referrals
// from IANA.
func WithWhoisServer(server string) WhoisOption {
	return func(c *whoisConfig) { c.server = server }
}

// WithWhoisLookup replaces the WHOIS client.
func WithWhoisLookup(l WhoisLookup) WhoisOption {
	return func(c *whoisConfig) { c.lookup = l }
}

// NewWhois creates the whois provider.
func NewWhois(opts ...WhoisOption) *Whois {
	cfg := whoisConfig{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.lookup == nil {
		client := whois.NewClient().SetTimeout(cfg.timeout)
		if cfg.dialer != nil {
			client.SetDialer(cfg.dialer)
		}
		cfg.lookup = client
	}
	return &Whois{lookup: cfg.lookup, server: cfg.server}
}

// Name implements Provider.
func (w *Whois) Name() string { return NameWhois }

// Query implements Provider.
func (w *Whois) Query(ctx context.Context, id *model.Identifier) model.ProviderResult {
	target, ok := whoisTarget(id)
	if !ok {
		return wrongKind(NameWhois, id)
	}

	type answer struct {
		text string
		err  error
	}
	done := make(chan answer, 1)
	go func() {
		var servers []string
		if w.server != "" {
			servers = []string{w.server}
		}
		text, err := w.lookup.Whois(target, servers...)
		done <- answer{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return resultFor(NameWhois, model.Payload{}, fmt.Errorf("whois %s: %w", target, ctx.Err()))
	case a := <-done:
		if a.err != nil {
			if strings.TrimSpace(a.text) == "" && isNoMatch(a.err) {
				return resultFor(NameWhois, model.Payload{}, fmt.Errorf("%w: %w", ErrNoData, a.err))
			}
			return resultFor(NameWhois, model.Payload{}, fmt.Errorf("whois %s: %w", target, a.err))
		}
		if strings.TrimSpace(a.text) == "" {
			return resultFor(NameWhois, model.Payload{}, fmt.Errorf("%w: empty WHOIS record for %s", ErrNoData, target))
		}
		return model.Success(NameWhois, model.Payload{Whois: &model.Whois{
			Target: target,
			Server: w.server,
			Text:   a.text,
		}})
	}
}

func whoisTarget(id *model.Identifier) (string, bool) {
	if id == nil {
		return "", false
	}
	switch id.Kind {
	case model.KindEmail:
		if id.Email == nil {
			return "", false
		}
		return id.Email.RegisteredDomain, id.Email.RegisteredDomain != ""
	case model.KindIP:
		return id.IP, id.IP != ""
	default:
		return "", false
	}
}

// isNoMatch reports whether a WHOIS error means the record does not exist.
func isNoMatch(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no match") || strings.Contains(msg, "not found")
}
