package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/miekg/dns"

	"github.com/nao1215/pheonix/internal/model"
)

// DefaultResolver is used when no DNS resolver is configured.
const DefaultResolver = "1.1.1.1:53"

// MX lists the mail exchangers of an email domain.
type MX struct {
	client   *dns.Client
	resolver string
	disabled string
}

// MXOption configures the mx provider.
type MXOption func(*MX)

// WithResolver sets the DNS server in host:port form.
func WithResolver(addr string) MXOption {
	return func(m *MX) {
		if addr != "" {
			m.resolver = addr
		}
	}
}

// WithMXDisabled turns the provider off. Every query reports Unconfigured
// with reason. Used while traffic is routed through Tor, which cannot
// carry UDP DNS queries.
func WithMXDisabled(reason string) MXOption {
	return func(m *MX) { m.disabled = reason }
}

// NewMX creates the mx provider.
func NewMX(opts ...MXOption) *MX {
	m := &MX{
		client:   &dns.Client{Timeout: DefaultTimeout},
		resolver: DefaultResolver,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name implements Provider.
func (m *MX) Name() string { return NameMX }

// Query implements Provider.
func (m *MX) Query(ctx context.Context, id *model.Identifier) model.ProviderResult {
	if id == nil || id.Kind != model.KindEmail || id.Email == nil {
		return wrongKind(NameMX, id)
	}
	if m.disabled != "" {
		return resultFor(NameMX, model.Payload{}, fmt.Errorf("%w: %s", ErrUnconfigured, m.disabled))
	}

	domain := id.Email.Domain
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeMX)
	msg.RecursionDesired = true

	in, _, err := m.client.ExchangeContext(ctx, msg, m.resolver)
	if err != nil {
		return resultFor(NameMX, model.Payload{}, fmt.Errorf("MX lookup for %s: %w", domain, err))
	}

	switch in.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return resultFor(NameMX, model.Payload{}, fmt.Errorf("%w: %s does not exist", ErrNoData, domain))
	default:
		return resultFor(NameMX, model.Payload{}, fmt.Errorf("MX lookup for %s: %s", domain, dns.RcodeToString[in.Rcode]))
	}

	records := make([]model.MXRecord, 0, len(in.Answer))
	for _, rr := range in.Answer {
		if mx, ok := rr.(*dns.MX); ok {
			records = append(records, model.MXRecord{
				Host:       strings.TrimSuffix(mx.Mx, "."),
				Preference: mx.Preference,
			})
		}
	}
	if len(records) == 0 {
		return resultFor(NameMX, model.Payload{}, fmt.Errorf("%w: %s has no MX records", ErrNoData, domain))
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Preference < records[j].Preference
	})

	return model.Success(NameMX, model.Payload{MailExchange: &model.MailExchange{
		Domain:  domain,
		Records: records,
	}})
}
