package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/pheonix/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs one report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.AggregateReport) (int, error)

	// WriteBatch outputs the reports of a multi-input analysis.
	WriteBatch(reports []*model.AggregateReport) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.AggregateReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteBatch outputs the reports to all configured Writers.
func (m *MultiWriter) WriteBatch(reports []*model.AggregateReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteBatch(reports)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// FailureLine renders a failed result as a single labeled line, for
// example "[AuthError] breach: 401 - Unauthorized".
func FailureLine(res model.ProviderResult) string {
	line := fmt.Sprintf("[%s] %s", res.Status.Label(), res.Provider)
	if res.Error != "" {
		line += ": " + res.Error
	}
	return line
}

// field is one labeled value in a provider block.
type field struct {
	label string
	value string
}

// fields flattens the scalar sections of a payload into labeled values.
// Presence, breach and username tables are rendered separately.
func fields(p model.Payload) []field {
	var out []field
	add := func(label, value string) {
		if value != "" {
			out = append(out, field{label, value})
		}
	}

	if ph := p.Phone; ph != nil {
		add("International", ph.International)
		add("National", ph.National)
		add("E.164", ph.E164)
		add("Region", ph.Region)
		add("Region Code", ph.RegionCode)
		add("Carrier", ph.Carrier)
		add("Time Zones", strings.Join(ph.TimeZones, ", "))
		add("Number Type", ph.NumberType.String())
		add("Valid", strconv.FormatBool(ph.Valid))
		add("Reason", ph.Reason)
	}
	if g := p.Geocode; g != nil {
		add("Query", g.Query)
		add("Location", formatCoordinates(&g.Coordinates))
		if g.Confidence > 0 {
			add("Confidence", strconv.Itoa(g.Confidence))
		}
		add("Formatted", g.Formatted)
	}
	if w := p.Whois; w != nil {
		add("Target", w.Target)
		add("Server", w.Server)
	}
	if ip := p.IPGeo; ip != nil {
		add("IP", ip.IP)
		add("City", ip.City)
		add("State", ip.State)
		add("Country", ip.Country)
		add("Location", formatCoordinates(ip.Location))
	}
	if n := p.Network; n != nil {
		add("IP", n.IP)
		add("Network", n.Network)
		if n.ASN != 0 {
			add("ASN", "AS"+strconv.FormatUint(uint64(n.ASN), 10))
		}
		add("Organization", n.Organization)
		add("City", n.City)
		add("Country", joinNonEmpty(" ", n.Country, parenthesize(n.CountryCode)))
		add("Location", formatCoordinates(n.Location))
	}
	if mx := p.MailExchange; mx != nil {
		add("Domain", mx.Domain)
		for _, r := range mx.Records {
			add("MX", fmt.Sprintf("%d %s", r.Preference, r.Host))
		}
	}
	for _, l := range p.SearchLinks {
		add(l.Platform, l.URL)
	}
	return out
}

func formatCoordinates(c *model.Coordinates) string {
	if c == nil || (c.Latitude == 0 && c.Longitude == 0) {
		return ""
	}
	return fmt.Sprintf("%.5f, %.5f", c.Latitude, c.Longitude)
}

func parenthesize(s string) string {
	if s == "" {
		return ""
	}
	return "(" + s + ")"
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
