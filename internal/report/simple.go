package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/nao1215/pheonix/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
// Each provider gets its own block; failures render as a labeled line.
type SimpleWriter struct {
	baseWriter

	// verbose adds elapsed times and raw WHOIS text.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.AggregateReport) (int, error) {
	var sb strings.Builder
	if err := w.render(&sb, report); err != nil {
		return 0, err
	}
	w.writeFooter(&sb)
	return io.WriteString(w.output, sb.String())
}

// WriteBatch outputs each report in turn followed by a single footer.
func (w *SimpleWriter) WriteBatch(reports []*model.AggregateReport) (int, error) {
	var sb strings.Builder
	for _, r := range reports {
		if err := w.render(&sb, r); err != nil {
			return 0, err
		}
	}
	w.writeFooter(&sb)
	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) render(sb *strings.Builder, report *model.AggregateReport) error {
	w.writeHeader(sb, report)
	w.writeSummary(sb, report)
	for _, res := range report.Results {
		if err := w.writeResult(sb, res); err != nil {
			return err
		}
	}
	return nil
}

func rule(sb *strings.Builder, ch string) {
	sb.WriteString(strings.Repeat(ch, 70))
	sb.WriteString("\n")
}

// writeHeader writes the report header with analysis information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.AggregateReport) {
	sb.WriteString("\n")
	rule(sb, "=")
	sb.WriteString("                          PHEONIX REPORT\n")
	rule(sb, "=")
	sb.WriteString("\n")

	fmt.Fprintf(sb, "Kind:       %s\n", report.Kind)
	fmt.Fprintf(sb, "Input:      %s\n", report.Input)
	if s := report.Identifier.String(); s != "" && s != report.Input {
		fmt.Fprintf(sb, "Normalized: %s\n", s)
	}
	fmt.Fprintf(sb, "Started:    %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	if d := report.Duration(); d > 0 {
		fmt.Fprintf(sb, "Duration:   %s\n", d.Round(time.Millisecond))
	}
	fmt.Fprintf(sb, "Report ID:  %s\n", report.ID)
	sb.WriteString("\n")
}

// writeSummary writes one count per status that occurred.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.AggregateReport) {
	rule(sb, "-")
	sb.WriteString("SUMMARY\n")
	rule(sb, "-")
	sb.WriteString("\n")

	counts := report.StatusCounts()
	for _, st := range model.Statuses() {
		if counts[st] > 0 {
			fmt.Fprintf(sb, "  %-14s %d\n", st.Label()+":", counts[st])
		}
	}
	fmt.Fprintf(sb, "  %-14s %d providers\n", "TOTAL:", len(report.Results))
	sb.WriteString("\n")
}

// writeResult writes one provider block. A failed result still shows any
// partial payload after its failure line.
func (w *SimpleWriter) writeResult(sb *strings.Builder, res model.ProviderResult) error {
	rule(sb, "-")
	header := strings.ToUpper(res.Provider)
	if w.verbose {
		header += fmt.Sprintf(" (%s)", res.Elapsed.Round(time.Millisecond))
	}
	sb.WriteString(header + "\n")
	rule(sb, "-")
	sb.WriteString("\n")

	if res.Status.IsFailure() {
		sb.WriteString("  " + FailureLine(res) + "\n")
	}

	for _, f := range fields(res.Payload) {
		fmt.Fprintf(sb, "  %-14s %s\n", f.label+":", f.value)
	}

	p := res.Payload
	if p.Whois != nil && w.verbose {
		sb.WriteString("\n")
		for _, line := range strings.Split(strings.TrimSpace(p.Whois.Text), "\n") {
			sb.WriteString("    " + strings.TrimRight(line, "\r") + "\n")
		}
	}
	if p.Presence != nil {
		fmt.Fprintf(sb, "  Checked %d sites, %d inconclusive\n", p.Presence.Checked, p.Presence.Dropped)
		if err := presenceTable(sb, p.Presence.Sites); err != nil {
			return err
		}
	}
	if p.Breaches != nil {
		fmt.Fprintf(sb, "  %d breach(es) for %s\n", len(p.Breaches.Entries), p.Breaches.Account)
		if err := breachTable(sb, p.Breaches.Entries); err != nil {
			return err
		}
	}
	if p.Usernames != nil {
		if p.Usernames.Message != "" {
			sb.WriteString("  " + p.Usernames.Message + "\n")
		}
		if err := platformTable(sb, p.Usernames.Platforms); err != nil {
			return err
		}
	}

	sb.WriteString("\n")
	return nil
}

func presenceTable(out io.Writer, sites []model.SiteHit) error {
	if len(sites) == 0 {
		return nil
	}
	table := tablewriter.NewTable(out)
	table.Header("Service", "Registered", "URL")
	for _, s := range sites {
		if err := table.Append(s.Service, yesNo(s.Exists), s.URL); err != nil {
			return err
		}
	}
	return table.Render()
}

func breachTable(out io.Writer, entries []model.Breach) error {
	if len(entries) == 0 {
		return nil
	}
	table := tablewriter.NewTable(out)
	table.Header("No", "Breach", "Date", "Accounts", "Data Exposed")
	for i, b := range entries {
		title := b.Title
		if title == "" {
			title = b.Name
		}
		if err := table.Append(
			strconv.Itoa(i+1),
			title,
			b.BreachDate,
			strconv.Itoa(b.PwnCount),
			truncateString(strings.Join(b.DataClasses, ", "), 60),
		); err != nil {
			return err
		}
	}
	return table.Render()
}

func platformTable(out io.Writer, platforms []model.PlatformHit) error {
	if len(platforms) == 0 {
		return nil
	}
	table := tablewriter.NewTable(out)
	table.Header("Platform", "State", "URL")
	for _, p := range platforms {
		if err := table.Append(p.Platform, string(p.State), p.URL); err != nil {
			return err
		}
	}
	return table.Render()
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	rule(sb, "=")
	sb.WriteString("Report generated by pheonix\n")
	rule(sb, "=")
}
