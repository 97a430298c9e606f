package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/pheonix/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for documentation and
// sharing. Failures render as GitHub alerts inside their provider section.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.AggregateReport) (int, error) {
	return w.WriteBatch([]*model.AggregateReport{report})
}

// WriteBatch outputs every report as its own top-level section.
func (w *MarkdownWriter) WriteBatch(reports []*model.AggregateReport) (int, error) {
	md := markdown.NewMarkdown(w.output)
	for _, r := range reports {
		w.writeHeader(md, r)
		w.writeSummary(md, r)
		for _, res := range r.Results {
			w.writeResult(md, res)
		}
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report title and identification table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.AggregateReport) {
	md.H1("Pheonix Report: " + report.Input)
	md.PlainText("")

	rows := [][]string{
		{"Kind", report.Kind.String()},
		{"Input", "`" + report.Input + "`"},
	}
	if s := report.Identifier.String(); s != "" {
		rows = append(rows, []string{"Normalized", "`" + s + "`"})
	}
	rows = append(rows,
		[]string{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
		[]string{"Report ID", report.ID},
	)
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeSummary writes the status summary table and a pie chart of the
// status distribution.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.AggregateReport) {
	md.H2("Summary")
	md.PlainText("")

	counts := report.StatusCounts()
	rows := make([][]string, 0, len(counts)+1)
	for _, st := range model.Statuses() {
		if counts[st] > 0 {
			rows = append(rows, []string{st.Label(), strconv.Itoa(counts[st])})
		}
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(len(report.Results)) + "**"})
	md.Table(markdown.TableSet{
		Header: []string{"Status", "Providers"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(report.Results) > 1 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Provider Status"),
			piechart.WithShowData(true),
		)
		for _, st := range model.Statuses() {
			if counts[st] > 0 {
				chart.LabelAndIntValue(st.Label(), uint64(counts[st]))
			}
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}
}

// writeResult writes one provider section.
func (w *MarkdownWriter) writeResult(md *markdown.Markdown, res model.ProviderResult) {
	md.H2(res.Provider)
	md.PlainText("")

	w.writeAlert(md, res)

	p := res.Payload
	if f := fields(p); len(f) > 0 {
		rows := make([][]string, len(f))
		for i, kv := range f {
			rows[i] = []string{kv.label, kv.value}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Field", "Value"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	if p.Whois != nil && p.Whois.Text != "" {
		md.Details("Raw WHOIS response", "\n```\n"+strings.TrimSpace(p.Whois.Text)+"\n```\n")
		md.PlainText("")
	}

	if pr := p.Presence; pr != nil {
		md.PlainTextf("Checked %d sites, %d inconclusive.", pr.Checked, pr.Dropped)
		md.PlainText("")
		if len(pr.Sites) > 0 {
			rows := make([][]string, len(pr.Sites))
			for i, s := range pr.Sites {
				rows[i] = []string{s.Service, yesNo(s.Exists), orDash(s.URL)}
			}
			md.Table(markdown.TableSet{
				Header: []string{"Service", "Registered", "URL"},
				Rows:   rows,
			})
			md.PlainText("")
		}
	}

	if b := p.Breaches; b != nil && len(b.Entries) > 0 {
		rows := make([][]string, len(b.Entries))
		for i, e := range b.Entries {
			title := e.Title
			if title == "" {
				title = e.Name
			}
			rows[i] = []string{
				title,
				orDash(e.BreachDate),
				strconv.Itoa(e.PwnCount),
				orDash(truncateString(strings.Join(e.DataClasses, ", "), 60)),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Breach", "Date", "Accounts", "Data Exposed"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	if u := p.Usernames; u != nil {
		if len(u.Platforms) > 0 {
			items := make([]string, len(u.Platforms))
			for i, hit := range u.Platforms {
				items[i] = hit.Platform + ": " + string(hit.State)
				if hit.URL != "" {
					items[i] += " (" + hit.URL + ")"
				}
			}
			md.BulletList(items...)
			md.PlainText("")
		}
		if u.Message != "" {
			md.PlainText(u.Message)
			md.PlainText("")
		}
	}
}

// writeAlert writes the failure line of a failed result as an alert.
// Unconfigured and NotFound are expected outcomes and use a note.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, res model.ProviderResult) {
	if !res.Status.IsFailure() {
		return
	}
	line := FailureLine(res)
	switch res.Status {
	case model.StatusAuthError, model.StatusInvalidFormat:
		md.Cautionf("%s", line)
	case model.StatusRateLimited, model.StatusNetworkError:
		md.Warningf("%s", line)
	default:
		md.Note(line)
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by pheonix*")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
