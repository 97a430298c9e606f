package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/pheonix/internal/model"
)

// createTestReport creates an email report with one result of each shape.
func createTestReport() *model.AggregateReport {
	r := model.NewAggregateReport(model.KindEmail, "Alice@Example.com")
	r.Identifier = &model.Identifier{
		Kind: model.KindEmail,
		Email: &model.EmailAddress{
			Address:          "Alice@example.com",
			Local:            "Alice",
			Domain:           "example.com",
			RegisteredDomain: "example.com",
		},
	}
	r.Results = append(r.Results,
		model.Success("presence", model.Payload{Presence: &model.Presence{
			Sites:   []model.SiteHit{{Service: "Gravatar", URL: "https://gravatar.com/x", Exists: true}},
			Checked: 3,
			Dropped: 1,
		}}),
		model.Success("whois", model.Payload{Whois: &model.Whois{
			Target: "example.com",
			Server: "whois.iana.org",
			Text:   "Domain Name: EXAMPLE.COM\nRegistrar: RESERVED-IANA",
		}}),
		model.Failuref("breach", model.StatusAuthError, "401 - Unauthorized"),
		model.Success("mx", model.Payload{MailExchange: &model.MailExchange{
			Domain:  "example.com",
			Records: []model.MXRecord{{Host: "mx1.example.com", Preference: 10}},
		}}),
	)
	r.FinishedAt = r.StartedAt.Add(1500 * time.Millisecond)
	return r
}

func breachReport() *model.AggregateReport {
	r := model.NewAggregateReport(model.KindEmail, "bob@example.com")
	r.Results = append(r.Results, model.Success("breach", model.Payload{Breaches: &model.Breaches{
		Account: "bob@example.com",
		Entries: []model.Breach{{
			Name:        "Adobe",
			Title:       "Adobe",
			BreachDate:  "2013-10-04",
			PwnCount:    152445165,
			DataClasses: []string{"Email addresses", "Passwords"},
		}},
	}}))
	return r
}

func TestFailureLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		res  model.ProviderResult
		want string
	}{
		{
			name: "auth error with message",
			res:  model.Failuref("breach", model.StatusAuthError, "401 - Unauthorized"),
			want: "[AuthError] breach: 401 - Unauthorized",
		},
		{
			name: "unconfigured",
			res:  model.Failuref("geocode", model.StatusUnconfigured, "not configured: OpenCage API key"),
			want: "[Unconfigured] geocode: not configured: OpenCage API key",
		},
		{
			name: "no message",
			res:  model.Failure("mx", model.StatusNotFound, nil),
			want: "[NotFound] mx",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FailureLine(tt.res); got != tt.want {
				t.Errorf("FailureLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFields(t *testing.T) {
	t.Parallel()

	t.Run("phone section", func(t *testing.T) {
		t.Parallel()
		got := fields(model.Payload{Phone: &model.PhoneInfo{
			International: "+1 201-555-0123",
			E164:          "+12015550123",
			Carrier:       "Unknown",
			NumberType:    model.NumberType(99),
			Valid:         true,
		}})
		want := []field{
			{"International", "+1 201-555-0123"},
			{"E.164", "+12015550123"},
			{"Carrier", "Unknown"},
			{"Number Type", "UNKNOWN"},
			{"Valid", "true"},
		}
		if diff := cmp.Diff(want, got, cmp.AllowUnexported(field{})); diff != "" {
			t.Errorf("fields mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("network section", func(t *testing.T) {
		t.Parallel()
		got := fields(model.Payload{Network: &model.NetworkInfo{
			IP:          "8.8.8.8",
			ASN:         15169,
			Country:     "United States",
			CountryCode: "US",
			Location:    &model.Coordinates{Latitude: 37.751, Longitude: -97.822},
		}})
		want := []field{
			{"IP", "8.8.8.8"},
			{"ASN", "AS15169"},
			{"Country", "United States (US)"},
			{"Location", "37.75100, -97.82200"},
		}
		if diff := cmp.Diff(want, got, cmp.AllowUnexported(field{})); diff != "" {
			t.Errorf("fields mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty payload", func(t *testing.T) {
		t.Parallel()
		if got := fields(model.Payload{}); len(got) != 0 {
			t.Errorf("fields = %v, want none", got)
		}
	})
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"PHEONIX REPORT", "Alice@Example.com", "Normalized: Alice@example.com", "Duration:   1.5s"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("writes provider blocks in report order", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		last := -1
		for _, block := range []string{"PRESENCE", "WHOIS", "BREACH", "MX"} {
			idx := strings.Index(output, "\n"+block+"\n")
			if idx < 0 {
				t.Fatalf("missing block %s", block)
			}
			if idx < last {
				t.Errorf("block %s is out of order", block)
			}
			last = idx
		}
	})

	t.Run("writes failures as labeled lines", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "  [AuthError] breach: 401 - Unauthorized\n") {
			t.Error("expected output to contain the breach failure line")
		}
		if !strings.Contains(output, "AuthError:") || !strings.Contains(output, "Success:") {
			t.Error("expected summary to list status counts")
		}
	})

	t.Run("writes payload details", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"Gravatar", "Checked 3 sites, 1 inconclusive", "10 mx1.example.com", "whois.iana.org"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
		if strings.Contains(output, "RESERVED-IANA") {
			t.Error("raw WHOIS text should only appear in verbose mode")
		}
	})

	t.Run("verbose mode shows raw WHOIS text", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "    Registrar: RESERVED-IANA") {
			t.Error("expected raw WHOIS text in verbose output")
		}
	})

	t.Run("writes breach table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(breachReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"1 breach(es) for bob@example.com", "Adobe", "2013-10-04", "152445165"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("writes username message", func(t *testing.T) {
		t.Parallel()

		r := model.NewAggregateReport(model.KindUsername, "nobody")
		r.Results = append(r.Results, model.Success("usernames", model.Payload{Usernames: &model.UsernameScan{
			Username: "nobody",
			Message:  model.NoProfilesMessage,
		}}))

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), model.NoProfilesMessage) {
			t.Error("expected the no profiles message")
		}
	})

	t.Run("batch writes every report with one footer", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewSimpleWriter(&buf).WriteBatch([]*model.AggregateReport{createTestReport(), breachReport()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("returned %d bytes, wrote %d", n, buf.Len())
		}
		output := buf.String()
		if got := strings.Count(output, "PHEONIX REPORT"); got != 2 {
			t.Errorf("headers = %d, want 2", got)
		}
		if got := strings.Count(output, "Report generated by pheonix"); got != 1 {
			t.Errorf("footers = %d, want 1", got)
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		report := createTestReport()
		if _, err := NewJSONWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded model.AggregateReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("failed to parse JSON: %v", err)
		}
		if decoded.ID != report.ID || len(decoded.Results) != 4 {
			t.Errorf("decoded = %+v", decoded)
		}
		if decoded.Results[2].Status != model.StatusAuthError {
			t.Errorf("breach status = %v", decoded.Results[2].Status)
		}
	})

	t.Run("uses wire status names", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), `"status":"auth_error"`) {
			t.Error("expected snake_case status in JSON output")
		}
	})

	t.Run("pretty prints with indentation", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"id\":") {
			t.Error("expected indented output")
		}
		if !strings.HasSuffix(buf.String(), "}\n") {
			t.Error("expected trailing newline")
		}
	})

	t.Run("batch writes an array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteBatch(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := buf.String(); got != "[]\n" {
			t.Errorf("output = %q, want empty array", got)
		}
	})

	t.Run("full writer wraps reports with the version", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewFullJSONWriter(&buf, "v1.2.3").Write(breachReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded JSONReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("failed to parse JSON: %v", err)
		}
		if decoded.Version != "v1.2.3" || len(decoded.Reports) != 1 {
			t.Errorf("decoded = %+v", decoded)
		}
		got := decoded.Reports[0].Results[0].Payload.Breaches.Entries[0].DataClasses
		if diff := cmp.Diff([]string{"Email addresses", "Passwords"}, got); diff != "" {
			t.Errorf("data classes mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"# Pheonix Report: Alice@Example.com", "## Summary", "```mermaid", "Report generated by pheonix"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("writes a section per provider", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"## presence", "## whois", "## breach", "## mx"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
		if !strings.Contains(output, "<details>") {
			t.Error("expected raw WHOIS text in a details block")
		}
	})

	t.Run("writes auth failures as a caution alert", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!CAUTION]") {
			t.Error("expected CAUTION alert")
		}
		if !strings.Contains(output, "[AuthError] breach: 401 - Unauthorized") {
			t.Error("expected the breach failure line")
		}
	})

	t.Run("writes unconfigured providers as a note", func(t *testing.T) {
		t.Parallel()

		r := model.NewAggregateReport(model.KindPhone, "+12015550123")
		r.Results = append(r.Results, model.Failuref("geocode", model.StatusUnconfigured, "not configured: OpenCage API key"))

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "[!NOTE]") {
			t.Error("expected NOTE alert")
		}
		if strings.Contains(output, "```mermaid") {
			t.Error("a single result should not get a pie chart")
		}
	})

	t.Run("writes breach table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(breachReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Email addresses, Passwords") {
			t.Error("expected data classes in breach table")
		}
	})
}

type failingWriter struct{}

func (failingWriter) Write(*model.AggregateReport) (int, error) {
	return 0, errors.New("write failed")
}

func (failingWriter) WriteBatch([]*model.AggregateReport) (int, error) {
	return 0, errors.New("write failed")
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var text, js bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))
		n, err := mw.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != text.Len()+js.Len() {
			t.Errorf("total = %d, want %d", n, text.Len()+js.Len())
		}
		if text.Len() == 0 || js.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		mw := NewMultiWriter(failingWriter{}, NewSimpleWriter(&buf))
		if _, err := mw.WriteBatch([]*model.AggregateReport{createTestReport()}); err == nil {
			t.Error("expected an error")
		}
		if buf.Len() != 0 {
			t.Error("writers after the failure should not run")
		}
	})
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
