package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/pheonix/internal/model"
	"github.com/nao1215/pheonix/internal/usage"
)

func TestWriteUsageTable(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	t.Run("prints a notice for a day without calls", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if err := writeUsageTable(&buf, day, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := buf.String(); got != "No provider calls recorded on 2026-01-31\n" {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("shows limits and remaining calls", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		counters := []usage.Counter{
			{Provider: "breach", Calls: 3, Limit: 10},
			{Provider: "mx", Calls: 5},
		}
		if err := writeUsageTable(&buf, day, counters); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"2026-01-31", "breach", "10", "7", "mx", "unlimited"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}
	})
}

func TestWriteUsageJSON(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	t.Run("encodes an empty day as an empty list", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if err := writeUsageJSON(&buf, day, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), `"providers": []`) {
			t.Errorf("expected an empty providers list, got %s", buf.String())
		}
	})

	t.Run("encodes the counters of the day", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		counters := []usage.Counter{{Provider: "breach", Calls: 3, Limit: 10}}
		if err := writeUsageJSON(&buf, day, counters); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var got usageJSON
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatal(err)
		}
		want := usageJSON{Day: "2026-01-31", Providers: counters}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestRunUsageCmd(t *testing.T) {
	t.Parallel()

	t.Run("rejects a malformed date", func(t *testing.T) {
		t.Parallel()
		cfgPath := writeTestConfig(t, "")
		_, err := executeRoot(t, "--config", cfgPath, "usage", "--date", "31/01/2026")
		if err == nil || !strings.Contains(err.Error(), "invalid date") {
			t.Errorf("expected invalid date error, got %v", err)
		}
	})

	t.Run("reports an empty day", func(t *testing.T) {
		t.Parallel()
		cfgPath := writeTestConfig(t, "")
		out, err := executeRoot(t, "--config", cfgPath, "usage", "--date", "2020-02-29")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "No provider calls recorded on 2020-02-29") {
			t.Errorf("unexpected output %q", out)
		}
	})
}

func TestWriteHistoryTable(t *testing.T) {
	t.Parallel()

	t.Run("prints a notice without reports", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if err := writeHistoryTable(&buf, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if buf.String() != "No saved reports\n" {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("lists each report", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		summaries := []usage.ReportSummary{
			{ID: "report-1", Kind: model.KindEmail, Input: "alice@example.com", StartedAt: time.Now(), Failures: 2},
			{ID: "report-2", Kind: model.KindIP, Input: "8.8.8.8", StartedAt: time.Now()},
		}
		if err := writeHistoryTable(&buf, summaries); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"report-1", "alice@example.com", "email", "report-2", "8.8.8.8", "ip"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}
	})
}

func TestRunHistoryShowCmd(t *testing.T) {
	t.Parallel()

	t.Run("rejects conflicting formats", func(t *testing.T) {
		t.Parallel()
		cfgPath := writeTestConfig(t, "")
		_, err := executeRoot(t, "--config", cfgPath, "history", "show", "some-id", "--json", "--markdown")
		if err == nil || !strings.Contains(err.Error(), "conflicting report formats") {
			t.Errorf("expected conflicting formats error, got %v", err)
		}
	})

	t.Run("fails for an unknown report", func(t *testing.T) {
		t.Parallel()
		cfgPath := writeTestConfig(t, "")
		if _, err := executeRoot(t, "--config", cfgPath, "history", "show", "no-such-report"); err == nil {
			t.Error("expected error")
		}
	})
}
