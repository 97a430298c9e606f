package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/nao1215/pheonix/internal/config"
	"github.com/nao1215/pheonix/internal/usage"
)

// dateLayout is the --date format of the usage command.
const dateLayout = "2006-01-02"

// NewUsageCmd creates the usage command.
func NewUsageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show provider calls and remaining daily limits",
		Long: `Usage prints how often each provider was called on a UTC day and how
many calls remain under the limits of the configuration file.

Examples:
  # Today's usage
  pheonix usage

  # Usage of an earlier day as JSON
  pheonix usage --date 2026-01-31 --json`,
		Args: cobra.NoArgs,
		RunE: runUsageCmd,
	}

	cmd.Flags().StringP("date", "d", "", "UTC day to show (YYYY-MM-DD, default: today)")
	cmd.Flags().BoolP("json", "j", false, "Output JSON")

	return cmd
}

// openStore opens the usage and history database of cfg.
func openStore(cfg *config.Config) (*usage.Store, error) {
	store, err := usage.Open(cfg.DBDir, usage.Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
		Limits:            cfg.File.Limits,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

// runUsageCmd executes the usage command.
func runUsageCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dateFlag, err := cmd.Flags().GetString("date")
	if err != nil {
		return err
	}
	day := time.Now().UTC()
	if dateFlag != "" {
		day, err = time.Parse(dateLayout, dateFlag)
		if err != nil {
			return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", dateFlag)
		}
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	counters, err := store.Day(cmd.Context(), day)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return writeUsageJSON(out, day, counters)
	}
	return writeUsageTable(out, day, counters)
}

// usageJSON is the JSON output of the usage command.
type usageJSON struct {
	Day       string          `json:"day"`
	Providers []usage.Counter `json:"providers"`
}

func writeUsageJSON(w io.Writer, day time.Time, counters []usage.Counter) error {
	if counters == nil {
		counters = []usage.Counter{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(usageJSON{Day: day.Format(dateLayout), Providers: counters})
}

func writeUsageTable(w io.Writer, day time.Time, counters []usage.Counter) error {
	if len(counters) == 0 {
		_, err := fmt.Fprintf(w, "No provider calls recorded on %s\n", day.Format(dateLayout))
		return err
	}

	fmt.Fprintf(w, "Provider usage on %s (UTC)\n", day.Format(dateLayout))
	table := tablewriter.NewTable(w)
	table.Header("Provider", "Calls", "Daily Limit", "Remaining")
	for _, c := range counters {
		limit, remaining := "unlimited", "unlimited"
		if c.Limit > 0 {
			limit = strconv.Itoa(c.Limit)
			remaining = strconv.Itoa(c.Remaining())
		}
		if err := table.Append(c.Provider, strconv.Itoa(c.Calls), limit, remaining); err != nil {
			return err
		}
	}
	return table.Render()
}
