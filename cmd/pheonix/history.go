package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/nao1215/pheonix/internal/config"
	"github.com/nao1215/pheonix/internal/model"
	"github.com/nao1215/pheonix/internal/usage"
)

// defaultHistoryLimit is the number of reports listed by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command and its subcommands.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List and show saved reports",
		Long: `History lists the reports saved by analyze and serve, newest first.

Examples:
  # List the last 20 reports
  pheonix history

  # Show one report again
  pheonix history show 4f1c2b9e-...

  # Export a saved report as Markdown
  pheonix history show 4f1c2b9e-... --markdown -o report.md`,
		Args: cobra.NoArgs,
		RunE: runHistoryListCmd,
	}
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Maximum number of reports to list")

	show := &cobra.Command{
		Use:   "show <report-id>",
		Short: "Print a saved report",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShowCmd,
	}
	show.Flags().BoolP("json", "j", false, "Output JSON report (mutually exclusive with --markdown)")
	show.Flags().BoolP("markdown", "m", false, "Output Markdown report (mutually exclusive with --json)")
	show.Flags().StringP("output", "o", "", "Write report to specified file path")
	cmd.AddCommand(show)

	return cmd
}

// runHistoryListCmd lists recent reports.
func runHistoryListCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	summaries, err := store.RecentReports(cmd.Context(), limit)
	if err != nil {
		return err
	}
	return writeHistoryTable(cmd.OutOrStdout(), summaries)
}

func writeHistoryTable(w io.Writer, summaries []usage.ReportSummary) error {
	if len(summaries) == 0 {
		_, err := fmt.Fprintln(w, "No saved reports")
		return err
	}
	table := tablewriter.NewTable(w)
	table.Header("ID", "Kind", "Input", "Started", "Failures")
	for _, s := range summaries {
		if err := table.Append(
			s.ID,
			s.Kind.String(),
			s.Input,
			s.StartedAt.Local().Format(time.DateTime),
			strconv.Itoa(s.Failures),
		); err != nil {
			return err
		}
	}
	return table.Render()
}

// runHistoryShowCmd prints one saved report.
func runHistoryShowCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return err
	}
	if cfg.JSONReport && cfg.MarkdownReport {
		return fmt.Errorf("configuration error: %w", config.ErrConflictingReportFormats)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	r, err := store.Report(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return outputReports(cmd.OutOrStdout(), cfg, []*model.AggregateReport{r})
}
