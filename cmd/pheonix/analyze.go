package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/nao1215/pheonix/internal/aggregate"
	"github.com/nao1215/pheonix/internal/config"
	pheonixlog "github.com/nao1215/pheonix/internal/log"
	"github.com/nao1215/pheonix/internal/model"
	"github.com/nao1215/pheonix/internal/report"
)

// kindExamples are shown in the help of the shortcut commands.
var kindExamples = map[model.Kind]string{
	model.KindPhone:    "+14155552671",
	model.KindEmail:    "alice@example.com",
	model.KindUsername: "octocat",
	model.KindIP:       "8.8.8.8",
}

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <kind> <input>...",
		Short: "Analyze one or more identifiers of the same kind",
		Long: `Analyze normalizes each input and queries every provider of its kind.

Kinds and their providers:
  phone     phone, geocode, presence, links
  email     presence, whois, breach, mx
  username  presence, usernames
  ip        ipgeo, geolite, whois

Examples:
  # Analyze a phone number
  pheonix analyze phone +14155552671

  # Analyze several email addresses, two at a time
  pheonix analyze email alice@example.com bob@example.org --batch 2

  # Only run the breach and mx providers
  pheonix analyze email alice@example.com -p breach -p mx

  # Read inputs from a file, one per line
  pheonix analyze username --list users.txt

  # Write a Markdown report
  pheonix analyze ip 8.8.8.8 --markdown -o report.md

  # Route traffic through an existing Tor proxy
  pheonix analyze email alice@example.com --tor-proxy 127.0.0.1:9050`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseKind(args[0])
			if err != nil {
				return fmt.Errorf("%w: %q", config.ErrInvalidKind, args[0])
			}
			return runAnalyze(cmd, kind, args[1:])
		},
	}
	addAnalyzeFlags(cmd)
	return cmd
}

// NewKindCmd creates the shortcut command for kind, for example
// "pheonix phone <number>".
func NewKindCmd(kind model.Kind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s <input>...", kind),
		Short: fmt.Sprintf("Analyze %s identifiers (shortcut for \"analyze %s\")", kind, kind),
		Example: fmt.Sprintf("  pheonix %s %s\n  pheonix %s %s --json",
			kind, kindExamples[kind], kind, kindExamples[kind]),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, kind, args)
		},
	}
	addAnalyzeFlags(cmd)
	return cmd
}

// addAnalyzeFlags registers the flags shared by analyze and the shortcuts.
func addAnalyzeFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("provider", "p", nil,
		"Only run the named providers (repeatable, default: all of the kind)")
	cmd.Flags().StringP("list", "l", "",
		"Read additional inputs from a file, one per line")

	addRuntimeFlags(cmd)

	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of inputs analyzed at once")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-history", false,
		"Do not save reports to the history database")
}

// addRuntimeFlags registers the flags shared by analyze and serve.
func addRuntimeFlags(cmd *cobra.Command) {
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each provider call")
	cmd.Flags().Int("concurrency", config.DefaultConcurrency,
		"Number of providers queried at once per input")
	cmd.Flags().Float64("rate-limit", config.DefaultRateLimit,
		"HTTP requests per second per provider (0 disables the limit)")

	// Tor flags
	cmd.Flags().Bool("tor", false,
		"Route HTTP and WHOIS traffic through an embedded Tor daemon")
	cmd.Flags().StringP("tor-proxy", "e", "",
		"Route HTTP and WHOIS traffic through an existing SOCKS5 proxy (e.g., 127.0.0.1:9050)")
	cmd.Flags().DurationP("tor-timeout", "T", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	if f := cmd.Flag("verbose"); f != nil {
		return f.Value.String() == "true"
	}
	return false
}

// getConfigFlag retrieves the persistent --config flag.
func getConfigFlag(cmd *cobra.Command) string {
	if f := cmd.Flag("config"); f != nil {
		return f.Value.String()
	}
	return ""
}

// loadConfig builds a Config from the defaults, the configuration file and
// the runtime flags of cmd, in that order. Flags only win when they were
// set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.ConfigFilePath = getConfigFlag(cmd)

	file, path, err := config.Load(cfg.ConfigFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	cfg.ApplyFile(file)
	if path != "" {
		cfg.ConfigFilePath = path
	}

	flags := cmd.Flags()
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("rate-limit") {
		if cfg.RateLimit, err = flags.GetFloat64("rate-limit"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("tor") {
		if cfg.UseTor, err = flags.GetBool("tor"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("tor-proxy") {
		if cfg.TorProxyAddress, err = flags.GetString("tor-proxy"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("tor-timeout") {
		if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("no-history") {
		noHistory, err := flags.GetBool("no-history")
		if err != nil {
			return nil, err
		}
		cfg.SaveHistory = !noHistory
	}
	return cfg, nil
}

// buildAnalyzeConfig creates the Config of an analyze run.
func buildAnalyzeConfig(cmd *cobra.Command, kind model.Kind, args []string) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	cfg.Kind = kind

	flags := cmd.Flags()
	if cfg.Providers, err = flags.GetStringSlice("provider"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}

	cfg.Targets = append(cfg.Targets, args...)
	list, err := flags.GetString("list")
	if err != nil {
		return nil, err
	}
	if list != "" {
		inputs, err := readInputList(list)
		if err != nil {
			return nil, err
		}
		cfg.Targets = append(cfg.Targets, inputs...)
	}
	return cfg, nil
}

// readInputList reads one input per line. Blank lines and lines starting
// with # are skipped.
func readInputList(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided list path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open input list: %w", err)
	}
	defer f.Close()

	var inputs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		inputs = append(inputs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input list: %w", err)
	}
	return inputs, nil
}

// checkProviders rejects provider names that are not registered for kind.
func checkProviders(kind model.Kind, requested, available []string) error {
	for _, name := range requested {
		if !slices.Contains(available, name) {
			return fmt.Errorf("unknown provider %q for %s (available: %s)",
				name, kind, strings.Join(available, ", "))
		}
	}
	return nil
}

// runAnalyze executes an analysis of inputs as kind.
func runAnalyze(cmd *cobra.Command, kind model.Kind, inputs []string) error {
	cfg, err := buildAnalyzeConfig(cmd, kind, inputs)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := checkProviders(kind, cfg.Providers, aggregate.DefaultOrder[kind]); err != nil {
		return err
	}

	logger := pheonixlog.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("failed to close resources", "error", err)
		}
	}()

	logger.Info("starting analysis",
		"kind", kind,
		"inputs", len(cfg.Targets),
		"providers", cfg.Providers,
		"tor", cfg.TorEnabled(),
		"batchSize", cfg.BatchSize,
	)

	start := time.Now()
	reports := a.aggregator.AnalyzeAll(ctx, kind, cfg.Targets, cfg.Providers, cfg.BatchSize)
	logger.Info("analysis completed", "elapsed", time.Since(start).Round(time.Millisecond))

	if cfg.SaveHistory {
		saveReports(ctx, a.store, reports, logger)
	}

	if err := outputReports(cmd.OutOrStdout(), cfg, reports); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return ctx.Err()
}

// reportSaver stores finished reports.
type reportSaver interface {
	SaveReport(ctx context.Context, report *model.AggregateReport) error
}

// saveReports stores every report. Failures are logged and do not fail the
// command.
func saveReports(ctx context.Context, saver reportSaver, reports []*model.AggregateReport, logger *slog.Logger) {
	// Finished reports are saved even after an interrupt.
	ctx = context.WithoutCancel(ctx)
	for _, r := range reports {
		if err := saver.SaveReport(ctx, r); err != nil {
			logger.Warn("failed to save report", "id", r.ID, "error", err)
			continue
		}
		logger.Debug("report saved", "id", r.ID)
	}
}

// newReportWriter selects the writer for the requested format.
func newReportWriter(w io.Writer, cfg *config.Config) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(w, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(cfg.Verbose))
	}
}

// outputReports writes reports to stdout or to cfg.ReportFile.
func outputReports(stdout io.Writer, cfg *config.Config, reports []*model.AggregateReport) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports may contain personal data; only the owner can read them.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	writer := newReportWriter(output, cfg)
	if len(reports) == 1 {
		_, err := writer.Write(reports[0])
		return err
	}
	_, err := writer.WriteBatch(reports)
	return err
}
