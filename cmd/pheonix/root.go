package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/pheonix/internal/model"
)

// NewRootCmd creates the root command for pheonix.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pheonix",
		Short: "OSINT lookups for phone numbers, emails, usernames and IP addresses",
		Long: `pheonix queries public sources about an identifier and merges the answers
into a single report. Every provider answers independently: a provider that
is unconfigured, rate limited or unreachable is reported without stopping
the others.

API keys, GeoLite2 database paths and daily limits are read from a .pheonix
file (see "pheonix init") and from PHEONIX_* environment variables.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .pheonix in current or home directory)")

	cmd.AddCommand(NewAnalyzeCmd())
	for _, kind := range model.Kinds() {
		cmd.AddCommand(NewKindCmd(kind))
	}
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewUsageCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
