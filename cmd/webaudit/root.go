// Package main provides the entry point for the webaudit CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for webaudit.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webaudit",
		Short: "Website and social profile auditing tool",
		Long: `webaudit audits websites for SEO, accessibility, link health,
structured data, robots.txt, HTTPS configuration, and page speed.
It also checks published images for privacy-sensitive metadata and
inspects public social media profiles.

Audit results are saved to a local database so runs can be compared
over time with 'webaudit history'.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewAuditCmd())
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewServeCmd())
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
