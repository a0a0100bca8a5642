// Package main provides the entry point for the hostaudit CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for hostaudit.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hostaudit",
		Short: "Policy-driven audit toolkit for Linux hosts",
		Long: `hostaudit evaluates YAML audit policies against the local host.
It checks configuration values, file integrity, log patterns, accounts,
running services, scheduled tasks and listening ports, then reports
pass/fail results per control.

Baselines can be recorded as snapshots and compared later to detect
configuration drift.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewAuditCmd())
	cmd.AddCommand(NewSnapshotCmd())
	cmd.AddCommand(NewDriftCmd())
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
