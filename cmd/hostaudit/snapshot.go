package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hostaudit/hostaudit/internal/config"
	"github.com/hostaudit/hostaudit/internal/database"
	"github.com/hostaudit/hostaudit/internal/log"
	"github.com/hostaudit/hostaudit/internal/snapshot"
)

// NewSnapshotCmd creates the snapshot command.
func NewSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Record a baseline snapshot of host state",
		Long: `Snapshot records the current host state as a drift-detection baseline.

A snapshot captures:
- Digests, sizes and modes of every file under the monitored trees
- Local accounts and groups
- Running processes
- Listening TCP ports
- Scheduled cron tasks

Snapshots are stored in the history database. Use 'hostaudit drift
--snapshots' to compare the two most recent snapshots.

Examples:
  # Snapshot /etc with the default algorithm
  hostaudit snapshot --path /etc

  # Snapshot several trees with blake2b digests and a label
  hostaudit snapshot --path /etc --path /usr/local/bin \
    --algorithm blake2b --label "post-hardening"

  # Use monitored trees from the .hostaudit file
  hostaudit snapshot -c fixtures.hostaudit`,
		RunE: runSnapshotCmd,
	}

	cmd.Flags().StringArrayP("path", "p", nil,
		"File tree to hash into the snapshot (repeatable)")
	cmd.Flags().StringP("label", "l", "",
		"Label attached to the snapshot for later identification")
	cmd.Flags().StringP("algorithm", "a", config.DefaultHashAlgorithm,
		"File digest algorithm (sha256, sha512, blake2b)")
	cmd.Flags().StringP("config", "c", "",
		"Overrides file path (default: .hostaudit in current or home directory)")
	cmd.Flags().String("db-dir", "",
		"Directory for the history database (default: XDG data directory)")

	return cmd
}

// runSnapshotCmd executes the snapshot command.
func runSnapshotCmd(cmd *cobra.Command, _ []string) error {
	roots, err := cmd.Flags().GetStringArray("path")
	if err != nil {
		return err
	}
	label, err := cmd.Flags().GetString("label")
	if err != nil {
		return err
	}
	algorithm, err := cmd.Flags().GetString("algorithm")
	if err != nil {
		return err
	}
	configFilePath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	if !config.ValidHashAlgorithm(algorithm) {
		return fmt.Errorf("%w: %s", config.ErrInvalidAlgorithm, algorithm)
	}

	// Load overrides for path redirection and default snapshot trees
	overrides := config.NewFile()
	explicitConfigPath := configFilePath != ""
	if configPath := config.FindConfigFile(configFilePath); configPath != "" {
		overrides, err = config.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return fmt.Errorf("configuration file not found: %s", configFilePath)
	}

	// --path flags win; the overrides file supplies trees otherwise
	if len(roots) == 0 {
		roots = overrides.SnapshotPaths
	}
	if len(roots) == 0 {
		return fmt.Errorf("no file trees to snapshot (use --path or set snapshotPaths in .hostaudit)")
	}

	verbose := getVerboseFlag(cmd)
	logger := log.NewSecureLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runSnapshot(ctx, overrides.Defaults, roots, label, algorithm, dbDir, logger)
}

// runSnapshot collects and stores the snapshot.
func runSnapshot(ctx context.Context, paths config.Paths, roots []string, label, algorithm, dbDir string, logger *slog.Logger) error {
	collector := snapshot.NewCollector(paths,
		snapshot.WithRoots(roots),
		snapshot.WithAlgorithm(algorithm),
		snapshot.WithCollectorLogger(logger),
	)

	fmt.Println("Collecting snapshot...")
	snap, err := collector.Collect(ctx, label)
	if err != nil {
		return fmt.Errorf("snapshot collection failed: %w", err)
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	id, err := db.SaveSnapshot(ctx, snap)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	fmt.Printf("Snapshot %d saved for %s\n", id, snap.Host)
	fmt.Printf("  files:    %d\n", len(snap.Files))
	fmt.Printf("  accounts: %d\n", len(snap.Accounts))
	fmt.Printf("  groups:   %d\n", len(snap.Groups))
	fmt.Printf("  services: %d\n", len(snap.Services))
	fmt.Printf("  ports:    %d\n", len(snap.Ports))
	fmt.Printf("  cron:     %d\n", len(snap.CronJobs))
	if label != "" {
		fmt.Printf("  label:    %s\n", label)
	}

	return nil
}
