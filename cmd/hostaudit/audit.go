package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/google/renameio/v2"
	"github.com/spf13/cobra"
	"golang.org/x/net/proxy"

	"github.com/hostaudit/hostaudit/internal/config"
	"github.com/hostaudit/hostaudit/internal/database"
	"github.com/hostaudit/hostaudit/internal/log"
	"github.com/hostaudit/hostaudit/internal/model"
	"github.com/hostaudit/hostaudit/internal/pipeline"
	"github.com/hostaudit/hostaudit/internal/policy"
	"github.com/hostaudit/hostaudit/internal/report"
)

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [policy-file]...",
		Short: "Evaluate audit policies against the local host",
		Long: `Audit evaluates one or more YAML policy files against the local host.

Each policy contains controls checked against live host state:
- Configuration parameter values (sshd_config, sysctl dumps, ini files)
- File integrity digests and world-writable permissions
- Log patterns with occurrence thresholds
- Local accounts, UID collisions and password-field hygiene
- Running services and scheduled cron tasks
- Listening TCP ports

Examples:
  # Evaluate a single policy
  hostaudit audit baseline.yaml

  # Evaluate multiple policies concurrently
  hostaudit audit ssh.yaml accounts.yaml network.yaml

  # Output JSON report to a file
  hostaudit audit --json -o report.json baseline.yaml

  # Use a custom overrides file
  hostaudit audit -c fixtures.hostaudit baseline.yaml

Overrides file (.hostaudit) example:
  defaults:
    passwd: /mnt/image/etc/passwd
    proc: /mnt/image/proc
  policies:
    network-baseline:
      proxy: "127.0.0.1:1080"
      concurrency: 32`,
		Args: cobra.ArbitraryArgs,
		RunE: runAuditCmd,
	}

	// Audit behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each port probe")
	cmd.Flags().IntP("concurrency", "b", config.DefaultConcurrency,
		"Maximum concurrent port probes and policy audits")
	cmd.Flags().StringP("proxy", "x", "",
		"SOCKS5 proxy address for port probes (e.g., 127.0.0.1:1080)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Overrides file path (default: .hostaudit in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// Database flags
	cmd.Flags().String("db-dir", "",
		"Directory for the history database (default: XDG data directory)")
	cmd.Flags().Bool("no-save", false,
		"Do not save results to the history database")

	return cmd
}

// runAuditCmd executes the audit command.
func runAuditCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with secret redaction
	verbose := getVerboseFlag(cmd)
	cfg.Verbose = verbose
	logger := log.NewSecureLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runAudit(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	// Get flag values
	var err error

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.ProxyAddress, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load overrides from the config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty overrides if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.Overrides, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.Overrides = config.NewFile()
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave

	// Get positional arguments (policy files)
	cfg.PolicyFiles = args

	return cfg, nil
}

// runAudit executes the audit.
func runAudit(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting audit",
		"policies", cfg.PolicyFiles,
		"concurrency", cfg.Concurrency,
		"saveToDB", cfg.SaveToDB,
	)

	// Load and validate all policies before any check runs
	policies, err := policy.LoadAll(cfg.PolicyFiles)
	if err != nil {
		return err
	}

	// Open database connection if saving is enabled
	var db *database.AuditDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	// Use batch processor for parallel auditing if multiple policies
	if len(policies) > 1 && cfg.Concurrency > 1 {
		return runBatchAudit(ctx, cfg, policies, db, logger)
	}

	// Single policy or sequential auditing
	return runSequentialAudit(ctx, cfg, policies, db, logger)
}

// runSequentialAudit evaluates policies one at a time.
func runSequentialAudit(ctx context.Context, cfg *config.Config, policies []*policy.Policy, db *database.AuditDB, logger *slog.Logger) error {
	var failed int

	for _, pol := range policies {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		p, err := createPipelineForPolicy(cfg, pol, logger)
		if err != nil {
			return err
		}

		auditReport := model.NewAuditReport(pol.Name)
		auditReport.PolicyPath = pol.Path

		fmt.Printf("Auditing %s...\n", pol.Name)
		startTime := time.Now()

		// Execute the pipeline
		if err := p.Execute(ctx, auditReport); err != nil {
			logger.Error("audit failed", "policy", pol.Name, "error", err)
			fmt.Fprintf(os.Stderr, "Audit error for %s: %v\n", pol.Name, err)
			failed++
			continue
		}

		elapsed := time.Since(startTime)
		fmt.Printf("Audit completed in %s\n\n", elapsed.Round(time.Millisecond))

		// Generate and output report
		if err := outputReport(cfg, auditReport); err != nil {
			logger.Error("report failed", "policy", pol.Name, "error", err)
		}

		// Save to database if enabled
		if err := saveAuditReport(ctx, db, auditReport, logger); err != nil {
			logger.Error("failed to save audit report", "policy", pol.Name, "error", err)
		}

		if auditReport.Failed() {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d policies have failing or errored controls", failed, len(policies))
	}
	return nil
}

// runBatchAudit evaluates multiple policies concurrently using BatchProcessor.
func runBatchAudit(ctx context.Context, cfg *config.Config, policies []*policy.Policy, db *database.AuditDB, logger *slog.Logger) error {
	fmt.Printf("Starting batch audit of %d policies (concurrency: %d)...\n\n",
		len(policies), cfg.Concurrency)

	startTime := time.Now()

	// Create batch processor with pipeline factory
	bp := pipeline.NewBatchProcessor(
		func(pol *policy.Policy) *pipeline.Pipeline {
			p, err := createPipelineForPolicy(cfg, pol, logger)
			if err != nil {
				// A bad proxy address surfaces here; fall back to direct
				// probes so the rest of the batch still runs.
				logger.Error("pipeline setup failed, using direct dialer",
					"policy", pol.Name, "error", err)
				return pipeline.DefaultPipeline(pol, cfg.Overrides.PathsFor(pol.Name), proxy.Direct,
					[]pipeline.Option{pipeline.WithLogger(logger), pipeline.WithContinueOnError(true)})
			}
			return p
		},
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
	)

	// Process with callback for streaming output
	var mu sync.Mutex
	var failed int
	err := bp.ProcessBatchWithCallback(ctx, policies, func(auditReport *model.AuditReport, index int) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Printf("[%d/%d] Audit completed: %s\n", index+1, len(policies), auditReport.PolicyName)

		// Generate and output report
		if err := outputReport(cfg, auditReport); err != nil {
			logger.Error("report failed", "policy", auditReport.PolicyName, "error", err)
		}

		// Save to database if enabled
		if err := saveAuditReport(ctx, db, auditReport, logger); err != nil {
			logger.Error("failed to save audit report", "policy", auditReport.PolicyName, "error", err)
		}

		if auditReport.Failed() {
			failed++
		}
	})

	elapsed := time.Since(startTime)
	fmt.Printf("\nBatch audit completed in %s\n", elapsed.Round(time.Millisecond))

	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d policies have failing or errored controls", failed, len(policies))
	}
	return nil
}

// createPipelineForPolicy creates a pipeline with the policy's effective
// path overrides and the right dialer for its port probes.
func createPipelineForPolicy(cfg *config.Config, pol *policy.Policy, logger *slog.Logger) (*pipeline.Pipeline, error) {
	paths := cfg.Overrides.PathsFor(pol.Name)

	dialer, err := buildDialer(cfg, paths)
	if err != nil {
		return nil, err
	}

	pipelineOpts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	}

	configOpts := []pipeline.DefaultPipelineOption{
		pipeline.WithPipelineTimeout(cfg.Timeout),
		pipeline.WithPipelineConcurrency(cfg.Concurrency),
		pipeline.WithPipelineHashAlgorithm(cfg.HashAlgorithm),
	}

	return pipeline.DefaultPipeline(pol, paths, dialer, pipelineOpts, configOpts...), nil
}

// buildDialer returns the dialer for port probes.
// A policy-level proxy override wins over the global --proxy flag; without
// either, probes connect directly.
func buildDialer(cfg *config.Config, paths config.Paths) (proxy.Dialer, error) {
	proxyAddr := cfg.ProxyAddress
	if paths.Proxy != "" {
		proxyAddr = paths.Proxy
	}
	if proxyAddr == "" {
		return proxy.Direct, nil
	}

	dialer, err := proxy.SOCKS5("tcp", proxyAddr, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer for %s: %w", proxyAddr, err)
	}
	return dialer, nil
}

// outputReport outputs the audit report in the requested format.
// File output is written atomically so a crash mid-write can never leave a
// truncated report behind.
func outputReport(cfg *config.Config, auditReport *model.AuditReport) error {
	// Render into a buffer first; stdout gets it directly, file output goes
	// through an atomic rename.
	var buf bytes.Buffer
	writer := selectWriter(cfg, &buf)

	if _, err := writer.Write(auditReport); err != nil {
		return err
	}

	if cfg.ReportFile == "" {
		_, err := os.Stdout.Write(buf.Bytes())
		return err
	}

	// Create directories if they don't exist
	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports may contain sensitive information that should only be
	// readable by the owner.
	if err := renameio.WriteFile(cfg.ReportFile, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}

// selectWriter picks the report writer for the configured format.
func selectWriter(cfg *config.Config, output *bytes.Buffer) report.Writer {
	if cfg.JSONReport {
		return report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	}
	if cfg.MarkdownReport {
		return report.NewMarkdownWriter(output)
	}
	return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
}

// saveAuditReport saves the audit report to the database if enabled.
// If db is nil, this function is a no-op.
func saveAuditReport(ctx context.Context, db *database.AuditDB, auditReport *model.AuditReport, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	id, err := db.SaveAuditReport(ctx, auditReport)
	if err != nil {
		return fmt.Errorf("failed to save audit report: %w", err)
	}

	logger.Info("audit report saved to database",
		"policy", auditReport.PolicyName,
		"id", id,
	)
	return nil
}
