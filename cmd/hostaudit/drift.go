package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hostaudit/hostaudit/internal/config"
	"github.com/hostaudit/hostaudit/internal/database"
	"github.com/hostaudit/hostaudit/internal/model"
	"github.com/hostaudit/hostaudit/internal/snapshot"
)

// Constants for risk direction and summary messages.
const (
	riskDirectionWorsened  = "worsened"
	riskDirectionImproved  = "improved"
	riskDirectionUnchanged = "unchanged"
	noFindingsMessage      = "No findings"
)

// NewDriftCmd creates the drift command.
// This command compares audit results and snapshots with historical data
// stored in the database.
func NewDriftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drift [host]",
		Short: "Compare audit results with historical data",
		Long: `Drift displays differences between the current and previous audit results.

This command retrieves historical audit data from the database and shows:
- New findings that appeared since the last audit
- Resolved findings that are no longer present
- Changes in finding severity counts

With --snapshots, it instead compares the two most recent baseline
snapshots and lists added, removed and changed files, accounts, groups,
services, ports and cron entries.

The host argument defaults to the local hostname.

Examples:
  # Compare the latest two audits of this host
  hostaudit drift

  # List all audit history for a host
  hostaudit drift --list web-01

  # Compare with a specific historical audit by ID
  hostaudit drift --with-audit-id 5

  # Compare with the first audit since a date
  hostaudit drift --since 2026-01-01

  # Compare the two most recent snapshots
  hostaudit drift --snapshots

  # List all audited hosts in the database
  hostaudit drift --list-hosts`,
		Args: cobra.MaximumNArgs(1),
		RunE: runDriftCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List audit history for the specified host")
	cmd.Flags().BoolP("list-hosts", "L", false,
		"List all audited hosts in the database")

	// Comparison target flags
	cmd.Flags().Int64P("with-audit-id", "i", 0,
		"Compare with a specific audit by ID (use --list to see available IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first audit after this date (format: YYYY-MM-DD)")
	cmd.Flags().Bool("snapshots", false,
		"Compare the two most recent snapshots instead of audit reports")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output drift result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output drift result in Markdown format")

	cmd.Flags().String("db-dir", "",
		"Directory for the history database (default: XDG data directory)")

	return cmd
}

// runDriftCmd executes the drift command.
func runDriftCmd(cmd *cobra.Command, args []string) error {
	// Handle --list-hosts flag first (requires database but no host)
	listHosts, err := cmd.Flags().GetBool("list-hosts")
	if err != nil {
		return err
	}

	// Resolve the target host before opening the database
	var host string
	if !listHosts {
		if len(args) > 0 {
			host = args[0]
		} else {
			host, err = os.Hostname()
			if err != nil {
				return fmt.Errorf("cannot resolve local hostname, pass the host explicitly: %w", err)
			}
		}
	}

	// Get output format flags and validate them before touching the database
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return config.ErrConflictingReportFormats
	}

	snapshotsMode, err := cmd.Flags().GetBool("snapshots")
	if err != nil {
		return err
	}
	if snapshotsMode && markdownOutput {
		return fmt.Errorf("markdown output is not supported for snapshot drift (use --json or plain text)")
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// Open database
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	// Handle --list-hosts flag
	if listHosts {
		return listAuditedHosts(ctx, db)
	}

	if snapshotsMode {
		return runSnapshotDrift(ctx, db, host, jsonOutput)
	}

	// Handle --list flag
	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listAuditHistory(ctx, db, host)
	}

	// Get comparison target flags
	withAuditID, err := cmd.Flags().GetInt64("with-audit-id")
	if err != nil {
		return err
	}
	sinceDate, err := cmd.Flags().GetString("since")
	if err != nil {
		return err
	}

	// Perform comparison
	return runComparison(ctx, db, host, withAuditID, sinceDate, jsonOutput, markdownOutput)
}

// listAuditedHosts lists all hosts that have audit records in the database.
func listAuditedHosts(ctx context.Context, db *database.AuditDB) error {
	hosts, err := db.ListAuditedHosts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list hosts: %w", err)
	}

	if len(hosts) == 0 {
		fmt.Println("No audited hosts found in the database.")
		fmt.Println("\nUse 'hostaudit audit <policy>' to audit this host.")
		return nil
	}

	fmt.Printf("Audited hosts (%d):\n\n", len(hosts))
	for _, host := range hosts {
		fmt.Printf("  • %s\n", host)
	}
	fmt.Println("\nUse 'hostaudit drift --list <host>' to see audit history for a host.")

	return nil
}

// listAuditHistory lists all audit records for a specific host.
func listAuditHistory(ctx context.Context, db *database.AuditDB, host string) error {
	reports, err := db.GetAuditHistoryWithMetadata(ctx, host)
	if err != nil {
		return fmt.Errorf("failed to get audit history: %w", err)
	}

	if len(reports) == 0 {
		fmt.Printf("No audit history found for %s\n", host)
		fmt.Println("\nUse 'hostaudit audit' to audit this host.")
		return nil
	}

	fmt.Printf("Audit history for %s (%d audits):\n\n", host, len(reports))
	fmt.Printf("  %-6s  %-20s  %-24s  %s\n", "ID", "Date", "Policy", "Findings")
	fmt.Println("  " + strings.Repeat("-", 72))

	for _, meta := range reports {
		fmt.Printf("  %-6d  %-20s  %-24s  %s\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			meta.PolicyName,
			formatSeveritySummary(meta.StatusSummary),
		)
	}

	fmt.Println("\nUse 'hostaudit drift <host>' to compare the latest two audits.")
	fmt.Println("Use 'hostaudit drift --with-audit-id <id> <host>' to compare with a specific audit.")

	return nil
}

// formatSeveritySummary formats the severity counts into a short string.
func formatSeveritySummary(summary map[string]int) string {
	if summary == nil {
		return "N/A"
	}

	var parts []string
	if v := summary["critical"]; v > 0 {
		parts = append(parts, fmt.Sprintf("C:%d", v))
	}
	if v := summary["high"]; v > 0 {
		parts = append(parts, fmt.Sprintf("H:%d", v))
	}
	if v := summary["medium"]; v > 0 {
		parts = append(parts, fmt.Sprintf("M:%d", v))
	}
	if v := summary["low"]; v > 0 {
		parts = append(parts, fmt.Sprintf("L:%d", v))
	}
	if v := summary["info"]; v > 0 {
		parts = append(parts, fmt.Sprintf("I:%d", v))
	}

	if len(parts) == 0 {
		return noFindingsMessage
	}
	return strings.Join(parts, " ")
}

// runComparison performs the actual comparison between audit reports.
func runComparison(ctx context.Context, db *database.AuditDB, host string, withAuditID int64, sinceDate string, jsonOutput, markdownOutput bool) error {
	// Get the audit history
	reports, err := db.GetAuditHistory(ctx, host)
	if err != nil {
		return fmt.Errorf("failed to get audit history: %w", err)
	}

	if len(reports) == 0 {
		return fmt.Errorf("no audit history found for %s", host)
	}

	if len(reports) < 2 && withAuditID == 0 && sinceDate == "" {
		return fmt.Errorf("at least 2 audits are required for comparison (found %d)", len(reports))
	}

	// Determine which reports to compare
	var currentReport, previousReport *model.AuditReport

	// Latest report is always the current one
	currentReport = reports[0]

	if withAuditID > 0 {
		// Find the report with the specified ID
		previousReport, err = db.GetAuditReportByID(ctx, withAuditID)
		if err != nil {
			return fmt.Errorf("failed to get audit with ID %d: %w", withAuditID, err)
		}
		if previousReport == nil {
			return fmt.Errorf("audit with ID %d not found", withAuditID)
		}
		// Validate that the audit ID belongs to the same host
		if previousReport.Host != host {
			return fmt.Errorf("audit ID %d belongs to %s, not %s", withAuditID, previousReport.Host, host)
		}
	} else if sinceDate != "" {
		// Parse the date and find the first (oldest) report at or after the specified date
		parsedDate, err := time.Parse("2006-01-02", sinceDate)
		if err != nil {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}

		// Reports are sorted by timestamp DESC (newest first), so iterate in reverse
		// to find the first (oldest) report at or after the date
		for i := len(reports) - 1; i >= 0; i-- {
			r := reports[i]
			if r.DateAudited.After(parsedDate) || r.DateAudited.Equal(parsedDate) {
				previousReport = r
				break // Stop at the first (oldest) matching report
			}
		}
		if previousReport == nil {
			return fmt.Errorf("no audits found since %s", sinceDate)
		}
		// If only one audit matches and it's the current report, we can't compare
		if previousReport == currentReport {
			return fmt.Errorf("only one audit found since %s; at least 2 audits are required for comparison", sinceDate)
		}
	} else {
		// Default: compare with the previous audit
		previousReport = reports[1]
	}

	// Generate comparison result
	comparison := compareReports(previousReport, currentReport)

	// Output the result
	if jsonOutput {
		return outputComparisonJSON(comparison)
	}
	if markdownOutput {
		return outputComparisonMarkdown(comparison)
	}
	return outputComparisonText(comparison)
}

// ComparisonResult holds the result of comparing two audit reports.
type ComparisonResult struct {
	// Host is the audited host.
	Host string `json:"host"`

	// PreviousAudit contains metadata about the previous audit.
	PreviousAudit AuditMetadata `json:"previous_audit"`

	// CurrentAudit contains metadata about the current audit.
	CurrentAudit AuditMetadata `json:"current_audit"`

	// NewFindings contains findings that are new in the current audit.
	NewFindings []model.Finding `json:"new_findings,omitempty"`

	// ResolvedFindings contains findings that were in the previous audit
	// but not in the current one.
	ResolvedFindings []model.Finding `json:"resolved_findings,omitempty"`

	// UnchangedCount is the number of findings that remain unchanged.
	UnchangedCount int `json:"unchanged_count"`

	// RiskChange describes the overall change in risk level.
	RiskChange RiskChange `json:"risk_change"`
}

// AuditMetadata contains metadata about an audit for comparison display.
type AuditMetadata struct {
	// DateAudited is when the audit was performed.
	DateAudited time.Time `json:"date_audited"`

	// PolicyName is the evaluated policy.
	PolicyName string `json:"policy_name"`

	// TotalFindings is the total number of findings in this audit.
	TotalFindings int `json:"total_findings"`

	// FailCount is the number of failed controls.
	FailCount int `json:"fail_count"`

	// CriticalCount is the number of critical findings.
	CriticalCount int `json:"critical_count"`

	// HighCount is the number of high severity findings.
	HighCount int `json:"high_count"`

	// MediumCount is the number of medium severity findings.
	MediumCount int `json:"medium_count"`

	// LowCount is the number of low severity findings.
	LowCount int `json:"low_count"`

	// InfoCount is the number of informational findings.
	InfoCount int `json:"info_count"`
}

// RiskChange describes the change in risk level between audits.
type RiskChange struct {
	// Direction is "improved", "worsened", or "unchanged".
	Direction string `json:"direction"`

	// CriticalDelta is the change in critical findings count.
	CriticalDelta int `json:"critical_delta"`

	// HighDelta is the change in high severity findings count.
	HighDelta int `json:"high_delta"`

	// MediumDelta is the change in medium severity findings count.
	MediumDelta int `json:"medium_delta"`

	// LowDelta is the change in low severity findings count.
	LowDelta int `json:"low_delta"`

	// InfoDelta is the change in informational findings count.
	InfoDelta int `json:"info_delta"`
}

// compareReports compares two audit reports and generates a comparison result.
func compareReports(previous, current *model.AuditReport) *ComparisonResult {
	result := &ComparisonResult{
		Host: current.Host,
	}

	result.PreviousAudit = auditMetadata(previous)
	result.CurrentAudit = auditMetadata(current)

	// Build finding maps for comparison
	previousFindings := make(map[string]model.Finding)
	currentFindings := make(map[string]model.Finding)

	if previous.Summary != nil {
		for _, f := range previous.Summary.Findings {
			previousFindings[findingKey(f)] = f
		}
	}

	if current.Summary != nil {
		for _, f := range current.Summary.Findings {
			currentFindings[findingKey(f)] = f
		}
	}

	// Find new findings (in current but not in previous)
	for key, finding := range currentFindings {
		if _, exists := previousFindings[key]; !exists {
			result.NewFindings = append(result.NewFindings, finding)
		}
	}

	// Find resolved findings (in previous but not in current)
	for key, finding := range previousFindings {
		if _, exists := currentFindings[key]; !exists {
			result.ResolvedFindings = append(result.ResolvedFindings, finding)
		} else {
			result.UnchangedCount++
		}
	}

	// Calculate risk change
	result.RiskChange = calculateRiskChange(result.PreviousAudit, result.CurrentAudit)

	return result
}

// auditMetadata extracts comparison metadata from an audit report.
func auditMetadata(r *model.AuditReport) AuditMetadata {
	meta := AuditMetadata{
		DateAudited: r.DateAudited,
		PolicyName:  r.PolicyName,
	}
	if r.Summary != nil {
		meta.TotalFindings = len(r.Summary.Findings)
		meta.FailCount = r.Summary.FailCount
		meta.CriticalCount = r.Summary.CriticalCount
		meta.HighCount = r.Summary.HighCount
		meta.MediumCount = r.Summary.MediumCount
		meta.LowCount = r.Summary.LowCount
		meta.InfoCount = r.Summary.InfoCount
	}
	return meta
}

// findingKey generates a unique key for a finding for comparison purposes.
func findingKey(f model.Finding) string {
	return f.Type + "|" + f.Value + "|" + f.Location
}

// calculateRiskChange calculates the change in risk between two audits.
func calculateRiskChange(previous, current AuditMetadata) RiskChange {
	change := RiskChange{
		CriticalDelta: current.CriticalCount - previous.CriticalCount,
		HighDelta:     current.HighCount - previous.HighCount,
		MediumDelta:   current.MediumCount - previous.MediumCount,
		LowDelta:      current.LowCount - previous.LowCount,
		InfoDelta:     current.InfoCount - previous.InfoCount,
	}

	// Determine overall direction based on weighted score
	// Critical and High severity changes have more weight
	previousScore := previous.CriticalCount*100 + previous.HighCount*50 + previous.MediumCount*10 + previous.LowCount*5 + previous.InfoCount
	currentScore := current.CriticalCount*100 + current.HighCount*50 + current.MediumCount*10 + current.LowCount*5 + current.InfoCount

	if currentScore < previousScore {
		change.Direction = riskDirectionImproved
	} else if currentScore > previousScore {
		change.Direction = riskDirectionWorsened
	} else {
		change.Direction = riskDirectionUnchanged
	}

	return change
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(result *ComparisonResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(result *ComparisonResult) error {
	fmt.Printf("# Audit Drift: %s\n\n", result.Host)

	// Risk change summary
	fmt.Println("## Summary")
	fmt.Printf("\n**Risk Status:** %s\n\n", formatRiskDirection(result.RiskChange.Direction))

	// Audit metadata table
	fmt.Println("| Metric | Previous | Current | Change |")
	fmt.Println("|--------|----------|---------|--------|")
	fmt.Printf("| Date | %s | %s | - |\n",
		result.PreviousAudit.DateAudited.Format("2006-01-02 15:04"),
		result.CurrentAudit.DateAudited.Format("2006-01-02 15:04"))
	fmt.Printf("| Critical | %d | %d | %s |\n",
		result.PreviousAudit.CriticalCount,
		result.CurrentAudit.CriticalCount,
		formatDelta(result.RiskChange.CriticalDelta))
	fmt.Printf("| High | %d | %d | %s |\n",
		result.PreviousAudit.HighCount,
		result.CurrentAudit.HighCount,
		formatDelta(result.RiskChange.HighDelta))
	fmt.Printf("| Medium | %d | %d | %s |\n",
		result.PreviousAudit.MediumCount,
		result.CurrentAudit.MediumCount,
		formatDelta(result.RiskChange.MediumDelta))
	fmt.Printf("| Low | %d | %d | %s |\n",
		result.PreviousAudit.LowCount,
		result.CurrentAudit.LowCount,
		formatDelta(result.RiskChange.LowDelta))
	fmt.Printf("| Info | %d | %d | %s |\n",
		result.PreviousAudit.InfoCount,
		result.CurrentAudit.InfoCount,
		formatDelta(result.RiskChange.InfoDelta))
	fmt.Printf("| **Total** | **%d** | **%d** | **%s** |\n",
		result.PreviousAudit.TotalFindings,
		result.CurrentAudit.TotalFindings,
		formatDelta(result.CurrentAudit.TotalFindings-result.PreviousAudit.TotalFindings))

	// New findings
	if len(result.NewFindings) > 0 {
		fmt.Printf("\n## New Findings (%d)\n\n", len(result.NewFindings))
		for _, f := range result.NewFindings {
			fmt.Printf("- **[%s]** %s: %s\n", f.SeverityText, f.Title, f.Value)
			if f.Location != "" {
				fmt.Printf("  - Location: `%s`\n", f.Location)
			}
		}
	}

	// Resolved findings
	if len(result.ResolvedFindings) > 0 {
		fmt.Printf("\n## Resolved Findings (%d)\n\n", len(result.ResolvedFindings))
		for _, f := range result.ResolvedFindings {
			fmt.Printf("- ~~**[%s]** %s: %s~~\n", f.SeverityText, f.Title, f.Value)
		}
	}

	// Unchanged count
	if result.UnchangedCount > 0 {
		fmt.Printf("\n---\n\n*%d findings unchanged*\n", result.UnchangedCount)
	}

	return nil
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(result *ComparisonResult) error {
	fmt.Printf("Audit Drift: %s\n", result.Host)
	fmt.Println(strings.Repeat("=", 60))

	// Risk change summary
	fmt.Printf("\nRisk Status: %s\n", formatRiskDirection(result.RiskChange.Direction))

	// Audit dates
	fmt.Printf("\nPrevious audit: %s (%s)\n",
		result.PreviousAudit.DateAudited.Format("2006-01-02 15:04:05"),
		result.PreviousAudit.PolicyName)
	fmt.Printf("Current audit:  %s (%s)\n",
		result.CurrentAudit.DateAudited.Format("2006-01-02 15:04:05"),
		result.CurrentAudit.PolicyName)

	// Summary table
	fmt.Println("\nFindings Summary:")
	fmt.Printf("  %-10s  %-10s  %-10s  %-10s\n", "Severity", "Previous", "Current", "Change")
	fmt.Println("  " + strings.Repeat("-", 45))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Critical",
		result.PreviousAudit.CriticalCount, result.CurrentAudit.CriticalCount,
		formatDelta(result.RiskChange.CriticalDelta))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "High",
		result.PreviousAudit.HighCount, result.CurrentAudit.HighCount,
		formatDelta(result.RiskChange.HighDelta))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Medium",
		result.PreviousAudit.MediumCount, result.CurrentAudit.MediumCount,
		formatDelta(result.RiskChange.MediumDelta))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Low",
		result.PreviousAudit.LowCount, result.CurrentAudit.LowCount,
		formatDelta(result.RiskChange.LowDelta))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Info",
		result.PreviousAudit.InfoCount, result.CurrentAudit.InfoCount,
		formatDelta(result.RiskChange.InfoDelta))
	fmt.Println("  " + strings.Repeat("-", 45))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Total",
		result.PreviousAudit.TotalFindings, result.CurrentAudit.TotalFindings,
		formatDelta(result.CurrentAudit.TotalFindings-result.PreviousAudit.TotalFindings))

	// New findings
	if len(result.NewFindings) > 0 {
		fmt.Printf("\nNew Findings (%d):\n", len(result.NewFindings))
		for _, f := range result.NewFindings {
			fmt.Printf("  [+] [%s] %s: %s\n", f.SeverityText, f.Title, f.Value)
			if f.Location != "" {
				fmt.Printf("      Location: %s\n", f.Location)
			}
		}
	}

	// Resolved findings
	if len(result.ResolvedFindings) > 0 {
		fmt.Printf("\nResolved Findings (%d):\n", len(result.ResolvedFindings))
		for _, f := range result.ResolvedFindings {
			fmt.Printf("  [-] [%s] %s: %s\n", f.SeverityText, f.Title, f.Value)
		}
	}

	// Unchanged count
	if result.UnchangedCount > 0 {
		fmt.Printf("\nUnchanged: %d findings\n", result.UnchangedCount)
	}

	return nil
}

// formatRiskDirection formats the risk change direction for display.
func formatRiskDirection(direction string) string {
	switch direction {
	case riskDirectionImproved:
		return "IMPROVED (risk decreased)"
	case riskDirectionWorsened:
		return "WORSENED (risk increased)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	} else if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}

// runSnapshotDrift compares the two most recent snapshots for a host.
func runSnapshotDrift(ctx context.Context, db *database.AuditDB, host string, jsonOutput bool) error {
	snaps, err := db.GetLatestSnapshots(ctx, host, 2)
	if err != nil {
		return fmt.Errorf("failed to get snapshots: %w", err)
	}
	if len(snaps) < 2 {
		return fmt.Errorf("at least 2 snapshots are required for comparison (found %d); use 'hostaudit snapshot' to record baselines", len(snaps))
	}

	// Snapshots are newest first
	diff := snapshot.Compare(snaps[1], snaps[0])

	if jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(diff)
	}

	return outputSnapshotDriftText(diff, snaps[1], snaps[0])
}

// outputSnapshotDriftText outputs the snapshot diff in human-readable form.
func outputSnapshotDriftText(diff *snapshot.Diff, older, newer *model.Snapshot) error {
	fmt.Printf("Snapshot Drift: %s\n", diff.Host)
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\nBaseline: snapshot %d taken %s", older.ID, older.TakenAt.Format("2006-01-02 15:04:05"))
	if older.Label != "" {
		fmt.Printf(" (%s)", older.Label)
	}
	fmt.Printf("\nCurrent:  snapshot %d taken %s", newer.ID, newer.TakenAt.Format("2006-01-02 15:04:05"))
	if newer.Label != "" {
		fmt.Printf(" (%s)", newer.Label)
	}
	fmt.Println()

	if !diff.HasDrift() {
		fmt.Println("\nNo drift detected.")
		return nil
	}

	fmt.Printf("\n%d changes detected:\n", diff.TotalChanges())

	printSection := func(header string, items []string, marker string) {
		if len(items) == 0 {
			return
		}
		fmt.Printf("\n%s (%d):\n", header, len(items))
		for _, item := range items {
			fmt.Printf("  [%s] %s\n", marker, item)
		}
	}

	printSection("Files Added", diff.FilesAdded, "+")
	printSection("Files Removed", diff.FilesRemoved, "-")
	if len(diff.FilesChanged) > 0 {
		fmt.Printf("\nFiles Changed (%d):\n", len(diff.FilesChanged))
		for _, fc := range diff.FilesChanged {
			fmt.Printf("  [~] %s\n", fc.Path)
			if fc.OldDigest != fc.NewDigest && fc.NewDigest != "" {
				fmt.Printf("      digest: %s -> %s\n", shortDigest(fc.OldDigest), shortDigest(fc.NewDigest))
			}
			if fc.OldMode != fc.NewMode && fc.NewMode != "" {
				fmt.Printf("      mode:   %s -> %s\n", fc.OldMode, fc.NewMode)
			}
		}
	}

	printSection("Accounts Added", diff.AccountsAdded, "+")
	printSection("Accounts Removed", diff.AccountsRemoved, "-")
	printSection("Groups Added", diff.GroupsAdded, "+")
	printSection("Groups Removed", diff.GroupsRemoved, "-")
	printSection("Services Started", diff.ServicesStarted, "+")
	printSection("Services Stopped", diff.ServicesStopped, "-")
	printSection("Ports Opened", diff.PortsOpened, "+")
	printSection("Ports Closed", diff.PortsClosed, "-")
	printSection("Cron Entries Added", diff.CronAdded, "+")
	printSection("Cron Entries Removed", diff.CronRemoved, "-")

	return nil
}

// shortDigest truncates a digest for display.
func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
