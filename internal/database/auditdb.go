package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/hostaudit/hostaudit/internal/model"
)

// AuditDB provides SQLite-based storage for audit reports and baseline
// snapshots. It manages connection pooling and provides methods for CRUD
// operations.
//
// Design decision: We use a single database file for all hosts and policies
// rather than one file per host. This simplifies history queries across
// hosts and backup/restore operations.
type AuditDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures AuditDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates an AuditDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*AuditDB, error) {
	dbPath := filepath.Join(dbDir, "hostaudit.db")

	// Check if we should create the database or require it to exist
	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Build connection string.
	// When CreateIfNotExists is false, mode=rw prevents creating new files;
	// mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; a single connection also guarantees
	// the PRAGMAs below apply to every statement.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	adb := &AuditDB{
		db:     db,
		dbPath: dbPath,
	}

	// Enable WAL mode if requested
	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	// The snapshot child tables rely on cascading deletes.
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Create tables
	if err := adb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return adb, nil
}

// Close closes the database connection.
func (adb *AuditDB) Close() error {
	return adb.db.Close()
}

// Path returns the database file path.
func (adb *AuditDB) Path() string {
	return adb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (adb *AuditDB) createTables() error {
	schema := `
	-- Audit reports store complete policy evaluation results as JSON
	CREATE TABLE IF NOT EXISTS audit_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		host TEXT NOT NULL,
		policy_name TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		report_json TEXT NOT NULL,
		status_summary TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_reports_host ON audit_reports(host);
	CREATE INDEX IF NOT EXISTS idx_reports_policy ON audit_reports(policy_name);
	CREATE INDEX IF NOT EXISTS idx_reports_timestamp ON audit_reports(timestamp);

	-- Snapshots record baseline host state for drift detection.
	-- Sections live in child tables so single sections can be queried
	-- without deserializing the whole snapshot.
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		host TEXT NOT NULL,
		label TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_host ON snapshots(host);
	CREATE INDEX IF NOT EXISTS idx_snapshots_timestamp ON snapshots(timestamp);

	CREATE TABLE IF NOT EXISTS snapshot_files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
		path TEXT NOT NULL,
		algorithm TEXT NOT NULL,
		digest TEXT NOT NULL,
		size INTEGER NOT NULL,
		mode TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapfiles_snapshot ON snapshot_files(snapshot_id);

	CREATE TABLE IF NOT EXISTS snapshot_accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		uid INTEGER NOT NULL,
		gid INTEGER NOT NULL,
		home TEXT,
		shell TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_snapaccounts_snapshot ON snapshot_accounts(snapshot_id);

	CREATE TABLE IF NOT EXISTS snapshot_groups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		gid INTEGER NOT NULL,
		members TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_snapgroups_snapshot ON snapshot_groups(snapshot_id);

	CREATE TABLE IF NOT EXISTS snapshot_services (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		pid INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapservices_snapshot ON snapshot_services(snapshot_id);

	CREATE TABLE IF NOT EXISTS snapshot_ports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
		proto TEXT NOT NULL,
		port INTEGER NOT NULL,
		address TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_snapports_snapshot ON snapshot_ports(snapshot_id);

	CREATE TABLE IF NOT EXISTS snapshot_cron (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
		user TEXT NOT NULL,
		schedule TEXT NOT NULL,
		command TEXT NOT NULL,
		source TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_snapcron_snapshot ON snapshot_cron(snapshot_id);
	`

	_, err := adb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveAuditReport saves a complete audit report as JSON.
// It returns the database ID of the stored report.
func (adb *AuditDB) SaveAuditReport(ctx context.Context, report *model.AuditReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	// Status summary allows cheap history listings without deserializing
	// the full report.
	statusSummary := map[string]int{
		"pass":     0,
		"warn":     0,
		"fail":     0,
		"error":    0,
		"skip":     0,
		"critical": 0,
		"high":     0,
		"medium":   0,
		"low":      0,
		"info":     0,
	}
	if report.Summary != nil {
		statusSummary["pass"] = report.Summary.PassCount
		statusSummary["warn"] = report.Summary.WarnCount
		statusSummary["fail"] = report.Summary.FailCount
		statusSummary["error"] = report.Summary.ErrorCount
		statusSummary["skip"] = report.Summary.SkipCount
		statusSummary["critical"] = report.Summary.CriticalCount
		statusSummary["high"] = report.Summary.HighCount
		statusSummary["medium"] = report.Summary.MediumCount
		statusSummary["low"] = report.Summary.LowCount
		statusSummary["info"] = report.Summary.InfoCount
	}
	summaryJSON, _ := json.Marshal(statusSummary) //nolint:errcheck,errchkjson // statusSummary is a simple map; Marshal won't fail

	query := `
	INSERT INTO audit_reports (host, policy_name, report_json, status_summary)
	VALUES (?, ?, ?, ?)
	`

	result, err := adb.db.ExecContext(ctx, query,
		report.Host,
		report.PolicyName,
		string(reportJSON),
		string(summaryJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save audit report: %w", err)
	}

	return result.LastInsertId()
}

// GetLatestAuditReport retrieves the most recent audit report for a host.
// Returns nil without error when the host has no reports.
func (adb *AuditDB) GetLatestAuditReport(ctx context.Context, host string) (*model.AuditReport, error) {
	query := `
	SELECT report_json FROM audit_reports
	WHERE host = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`
	return adb.queryOneReport(ctx, query, host)
}

// GetLatestAuditReportBefore retrieves the most recent audit report for a
// host taken strictly before the given time.
func (adb *AuditDB) GetLatestAuditReportBefore(ctx context.Context, host string, before time.Time) (*model.AuditReport, error) {
	query := `
	SELECT report_json FROM audit_reports
	WHERE host = ? AND timestamp < ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`
	return adb.queryOneReport(ctx, query, host, before.UTC().Format("2006-01-02 15:04:05"))
}

// GetAuditReportByID retrieves an audit report by its database ID.
func (adb *AuditDB) GetAuditReportByID(ctx context.Context, id int64) (*model.AuditReport, error) {
	query := `
	SELECT report_json FROM audit_reports
	WHERE id = ?
	`
	return adb.queryOneReport(ctx, query, id)
}

// queryOneReport runs a single-row report query and deserializes the result.
func (adb *AuditDB) queryOneReport(ctx context.Context, query string, args ...interface{}) (*model.AuditReport, error) {
	var reportJSON string
	err := adb.db.QueryRowContext(ctx, query, args...).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit report: %w", err)
	}

	var report model.AuditReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// GetAuditHistory retrieves all audit reports for a host, newest first.
func (adb *AuditDB) GetAuditHistory(ctx context.Context, host string) ([]*model.AuditReport, error) {
	query := `
	SELECT report_json FROM audit_reports
	WHERE host = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := adb.db.QueryContext(ctx, query, host)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit history: %w", err)
	}
	defer rows.Close()

	var reports []*model.AuditReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		var report model.AuditReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue // Skip malformed reports
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// AuditReportMetadata contains summary information about an audit report.
// This is used for displaying audit history without loading the full report.
type AuditReportMetadata struct {
	// ID is the unique identifier of the audit report in the database.
	ID int64

	// Host is the audited host.
	Host string

	// PolicyName is the evaluated policy.
	PolicyName string

	// Timestamp is when the audit was performed.
	Timestamp time.Time

	// StatusSummary contains counts of control results and finding severities.
	StatusSummary map[string]int
}

// GetAuditHistoryWithMetadata retrieves audit report metadata for a host.
// This is more efficient than GetAuditHistory when only metadata is needed.
func (adb *AuditDB) GetAuditHistoryWithMetadata(ctx context.Context, host string) ([]AuditReportMetadata, error) {
	query := `
	SELECT id, host, policy_name, timestamp, status_summary
	FROM audit_reports
	WHERE host = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := adb.db.QueryContext(ctx, query, host)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit history: %w", err)
	}
	defer rows.Close()

	var results []AuditReportMetadata
	for rows.Next() {
		var meta AuditReportMetadata
		var timestamp string
		var summaryJSON sql.NullString

		if err := rows.Scan(&meta.ID, &meta.Host, &meta.PolicyName, &timestamp, &summaryJSON); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)

		if summaryJSON.Valid && summaryJSON.String != "" {
			if err := json.Unmarshal([]byte(summaryJSON.String), &meta.StatusSummary); err != nil {
				meta.StatusSummary = make(map[string]int)
			}
		} else {
			meta.StatusSummary = make(map[string]int)
		}

		results = append(results, meta)
	}

	return results, rows.Err()
}

// ListAuditedHosts returns all hosts that have at least one stored report.
func (adb *AuditDB) ListAuditedHosts(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT host FROM audit_reports
	ORDER BY host
	`

	rows, err := adb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list hosts: %w", err)
	}
	defer rows.Close()

	var hosts []string
	for rows.Next() {
		var host string
		if err := rows.Scan(&host); err != nil {
			return nil, fmt.Errorf("failed to scan host: %w", err)
		}
		hosts = append(hosts, host)
	}

	return hosts, rows.Err()
}

// SaveSnapshot stores a snapshot and all its sections in one transaction.
// It returns the snapshot's database ID, also written back into snap.ID.
func (adb *AuditDB) SaveSnapshot(ctx context.Context, snap *model.Snapshot) (int64, error) {
	tx, err := adb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (host, label, timestamp) VALUES (?, ?, ?)`,
		snap.Host, snap.Label, snap.TakenAt.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read snapshot id: %w", err)
	}

	for _, f := range snap.Files {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snapshot_files (snapshot_id, path, algorithm, digest, size, mode) VALUES (?, ?, ?, ?, ?, ?)`,
			id, f.Path, f.Algorithm, f.Digest, f.Size, f.Mode,
		); err != nil {
			return 0, fmt.Errorf("failed to insert snapshot file: %w", err)
		}
	}
	for _, a := range snap.Accounts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snapshot_accounts (snapshot_id, name, uid, gid, home, shell) VALUES (?, ?, ?, ?, ?, ?)`,
			id, a.Name, a.UID, a.GID, a.Home, a.Shell,
		); err != nil {
			return 0, fmt.Errorf("failed to insert snapshot account: %w", err)
		}
	}
	for _, g := range snap.Groups {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snapshot_groups (snapshot_id, name, gid, members) VALUES (?, ?, ?, ?)`,
			id, g.Name, g.GID, strings.Join(g.Members, ","),
		); err != nil {
			return 0, fmt.Errorf("failed to insert snapshot group: %w", err)
		}
	}
	for _, s := range snap.Services {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snapshot_services (snapshot_id, name, pid) VALUES (?, ?, ?)`,
			id, s.Name, s.PID,
		); err != nil {
			return 0, fmt.Errorf("failed to insert snapshot service: %w", err)
		}
	}
	for _, p := range snap.Ports {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snapshot_ports (snapshot_id, proto, port, address) VALUES (?, ?, ?, ?)`,
			id, p.Proto, p.Port, p.Address,
		); err != nil {
			return 0, fmt.Errorf("failed to insert snapshot port: %w", err)
		}
	}
	for _, cj := range snap.CronJobs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snapshot_cron (snapshot_id, user, schedule, command, source) VALUES (?, ?, ?, ?, ?)`,
			id, cj.User, cj.Schedule, cj.Command, cj.Source,
		); err != nil {
			return 0, fmt.Errorf("failed to insert snapshot cron entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit snapshot: %w", err)
	}

	snap.ID = id
	return id, nil
}

// GetSnapshot retrieves a snapshot and all its sections by database ID.
// Returns nil without error when no snapshot has that ID.
func (adb *AuditDB) GetSnapshot(ctx context.Context, id int64) (*model.Snapshot, error) {
	var snap model.Snapshot
	var label sql.NullString
	var timestamp string

	err := adb.db.QueryRowContext(ctx,
		`SELECT id, host, label, timestamp FROM snapshots WHERE id = ?`, id,
	).Scan(&snap.ID, &snap.Host, &label, &timestamp)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	snap.Label = label.String
	snap.TakenAt = parseTimestamp(timestamp)

	if err := adb.loadSnapshotSections(ctx, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// GetLatestSnapshots retrieves up to limit most recent snapshots for a
// host, newest first, with all sections loaded.
func (adb *AuditDB) GetLatestSnapshots(ctx context.Context, host string, limit int) ([]*model.Snapshot, error) {
	metas, err := adb.ListSnapshots(ctx, host)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(metas) > limit {
		metas = metas[:limit]
	}

	snapshots := make([]*model.Snapshot, 0, len(metas))
	for _, meta := range metas {
		snap, err := adb.GetSnapshot(ctx, meta.ID)
		if err != nil {
			return nil, err
		}
		if snap != nil {
			snapshots = append(snapshots, snap)
		}
	}
	return snapshots, nil
}

// SnapshotMetadata identifies a stored snapshot without its sections.
type SnapshotMetadata struct {
	// ID is the snapshot's database identifier.
	ID int64

	// Host is the host the snapshot was taken on.
	Host string

	// Label is the optional operator-supplied tag.
	Label string

	// Timestamp is when the snapshot was collected.
	Timestamp time.Time
}

// ListSnapshots returns metadata of all snapshots for a host, newest first.
func (adb *AuditDB) ListSnapshots(ctx context.Context, host string) ([]SnapshotMetadata, error) {
	query := `
	SELECT id, host, label, timestamp FROM snapshots
	WHERE host = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := adb.db.QueryContext(ctx, query, host)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var results []SnapshotMetadata
	for rows.Next() {
		var meta SnapshotMetadata
		var label sql.NullString
		var timestamp string
		if err := rows.Scan(&meta.ID, &meta.Host, &label, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot metadata: %w", err)
		}
		meta.Label = label.String
		meta.Timestamp = parseTimestamp(timestamp)
		results = append(results, meta)
	}

	return results, rows.Err()
}

// DeleteSnapshot removes a snapshot; child rows cascade.
func (adb *AuditDB) DeleteSnapshot(ctx context.Context, id int64) error {
	if _, err := adb.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// loadSnapshotSections fills all child-table sections of a snapshot.
func (adb *AuditDB) loadSnapshotSections(ctx context.Context, snap *model.Snapshot) error {
	files, err := adb.db.QueryContext(ctx,
		`SELECT path, algorithm, digest, size, mode FROM snapshot_files WHERE snapshot_id = ? ORDER BY path`, snap.ID)
	if err != nil {
		return fmt.Errorf("failed to load snapshot files: %w", err)
	}
	defer files.Close()
	for files.Next() {
		var f model.FileRecord
		if err := files.Scan(&f.Path, &f.Algorithm, &f.Digest, &f.Size, &f.Mode); err != nil {
			return fmt.Errorf("failed to scan snapshot file: %w", err)
		}
		snap.Files = append(snap.Files, f)
	}
	if err := files.Err(); err != nil {
		return err
	}

	accounts, err := adb.db.QueryContext(ctx,
		`SELECT name, uid, gid, home, shell FROM snapshot_accounts WHERE snapshot_id = ? ORDER BY name`, snap.ID)
	if err != nil {
		return fmt.Errorf("failed to load snapshot accounts: %w", err)
	}
	defer accounts.Close()
	for accounts.Next() {
		var a model.AccountRecord
		var home, shell sql.NullString
		if err := accounts.Scan(&a.Name, &a.UID, &a.GID, &home, &shell); err != nil {
			return fmt.Errorf("failed to scan snapshot account: %w", err)
		}
		a.Home = home.String
		a.Shell = shell.String
		snap.Accounts = append(snap.Accounts, a)
	}
	if err := accounts.Err(); err != nil {
		return err
	}

	groups, err := adb.db.QueryContext(ctx,
		`SELECT name, gid, members FROM snapshot_groups WHERE snapshot_id = ? ORDER BY name`, snap.ID)
	if err != nil {
		return fmt.Errorf("failed to load snapshot groups: %w", err)
	}
	defer groups.Close()
	for groups.Next() {
		var g model.GroupRecord
		var members sql.NullString
		if err := groups.Scan(&g.Name, &g.GID, &members); err != nil {
			return fmt.Errorf("failed to scan snapshot group: %w", err)
		}
		if members.Valid && members.String != "" {
			g.Members = strings.Split(members.String, ",")
		}
		snap.Groups = append(snap.Groups, g)
	}
	if err := groups.Err(); err != nil {
		return err
	}

	services, err := adb.db.QueryContext(ctx,
		`SELECT name, pid FROM snapshot_services WHERE snapshot_id = ? ORDER BY pid`, snap.ID)
	if err != nil {
		return fmt.Errorf("failed to load snapshot services: %w", err)
	}
	defer services.Close()
	for services.Next() {
		var s model.ServiceRecord
		if err := services.Scan(&s.Name, &s.PID); err != nil {
			return fmt.Errorf("failed to scan snapshot service: %w", err)
		}
		snap.Services = append(snap.Services, s)
	}
	if err := services.Err(); err != nil {
		return err
	}

	ports, err := adb.db.QueryContext(ctx,
		`SELECT proto, port, address FROM snapshot_ports WHERE snapshot_id = ? ORDER BY port, proto`, snap.ID)
	if err != nil {
		return fmt.Errorf("failed to load snapshot ports: %w", err)
	}
	defer ports.Close()
	for ports.Next() {
		var p model.PortRecord
		var address sql.NullString
		if err := ports.Scan(&p.Proto, &p.Port, &address); err != nil {
			return fmt.Errorf("failed to scan snapshot port: %w", err)
		}
		p.Address = address.String
		snap.Ports = append(snap.Ports, p)
	}
	if err := ports.Err(); err != nil {
		return err
	}

	cron, err := adb.db.QueryContext(ctx,
		`SELECT user, schedule, command, source FROM snapshot_cron WHERE snapshot_id = ? ORDER BY user, command`, snap.ID)
	if err != nil {
		return fmt.Errorf("failed to load snapshot cron entries: %w", err)
	}
	defer cron.Close()
	for cron.Next() {
		var cj model.CronRecord
		var source sql.NullString
		if err := cron.Scan(&cj.User, &cj.Schedule, &cj.Command, &source); err != nil {
			return fmt.Errorf("failed to scan snapshot cron entry: %w", err)
		}
		cj.Source = source.String
		snap.CronJobs = append(snap.CronJobs, cj)
	}
	return cron.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	// Return zero time if no format matches
	// This is a fallback to avoid breaking functionality for edge cases
	return time.Time{}
}
