package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These are chosen for auditing the local host; everything here can be
// overridden by CLI flags or the .hostaudit file.
const (
	// DefaultTimeout is the per-connection timeout for network checks.
	// Port probes target the local host or nearby segments, so a few
	// seconds is generous; slow answers beyond this are treated as closed.
	DefaultTimeout = 5 * time.Second

	// DefaultConcurrency bounds parallel TCP connects during port scans
	// and parallel policies during batch audits. 16 keeps a full /24-style
	// port list quick without exhausting file descriptors on small hosts.
	DefaultConcurrency = 16

	// DefaultHashAlgorithm is the digest used when a control or snapshot
	// does not name one explicitly.
	DefaultHashAlgorithm = "sha256"

	// AppName is the application name used for XDG directory paths.
	AppName = "hostaudit"

	// DefaultPasswdPath is the account database consulted by account checks.
	DefaultPasswdPath = "/etc/passwd"

	// DefaultGroupPath is the group database consulted by account checks.
	DefaultGroupPath = "/etc/group"

	// DefaultProcPath is the procfs root consulted by service checks and
	// listening-socket collection.
	DefaultProcPath = "/proc"

	// DefaultSystemCrontab is the system-wide crontab (with user field).
	DefaultSystemCrontab = "/etc/crontab"

	// DefaultCronDir holds drop-in system cron files (with user field).
	DefaultCronDir = "/etc/cron.d"

	// DefaultUserCronDir holds per-user crontabs (without user field).
	DefaultUserCronDir = "/var/spool/cron/crontabs"
)

// ValidHashAlgorithm reports whether the algorithm name is supported.
func ValidHashAlgorithm(algorithm string) bool {
	switch algorithm {
	case "sha256", "sha512", "blake2b":
		return true
	}
	return false
}

// Config holds all runtime options for hostaudit.
// This struct is populated from CLI flags and the .hostaudit file and passed
// through the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs for
// simplicity. The number of options is manageable, and nesting would add
// complexity without significant benefit.
type Config struct {
	// PolicyFiles is the list of policy files to evaluate.
	PolicyFiles []string

	// Timeout is the per-connection timeout for network checks.
	Timeout time.Duration

	// Concurrency bounds parallel port probes and parallel policy audits.
	Concurrency int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the .hostaudit overrides file.
	// If empty, the tool searches the current directory and then the
	// user's home directory.
	ConfigFilePath string

	// Overrides holds path and tuning overrides loaded from the config file.
	Overrides *File

	// JSONReport enables JSON report output instead of human-readable text.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// DBDir is the directory holding the SQLite history database.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveToDB indicates whether to persist results to the database.
	SaveToDB bool

	// HashAlgorithm is the default digest for snapshot file hashing.
	HashAlgorithm string

	// SnapshotPaths are the file trees hashed into snapshots.
	SnapshotPaths []string

	// SnapshotLabel is the optional operator tag for a new snapshot.
	SnapshotLabel string

	// ProxyAddress is an optional SOCKS5 proxy ("host:port") for port
	// probes, used when auditing ports reachable only through a jump host.
	ProxyAddress string
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
func NewConfig() *Config {
	return &Config{
		Timeout:       DefaultTimeout,
		Concurrency:   DefaultConcurrency,
		HashAlgorithm: DefaultHashAlgorithm,
		Overrides:     NewFile(),
	}
}

// XDGDataDir returns the XDG data directory for hostaudit.
// On Linux: ~/.local/share/hostaudit
// On macOS: ~/Library/Application Support/hostaudit
// On Windows: %LOCALAPPDATA%\hostaudit
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for hostaudit.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid for an audit run.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each point
// of use to fail fast and provide clear error messages upfront. We return the
// first error found rather than collecting all errors because fixing one
// error often makes others irrelevant.
func (c *Config) Validate() error {
	if len(c.PolicyFiles) == 0 {
		return ErrNoPolicy
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if !ValidHashAlgorithm(c.HashAlgorithm) {
		return ErrInvalidAlgorithm
	}
	return nil
}
