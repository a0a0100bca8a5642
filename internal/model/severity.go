package model

import "strings"

// Severity represents the risk level of an audit finding.
// This allows categorizing findings by their potential impact on the
// security posture of the audited host.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// human-readable output when needed.
type Severity int

const (
	// SeverityInfo indicates informational findings with no direct security impact.
	// Examples: service banners, informative config values.
	SeverityInfo Severity = iota

	// SeverityLow indicates minor issues with limited impact.
	// Examples: verbose service banners, stale cron comments.
	SeverityLow

	// SeverityMedium indicates moderate issues that warrant attention.
	// Examples: config values that diverge from the baseline, unexpected
	// scheduled tasks, processes that should not be running.
	SeverityMedium

	// SeverityHigh indicates serious issues that significantly weaken the host.
	// Examples: unexpected listening ports, weak password hashing algorithms,
	// bursts of failed logins.
	SeverityHigh

	// SeverityCritical indicates severe issues that likely mean compromise
	// or imminent compromise. Examples: accounts with empty password fields,
	// non-root accounts with UID 0, tampered system binaries.
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity converts a policy-file severity string into a Severity.
// Matching is case-insensitive. Unknown strings default to SeverityMedium
// because a policy author who bothered to tag a control clearly considered
// it more than informational.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info", "informational":
		return SeverityInfo
	case "low":
		return SeverityLow
	case "medium", "moderate":
		return SeverityMedium
	case "high":
		return SeverityHigh
	case "critical":
		return SeverityCritical
	default:
		return SeverityMedium
	}
}

// FindingInfo contains metadata about a finding type including severity,
// impact description, and remediation recommendation.
type FindingInfo struct {
	Severity       Severity
	Impact         string
	Recommendation string
}

// findingInfoMapping maps finding types to their metadata.
// This centralized mapping ensures consistent risk assessment across the
// application and is the source of the remediation guidance attached to
// failed controls.
//
// Design decision: We use a map rather than embedding severity in each finding
// type because:
// 1. It allows updating risk assessments without modifying type definitions
// 2. It provides a single source of truth for risk levels
// 3. It makes it easy to generate severity documentation
var findingInfoMapping = map[string]FindingInfo{
	// CRITICAL - likely compromise or trivially exploitable
	"empty_password_field": {
		Severity:       SeverityCritical,
		Impact:         "An account has an empty password field and can be used without authentication.",
		Recommendation: "Lock the account or set a strong password immediately, then review login records for abuse.",
	},
	"nonroot_uid_zero": {
		Severity:       SeverityCritical,
		Impact:         "An account other than root has UID 0, granting full superuser privileges under a different name.",
		Recommendation: "Remove or renumber the account and audit how it was created.",
	},
	"file_hash_mismatch": {
		Severity:       SeverityCritical,
		Impact:         "A monitored file no longer matches its recorded digest, which may indicate tampering.",
		Recommendation: "Compare the file against a known-good copy and investigate recent changes before trusting the host.",
	},

	// HIGH - significant weakening of the host
	"weak_hash_algorithm": {
		Severity:       SeverityHigh,
		Impact:         "Password hashing is configured with a weak algorithm, making offline cracking practical.",
		Recommendation: "Configure SHA512 (or stronger) password hashing and re-hash existing credentials.",
	},
	"port_unexpected_open": {
		Severity:       SeverityHigh,
		Impact:         "A TCP port that the baseline requires closed is accepting connections, exposing an unreviewed service.",
		Recommendation: "Identify the owning process, stop it if unsanctioned, and restrict the port with firewall rules.",
	},
	"failed_login_burst": {
		Severity:       SeverityHigh,
		Impact:         "Repeated authentication failures suggest an active password-guessing attempt.",
		Recommendation: "Rate-limit or block the offending sources and verify no account was successfully breached.",
	},
	"duplicate_uid": {
		Severity:       SeverityHigh,
		Impact:         "Two accounts share a UID, so file ownership and process identity cannot distinguish them.",
		Recommendation: "Assign each account a unique UID and re-own any affected files.",
	},
	"log_pattern_threshold": {
		Severity:       SeverityHigh,
		Impact:         "A watched log pattern appeared often enough to cross its alerting threshold.",
		Recommendation: "Review the matching log lines and treat the underlying events as an incident until explained.",
	},
	"service_not_running": {
		Severity:       SeverityHigh,
		Impact:         "A service the baseline requires (e.g. auditd, a log forwarder) is not running, creating a monitoring gap.",
		Recommendation: "Start the service, enable it at boot, and investigate why it stopped.",
	},

	// MEDIUM - divergence from baseline that warrants attention
	"config_value_mismatch": {
		Severity:       SeverityMedium,
		Impact:         "A configuration parameter diverges from the hardening baseline.",
		Recommendation: "Restore the expected value and record the change if the divergence was intentional.",
	},
	"config_parameter_missing": {
		Severity:       SeverityMedium,
		Impact:         "A parameter required by the baseline is absent, so the software falls back to its built-in default.",
		Recommendation: "Set the parameter explicitly so the effective configuration is visible and auditable.",
	},
	"unexpected_process": {
		Severity:       SeverityMedium,
		Impact:         "A process the baseline forbids is running on the host.",
		Recommendation: "Stop the process, remove its startup hooks, and determine who installed it.",
	},
	"cron_unexpected_entry": {
		Severity:       SeverityMedium,
		Impact:         "A scheduled task outside the baseline executes periodically; attackers commonly persist via cron.",
		Recommendation: "Review the entry, remove it if unsanctioned, and check the referenced script for malicious content.",
	},
	"cron_entry_missing": {
		Severity:       SeverityMedium,
		Impact:         "A scheduled task the baseline requires (e.g. backup or log rotation) is not configured.",
		Recommendation: "Restore the crontab entry and confirm the job runs to completion.",
	},
	"world_writable_file": {
		Severity:       SeverityMedium,
		Impact:         "A monitored file is world-writable, so any local account can modify it.",
		Recommendation: "Tighten the file mode (e.g. 0644 or stricter) and review its content for unauthorized edits.",
	},
	"account_unexpected": {
		Severity:       SeverityMedium,
		Impact:         "An account the baseline forbids exists on the host.",
		Recommendation: "Disable the account, archive its home directory, and audit its login history.",
	},
	"account_missing": {
		Severity:       SeverityMedium,
		Impact:         "An account the baseline requires (often a service account) does not exist.",
		Recommendation: "Recreate the account with its documented UID, group memberships and shell.",
	},

	// LOW - minor issues and hygiene
	"service_banner": {
		Severity:       SeverityLow,
		Impact:         "A network service discloses software and version information in its banner.",
		Recommendation: "Suppress or genericize the banner to reduce fingerprinting value.",
	},
	"log_pattern_seen": {
		Severity:       SeverityLow,
		Impact:         "A watched log pattern appeared below its alerting threshold.",
		Recommendation: "No action required; the occurrences are recorded for trend analysis.",
	},

	// INFO - recorded for completeness
	"port_open": {
		Severity:       SeverityInfo,
		Impact:         "A TCP port expected by the baseline is open.",
		Recommendation: "No action required.",
	},
	"file_digest_recorded": {
		Severity:       SeverityInfo,
		Impact:         "A file digest was computed and recorded for baseline comparison.",
		Recommendation: "No action required.",
	},
}

// GetSeverity returns the severity level for a finding type.
// Returns SeverityInfo if the finding type is not in the mapping.
func GetSeverity(findingType string) Severity {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info.Severity
	}
	return SeverityInfo
}

// GetFindingInfo returns the full finding information for a finding type.
// Returns a default FindingInfo with SeverityInfo if the type is not in the mapping.
func GetFindingInfo(findingType string) FindingInfo {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info
	}
	return FindingInfo{
		Severity:       SeverityInfo,
		Impact:         "Unknown finding type. Review manually.",
		Recommendation: "Investigate the finding and assess risk.",
	}
}
