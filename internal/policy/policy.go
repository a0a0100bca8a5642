package policy

import (
	"fmt"
	"strings"
)

// Check type identifiers accepted in a policy control.
// Each maps to one checker in the check package.
const (
	CheckConfigValue  = "config_value"
	CheckFileHash     = "file_hash"
	CheckLogPattern   = "log_pattern"
	CheckPortState    = "port_state"
	CheckAccount      = "account"
	CheckServiceState = "service_state"
	CheckCronEntry    = "cron_entry"
)

// knownCheckTypes is the set of check types this build can evaluate.
// Unknown types are kept at load time and reported as errored results at
// evaluation time, so a newer policy degrades gracefully on an older binary.
var knownCheckTypes = map[string]bool{
	CheckConfigValue:  true,
	CheckFileHash:     true,
	CheckLogPattern:   true,
	CheckPortState:    true,
	CheckAccount:      true,
	CheckServiceState: true,
	CheckCronEntry:    true,
}

// IsKnownCheckType reports whether this build can evaluate the check type.
func IsKnownCheckType(checkType string) bool {
	return knownCheckTypes[checkType]
}

// Policy is a named collection of audit controls.
type Policy struct {
	// Name identifies the policy in reports and history listings.
	Name string `yaml:"policy_name"`

	// Description is optional free-form context for the policy.
	Description string `yaml:"description,omitempty"`

	// Controls are evaluated in order.
	Controls []Control `yaml:"controls"`

	// Path records where the policy was loaded from. Not part of the YAML.
	Path string `yaml:"-"`
}

// Control is one audit rule within a policy.
type Control struct {
	// ID is the control identifier (e.g. "CFG-001"). Must be unique
	// within a policy.
	ID string `yaml:"id"`

	// Title is the human-readable control title.
	Title string `yaml:"title"`

	// CheckType selects the checker that evaluates this control.
	CheckType string `yaml:"check_type"`

	// Target is what the control examines: a file path for config_value,
	// file_hash and log_pattern; a host (defaulting to 127.0.0.1) for
	// port_state; an account name for account; a process name for
	// service_state; a user name for cron_entry.
	Target string `yaml:"target,omitempty"`

	// Parameter names the configuration key for config_value checks.
	Parameter string `yaml:"parameter,omitempty"`

	// Expected is the required value or state. Its interpretation depends
	// on the check type: a config value, a hex digest, "present"/"absent",
	// "running"/"stopped".
	Expected string `yaml:"expected,omitempty"`

	// Severity optionally overrides the catalog severity for findings
	// produced by this control ("info".."critical").
	Severity string `yaml:"severity,omitempty"`

	// Remediation optionally overrides the catalog remediation guidance
	// attached to a failed control.
	Remediation string `yaml:"remediation,omitempty"`

	// === Check-specific fields ===

	// Ports lists TCP ports for port_state checks.
	Ports []int `yaml:"ports,omitempty"`

	// Pattern is the regular expression for log_pattern and cron_entry checks.
	Pattern string `yaml:"pattern,omitempty"`

	// Threshold is the match count at which a log_pattern check fails.
	// Zero means any match fails the control.
	Threshold int `yaml:"threshold,omitempty"`

	// Algorithm selects the digest for file_hash checks
	// (sha256, sha512, blake2b). Empty means sha256.
	Algorithm string `yaml:"algorithm,omitempty"`

	// State is the required state for port_state ("open"/"closed") and
	// service_state ("running"/"stopped") checks. Empty falls back to Expected.
	State string `yaml:"state,omitempty"`

	// User restricts cron_entry checks to one crontab owner.
	// Empty falls back to Target; both empty means all users.
	User string `yaml:"user,omitempty"`
}

// RequiredState returns the effective state for port and service checks.
func (c *Control) RequiredState() string {
	if c.State != "" {
		return strings.ToLower(strings.TrimSpace(c.State))
	}
	return strings.ToLower(strings.TrimSpace(c.Expected))
}

// CronUser returns the effective crontab owner filter for cron_entry checks.
func (c *Control) CronUser() string {
	if c.User != "" {
		return c.User
	}
	return c.Target
}

// Validate checks structural integrity of the policy.
// It returns the first problem found: fixing one error often changes the
// relevance of later ones, and policy files are short enough to iterate on.
func (p *Policy) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrMissingPolicyName
	}
	if len(p.Controls) == 0 {
		return ErrNoControls
	}

	seen := make(map[string]bool, len(p.Controls))
	for i := range p.Controls {
		c := &p.Controls[i]
		if strings.TrimSpace(c.ID) == "" {
			return fmt.Errorf("%w: control at index %d", ErrMissingControlID, i)
		}
		if seen[c.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateControlID, c.ID)
		}
		seen[c.ID] = true

		if strings.TrimSpace(c.CheckType) == "" {
			return fmt.Errorf("%w: control %s", ErrMissingCheckType, c.ID)
		}
	}
	return nil
}

// ControlsByType returns the controls whose check type is in the given set,
// preserving policy order. The pipeline uses this to hand each step only
// the controls it knows how to evaluate.
func (p *Policy) ControlsByType(checkTypes ...string) []Control {
	want := make(map[string]bool, len(checkTypes))
	for _, t := range checkTypes {
		want[t] = true
	}

	var controls []Control
	for _, c := range p.Controls {
		if want[c.CheckType] {
			controls = append(controls, c)
		}
	}
	return controls
}

// UnknownControls returns controls whose check type this build cannot
// evaluate. They are reported as errored results rather than silently dropped.
func (p *Policy) UnknownControls() []Control {
	var controls []Control
	for _, c := range p.Controls {
		if !IsKnownCheckType(c.CheckType) {
			controls = append(controls, c)
		}
	}
	return controls
}
