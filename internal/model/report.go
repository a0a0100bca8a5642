package model

import (
	"os"
	"time"
)

// AuditReport is the main audit result structure.
// It contains everything collected while evaluating one policy on one host.
//
// Design decision: We use a single struct rather than many small ones to
// simplify serialization and database storage. The Summary sub-struct groups
// the aggregated view for human-readable output and history listings.
type AuditReport struct {
	// Host is the audited host name.
	Host string `json:"host"`

	// PolicyName is the name of the policy that was evaluated.
	PolicyName string `json:"policy_name"`

	// PolicyPath is the path of the policy file, for traceability.
	PolicyPath string `json:"policy_path,omitempty"`

	// DateAudited is the timestamp when the audit was performed.
	DateAudited time.Time `json:"date_audited"`

	// Results holds the outcome of every evaluated control, in policy order.
	Results []ControlResult `json:"results"`

	// Summary contains the aggregated findings for human-readable output.
	Summary *Summary `json:"summary,omitempty"`

	// TimedOut is true if the audit was terminated due to timeout or signal.
	TimedOut bool `json:"timed_out"`

	// PerformedChecks lists the pipeline steps that actually ran.
	PerformedChecks []string `json:"performed_checks,omitempty"`

	// Error contains any error that occurred during the audit.
	// Only set if the audit failed or partially failed.
	Error error `json:"-"` // Excluded from JSON

	// ErrorMessage is the string representation of Error for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// NewAuditReport creates a new report for the given policy.
// The host name is resolved from the OS; an unresolvable hostname falls
// back to "localhost" rather than failing the audit.
func NewAuditReport(policyName string) *AuditReport {
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	return &AuditReport{
		Host:        host,
		PolicyName:  policyName,
		DateAudited: time.Now(),
		Results:     make([]ControlResult, 0),
	}
}

// AddResult appends a control result and keeps the summary counts in sync.
func (r *AuditReport) AddResult(res ControlResult) {
	res.StatusText = res.Status.String()
	r.Results = append(r.Results, res)

	r.ensureSummary()
	switch res.Status {
	case StatusPass:
		r.Summary.PassCount++
	case StatusWarn:
		r.Summary.WarnCount++
	case StatusFail:
		r.Summary.FailCount++
	case StatusError:
		r.Summary.ErrorCount++
	case StatusSkip:
		r.Summary.SkipCount++
	}
}

// AddFinding adds a finding to the summary.
// Duplicate findings (same type, value and location) are dropped so a control
// re-evaluated in two steps cannot double-report.
func (r *AuditReport) AddFinding(finding Finding) {
	r.ensureSummary()

	for _, f := range r.Summary.Findings {
		if f.Type == finding.Type && f.Value == finding.Value && f.Location == finding.Location {
			return
		}
	}

	r.Summary.Findings = append(r.Summary.Findings, finding)

	switch finding.Severity {
	case SeverityCritical:
		r.Summary.CriticalCount++
	case SeverityHigh:
		r.Summary.HighCount++
	case SeverityMedium:
		r.Summary.MediumCount++
	case SeverityLow:
		r.Summary.LowCount++
	case SeverityInfo:
		r.Summary.InfoCount++
	}
}

// ensureSummary lazily initializes the summary so callers never see nil.
func (r *AuditReport) ensureSummary() {
	if r.Summary == nil {
		r.Summary = &Summary{
			Host:        r.Host,
			PolicyName:  r.PolicyName,
			DateAudited: r.DateAudited,
			Findings:    make([]Finding, 0),
		}
	}
}

// Result returns the result for a control ID, or nil if the control was
// not evaluated.
func (r *AuditReport) Result(controlID string) *ControlResult {
	for i := range r.Results {
		if r.Results[i].ControlID == controlID {
			return &r.Results[i]
		}
	}
	return nil
}

// Failed reports whether any control failed or errored.
// This drives the CLI exit code: a clean audit exits zero.
func (r *AuditReport) Failed() bool {
	if r.Summary == nil {
		return false
	}
	return r.Summary.FailCount > 0 || r.Summary.ErrorCount > 0
}
