package model

import "time"

// Summary is a summarized, human-readable view of an audit report.
// It carries the aggregate counts and the findings list without the
// per-control detail of the full report.
//
// Design decision: We maintain a separate summary rather than just printing
// parts of AuditReport because:
// 1. It provides a consistent, curated view of the most important results
// 2. It can be serialized to JSON for tools that want structured but simple output
// 3. History listings can store it instead of the full report
type Summary struct {
	// Host is the audited host name.
	Host string `json:"host"`

	// PolicyName is the evaluated policy name.
	PolicyName string `json:"policy_name"`

	// DateAudited is when the audit was performed.
	DateAudited time.Time `json:"date_audited"`

	// === Control Status Counts ===

	// PassCount is the number of controls that passed.
	PassCount int `json:"pass_count"`

	// WarnCount is the number of controls with warnings.
	WarnCount int `json:"warn_count"`

	// FailCount is the number of controls that failed.
	FailCount int `json:"fail_count"`

	// ErrorCount is the number of controls that could not be evaluated.
	ErrorCount int `json:"error_count"`

	// SkipCount is the number of controls that were skipped.
	SkipCount int `json:"skip_count"`

	// === Finding Severity Counts ===

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

	// === Findings ===

	// Findings contains all categorized findings.
	Findings []Finding `json:"findings,omitempty"`

	// TimedOut indicates if the audit was terminated before completion.
	TimedOut bool `json:"timed_out"`

	// Error contains any error message if the audit failed.
	Error string `json:"error,omitempty"`
}

// TotalControls returns the number of evaluated controls.
func (s *Summary) TotalControls() int {
	return s.PassCount + s.WarnCount + s.FailCount + s.ErrorCount + s.SkipCount
}

// TotalFindings returns the total number of findings.
func (s *Summary) TotalFindings() int {
	return len(s.Findings)
}

// HasFindings returns true if there are any findings.
func (s *Summary) HasFindings() bool {
	return len(s.Findings) > 0
}

// FindingsBySeverity returns findings filtered by severity.
func (s *Summary) FindingsBySeverity(severity Severity) []Finding {
	var result []Finding
	for _, f := range s.Findings {
		if f.Severity == severity {
			result = append(result, f)
		}
	}
	return result
}

// RiskScore returns a weighted score used for drift direction.
// Critical and high severity findings dominate the score so that trading one
// critical finding for several informational ones still counts as improvement.
func (s *Summary) RiskScore() int {
	return s.CriticalCount*100 + s.HighCount*50 + s.MediumCount*10 + s.LowCount*5 + s.InfoCount
}
