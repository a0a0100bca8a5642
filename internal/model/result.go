package model

// Status is the outcome of evaluating a single policy control.
//
// Design decision: We keep Status separate from Severity because they answer
// different questions: Status says whether the host satisfied the control,
// Severity says how much a failure matters. The original master audit runner
// only knew PASS/FAIL/UNKNOWN; we add WARN for soft failures (e.g. a log
// pattern below threshold), ERROR for controls that could not be evaluated,
// and SKIP for controls disabled by configuration.
type Status int

const (
	// StatusPass indicates the host satisfied the control.
	StatusPass Status = iota

	// StatusWarn indicates the control technically passed but produced
	// observations worth reviewing (e.g. matches below a failure threshold).
	StatusWarn

	// StatusFail indicates the host violated the control.
	StatusFail

	// StatusError indicates the control could not be evaluated
	// (missing file, unreadable path, unknown check type).
	StatusError

	// StatusSkip indicates the control was not evaluated by choice.
	StatusSkip
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	case StatusError:
		return "ERROR"
	case StatusSkip:
		return "SKIP"
	default:
		return "UNKNOWN"
	}
}

// ControlResult is the outcome of one policy control evaluation.
// It mirrors the per-control result records the original audit runner
// appended to its JSON report, with the observed value added so reports
// can show expected-vs-actual without re-running the check.
type ControlResult struct {
	// ControlID is the policy control identifier (e.g. "CFG-001").
	ControlID string `json:"control_id"`

	// Title is the human-readable control title from the policy.
	Title string `json:"title"`

	// CheckType is the check that evaluated this control
	// (config_value, file_hash, log_pattern, port_state, account,
	// service_state, cron_entry).
	CheckType string `json:"check_type"`

	// Status is the evaluation outcome.
	Status Status `json:"status"`

	// StatusText is the human-readable status for serialized output.
	StatusText string `json:"status_text"`

	// Message describes the outcome in one line.
	Message string `json:"message"`

	// Expected is the value the policy required, when applicable.
	Expected string `json:"expected,omitempty"`

	// Actual is the value observed on the host, when applicable.
	Actual string `json:"actual,omitempty"`

	// Target is the file, port list, service or account the control examined.
	Target string `json:"target,omitempty"`

	// Remediation is guidance for fixing a failed control. Populated only
	// when Status is StatusFail or StatusWarn, from the policy's remediation
	// text or the built-in finding catalog.
	Remediation string `json:"remediation,omitempty"`
}

// Finding represents a single typed observation made while evaluating
// controls. Findings are more granular than control results: one port_state
// control can produce several findings, one per unexpected port.
type Finding struct {
	// Type is the finding type identifier.
	// This maps to the finding catalog in severity.go.
	Type string `json:"type"`

	// Severity is the risk level.
	Severity Severity `json:"severity"`

	// SeverityText is the human-readable severity.
	SeverityText string `json:"severity_text"`

	// Title is a short description of the finding.
	Title string `json:"title"`

	// Description provides more detail about the finding.
	Description string `json:"description,omitempty"`

	// Impact explains the security implications of this finding.
	Impact string `json:"impact,omitempty"`

	// Recommendation provides guidance on how to address this finding.
	Recommendation string `json:"recommendation,omitempty"`

	// Value is the specific value found (port number, account name, digest).
	Value string `json:"value,omitempty"`

	// Location is where the finding was discovered (file path, host:port).
	Location string `json:"location,omitempty"`

	// ControlID links the finding back to the policy control that produced it.
	ControlID string `json:"control_id,omitempty"`
}

// NewFinding creates a Finding of the given type, filling severity, impact
// and recommendation from the central catalog.
func NewFinding(findingType, title, value, location string) Finding {
	info := GetFindingInfo(findingType)
	return Finding{
		Type:           findingType,
		Severity:       info.Severity,
		SeverityText:   info.Severity.String(),
		Title:          title,
		Impact:         info.Impact,
		Recommendation: info.Recommendation,
		Value:          value,
		Location:       location,
	}
}
