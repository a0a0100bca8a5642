package check

import (
	"context"

	"github.com/hostaudit/hostaudit/internal/model"
	"github.com/hostaudit/hostaudit/internal/policy"
)

// Checker defines the interface for check-type-specific evaluators.
// Each check type implementation must provide this interface to be used
// in the audit pipeline.
//
// Design decision: We use an interface rather than a concrete type because:
//  1. Different check types require vastly different implementations
//  2. Allows for easy mocking in tests
//  3. Enables check plugins in the future
//  4. Pipeline can treat all check types uniformly
type Checker interface {
	// Check evaluates a single policy control and returns its result.
	//
	// The context should be used for cancellation and timeouts.
	// Implementations must respect context cancellation.
	Check(ctx context.Context, control *policy.Control) (*CheckResult, error)

	// Type returns the check type this checker evaluates
	// (e.g., "config_value", "port_state").
	Type() string
}

// CheckResult contains the outcome of evaluating one control.
// It aggregates the pass/fail status with any findings raised along the way.
//
// Design decision: We use a generic result type rather than check-specific
// results because:
//  1. The pipeline needs a uniform way to collect results
//  2. Common fields like status and expected/actual apply to all checks
//  3. Check-specific data can be stored in the Metadata map
type CheckResult struct {
	// Status is the control outcome (pass, warn, fail, error, skip).
	Status model.Status

	// Message describes the outcome in one human-readable line.
	Message string

	// Expected is the value the control demanded, rendered as text.
	Expected string

	// Actual is the value observed on the host, rendered as text.
	Actual string

	// Findings contains security findings from this check.
	// A failed control usually produces at least one finding; a passing
	// control may still produce informational ones.
	Findings []model.Finding

	// Metadata contains check-specific additional data.
	// This allows checks to store custom information without
	// modifying the CheckResult structure.
	Metadata map[string]interface{}
}

// NewCheckResult creates a new CheckResult with initialized maps.
// This ensures Metadata is never nil, avoiding nil pointer dereferences.
func NewCheckResult() *CheckResult {
	return &CheckResult{
		Status:   model.StatusPass,
		Findings: make([]model.Finding, 0),
		Metadata: make(map[string]interface{}),
	}
}

// Fail marks the result as failed with the given message.
func (r *CheckResult) Fail(message string) {
	r.Status = model.StatusFail
	r.Message = message
}

// Warn marks the result as a warning unless it already failed.
func (r *CheckResult) Warn(message string) {
	if r.Status == model.StatusFail || r.Status == model.StatusError {
		return
	}
	r.Status = model.StatusWarn
	r.Message = message
}

// Pass marks the result as passed with the given message.
// It does not downgrade an existing failure.
func (r *CheckResult) Pass(message string) {
	if r.Status != model.StatusPass {
		return
	}
	r.Message = message
}

// AddFinding adds a security finding to the check result.
// This is a convenience method that handles nil slices.
func (r *CheckResult) AddFinding(f model.Finding) {
	if r.Findings == nil {
		r.Findings = make([]model.Finding, 0)
	}
	r.Findings = append(r.Findings, f)
}

// SetMetadata sets a metadata value for the given key.
// This is a convenience method that handles nil maps.
func (r *CheckResult) SetMetadata(key string, value interface{}) {
	if r.Metadata == nil {
		r.Metadata = make(map[string]interface{})
	}
	r.Metadata[key] = value
}

// bindFinding ties a catalog finding to the control that produced it.
// Policy authors may override the catalog severity and remediation per control.
func bindFinding(control *policy.Control, f model.Finding) model.Finding {
	f.ControlID = control.ID
	if control.Severity != "" {
		f.Severity = model.ParseSeverity(control.Severity)
		f.SeverityText = f.Severity.String()
	}
	if control.Remediation != "" {
		f.Recommendation = control.Remediation
	}
	return f
}
