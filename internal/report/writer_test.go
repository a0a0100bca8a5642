package report

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/hostaudit/hostaudit/internal/model"
)

// reportFixture builds a report with mixed results and findings, shared by
// the writer tests in this package.
func reportFixture() *model.AuditReport {
	report := model.NewAuditReport("baseline")
	report.Host = "web01"
	report.DateAudited = time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)

	report.AddResult(model.ControlResult{
		ControlID: "CFG-001",
		Title:     "Root login disabled",
		Status:    model.StatusPass,
	})
	report.AddResult(model.ControlResult{
		ControlID:   "CFG-002",
		Title:       "Password authentication disabled",
		Status:      model.StatusFail,
		Message:     "parameter diverges from required value",
		Expected:    "no",
		Actual:      "yes",
		Remediation: "Set PasswordAuthentication no and reload sshd.",
	})
	report.AddResult(model.ControlResult{
		ControlID: "PRT-001",
		Title:     "Telnet port closed",
		Status:    model.StatusError,
		Message:   "no ports configured",
	})

	report.AddFinding(model.NewFinding(
		"config_value_mismatch",
		"Configuration parameter diverges from policy",
		"yes",
		"/etc/ssh/sshd_config",
	))
	report.AddFinding(model.NewFinding(
		"empty_password_field",
		"Account has an empty password field",
		"backdoor",
		"/etc/passwd",
	))
	return report
}

// failingWriter always returns an error, for MultiWriter error propagation.
type failingWriter struct{}

func (failingWriter) Write(*model.AuditReport) (int, error) {
	return 0, errors.New("destination unavailable")
}

func (failingWriter) WriteSummary(*model.Summary) (int, error) {
	return 0, errors.New("destination unavailable")
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to every destination", func(t *testing.T) {
		t.Parallel()

		var first, second bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&first), NewJSONWriter(&second))

		n, err := mw.Write(reportFixture())
		if err != nil {
			t.Fatalf("Write() returned error: %v", err)
		}
		if n != first.Len()+second.Len() {
			t.Errorf("Write() = %d bytes, want %d", n, first.Len()+second.Len())
		}
		if first.Len() == 0 || second.Len() == 0 {
			t.Error("both destinations should receive output")
		}
	})

	t.Run("stops on the first failing destination", func(t *testing.T) {
		t.Parallel()

		var untouched bytes.Buffer
		mw := NewMultiWriter(failingWriter{}, NewSimpleWriter(&untouched))

		if _, err := mw.Write(reportFixture()); err == nil {
			t.Error("expected error from failing destination, got nil")
		}
		if untouched.Len() != 0 {
			t.Error("writers after the failing one should not run")
		}
	})

	t.Run("summary fans out the same way", func(t *testing.T) {
		t.Parallel()

		var first, second bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&first), NewSimpleWriter(&second))

		if _, err := mw.WriteSummary(reportFixture().Summary); err != nil {
			t.Fatalf("WriteSummary() returned error: %v", err)
		}
		if first.String() != second.String() {
			t.Error("both destinations should receive identical output")
		}
	})
}
