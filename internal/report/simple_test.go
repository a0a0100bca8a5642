package report

import (
	"bytes"
	"strings"
	"testing"
)

func TestSimpleWriterWrite(t *testing.T) {
	t.Parallel()

	t.Run("renders header, controls and findings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		n, err := w.Write(reportFixture())
		if err != nil {
			t.Fatalf("Write() returned error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("Write() = %d bytes, want %d", n, buf.Len())
		}

		out := buf.String()
		for _, want := range []string{
			"HOST AUDIT REPORT",
			"Host:       web01",
			"Policy:     baseline",
			"Status:     Complete",
			"[PASS ] CFG-001: Root login disabled",
			"[FAIL ] CFG-002: Password authentication disabled",
			"[ERROR] PRT-001: Telnet port closed",
			"Remediation: Set PasswordAuthentication no and reload sshd.",
			"PASS:  1",
			"FAIL:  1",
			"ERROR: 1",
			"CRITICAL: 1",
			"FINDINGS",
			"[!!!] CRITICAL",
			"Account has an empty password field",
			"Location: /etc/passwd",
			"Report generated by hostaudit",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q", want)
			}
		}
	})

	t.Run("verbose mode shows expected and actual values", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))
		if _, err := w.Write(reportFixture()); err != nil {
			t.Fatalf("Write() returned error: %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, "Expected: no") || !strings.Contains(out, "Actual:   yes") {
			t.Error("verbose output should include expected and actual values")
		}
	})

	t.Run("default mode hides expected and actual values", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(reportFixture()); err != nil {
			t.Fatalf("Write() returned error: %v", err)
		}
		if strings.Contains(buf.String(), "Expected: no") {
			t.Error("non-verbose output should omit expected values")
		}
	})

	t.Run("timed out report is flagged in the header", func(t *testing.T) {
		t.Parallel()

		report := reportFixture()
		report.TimedOut = true

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatalf("Write() returned error: %v", err)
		}
		if !strings.Contains(buf.String(), "TIMED OUT (partial results)") {
			t.Error("timed out report should be flagged in the header")
		}
	})

	t.Run("empty severity sections appear with showEmpty", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithShowEmpty(true))
		if _, err := w.Write(reportFixture()); err != nil {
			t.Fatalf("Write() returned error: %v", err)
		}
		// The fixture has no low severity findings.
		if !strings.Contains(buf.String(), "[-] LOW") {
			t.Error("showEmpty should render severity sections without findings")
		}
	})
}

func TestSimpleWriterWriteSummary(t *testing.T) {
	t.Parallel()

	t.Run("renders only the summary view", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		if _, err := w.WriteSummary(reportFixture().Summary); err != nil {
			t.Fatalf("WriteSummary() returned error: %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, "HOST AUDIT SUMMARY") {
			t.Error("output missing the summary banner")
		}
		if strings.Contains(out, "CONTROLS") {
			t.Error("summary view should not list individual controls")
		}
	})

	t.Run("nil summary renders a placeholder", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteSummary(nil); err != nil {
			t.Fatalf("WriteSummary() returned error: %v", err)
		}
		if !strings.Contains(buf.String(), "No controls evaluated") {
			t.Error("nil summary should render a placeholder")
		}
	})
}
