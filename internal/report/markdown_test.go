package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hostaudit/hostaudit/internal/model"
)

func TestMarkdownWriterWrite(t *testing.T) {
	t.Parallel()

	t.Run("renders tables with status badges", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(reportFixture()); err != nil {
			t.Fatalf("Write() returned error: %v", err)
		}

		out := buf.String()
		for _, want := range []string{
			"# Host Audit Report",
			"`web01`",
			"✅ Complete",
			"## Controls",
			"CFG-001",
			"✅ PASS",
			"❌ FAIL",
			"🛑 ERROR",
			"## Summary",
			"## Findings",
			"### 🔴 Critical",
			"Account has an empty password field",
			"Report generated by hostaudit",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q", want)
			}
		}
	})

	t.Run("critical findings produce a caution alert and pie chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(reportFixture()); err != nil {
			t.Fatalf("Write() returned error: %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, "[!CAUTION]") {
			t.Error("critical findings should render a caution alert")
		}
		if !strings.Contains(out, "```mermaid") || !strings.Contains(out, "pie") {
			t.Error("findings should render a mermaid pie chart")
		}
	})

	t.Run("clean report renders a tip alert", func(t *testing.T) {
		t.Parallel()

		report := model.NewAuditReport("baseline")
		report.AddResult(model.ControlResult{ControlID: "CFG-001", Status: model.StatusPass})

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("Write() returned error: %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, "[!TIP]") {
			t.Error("a clean report should render a tip alert")
		}
		if !strings.Contains(out, "No findings recorded.") {
			t.Error("a clean report should state that no findings exist")
		}
	})

	t.Run("summary view renders without controls", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteSummary(reportFixture().Summary); err != nil {
			t.Fatalf("WriteSummary() returned error: %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, "# Host Audit Summary") {
			t.Error("output missing the summary heading")
		}
		if strings.Contains(out, "## Controls") {
			t.Error("summary view should not include the controls section")
		}
	})
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short string unchanged", "hello", 10, "hello"},
		{"exact length unchanged", "hello", 5, "hello"},
		{"long string gets ellipsis", "hello world", 8, "hello..."},
		{"tiny budget has no room for ellipsis", "hello", 2, "he"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := truncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}
