package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hostaudit/hostaudit/internal/model"
)

func TestJSONWriterWrite(t *testing.T) {
	t.Parallel()

	t.Run("compact output round-trips", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		n, err := w.Write(reportFixture())
		if err != nil {
			t.Fatalf("Write() returned error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("Write() = %d bytes, want %d", n, buf.Len())
		}
		if !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
			t.Error("output should end with a newline")
		}

		var got model.AuditReport
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if got.Host != "web01" || got.PolicyName != "baseline" {
			t.Errorf("round-trip identity = %s/%s, want web01/baseline", got.Host, got.PolicyName)
		}
		if len(got.Results) != 3 {
			t.Errorf("got %d results, want 3", len(got.Results))
		}
		if got.Summary == nil || got.Summary.CriticalCount != 1 {
			t.Errorf("summary = %+v, want one critical finding", got.Summary)
		}
	})

	t.Run("pretty printing indents the output", func(t *testing.T) {
		t.Parallel()

		var compact, pretty bytes.Buffer
		if _, err := NewJSONWriter(&compact).Write(reportFixture()); err != nil {
			t.Fatalf("Write() returned error: %v", err)
		}
		if _, err := NewJSONWriter(&pretty, WithPrettyPrint()).Write(reportFixture()); err != nil {
			t.Fatalf("Write() returned error: %v", err)
		}

		if !strings.Contains(pretty.String(), "\n  \"") {
			t.Error("pretty output should be indented")
		}
		if pretty.Len() <= compact.Len() {
			t.Error("pretty output should be larger than compact output")
		}
	})

	t.Run("summary only", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteSummary(reportFixture().Summary); err != nil {
			t.Fatalf("WriteSummary() returned error: %v", err)
		}

		var got model.Summary
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if got.PassCount != 1 || got.FailCount != 1 {
			t.Errorf("counts = pass %d fail %d, want 1 and 1", got.PassCount, got.FailCount)
		}
	})
}

func TestFullJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewFullJSONWriter(&buf, "1.2.3")

	if _, err := w.Write(reportFixture()); err != nil {
		t.Fatalf("Write() returned error: %v", err)
	}

	var got JSONReport
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if got.Version != "1.2.3" {
		t.Errorf("Version = %q, want 1.2.3", got.Version)
	}
	if got.Report == nil || got.Report.Host != "web01" {
		t.Errorf("Report = %+v, want the wrapped report", got.Report)
	}
	if got.Summary == nil {
		t.Error("Summary should be carried alongside the report")
	}
}
