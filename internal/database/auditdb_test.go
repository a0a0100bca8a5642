package database

import (
	"context"
	"testing"
	"time"

	"github.com/hostaudit/hostaudit/internal/model"
)

// openTestDB opens a fresh database under a temp directory.
func openTestDB(t *testing.T) *AuditDB {
	t.Helper()
	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("Open() returned error: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() returned error: %v", err)
		}
	})
	return db
}

// sampleReport builds a small report with one passing and one failing control.
func sampleReport(host, policyName string) *model.AuditReport {
	report := model.NewAuditReport(policyName)
	report.Host = host
	report.AddResult(model.ControlResult{ControlID: "CFG-001", Status: model.StatusPass})
	report.AddResult(model.ControlResult{ControlID: "CFG-002", Status: model.StatusFail, Message: "diverged"})
	report.AddFinding(model.NewFinding("config_value_mismatch", "PermitRootLogin enabled", "yes", "/etc/ssh/sshd_config"))
	return report
}

func sampleSnapshot(host, label string) *model.Snapshot {
	return &model.Snapshot{
		Host:    host,
		Label:   label,
		TakenAt: time.Now(),
		Files: []model.FileRecord{
			{Path: "/etc/hosts", Algorithm: "sha256", Digest: "aa11", Size: 120, Mode: "0644"},
			{Path: "/etc/passwd", Algorithm: "sha256", Digest: "bb22", Size: 900, Mode: "0644"},
		},
		Accounts: []model.AccountRecord{
			{Name: "root", UID: 0, GID: 0, Home: "/root", Shell: "/bin/bash"},
		},
		Groups: []model.GroupRecord{
			{Name: "wheel", GID: 10, Members: []string{"alice", "bob"}},
		},
		Services: []model.ServiceRecord{
			{Name: "sshd", PID: 812},
		},
		Ports: []model.PortRecord{
			{Proto: "tcp", Port: 22, Address: "0.0.0.0"},
		},
		CronJobs: []model.CronRecord{
			{User: "root", Schedule: "0 3 * * *", Command: "/usr/bin/backup", Source: "/etc/crontab"},
		},
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates the database file when allowed", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("Open() returned error: %v", err)
		}
		defer db.Close()

		if db.Path() == "" {
			t.Error("Path() should return the database file path")
		}
	})

	t.Run("refuses to create when CreateIfNotExists is false", func(t *testing.T) {
		t.Parallel()

		opts := Options{CreateIfNotExists: false, EnableWAL: true}
		if _, err := Open(t.TempDir(), opts); err == nil {
			t.Error("expected error opening a missing database, got nil")
		}
	})
}

func TestAuditReportRoundtrip(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.SaveAuditReport(ctx, sampleReport("web01", "baseline"))
	if err != nil {
		t.Fatalf("SaveAuditReport() returned error: %v", err)
	}
	if id == 0 {
		t.Fatal("SaveAuditReport() returned zero id")
	}

	got, err := db.GetAuditReportByID(ctx, id)
	if err != nil {
		t.Fatalf("GetAuditReportByID() returned error: %v", err)
	}
	if got == nil {
		t.Fatal("GetAuditReportByID() returned nil report")
	}
	if got.Host != "web01" || got.PolicyName != "baseline" {
		t.Errorf("report identity = %s/%s, want web01/baseline", got.Host, got.PolicyName)
	}
	if len(got.Results) != 2 {
		t.Errorf("got %d results, want 2", len(got.Results))
	}
	if got.Summary == nil || got.Summary.PassCount != 1 || got.Summary.FailCount != 1 {
		t.Errorf("summary = %+v, want one pass and one fail", got.Summary)
	}
	if len(got.Summary.Findings) != 1 {
		t.Errorf("got %d findings, want 1", len(got.Summary.Findings))
	}
}

func TestGetAuditReportByIDNotFound(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	got, err := db.GetAuditReportByID(context.Background(), 9999)
	if err != nil {
		t.Fatalf("GetAuditReportByID() returned error: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil for a missing id", got)
	}
}

func TestGetAuditHistory(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	for _, r := range []*model.AuditReport{
		sampleReport("web01", "baseline"),
		sampleReport("web01", "network"),
		sampleReport("db01", "baseline"),
	} {
		if _, err := db.SaveAuditReport(ctx, r); err != nil {
			t.Fatalf("SaveAuditReport() returned error: %v", err)
		}
	}

	history, err := db.GetAuditHistory(ctx, "web01")
	if err != nil {
		t.Fatalf("GetAuditHistory() returned error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("got %d reports, want 2", len(history))
	}
	// Newest first; inserts in the same second fall back to id ordering.
	if history[0].PolicyName != "network" || history[1].PolicyName != "baseline" {
		t.Errorf("history order = [%s %s], want [network baseline]",
			history[0].PolicyName, history[1].PolicyName)
	}

	latest, err := db.GetLatestAuditReport(ctx, "web01")
	if err != nil {
		t.Fatalf("GetLatestAuditReport() returned error: %v", err)
	}
	if latest == nil || latest.PolicyName != "network" {
		t.Errorf("latest = %+v, want the network report", latest)
	}
}

func TestGetAuditHistoryWithMetadata(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.SaveAuditReport(ctx, sampleReport("web01", "baseline")); err != nil {
		t.Fatalf("SaveAuditReport() returned error: %v", err)
	}

	metas, err := db.GetAuditHistoryWithMetadata(ctx, "web01")
	if err != nil {
		t.Fatalf("GetAuditHistoryWithMetadata() returned error: %v", err)
	}
	if len(metas) != 1 {
		t.Fatalf("got %d entries, want 1", len(metas))
	}
	meta := metas[0]
	if meta.Host != "web01" || meta.PolicyName != "baseline" {
		t.Errorf("metadata identity = %s/%s, want web01/baseline", meta.Host, meta.PolicyName)
	}
	if meta.Timestamp.IsZero() {
		t.Error("Timestamp should be parsed from the stored row")
	}
	if meta.StatusSummary["pass"] != 1 || meta.StatusSummary["fail"] != 1 {
		t.Errorf("StatusSummary = %v, want pass:1 fail:1", meta.StatusSummary)
	}
}

func TestGetLatestAuditReportNoRows(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	got, err := db.GetLatestAuditReport(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("GetLatestAuditReport() returned error: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil for an unknown host", got)
	}
}

func TestListAuditedHosts(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	for _, host := range []string{"web01", "db01", "web01"} {
		if _, err := db.SaveAuditReport(ctx, sampleReport(host, "baseline")); err != nil {
			t.Fatalf("SaveAuditReport() returned error: %v", err)
		}
	}

	hosts, err := db.ListAuditedHosts(ctx)
	if err != nil {
		t.Fatalf("ListAuditedHosts() returned error: %v", err)
	}
	if len(hosts) != 2 || hosts[0] != "db01" || hosts[1] != "web01" {
		t.Errorf("hosts = %v, want [db01 web01]", hosts)
	}
}

func TestSnapshotRoundtrip(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	snap := sampleSnapshot("web01", "post-hardening")
	id, err := db.SaveSnapshot(ctx, snap)
	if err != nil {
		t.Fatalf("SaveSnapshot() returned error: %v", err)
	}
	if id == 0 {
		t.Fatal("SaveSnapshot() returned zero id")
	}
	if snap.ID != id {
		t.Errorf("snap.ID = %d, want %d written back", snap.ID, id)
	}

	got, err := db.GetSnapshot(ctx, id)
	if err != nil {
		t.Fatalf("GetSnapshot() returned error: %v", err)
	}
	if got == nil {
		t.Fatal("GetSnapshot() returned nil snapshot")
	}
	if got.Host != "web01" || got.Label != "post-hardening" {
		t.Errorf("snapshot identity = %s/%s, want web01/post-hardening", got.Host, got.Label)
	}
	if got.TakenAt.IsZero() {
		t.Error("TakenAt should round-trip through storage")
	}
	if len(got.Files) != 2 || got.Files[0].Path != "/etc/hosts" {
		t.Errorf("files = %+v, want two records sorted by path", got.Files)
	}
	if got.Files[1].Digest != "bb22" || got.Files[1].Mode != "0644" {
		t.Errorf("passwd record = %+v, want digest bb22 mode 0644", got.Files[1])
	}
	if len(got.Accounts) != 1 || got.Accounts[0].Shell != "/bin/bash" {
		t.Errorf("accounts = %+v, want the root account", got.Accounts)
	}
	if len(got.Groups) != 1 || len(got.Groups[0].Members) != 2 {
		t.Errorf("groups = %+v, want wheel with two members", got.Groups)
	}
	if len(got.Services) != 1 || got.Services[0].Name != "sshd" {
		t.Errorf("services = %+v, want sshd", got.Services)
	}
	if len(got.Ports) != 1 || got.Ports[0].Key() != "tcp/22" {
		t.Errorf("ports = %+v, want tcp/22", got.Ports)
	}
	if len(got.CronJobs) != 1 || got.CronJobs[0].Source != "/etc/crontab" {
		t.Errorf("cron jobs = %+v, want the backup entry", got.CronJobs)
	}
}

func TestGetSnapshotNotFound(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	got, err := db.GetSnapshot(context.Background(), 424242)
	if err != nil {
		t.Fatalf("GetSnapshot() returned error: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil for a missing id", got)
	}
}

func TestGetLatestSnapshots(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	for _, label := range []string{"first", "second", "third"} {
		if _, err := db.SaveSnapshot(ctx, sampleSnapshot("web01", label)); err != nil {
			t.Fatalf("SaveSnapshot() returned error: %v", err)
		}
	}
	if _, err := db.SaveSnapshot(ctx, sampleSnapshot("db01", "other-host")); err != nil {
		t.Fatalf("SaveSnapshot() returned error: %v", err)
	}

	snaps, err := db.GetLatestSnapshots(ctx, "web01", 2)
	if err != nil {
		t.Fatalf("GetLatestSnapshots() returned error: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snaps))
	}
	if snaps[0].Label != "third" || snaps[1].Label != "second" {
		t.Errorf("labels = [%s %s], want [third second]", snaps[0].Label, snaps[1].Label)
	}
	// Sections come back fully loaded.
	if len(snaps[0].Files) != 2 {
		t.Errorf("latest snapshot has %d files, want 2", len(snaps[0].Files))
	}
}

func TestListSnapshots(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.SaveSnapshot(ctx, sampleSnapshot("web01", "baseline")); err != nil {
		t.Fatalf("SaveSnapshot() returned error: %v", err)
	}

	metas, err := db.ListSnapshots(ctx, "web01")
	if err != nil {
		t.Fatalf("ListSnapshots() returned error: %v", err)
	}
	if len(metas) != 1 {
		t.Fatalf("got %d entries, want 1", len(metas))
	}
	if metas[0].Host != "web01" || metas[0].Label != "baseline" {
		t.Errorf("metadata = %+v, want web01/baseline", metas[0])
	}
	if metas[0].Timestamp.IsZero() {
		t.Error("Timestamp should be parsed from the stored row")
	}
}

func TestDeleteSnapshot(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.SaveSnapshot(ctx, sampleSnapshot("web01", "doomed"))
	if err != nil {
		t.Fatalf("SaveSnapshot() returned error: %v", err)
	}

	if err := db.DeleteSnapshot(ctx, id); err != nil {
		t.Fatalf("DeleteSnapshot() returned error: %v", err)
	}

	got, err := db.GetSnapshot(ctx, id)
	if err != nil {
		t.Fatalf("GetSnapshot() returned error: %v", err)
	}
	if got != nil {
		t.Errorf("snapshot %d still present after delete", id)
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		zero  bool
	}{
		{"sqlite default", "2026-08-30 14:02:11", false},
		{"iso with zone", "2026-08-30T14:02:11Z", false},
		{"rfc3339", "2026-08-30T14:02:11+02:00", false},
		{"garbage", "yesterday", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := parseTimestamp(tt.input)
			if got.IsZero() != tt.zero {
				t.Errorf("parseTimestamp(%q) = %v, want zero=%v", tt.input, got, tt.zero)
			}
		})
	}
}
