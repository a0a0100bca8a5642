package main

import (
	"bytes"
	"strings"
	"testing"
)

// These tests mutate the build-time variables, so they must not run in
// parallel with each other.

func TestGetVersion(t *testing.T) {
	orig := version
	t.Cleanup(func() { version = orig })

	version = "v1.2.3"
	if got := getVersion(); got != "v1.2.3" {
		t.Errorf("getVersion() = %q, want the ldflags value", got)
	}

	version = ""
	if got := getVersion(); got == "" {
		t.Error("getVersion() should fall back to build info or (devel)")
	}
}

func TestGetCommit(t *testing.T) {
	orig := commit
	t.Cleanup(func() { commit = orig })

	commit = "abc1234"
	if got := getCommit(); got != "abc1234" {
		t.Errorf("getCommit() = %q, want the ldflags value", got)
	}

	commit = ""
	if got := getCommit(); got == "" {
		t.Error("getCommit() should fall back to build info or unknown")
	}
}

func TestGetDate(t *testing.T) {
	orig := date
	t.Cleanup(func() { date = orig })

	date = "2026-08-30"
	if got := getDate(); got != "2026-08-30" {
		t.Errorf("getDate() = %q, want the ldflags value", got)
	}

	date = ""
	if got := getDate(); got == "" {
		t.Error("getDate() should fall back to build info or unknown")
	}
}

func TestVersionCmd(t *testing.T) {
	orig := version
	t.Cleanup(func() { version = orig })
	version = "v9.9.9"

	cmd := NewVersionCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() returned error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "hostaudit version v9.9.9") {
		t.Errorf("output missing version line: %q", out)
	}
	if !strings.Contains(out, "commit:") || !strings.Contains(out, "built:") {
		t.Errorf("output missing commit or build date: %q", out)
	}
}
