package check

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hostaudit/hostaudit/internal/model"
	"github.com/hostaudit/hostaudit/internal/policy"
)

func TestFileHashChecker(t *testing.T) {
	t.Parallel()

	checker := NewFileHashChecker()

	t.Run("Type returns file_hash", func(t *testing.T) {
		t.Parallel()

		if got := checker.Type(); got != policy.CheckFileHash {
			t.Errorf("Type() = %q, want %q", got, policy.CheckFileHash)
		}
	})

	t.Run("matching digest passes", func(t *testing.T) {
		t.Parallel()

		content := "Defaults env_reset\n"
		path := writeFixture(t, "sudoers", content)
		sum := sha256.Sum256([]byte(content))

		control := &policy.Control{
			Target:   path,
			Expected: hex.EncodeToString(sum[:]),
		}
		result, err := checker.Check(context.Background(), control)
		if err != nil {
			t.Fatalf("Check() returned error: %v", err)
		}
		if result.Status != model.StatusPass {
			t.Errorf("Status = %v, want StatusPass (message: %s)", result.Status, result.Message)
		}
		if result.Actual != control.Expected {
			t.Errorf("Actual = %q, want %q", result.Actual, control.Expected)
		}
	})

	t.Run("digest comparison ignores case", func(t *testing.T) {
		t.Parallel()

		content := "data"
		path := writeFixture(t, "f", content)
		sum := sha256.Sum256([]byte(content))

		control := &policy.Control{
			Target:   path,
			Expected: strings.ToUpper(hex.EncodeToString(sum[:])),
		}
		result, err := checker.Check(context.Background(), control)
		if err != nil {
			t.Fatalf("Check() returned error: %v", err)
		}
		if result.Status != model.StatusPass {
			t.Errorf("Status = %v, want StatusPass for uppercased digest", result.Status)
		}
	})

	t.Run("mismatched digest fails with critical finding", func(t *testing.T) {
		t.Parallel()

		path := writeFixture(t, "sudoers", "tampered content\n")
		control := &policy.Control{
			ID:       "INT-001",
			Target:   path,
			Expected: "deadbeef",
		}

		result, err := checker.Check(context.Background(), control)
		if err != nil {
			t.Fatalf("Check() returned error: %v", err)
		}
		if result.Status != model.StatusFail {
			t.Errorf("Status = %v, want StatusFail", result.Status)
		}
		if len(result.Findings) != 1 {
			t.Fatalf("expected 1 finding, got %d", len(result.Findings))
		}
		f := result.Findings[0]
		if f.Type != "file_hash_mismatch" {
			t.Errorf("finding type = %q, want file_hash_mismatch", f.Type)
		}
		if f.Severity != model.SeverityCritical {
			t.Errorf("finding severity = %v, want SeverityCritical", f.Severity)
		}
	})

	t.Run("empty expected records the digest", func(t *testing.T) {
		t.Parallel()

		path := writeFixture(t, "sudoers", "Defaults env_reset\n")
		control := &policy.Control{Target: path}

		result, err := checker.Check(context.Background(), control)
		if err != nil {
			t.Fatalf("Check() returned error: %v", err)
		}
		if result.Status != model.StatusPass {
			t.Errorf("Status = %v, want StatusPass", result.Status)
		}
		if len(result.Findings) != 1 {
			t.Fatalf("expected 1 finding, got %d", len(result.Findings))
		}
		if result.Findings[0].Type != "file_digest_recorded" {
			t.Errorf("finding type = %q, want file_digest_recorded", result.Findings[0].Type)
		}
		if result.Findings[0].Value != result.Actual {
			t.Errorf("finding value = %q, want the observed digest %q",
				result.Findings[0].Value, result.Actual)
		}
	})

	t.Run("world-writable file warns", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "loose")
		if err := os.WriteFile(path, []byte("x"), 0666); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}
		// Umask may strip the world-writable bit; force it.
		if err := os.Chmod(path, 0666); err != nil {
			t.Fatalf("failed to chmod fixture: %v", err)
		}

		result, err := checker.Check(context.Background(), &policy.Control{Target: path})
		if err != nil {
			t.Fatalf("Check() returned error: %v", err)
		}
		if result.Status != model.StatusWarn {
			t.Errorf("Status = %v, want StatusWarn", result.Status)
		}
		found := false
		for _, f := range result.Findings {
			if f.Type == "world_writable_file" {
				found = true
			}
		}
		if !found {
			t.Error("expected a world_writable_file finding")
		}
	})

	t.Run("directory target is an evaluation error", func(t *testing.T) {
		t.Parallel()

		result, err := checker.Check(context.Background(), &policy.Control{Target: t.TempDir()})
		if err != nil {
			t.Fatalf("Check() returned error: %v", err)
		}
		if result.Status != model.StatusError {
			t.Errorf("Status = %v, want StatusError", result.Status)
		}
	})

	t.Run("missing target is an evaluation error", func(t *testing.T) {
		t.Parallel()

		control := &policy.Control{Target: filepath.Join(t.TempDir(), "absent")}
		result, err := checker.Check(context.Background(), control)
		if err != nil {
			t.Fatalf("Check() returned error: %v", err)
		}
		if result.Status != model.StatusError {
			t.Errorf("Status = %v, want StatusError", result.Status)
		}
	})
}

func TestNewHasher(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		algorithm string
		wantErr   bool
	}{
		{"sha256", "sha256", false},
		{"sha512", "sha512", false},
		{"blake2b", "blake2b", false},
		{"empty defaults to sha256", "", false},
		{"case-insensitive", "SHA256", false},
		{"unsupported", "md5", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, err := NewHasher(tt.algorithm)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NewHasher(%q) expected error, got nil", tt.algorithm)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewHasher(%q) returned error: %v", tt.algorithm, err)
			}
			if h == nil {
				t.Errorf("NewHasher(%q) returned nil hash", tt.algorithm)
			}
		})
	}
}

func TestHashFile(t *testing.T) {
	t.Parallel()

	t.Run("computes sha256 digest and size", func(t *testing.T) {
		t.Parallel()

		content := "hello audit\n"
		path := writeFixture(t, "f", content)
		sum := sha256.Sum256([]byte(content))

		digest, n, err := HashFile(path, "sha256")
		if err != nil {
			t.Fatalf("HashFile() returned error: %v", err)
		}
		if digest != hex.EncodeToString(sum[:]) {
			t.Errorf("digest = %q, want %q", digest, hex.EncodeToString(sum[:]))
		}
		if n != int64(len(content)) {
			t.Errorf("bytes hashed = %d, want %d", n, len(content))
		}
	})

	t.Run("algorithms produce distinct digests", func(t *testing.T) {
		t.Parallel()

		path := writeFixture(t, "f", "same input")
		sha, _, err := HashFile(path, "sha256")
		if err != nil {
			t.Fatalf("HashFile(sha256) returned error: %v", err)
		}
		blake, _, err := HashFile(path, "blake2b")
		if err != nil {
			t.Fatalf("HashFile(blake2b) returned error: %v", err)
		}
		if sha == blake {
			t.Error("sha256 and blake2b digests should differ")
		}
		if len(blake) != 64 {
			t.Errorf("blake2b-256 hex digest length = %d, want 64", len(blake))
		}
	})

	t.Run("missing file returns error", func(t *testing.T) {
		t.Parallel()

		if _, _, err := HashFile(filepath.Join(t.TempDir(), "absent"), "sha256"); err == nil {
			t.Error("expected error for missing file, got nil")
		}
	})
}
