package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("loads defaults, policies and snapshot paths", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".hostaudit")
		content := `
defaults:
  passwd: /mnt/image/etc/passwd
  systemCrontab: /mnt/image/etc/crontab
  algorithm: blake2b
policies:
  network-baseline:
    proxy: "127.0.0.1:1080"
    concurrency: 64
snapshotPaths:
  - /etc
  - /usr/local/bin
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config fixture: %v", err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile() returned error: %v", err)
		}
		if cf.Defaults.Passwd != "/mnt/image/etc/passwd" {
			t.Errorf("Defaults.Passwd = %q, unexpected", cf.Defaults.Passwd)
		}
		if cf.Defaults.SystemCrontab != "/mnt/image/etc/crontab" {
			t.Errorf("Defaults.SystemCrontab = %q, unexpected", cf.Defaults.SystemCrontab)
		}
		if cf.Defaults.Algorithm != "blake2b" {
			t.Errorf("Defaults.Algorithm = %q, want blake2b", cf.Defaults.Algorithm)
		}
		paths := cf.PathsFor("network-baseline")
		if paths.Proxy != "127.0.0.1:1080" || paths.Concurrency != 64 {
			t.Errorf("network-baseline overrides = %+v, unexpected", paths)
		}
		if len(cf.SnapshotPaths) != 2 || cf.SnapshotPaths[0] != "/etc" {
			t.Errorf("SnapshotPaths = %v, want [/etc /usr/local/bin]", cf.SnapshotPaths)
		}
	})

	t.Run("empty file yields initialized maps", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".hostaudit")
		if err := os.WriteFile(path, []byte(""), 0600); err != nil {
			t.Fatalf("failed to write config fixture: %v", err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile() returned error: %v", err)
		}
		if cf.Policies == nil {
			t.Error("Policies map should be initialized")
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("LoadConfigFile() = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("malformed YAML returns error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".hostaudit")
		if err := os.WriteFile(path, []byte("defaults: [broken"), 0600); err != nil {
			t.Fatalf("failed to write config fixture: %v", err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected parse error, got nil")
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit existing path is returned", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.hostaudit")
		if err := os.WriteFile(path, []byte(""), 0600); err != nil {
			t.Fatalf("failed to write config fixture: %v", err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("FindConfigFile(%q) = %q, want the same path", path, got)
		}
	})

	t.Run("explicit missing path yields empty", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "absent")
		if got := FindConfigFile(path); got != "" {
			t.Errorf("FindConfigFile(%q) = %q, want empty", path, got)
		}
	})
}
