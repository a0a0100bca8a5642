package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestWriteTemplate(t *testing.T) {
	t.Parallel()

	t.Run("writes the embedded config template", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".hostaudit")
		if err := writeTemplate("templates/hostaudit.yaml", path, false); err != nil {
			t.Fatalf("writeTemplate() returned error: %v", err)
		}

		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read written file: %v", err)
		}
		want, err := configTemplates.ReadFile("templates/hostaudit.yaml")
		if err != nil {
			t.Fatalf("failed to read embedded template: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Error("written file differs from the embedded template")
		}
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".hostaudit")
		if err := os.WriteFile(path, []byte("keep me"), 0600); err != nil {
			t.Fatalf("failed to seed existing file: %v", err)
		}

		err := writeTemplate("templates/hostaudit.yaml", path, false)
		if err == nil {
			t.Fatal("expected error for existing file, got nil")
		}
		if !strings.Contains(err.Error(), "use -f to overwrite") {
			t.Errorf("error = %v, want the overwrite hint", err)
		}

		got, _ := os.ReadFile(path)
		if string(got) != "keep me" {
			t.Error("existing file was modified")
		}
	})

	t.Run("force replaces an existing file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".hostaudit")
		if err := os.WriteFile(path, []byte("old content"), 0600); err != nil {
			t.Fatalf("failed to seed existing file: %v", err)
		}

		if err := writeTemplate("templates/hostaudit.yaml", path, true); err != nil {
			t.Fatalf("writeTemplate() returned error: %v", err)
		}
		got, _ := os.ReadFile(path)
		if string(got) == "old content" {
			t.Error("force should replace the existing file")
		}
	})

	t.Run("creates missing parent directories", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")
		if err := writeTemplate("templates/hostaudit.yaml", path, false); err != nil {
			t.Fatalf("writeTemplate() returned error: %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("written file missing: %v", err)
		}
	})

	t.Run("unknown template name errors", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "out.yaml")
		if err := writeTemplate("templates/missing.yaml", path, false); err == nil {
			t.Error("expected error for unknown template, got nil")
		}
	})
}

func TestEmbeddedTemplatesAreValidYAML(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"templates/hostaudit.yaml", "templates/policy.yaml"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			content, err := configTemplates.ReadFile(name)
			if err != nil {
				t.Fatalf("failed to read embedded template: %v", err)
			}
			var doc map[string]any
			if err := yaml.Unmarshal(content, &doc); err != nil {
				t.Errorf("template is not valid YAML: %v", err)
			}
		})
	}
}

func TestInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("writes the config to the output flag path", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "myconfig.yaml")
		cmd := NewInitCmd()
		cmd.SetArgs([]string{"-o", path})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("Execute() returned error: %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("config file missing: %v", err)
		}
	})

	t.Run("fails when the target already exists", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "myconfig.yaml")
		if err := os.WriteFile(path, []byte("existing"), 0600); err != nil {
			t.Fatalf("failed to seed existing file: %v", err)
		}

		cmd := NewInitCmd()
		cmd.SetArgs([]string{"-o", path})
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true

		if err := cmd.Execute(); err == nil {
			t.Error("expected error for existing file, got nil")
		}
	})
}
