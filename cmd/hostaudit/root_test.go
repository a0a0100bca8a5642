package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	t.Run("registers every subcommand", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()

		want := []string{"audit", "snapshot", "drift", "init", "version"}
		for _, name := range want {
			sub, _, err := cmd.Find([]string{name})
			if err != nil {
				t.Errorf("Find(%q) returned error: %v", name, err)
				continue
			}
			if sub.Name() != name {
				t.Errorf("Find(%q) resolved to %q", name, sub.Name())
			}
		}
	})

	t.Run("verbose is a persistent flag", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("verbose persistent flag is not registered")
		}
		if flag.Shorthand != "v" {
			t.Errorf("verbose shorthand = %q, want v", flag.Shorthand)
		}
	})

	t.Run("errors are silenced for the exit-code path", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()
		if !cmd.SilenceUsage || !cmd.SilenceErrors {
			t.Error("root command should silence cobra's own usage and error output")
		}
	})

	t.Run("help lists the drift workflow", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--help"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("Execute() returned error: %v", err)
		}
		help := buf.String()
		for _, name := range []string{"audit", "snapshot", "drift"} {
			if !strings.Contains(help, name) {
				t.Errorf("help output missing subcommand %q", name)
			}
		}
	})
}
