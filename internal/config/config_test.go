package config

import (
	"errors"
	"testing"
	"time"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Timeout is 5 seconds", func(t *testing.T) {
		t.Parallel()

		if cfg.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
		}
	})

	t.Run("default Concurrency is 16", func(t *testing.T) {
		t.Parallel()

		if cfg.Concurrency != 16 {
			t.Errorf("Concurrency = %d, want 16", cfg.Concurrency)
		}
	})

	t.Run("default HashAlgorithm is sha256", func(t *testing.T) {
		t.Parallel()

		if cfg.HashAlgorithm != "sha256" {
			t.Errorf("HashAlgorithm = %q, want sha256", cfg.HashAlgorithm)
		}
	})

	t.Run("Overrides is initialized", func(t *testing.T) {
		t.Parallel()

		if cfg.Overrides == nil {
			t.Fatal("Overrides should not be nil")
		}
		if cfg.Overrides.Policies == nil {
			t.Error("Overrides.Policies should be initialized")
		}
	})
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	// validConfig returns a config that passes validation.
	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.PolicyFiles = []string{"baseline.yaml"}
		return cfg
	}

	t.Run("valid config passes", func(t *testing.T) {
		t.Parallel()

		if err := validConfig().Validate(); err != nil {
			t.Errorf("Validate() returned error: %v", err)
		}
	})

	t.Run("no policy files", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.PolicyFiles = nil
		if err := cfg.Validate(); !errors.Is(err, ErrNoPolicy) {
			t.Errorf("Validate() = %v, want ErrNoPolicy", err)
		}
	})

	t.Run("non-positive timeout", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.Timeout = 0
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidTimeout) {
			t.Errorf("Validate() = %v, want ErrInvalidTimeout", err)
		}
	})

	t.Run("non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.Concurrency = -1
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConcurrency) {
			t.Errorf("Validate() = %v, want ErrInvalidConcurrency", err)
		}
	})

	t.Run("conflicting report formats", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.JSONReport = true
		cfg.MarkdownReport = true
		if err := cfg.Validate(); !errors.Is(err, ErrConflictingReportFormats) {
			t.Errorf("Validate() = %v, want ErrConflictingReportFormats", err)
		}
	})

	t.Run("invalid hash algorithm", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.HashAlgorithm = "md5"
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidAlgorithm) {
			t.Errorf("Validate() = %v, want ErrInvalidAlgorithm", err)
		}
	})
}

func TestValidHashAlgorithm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		algorithm string
		want      bool
	}{
		{"sha256", true},
		{"sha512", true},
		{"blake2b", true},
		{"md5", false},
		{"", false},
		{"SHA256", false},
	}

	for _, tt := range tests {
		t.Run(tt.algorithm, func(t *testing.T) {
			t.Parallel()

			if got := ValidHashAlgorithm(tt.algorithm); got != tt.want {
				t.Errorf("ValidHashAlgorithm(%q) = %v, want %v", tt.algorithm, got, tt.want)
			}
		})
	}
}

func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if dir := XDGDataDir(); dir == "" {
		t.Error("XDGDataDir() should not be empty")
	}
	if dir := XDGConfigDir(); dir == "" {
		t.Error("XDGConfigDir() should not be empty")
	}
}
