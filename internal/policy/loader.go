package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a policy file.
// If the file does not exist, it returns ErrPolicyNotFound so callers can
// distinguish a missing file from a malformed one.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided policy path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrPolicyNotFound, path)
		}
		return nil, err
	}

	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse policy %s: %w", path, err)
	}
	p.Path = path

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy %s: %w", path, err)
	}

	return &p, nil
}

// LoadAll loads and validates multiple policy files.
// It fails on the first invalid file: auditing against a partially loaded
// policy set would produce a misleading report.
func LoadAll(paths []string) ([]*Policy, error) {
	policies := make([]*Policy, 0, len(paths))
	for _, path := range paths {
		p, err := Load(path)
		if err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	return policies, nil
}
