package check

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hostaudit/hostaudit/internal/model"
	"github.com/hostaudit/hostaudit/internal/policy"
)

// ConfigValueChecker verifies that a configuration parameter in a key/value
// style file carries the value the policy requires. It understands both
// "KEY VALUE" files (login.defs, sshd_config) and "key=value" files
// (sysctl.conf, environment files).
//
// Design decision: We parse line by line rather than using a config library
// because:
//  1. The audited files follow no single format; only the key/value shape
//     is common to all of them
//  2. We must tolerate malformed lines without failing the whole check
//  3. The first occurrence wins, matching how most daemons read their config
type ConfigValueChecker struct{}

// NewConfigValueChecker creates a new configuration value checker.
func NewConfigValueChecker() *ConfigValueChecker {
	return &ConfigValueChecker{}
}

// Type returns the check type name.
func (c *ConfigValueChecker) Type() string {
	return policy.CheckConfigValue
}

// Check reads the target file and compares the named parameter to the
// expected value. A missing parameter and a mismatched value both fail the
// control; an unreadable file is an evaluation error.
func (c *ConfigValueChecker) Check(ctx context.Context, control *policy.Control) (*CheckResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := NewCheckResult()
	result.Expected = control.Expected

	if control.Parameter == "" {
		result.Status = model.StatusError
		result.Message = "control has no parameter to look up"
		return result, nil
	}

	file, err := os.Open(control.Target) //nolint:gosec // Policy-provided path is intentional
	if err != nil {
		result.Status = model.StatusError
		result.Message = fmt.Sprintf("cannot read %s: %v", control.Target, err)
		return result, nil
	}
	defer file.Close()

	value, found, err := findParameter(file, control.Parameter)
	if err != nil {
		result.Status = model.StatusError
		result.Message = fmt.Sprintf("cannot scan %s: %v", control.Target, err)
		return result, nil
	}

	if !found {
		result.Fail(fmt.Sprintf("%s is not set in %s", control.Parameter, control.Target))
		f := model.NewFinding("config_parameter_missing",
			fmt.Sprintf("%s is not set", control.Parameter),
			control.Parameter, control.Target)
		result.AddFinding(bindFinding(control, f))
		return result, nil
	}

	result.Actual = value
	if !strings.EqualFold(value, control.Expected) {
		result.Fail(fmt.Sprintf("%s is %q, expected %q", control.Parameter, value, control.Expected))
		result.AddFinding(bindFinding(control, mismatchFinding(control, value)))
		return result, nil
	}

	result.Pass(fmt.Sprintf("%s is %q as required", control.Parameter, value))
	return result, nil
}

// findParameter scans a key/value file for the first occurrence of the
// parameter. Comments and blank lines are skipped; both whitespace and "="
// separators are accepted; surrounding quotes on the value are stripped.
func findParameter(file *os.File, parameter string) (string, bool, error) {
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		key, value, ok := splitKeyValue(line)
		if !ok {
			continue
		}
		if key == parameter {
			return value, true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", false, err
	}
	return "", false, nil
}

// splitKeyValue splits a config line into key and value.
// Supports "KEY VALUE", "KEY=VALUE" and "KEY = VALUE" forms.
func splitKeyValue(line string) (key, value string, ok bool) {
	if idx := strings.Index(line, "="); idx != -1 {
		key = strings.TrimSpace(line[:idx])
		value = strings.TrimSpace(line[idx+1:])
	} else {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return "", "", false
		}
		key = fields[0]
		value = strings.Join(fields[1:], " ")
	}
	if key == "" {
		return "", "", false
	}
	value = strings.Trim(value, `"'`)
	return key, value, true
}

// weakHashNames are password-hashing algorithm names considered breakable.
var weakHashNames = map[string]bool{
	"md5":    true,
	"des":    true,
	"sha1":   true,
	"crypt":  true,
	"bsdi":   true,
	"nt":     true,
	"sunmd5": true,
}

// mismatchFinding builds the finding for a diverged parameter.
// When the observed value names a weak password-hashing algorithm, the
// finding is upgraded to the dedicated weak-algorithm type.
func mismatchFinding(control *policy.Control, actual string) model.Finding {
	location := fmt.Sprintf("%s (%s)", control.Target, control.Parameter)
	if weakHashNames[strings.ToLower(actual)] {
		return model.NewFinding("weak_hash_algorithm",
			fmt.Sprintf("Weak password hashing algorithm %q configured", actual),
			actual, location)
	}
	return model.NewFinding("config_value_mismatch",
		fmt.Sprintf("%s diverges from the baseline", control.Parameter),
		actual, location)
}
