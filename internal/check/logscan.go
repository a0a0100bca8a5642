package check

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/hostaudit/hostaudit/internal/model"
	"github.com/hostaudit/hostaudit/internal/policy"
)

// LogPatternChecker scans a log file for a regular expression and fails the
// control when the number of matching lines reaches the policy threshold.
// The canonical use is detecting bursts of failed logins in auth logs, but
// any line-oriented log and pattern works.
//
// Design decision: We count matching lines rather than total matches because
// log events are line-oriented; a single noisy line should count once.
type LogPatternChecker struct{}

// NewLogPatternChecker creates a new log pattern checker.
func NewLogPatternChecker() *LogPatternChecker {
	return &LogPatternChecker{}
}

// Type returns the check type name.
func (c *LogPatternChecker) Type() string {
	return policy.CheckLogPattern
}

// Check scans the target log for the control's pattern.
// With a threshold of N, the control fails once N matching lines are seen.
// A zero threshold means any match fails. Matches below the threshold
// produce a warning with a low-severity finding so trends stay visible.
func (c *LogPatternChecker) Check(ctx context.Context, control *policy.Control) (*CheckResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := NewCheckResult()

	if control.Pattern == "" {
		result.Status = model.StatusError
		result.Message = "control has no pattern to match"
		return result, nil
	}
	re, err := regexp.Compile(control.Pattern)
	if err != nil {
		result.Status = model.StatusError
		result.Message = fmt.Sprintf("invalid pattern: %v", err)
		return result, nil
	}

	file, err := os.Open(control.Target) //nolint:gosec // Policy-provided path is intentional
	if err != nil {
		result.Status = model.StatusError
		result.Message = fmt.Sprintf("cannot read %s: %v", control.Target, err)
		return result, nil
	}
	defer file.Close()

	matches := 0
	lineNo := 0
	lastMatch := ""
	lastMatchLine := 0

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lineNo++
		line := decodeLogLine(scanner.Bytes())
		if re.MatchString(line) {
			matches++
			lastMatch = line
			lastMatchLine = lineNo
		}
	}
	if err := scanner.Err(); err != nil {
		result.Status = model.StatusError
		result.Message = fmt.Sprintf("cannot scan %s: %v", control.Target, err)
		return result, nil
	}

	result.Actual = strconv.Itoa(matches)
	result.SetMetadata("lines_scanned", lineNo)

	threshold := control.Threshold
	if threshold <= 0 {
		threshold = 1
	}
	result.Expected = fmt.Sprintf("fewer than %d matches", threshold)

	switch {
	case matches >= threshold:
		result.Fail(fmt.Sprintf("pattern matched %d lines in %s (threshold %d)", matches, control.Target, threshold))
		result.AddFinding(bindFinding(control, thresholdFinding(control, matches, lastMatchLine)))
		result.SetMetadata("last_match", lastMatch)
	case matches > 0:
		result.Warn(fmt.Sprintf("pattern matched %d lines in %s, below threshold %d", matches, control.Target, threshold))
		f := model.NewFinding("log_pattern_seen",
			fmt.Sprintf("Watched pattern appeared %d times below threshold", matches),
			strconv.Itoa(matches), fmt.Sprintf("%s:%d", control.Target, lastMatchLine))
		result.AddFinding(bindFinding(control, f))
	default:
		result.Pass(fmt.Sprintf("pattern not found in %s", control.Target))
	}
	return result, nil
}

// decodeLogLine returns the line as a string, decoding Latin-1 when the raw
// bytes are not valid UTF-8. Old syslog daemons and serial consoles still
// write 8-bit text, and a scanner that drops those lines would hide exactly
// the events worth finding.
func decodeLogLine(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

// thresholdFinding builds the finding for a pattern at or over threshold.
// Auth-related targets and patterns map to the failed-login type; everything
// else stays a generic threshold breach.
func thresholdFinding(control *policy.Control, matches, line int) model.Finding {
	location := fmt.Sprintf("%s:%d", control.Target, line)
	haystack := strings.ToLower(control.Target + " " + control.Pattern + " " + control.Title)
	if strings.Contains(haystack, "auth") || strings.Contains(haystack, "login") ||
		strings.Contains(haystack, "sshd") || strings.Contains(haystack, "fail") {
		return model.NewFinding("failed_login_burst",
			fmt.Sprintf("Authentication failures reached threshold (%d matches)", matches),
			strconv.Itoa(matches), location)
	}
	return model.NewFinding("log_pattern_threshold",
		fmt.Sprintf("Watched log pattern reached threshold (%d matches)", matches),
		strconv.Itoa(matches), location)
}
