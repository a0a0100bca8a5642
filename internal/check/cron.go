package check

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hostaudit/hostaudit/internal/model"
	"github.com/hostaudit/hostaudit/internal/policy"
)

// CronEntryChecker audits scheduled tasks.
// It parses the system crontab, drop-in cron.d files and per-user crontabs,
// then matches entry commands against the control's pattern.
//
// Design decision: We parse crontab files directly rather than invoking
// crontab -l because:
//  1. crontab -l only shows the invoking user's entries; audits need all
//  2. The paths must be overridable for container roots and test fixtures
//  3. No subprocess means the tool works in minimal environments
type CronEntryChecker struct {
	// systemCrontab is the system-wide crontab, normally /etc/crontab.
	systemCrontab string

	// cronDir holds drop-in system cron files, normally /etc/cron.d.
	cronDir string

	// userCronDir holds per-user crontabs, normally /var/spool/cron/crontabs.
	userCronDir string
}

// NewCronEntryChecker creates a new scheduled-task checker reading the
// given crontab locations.
func NewCronEntryChecker(systemCrontab, cronDir, userCronDir string) *CronEntryChecker {
	return &CronEntryChecker{
		systemCrontab: systemCrontab,
		cronDir:       cronDir,
		userCronDir:   userCronDir,
	}
}

// Type returns the check type name.
func (c *CronEntryChecker) Type() string {
	return policy.CheckCronEntry
}

// Check matches scheduled-task commands against the control's pattern.
// Expected "present" requires at least one matching entry; "absent" (the
// default) fails on any match. An optional user narrows the search to one
// crontab owner.
func (c *CronEntryChecker) Check(ctx context.Context, control *policy.Control) (*CheckResult, error) {
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

	entries, err := CollectCron(c.systemCrontab, c.cronDir, c.userCronDir)
	if err != nil {
		result.Status = model.StatusError
		result.Message = fmt.Sprintf("cannot read crontabs: %v", err)
		return result, nil
	}

	user := control.CronUser()
	var matches []model.CronRecord
	for _, e := range entries {
		if user != "" && e.User != user {
			continue
		}
		if re.MatchString(e.Command) {
			matches = append(matches, e)
		}
	}
	result.SetMetadata("entries_scanned", len(entries))

	expected := strings.ToLower(strings.TrimSpace(control.Expected))
	if expected == "" {
		expected = "absent"
	}
	result.Expected = expected
	result.Actual = fmt.Sprintf("%d matching entries", len(matches))

	switch expected {
	case "absent", "missing":
		if len(matches) > 0 {
			result.Fail(fmt.Sprintf("%d scheduled task(s) match the forbidden pattern", len(matches)))
			for _, m := range matches {
				f := model.NewFinding("cron_unexpected_entry",
					fmt.Sprintf("Forbidden scheduled task for user %q", m.User),
					m.Command, m.Source)
				result.AddFinding(bindFinding(control, f))
			}
			return result, nil
		}
		result.Pass("no scheduled task matches the forbidden pattern")

	case "present", "exists":
		if len(matches) == 0 {
			result.Fail("no scheduled task matches the required pattern")
			f := model.NewFinding("cron_entry_missing",
				"Required scheduled task is not configured",
				control.Pattern, c.systemCrontab)
			result.AddFinding(bindFinding(control, f))
			return result, nil
		}
		result.Pass(fmt.Sprintf("%d scheduled task(s) match the required pattern", len(matches)))

	default:
		result.Status = model.StatusError
		result.Message = fmt.Sprintf("unknown expected cron state %q", expected)
	}
	return result, nil
}

// CollectCron gathers scheduled tasks from all three crontab locations.
// Missing files and directories are normal (many hosts have no cron.d
// drop-ins) and yield no entries rather than an error.
func CollectCron(systemCrontab, cronDir, userCronDir string) ([]model.CronRecord, error) {
	var entries []model.CronRecord

	// System crontab carries a user field per entry.
	fromFile, err := parseCrontabFile(systemCrontab, "", true)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	entries = append(entries, fromFile...)

	// Drop-in files share the system crontab format.
	dirEntries, err := os.ReadDir(cronDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	for _, de := range dirEntries {
		if de.IsDir() || strings.HasPrefix(de.Name(), ".") {
			continue
		}
		fromFile, err := parseCrontabFile(filepath.Join(cronDir, de.Name()), "", true)
		if err != nil {
			continue
		}
		entries = append(entries, fromFile...)
	}

	// Per-user crontabs are named after their owner and have no user field.
	userEntries, err := os.ReadDir(userCronDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	for _, de := range userEntries {
		if de.IsDir() || strings.HasPrefix(de.Name(), ".") {
			continue
		}
		fromFile, err := parseCrontabFile(filepath.Join(userCronDir, de.Name()), de.Name(), false)
		if err != nil {
			continue
		}
		entries = append(entries, fromFile...)
	}

	return entries, nil
}

// parseCrontabFile parses one crontab file.
// hasUserField selects the system format (schedule, user, command) over the
// per-user format (schedule, command). Comments, blank lines and variable
// assignments are skipped, as are @reboot-style shorthand schedules whose
// single-field form the schedule splitter handles separately.
func parseCrontabFile(path, owner string, hasUserField bool) ([]model.CronRecord, error) {
	file, err := os.Open(path) //nolint:gosec // Configured crontab path is intentional
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var entries []model.CronRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if isVariableAssignment(line) {
			continue
		}

		schedule, rest, ok := splitSchedule(line)
		if !ok {
			continue
		}

		user := owner
		command := rest
		if hasUserField {
			fields := strings.Fields(rest)
			if len(fields) < 2 {
				continue
			}
			user = fields[0]
			command = strings.TrimSpace(strings.TrimPrefix(rest, fields[0]))
		}
		if command == "" {
			continue
		}

		entries = append(entries, model.CronRecord{
			User:     user,
			Schedule: schedule,
			Command:  command,
			Source:   path,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// isVariableAssignment reports whether a crontab line sets a variable
// (SHELL=/bin/sh, PATH=..., MAILTO=...) rather than scheduling a task.
func isVariableAssignment(line string) bool {
	idx := strings.Index(line, "=")
	if idx <= 0 {
		return false
	}
	name := strings.TrimSpace(line[:idx])
	for _, r := range name {
		if !(r == '_' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

// splitSchedule separates the schedule from the remainder of a crontab line.
// Shorthand schedules (@daily, @reboot) occupy one field; standard schedules
// occupy five.
func splitSchedule(line string) (schedule, rest string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", "", false
	}

	if strings.HasPrefix(fields[0], "@") {
		if len(fields) < 2 {
			return "", "", false
		}
		return fields[0], strings.TrimSpace(strings.TrimPrefix(line, fields[0])), true
	}

	if len(fields) < 6 {
		return "", "", false
	}
	schedule = strings.Join(fields[:5], " ")
	rest = line
	for i := 0; i < 5; i++ {
		rest = strings.TrimSpace(strings.TrimPrefix(rest, fields[i]))
	}
	return schedule, rest, true
}
