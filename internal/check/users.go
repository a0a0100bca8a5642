package check

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hostaudit/hostaudit/internal/model"
	"github.com/hostaudit/hostaudit/internal/policy"
)

// AccountChecker audits the local account databases.
// It verifies presence or absence of a named account and always performs
// hygiene checks over the whole passwd file: duplicate UIDs, empty password
// fields and non-root accounts with UID 0.
//
// Design decision: We parse passwd and group files directly rather than
// using os/user because:
//  1. os/user only resolves single accounts; hygiene checks need the full set
//  2. The paths must be overridable for container roots and test fixtures
//  3. cgo-free lookups via os/user behave differently across platforms
type AccountChecker struct {
	// passwdPath is the account database, normally /etc/passwd.
	passwdPath string

	// groupPath is the group database, normally /etc/group.
	groupPath string
}

// NewAccountChecker creates a new account checker reading the given
// passwd and group files.
func NewAccountChecker(passwdPath, groupPath string) *AccountChecker {
	return &AccountChecker{
		passwdPath: passwdPath,
		groupPath:  groupPath,
	}
}

// Type returns the check type name.
func (c *AccountChecker) Type() string {
	return policy.CheckAccount
}

// passwdEntry is one parsed passwd line, including the password field the
// exported account record deliberately omits.
type passwdEntry struct {
	Name     string
	Password string
	UID      int
	GID      int
	Home     string
	Shell    string
}

// Check evaluates an account control.
// With a target, Expected "present" or "absent" drives the verdict; without
// a target the control is hygiene-only. Hygiene findings fail the control in
// either case: a policy that audits accounts at all wants to know about an
// empty password field.
func (c *AccountChecker) Check(ctx context.Context, control *policy.Control) (*CheckResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := NewCheckResult()

	entries, err := readPasswdEntries(c.passwdPath)
	if err != nil {
		result.Status = model.StatusError
		result.Message = fmt.Sprintf("cannot read %s: %v", c.passwdPath, err)
		return result, nil
	}

	groups, err := ReadGroups(c.groupPath)
	if err != nil {
		result.Status = model.StatusError
		result.Message = fmt.Sprintf("cannot read %s: %v", c.groupPath, err)
		return result, nil
	}
	groupNames := make(map[int]string, len(groups))
	for _, g := range groups {
		if _, ok := groupNames[g.GID]; !ok {
			groupNames[g.GID] = g.Name
		}
	}

	c.hygieneFindings(control, entries, result)

	if control.Target != "" {
		c.checkPresence(control, entries, groupNames, result)
	}

	if result.Status == model.StatusPass {
		if control.Target != "" {
			result.Pass(fmt.Sprintf("account %q satisfies the control", control.Target))
		} else {
			result.Pass(fmt.Sprintf("no account hygiene issues in %s", c.passwdPath))
		}
	}
	return result, nil
}

// checkPresence judges existence of the target account against Expected.
func (c *AccountChecker) checkPresence(control *policy.Control, entries []passwdEntry, groupNames map[int]string, result *CheckResult) {
	expected := strings.ToLower(strings.TrimSpace(control.Expected))
	if expected == "" {
		expected = "present"
	}
	result.Expected = expected

	var found *passwdEntry
	for i := range entries {
		if entries[i].Name == control.Target {
			found = &entries[i]
			break
		}
	}

	switch expected {
	case "present", "exists":
		if found == nil {
			result.Actual = "absent"
			result.Fail(fmt.Sprintf("account %q does not exist", control.Target))
			f := model.NewFinding("account_missing",
				fmt.Sprintf("Required account %q is missing", control.Target),
				control.Target, c.passwdPath)
			result.AddFinding(bindFinding(control, f))
			return
		}
		result.Actual = "present"
		result.SetMetadata("uid", found.UID)
		if name, ok := groupNames[found.GID]; ok {
			result.SetMetadata("primary_group", name)
		}
	case "absent", "missing":
		if found != nil {
			result.Actual = "present"
			result.Fail(fmt.Sprintf("account %q exists but is forbidden", control.Target))
			f := model.NewFinding("account_unexpected",
				fmt.Sprintf("Forbidden account %q exists", control.Target),
				control.Target, c.passwdPath)
			result.AddFinding(bindFinding(control, f))
			return
		}
		result.Actual = "absent"
	default:
		result.Status = model.StatusError
		result.Message = fmt.Sprintf("unknown expected account state %q", expected)
	}
}

// hygieneFindings scans all entries for conditions that are wrong on any
// host regardless of what the control targets.
func (c *AccountChecker) hygieneFindings(control *policy.Control, entries []passwdEntry, result *CheckResult) {
	uidOwners := make(map[int]string, len(entries))

	for _, e := range entries {
		if e.Password == "" {
			result.Fail(fmt.Sprintf("account %q has an empty password field", e.Name))
			f := model.NewFinding("empty_password_field",
				fmt.Sprintf("Account %q has an empty password field", e.Name),
				e.Name, c.passwdPath)
			result.AddFinding(bindFinding(control, f))
		}

		if e.UID == 0 && e.Name != "root" {
			result.Fail(fmt.Sprintf("account %q has UID 0", e.Name))
			f := model.NewFinding("nonroot_uid_zero",
				fmt.Sprintf("Account %q has UID 0", e.Name),
				e.Name, c.passwdPath)
			result.AddFinding(bindFinding(control, f))
		}

		if owner, ok := uidOwners[e.UID]; ok {
			result.Fail(fmt.Sprintf("accounts %q and %q share UID %d", owner, e.Name, e.UID))
			f := model.NewFinding("duplicate_uid",
				fmt.Sprintf("Accounts %q and %q share UID %d", owner, e.Name, e.UID),
				strconv.Itoa(e.UID), c.passwdPath)
			result.AddFinding(bindFinding(control, f))
		} else {
			uidOwners[e.UID] = e.Name
		}
	}
}

// readPasswdEntries parses a passwd-format file including password fields.
// Malformed lines are skipped; a truncated database should not abort the
// audit of the intact lines.
func readPasswdEntries(path string) ([]passwdEntry, error) {
	file, err := os.Open(path) //nolint:gosec // Configured database path is intentional
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var entries []passwdEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) < 7 {
			continue
		}
		uid, err := strconv.Atoi(fields[2])
		if err != nil {
			continue
		}
		gid, err := strconv.Atoi(fields[3])
		if err != nil {
			continue
		}
		entries = append(entries, passwdEntry{
			Name:     fields[0],
			Password: fields[1],
			UID:      uid,
			GID:      gid,
			Home:     fields[5],
			Shell:    fields[6],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// ReadAccounts parses a passwd-format file into account records.
// Password fields are dropped; snapshots must never store credential material.
func ReadAccounts(path string) ([]model.AccountRecord, error) {
	entries, err := readPasswdEntries(path)
	if err != nil {
		return nil, err
	}
	accounts := make([]model.AccountRecord, 0, len(entries))
	for _, e := range entries {
		accounts = append(accounts, model.AccountRecord{
			Name:  e.Name,
			UID:   e.UID,
			GID:   e.GID,
			Home:  e.Home,
			Shell: e.Shell,
		})
	}
	return accounts, nil
}

// ReadGroups parses a group-format file into group records.
func ReadGroups(path string) ([]model.GroupRecord, error) {
	file, err := os.Open(path) //nolint:gosec // Configured database path is intentional
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var groups []model.GroupRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) < 4 {
			continue
		}
		gid, err := strconv.Atoi(fields[2])
		if err != nil {
			continue
		}
		var members []string
		if fields[3] != "" {
			members = strings.Split(fields[3], ",")
		}
		groups = append(groups, model.GroupRecord{
			Name:    fields[0],
			GID:     gid,
			Members: members,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return groups, nil
}
