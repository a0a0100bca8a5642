package check

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hostaudit/hostaudit/internal/model"
	"github.com/hostaudit/hostaudit/internal/policy"
)

// ServiceStateChecker verifies that a named process is (or is not) running
// by scanning procfs.
//
// Design decision: We read /proc/<pid>/comm rather than shelling out to ps
// or talking to an init system because:
//  1. procfs is present on every Linux host we audit, regardless of init
//  2. No subprocess means no PATH trust issues in a security tool
//  3. The proc root is overridable, so tests and container audits work
//     without real processes
type ServiceStateChecker struct {
	// procPath is the procfs root, normally /proc.
	procPath string
}

// NewServiceStateChecker creates a new service state checker reading the
// given procfs root.
func NewServiceStateChecker(procPath string) *ServiceStateChecker {
	return &ServiceStateChecker{procPath: procPath}
}

// Type returns the check type name.
func (c *ServiceStateChecker) Type() string {
	return policy.CheckServiceState
}

// Check scans the process table for the target process name and judges it
// against the required state ("running" or "stopped").
func (c *ServiceStateChecker) Check(ctx context.Context, control *policy.Control) (*CheckResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := NewCheckResult()

	if control.Target == "" {
		result.Status = model.StatusError
		result.Message = "control names no process to look for"
		return result, nil
	}

	state := control.RequiredState()
	if state == "" {
		state = "running"
	}
	if state != "running" && state != "stopped" {
		result.Status = model.StatusError
		result.Message = fmt.Sprintf("unknown required service state %q", state)
		return result, nil
	}
	result.Expected = state

	processes, err := ListProcesses(c.procPath)
	if err != nil {
		result.Status = model.StatusError
		result.Message = fmt.Sprintf("cannot scan %s: %v", c.procPath, err)
		return result, nil
	}

	var matching []model.ServiceRecord
	for _, p := range processes {
		if p.Name == control.Target {
			matching = append(matching, p)
		}
	}

	switch state {
	case "running":
		if len(matching) == 0 {
			result.Actual = "stopped"
			result.Fail(fmt.Sprintf("process %q is not running", control.Target))
			f := model.NewFinding("service_not_running",
				fmt.Sprintf("Required service %q is not running", control.Target),
				control.Target, c.procPath)
			result.AddFinding(bindFinding(control, f))
			return result, nil
		}
		result.Actual = "running"
		result.SetMetadata("pids", pidList(matching))
		result.Pass(fmt.Sprintf("process %q is running (%d instance(s))", control.Target, len(matching)))

	case "stopped":
		if len(matching) > 0 {
			result.Actual = "running"
			result.Fail(fmt.Sprintf("process %q is running but is forbidden", control.Target))
			for _, p := range matching {
				f := model.NewFinding("unexpected_process",
					fmt.Sprintf("Forbidden process %q is running", control.Target),
					strconv.Itoa(p.PID), c.procPath)
				result.AddFinding(bindFinding(control, f))
			}
			return result, nil
		}
		result.Actual = "stopped"
		result.Pass(fmt.Sprintf("process %q is not running", control.Target))
	}
	return result, nil
}

// pidList renders matching PIDs for result metadata.
func pidList(records []model.ServiceRecord) []int {
	pids := make([]int, 0, len(records))
	for _, r := range records {
		pids = append(pids, r.PID)
	}
	return pids
}

// ListProcesses enumerates running processes from a procfs root.
// Each numeric directory with a readable comm file yields one record.
// Processes that exit mid-scan are skipped silently; the process table is
// a moving target by nature.
func ListProcesses(procPath string) ([]model.ServiceRecord, error) {
	dirEntries, err := os.ReadDir(procPath)
	if err != nil {
		return nil, err
	}

	var processes []model.ServiceRecord
	for _, entry := range dirEntries {
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		comm, err := os.ReadFile(filepath.Join(procPath, entry.Name(), "comm")) //nolint:gosec // Path is built from procfs entries
		if err != nil {
			continue
		}
		name := strings.TrimSpace(string(comm))
		if name == "" {
			continue
		}
		processes = append(processes, model.ServiceRecord{
			Name: name,
			PID:  pid,
		})
	}
	return processes, nil
}
