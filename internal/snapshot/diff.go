package snapshot

import (
	"sort"

	"github.com/hostaudit/hostaudit/internal/model"
)

// FileChange describes one monitored file whose digest or mode changed
// between two snapshots.
type FileChange struct {
	// Path is the file path.
	Path string `json:"path"`

	// OldDigest and NewDigest differ when the content changed.
	OldDigest string `json:"old_digest,omitempty"`
	NewDigest string `json:"new_digest,omitempty"`

	// OldMode and NewMode differ when the permissions changed.
	OldMode string `json:"old_mode,omitempty"`
	NewMode string `json:"new_mode,omitempty"`
}

// Diff is the set difference between two snapshots.
// All slices are sorted for stable output.
type Diff struct {
	// OldID and NewID identify the compared snapshots.
	OldID int64 `json:"old_id"`
	NewID int64 `json:"new_id"`

	// Host is the compared host.
	Host string `json:"host"`

	// FilesAdded lists paths present only in the new snapshot.
	FilesAdded []string `json:"files_added,omitempty"`

	// FilesRemoved lists paths present only in the old snapshot.
	FilesRemoved []string `json:"files_removed,omitempty"`

	// FilesChanged lists files whose digest or mode changed.
	FilesChanged []FileChange `json:"files_changed,omitempty"`

	// AccountsAdded and AccountsRemoved list login names.
	AccountsAdded   []string `json:"accounts_added,omitempty"`
	AccountsRemoved []string `json:"accounts_removed,omitempty"`

	// GroupsAdded and GroupsRemoved list group names.
	GroupsAdded   []string `json:"groups_added,omitempty"`
	GroupsRemoved []string `json:"groups_removed,omitempty"`

	// ServicesStarted and ServicesStopped list process names.
	// Comparison is by name, not PID: PIDs change on every restart.
	ServicesStarted []string `json:"services_started,omitempty"`
	ServicesStopped []string `json:"services_stopped,omitempty"`

	// PortsOpened and PortsClosed list proto/port keys.
	PortsOpened []string `json:"ports_opened,omitempty"`
	PortsClosed []string `json:"ports_closed,omitempty"`

	// CronAdded and CronRemoved list scheduled-task keys
	// (user|schedule|command).
	CronAdded   []string `json:"cron_added,omitempty"`
	CronRemoved []string `json:"cron_removed,omitempty"`
}

// HasDrift reports whether the two snapshots differ at all.
func (d *Diff) HasDrift() bool {
	return d.TotalChanges() > 0
}

// TotalChanges counts every individual difference.
func (d *Diff) TotalChanges() int {
	return len(d.FilesAdded) + len(d.FilesRemoved) + len(d.FilesChanged) +
		len(d.AccountsAdded) + len(d.AccountsRemoved) +
		len(d.GroupsAdded) + len(d.GroupsRemoved) +
		len(d.ServicesStarted) + len(d.ServicesStopped) +
		len(d.PortsOpened) + len(d.PortsClosed) +
		len(d.CronAdded) + len(d.CronRemoved)
}

// Compare computes the drift from an older snapshot to a newer one.
//
// Design decision: Every section is compared as a set keyed on stable
// identity (path, login name, process name, proto/port, cron key) rather
// than by position, because collection order carries no meaning and hosts
// reorder process tables freely.
func Compare(older, newer *model.Snapshot) *Diff {
	d := &Diff{
		OldID: older.ID,
		NewID: newer.ID,
		Host:  newer.Host,
	}

	d.diffFiles(older.Files, newer.Files)

	oldAccounts := make(map[string]bool, len(older.Accounts))
	for _, a := range older.Accounts {
		oldAccounts[a.Name] = true
	}
	newAccounts := make(map[string]bool, len(newer.Accounts))
	for _, a := range newer.Accounts {
		newAccounts[a.Name] = true
	}
	d.AccountsAdded, d.AccountsRemoved = setDiff(oldAccounts, newAccounts)

	oldGroups := make(map[string]bool, len(older.Groups))
	for _, g := range older.Groups {
		oldGroups[g.Name] = true
	}
	newGroups := make(map[string]bool, len(newer.Groups))
	for _, g := range newer.Groups {
		newGroups[g.Name] = true
	}
	d.GroupsAdded, d.GroupsRemoved = setDiff(oldGroups, newGroups)

	oldServices := make(map[string]bool, len(older.Services))
	for _, s := range older.Services {
		oldServices[s.Name] = true
	}
	newServices := make(map[string]bool, len(newer.Services))
	for _, s := range newer.Services {
		newServices[s.Name] = true
	}
	d.ServicesStarted, d.ServicesStopped = setDiff(oldServices, newServices)

	oldPorts := make(map[string]bool, len(older.Ports))
	for _, p := range older.Ports {
		oldPorts[p.Key()] = true
	}
	newPorts := make(map[string]bool, len(newer.Ports))
	for _, p := range newer.Ports {
		newPorts[p.Key()] = true
	}
	d.PortsOpened, d.PortsClosed = setDiff(oldPorts, newPorts)

	oldCron := make(map[string]bool, len(older.CronJobs))
	for _, cj := range older.CronJobs {
		oldCron[cj.Key()] = true
	}
	newCron := make(map[string]bool, len(newer.CronJobs))
	for _, cj := range newer.CronJobs {
		newCron[cj.Key()] = true
	}
	d.CronAdded, d.CronRemoved = setDiff(oldCron, newCron)

	return d
}

// diffFiles splits the file sections into added, removed and changed.
func (d *Diff) diffFiles(oldFiles, newFiles []model.FileRecord) {
	oldByPath := make(map[string]model.FileRecord, len(oldFiles))
	for _, f := range oldFiles {
		oldByPath[f.Path] = f
	}
	newByPath := make(map[string]model.FileRecord, len(newFiles))
	for _, f := range newFiles {
		newByPath[f.Path] = f
	}

	for path, newFile := range newByPath {
		oldFile, ok := oldByPath[path]
		if !ok {
			d.FilesAdded = append(d.FilesAdded, path)
			continue
		}
		change := FileChange{Path: path}
		changed := false
		if oldFile.Digest != newFile.Digest {
			change.OldDigest = oldFile.Digest
			change.NewDigest = newFile.Digest
			changed = true
		}
		if oldFile.Mode != newFile.Mode {
			change.OldMode = oldFile.Mode
			change.NewMode = newFile.Mode
			changed = true
		}
		if changed {
			d.FilesChanged = append(d.FilesChanged, change)
		}
	}
	for path := range oldByPath {
		if _, ok := newByPath[path]; !ok {
			d.FilesRemoved = append(d.FilesRemoved, path)
		}
	}

	sort.Strings(d.FilesAdded)
	sort.Strings(d.FilesRemoved)
	sort.Slice(d.FilesChanged, func(i, j int) bool {
		return d.FilesChanged[i].Path < d.FilesChanged[j].Path
	})
}

// setDiff returns the keys only in the new set and the keys only in the
// old set, both sorted.
func setDiff(oldSet, newSet map[string]bool) (added, removed []string) {
	for key := range newSet {
		if !oldSet[key] {
			added = append(added, key)
		}
	}
	for key := range oldSet {
		if !newSet[key] {
			removed = append(removed, key)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}
