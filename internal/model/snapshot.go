package model

import (
	"fmt"
	"os"
	"time"
)

// Snapshot is a recorded baseline of host state used for drift detection.
// A snapshot is the "known good" side of a comparison: a later snapshot is
// diffed against it to surface files, accounts, services, ports and
// scheduled tasks that appeared, disappeared or changed.
type Snapshot struct {
	// ID is the database identifier. Zero until the snapshot is persisted.
	ID int64 `json:"id,omitempty"`

	// Host is the host the snapshot was taken on.
	Host string `json:"host"`

	// Label is an optional operator-supplied tag (e.g. "post-hardening").
	Label string `json:"label,omitempty"`

	// TakenAt is when the snapshot was collected.
	TakenAt time.Time `json:"taken_at"`

	// Files contains digests of the monitored file set.
	Files []FileRecord `json:"files,omitempty"`

	// Accounts contains the local accounts from the passwd database.
	Accounts []AccountRecord `json:"accounts,omitempty"`

	// Groups contains the local groups from the group database.
	Groups []GroupRecord `json:"groups,omitempty"`

	// Services contains the observed running processes.
	Services []ServiceRecord `json:"services,omitempty"`

	// Ports contains listening TCP sockets.
	Ports []PortRecord `json:"ports,omitempty"`

	// CronJobs contains scheduled tasks from system and user crontabs.
	CronJobs []CronRecord `json:"cron_jobs,omitempty"`
}

// FileRecord is one hashed file in a snapshot.
type FileRecord struct {
	// Path is the absolute file path.
	Path string `json:"path"`

	// Algorithm is the digest algorithm (sha256, sha512, blake2b).
	Algorithm string `json:"algorithm"`

	// Digest is the hex-encoded file digest.
	Digest string `json:"digest"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// Mode is the file mode in octal string form (e.g. "0644").
	Mode string `json:"mode"`
}

// AccountRecord is one local account in a snapshot.
type AccountRecord struct {
	// Name is the login name.
	Name string `json:"name"`

	// UID is the numeric user ID.
	UID int `json:"uid"`

	// GID is the primary group ID.
	GID int `json:"gid"`

	// Home is the home directory.
	Home string `json:"home,omitempty"`

	// Shell is the login shell.
	Shell string `json:"shell,omitempty"`
}

// GroupRecord is one local group in a snapshot.
type GroupRecord struct {
	// Name is the group name.
	Name string `json:"name"`

	// GID is the numeric group ID.
	GID int `json:"gid"`

	// Members lists the supplementary member login names.
	Members []string `json:"members,omitempty"`
}

// ServiceRecord is one running process in a snapshot.
// Only the process name is used for drift comparison; the PID is recorded
// for operator reference since PIDs are not stable across reboots.
type ServiceRecord struct {
	// Name is the process name (comm).
	Name string `json:"name"`

	// PID is the process ID at collection time.
	PID int `json:"pid"`
}

// PortRecord is one listening TCP socket in a snapshot.
type PortRecord struct {
	// Proto is the transport protocol ("tcp" or "tcp6").
	Proto string `json:"proto"`

	// Port is the listening port number.
	Port int `json:"port"`

	// Address is the bound local address in textual form.
	Address string `json:"address,omitempty"`
}

// CronRecord is one scheduled task in a snapshot.
type CronRecord struct {
	// User is the account the job runs as.
	User string `json:"user"`

	// Schedule is the five-field cron schedule (or "@"-shorthand).
	Schedule string `json:"schedule"`

	// Command is the command line the job executes.
	Command string `json:"command"`

	// Source is the crontab file the entry came from.
	Source string `json:"source,omitempty"`
}

// Key returns a stable identity for a cron entry, used for set comparison.
// Schedule changes count as a different entry: a job moved from nightly to
// every minute is drift worth surfacing.
func (c CronRecord) Key() string {
	return c.User + "|" + c.Schedule + "|" + c.Command
}

// Key returns a stable identity for a port record.
func (p PortRecord) Key() string {
	return fmt.Sprintf("%s/%d", p.Proto, p.Port)
}

// NewSnapshot creates an empty snapshot for the current host.
func NewSnapshot(label string) *Snapshot {
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	return &Snapshot{
		Host:    host,
		Label:   label,
		TakenAt: time.Now(),
	}
}
