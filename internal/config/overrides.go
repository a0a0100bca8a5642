package config

// Paths holds system-path and tuning overrides for check evaluation.
// Overrides exist so checks can run against container roots, mounted images
// and test fixtures instead of the live host.
type Paths struct {
	// Passwd overrides the passwd database path for account checks.
	Passwd string `yaml:"passwd,omitempty"`

	// Group overrides the group database path for account checks.
	Group string `yaml:"group,omitempty"`

	// Proc overrides the procfs root for service and socket checks.
	Proc string `yaml:"proc,omitempty"`

	// SystemCrontab overrides the system crontab path.
	SystemCrontab string `yaml:"systemCrontab,omitempty"`

	// CronDir overrides the drop-in system cron directory.
	CronDir string `yaml:"cronDir,omitempty"`

	// UserCronDir overrides the per-user crontab directory.
	UserCronDir string `yaml:"userCronDir,omitempty"`

	// Proxy is a SOCKS5 proxy address for port probes.
	Proxy string `yaml:"proxy,omitempty"`

	// Concurrency overrides the parallel probe limit. Zero keeps the default.
	Concurrency int `yaml:"concurrency,omitempty"`

	// Algorithm overrides the default file-hash algorithm.
	Algorithm string `yaml:"algorithm,omitempty"`
}

// File represents the structure of the .hostaudit configuration file.
type File struct {
	// Defaults contains overrides applied to every policy unless a
	// policy-specific entry overrides them again.
	Defaults Paths `yaml:"defaults,omitempty"`

	// Policies maps policy names to policy-specific overrides.
	Policies map[string]Paths `yaml:"policies,omitempty"`

	// SnapshotPaths lists the file trees hashed into snapshots when the
	// snapshot command is run without --path flags.
	SnapshotPaths []string `yaml:"snapshotPaths,omitempty"`
}

// NewFile returns an empty overrides file with initialized maps.
func NewFile() *File {
	return &File{
		Policies: make(map[string]Paths),
	}
}

// PathsFor returns the effective overrides for a policy name.
// It merges policy-specific entries over the defaults, field by field.
func (f *File) PathsFor(policyName string) Paths {
	result := f.Defaults

	override, ok := f.Policies[policyName]
	if !ok {
		return result
	}

	if override.Passwd != "" {
		result.Passwd = override.Passwd
	}
	if override.Group != "" {
		result.Group = override.Group
	}
	if override.Proc != "" {
		result.Proc = override.Proc
	}
	if override.SystemCrontab != "" {
		result.SystemCrontab = override.SystemCrontab
	}
	if override.CronDir != "" {
		result.CronDir = override.CronDir
	}
	if override.UserCronDir != "" {
		result.UserCronDir = override.UserCronDir
	}
	if override.Proxy != "" {
		result.Proxy = override.Proxy
	}
	if override.Concurrency > 0 {
		result.Concurrency = override.Concurrency
	}
	if override.Algorithm != "" {
		result.Algorithm = override.Algorithm
	}

	return result
}

// PasswdOrDefault returns the passwd path, falling back to the system default.
func (p Paths) PasswdOrDefault() string {
	if p.Passwd != "" {
		return p.Passwd
	}
	return DefaultPasswdPath
}

// GroupOrDefault returns the group path, falling back to the system default.
func (p Paths) GroupOrDefault() string {
	if p.Group != "" {
		return p.Group
	}
	return DefaultGroupPath
}

// ProcOrDefault returns the procfs root, falling back to the system default.
func (p Paths) ProcOrDefault() string {
	if p.Proc != "" {
		return p.Proc
	}
	return DefaultProcPath
}

// SystemCrontabOrDefault returns the system crontab path.
func (p Paths) SystemCrontabOrDefault() string {
	if p.SystemCrontab != "" {
		return p.SystemCrontab
	}
	return DefaultSystemCrontab
}

// CronDirOrDefault returns the drop-in cron directory.
func (p Paths) CronDirOrDefault() string {
	if p.CronDir != "" {
		return p.CronDir
	}
	return DefaultCronDir
}

// UserCronDirOrDefault returns the per-user crontab directory.
func (p Paths) UserCronDirOrDefault() string {
	if p.UserCronDir != "" {
		return p.UserCronDir
	}
	return DefaultUserCronDir
}
