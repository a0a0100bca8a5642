// Package snapshot records and compares baselines of host state.
// A Collector gathers file digests, accounts, groups, running processes,
// listening TCP ports and scheduled tasks; Compare produces the set
// difference between two snapshots for drift detection.
package snapshot
