// Package model defines the core data structures used throughout hostaudit.
//
// This package contains the following main types:
//   - AuditReport: The main audit result structure
//   - ControlResult: Outcome of a single policy control
//   - Finding: A typed observation with severity and remediation guidance
//   - Summary: A summarized, human-readable view of a report
//   - Snapshot: A recorded baseline of host state for drift detection
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (check, pipeline, report, database) need to
// use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
