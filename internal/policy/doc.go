// Package policy defines the audit policy format and its YAML loader.
//
// A policy is a named list of controls. Each control names a check type
// (config_value, file_hash, log_pattern, port_state, account, service_state,
// cron_entry), a target, and the expected state. Controls optionally carry a
// severity and remediation guidance that override the built-in catalog.
//
// Design decision: The policy schema is deliberately flat. Check-specific
// fields (ports, pattern, threshold, algorithm) live directly on Control with
// omitempty tags rather than in per-check sub-structs, because policies are
// written by hand and a flat schema keeps the YAML shallow and forgiving.
package policy
