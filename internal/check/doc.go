// Package check implements the policy control evaluators.
// Each check type (config_value, file_hash, log_pattern, port_state,
// account, service_state, cron_entry) has one Checker that turns a policy
// control into a pass/fail result with typed findings.
package check
