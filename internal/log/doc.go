// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of sensitive values (tokens, secrets, password hashes)
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Security Features
//
// The SecureHandler automatically sanitizes sensitive information in log output:
//   - Secret values detected by pattern matching (passwords, tokens, keys)
//   - Password hashes read from account databases during audits
//   - Session identifiers and authentication tokens
//
// Even in verbose mode, sensitive values are masked. Audit logs are commonly
// attached to tickets or shared with reviewers, so configuration material
// must never appear in them verbatim.
//
// # Usage
//
//	// Create a secure logger
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Info("parameter read",
//	    "password", "hunter2",  // Will be sanitized to "***REDACTED***"
//	    "path", "/etc/ssh/sshd_config",
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
