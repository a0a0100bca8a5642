// Package report provides output writers for audit results.
// Three formats are supported: human-readable text for terminals, JSON for
// tool integration, and Markdown for documentation and sharing.
package report
