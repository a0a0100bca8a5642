// Package main provides the entry point for the hostaudit CLI.
//
// hostaudit evaluates YAML audit policies against the local host, records
// baseline snapshots, and reports configuration drift between runs.
//
// Usage:
//
//	hostaudit audit <policy-file>...
//	hostaudit snapshot --path /etc
//	hostaudit drift
//
// See --help for all available options.
package main

// main is the entry point for hostaudit.
func main() {
	Execute()
}
