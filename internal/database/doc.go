// Package database provides SQLite-based persistence for audit reports and
// baseline snapshots. The history it stores is what makes drift detection
// possible across invocations.
//
// The database uses modernc.org/sqlite, a pure-Go SQLite implementation,
// so no cgo or external SQLite installation is required.
package database
