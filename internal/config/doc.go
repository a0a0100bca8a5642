// Package config provides configuration structures and utilities for hostaudit.
// It defines the runtime options for policy evaluation, snapshot collection,
// and report generation preferences, plus the optional .hostaudit overrides
// file that redirects system paths for containers and test fixtures.
package config
