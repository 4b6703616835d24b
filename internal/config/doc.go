// Package config defines the sentinel settings file and provides helpers to
// load, validate and save it in YAML format.
//
// Validate fills defaults for every optional section, so callers can rely on
// non-zero timeouts, a detector threshold and window, and a known storage
// driver after Load returns.
package config
