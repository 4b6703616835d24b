// Package version exposes build metadata for the sentinel binaries.
//
// Version, Commit and BuildTime are injected at build time via ldflags.
// Full is printed by the `version` subcommand; UserAgent identifies the
// daemon to remote HTTP services.
package version
