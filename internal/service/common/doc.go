// Package common holds helpers shared by the sentinel binaries.
//
// It provides the gRPC client of the sentinel service, detection of the
// current system actor for the monitoring audit trail and a single instance
// guard for the daemon.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
