// Package integration holds end-to-end tests that run the sentinel daemon
// in-process and drive it through its public control surfaces.
package integration
