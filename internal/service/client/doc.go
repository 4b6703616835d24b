// Package client implements sos-ctl, the command line companion of the daemon.
//
// It reads or flips the monitoring flag, reports screen toggles and starts
// a manual alert over gRPC. Flag changes are retried until the daemon
// confirms them.
package client
