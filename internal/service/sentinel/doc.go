// Package sentinel runs the sos-sentinel daemon.
//
// Run loads the settings, wires the monitoring flag, the toggle detector and
// the alert pipeline to their adapters, then serves gRPC, HTTP and MQTT until
// the context is cancelled. Core holds the operations every surface shares.
package sentinel
