// Package monitoring owns the arming flag of the panic gesture.
//
// Service is the one place that reads and flips the flag: the detector asks
// it IsArmed on every toggle, the control surfaces call SetArmed. The flag is
// cached in memory and written through to a state.Repository.
package monitoring
