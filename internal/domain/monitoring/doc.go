// Package monitoring holds the arming flag of the panic gesture as a value
// object. A State is never mutated in place: Arm and Disarm return the next
// state, stamped with who flipped it and when.
package monitoring
