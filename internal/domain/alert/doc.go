// Package alert contains the values an SOS run produces: the location fix and
// map link, the outgoing text, and the distress records written for the
// people who watch the triggering user.
package alert
