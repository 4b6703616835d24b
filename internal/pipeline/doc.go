// Package pipeline runs the SOS alert once the gesture fires.
//
// A run shows a "generating" notification, resolves the user's emergency
// contacts, checks the location and SMS grants, takes one location fix with
// a bounded wait, texts every contact, shows a "success" notification and
// writes a distress record for each subscriber of the user. Every stage
// handles its own failure: a failed send or write never stops its siblings,
// a missing fix degrades the message, and only a missing user, a failed or
// empty contact lookup, or missing grants end the run early. Nothing is
// returned to the caller.
package pipeline
