package monitoring

import "time"

// Actor identifies who changed the monitoring flag.
type Actor struct {
	// Hostname is the machine the change came from.
	Hostname string
	// Username is the system or application user behind the change.
	Username string
}

// Clone returns a deep copy of the actor.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// String renders the actor as username@hostname.
func (a *Actor) String() string {
	if a == nil {
		return "<unknown>"
	}

	return a.Username + "@" + a.Hostname
}

// State is the arming flag at a point in time.
type State struct {
	// Timestamp is when the flag was last flipped.
	Timestamp time.Time
	// LastActor is who flipped it last; nil for the initial state.
	LastActor *Actor
	// Armed reports whether toggle events are being evaluated.
	Armed bool
}

// Disarmed is the state of a device that never enabled monitoring.
func Disarmed(now time.Time) *State {
	return &State{Timestamp: now}
}

// Arm returns the armed successor of s.
func (s *State) Arm(actor *Actor, now time.Time) *State {
	return s.transition(actor, now, true)
}

// Disarm returns the disarmed successor of s.
func (s *State) Disarm(actor *Actor, now time.Time) *State {
	return s.transition(actor, now, false)
}

// Set picks Arm or Disarm by flag.
func (s *State) Set(actor *Actor, now time.Time, armed bool) *State {
	return s.transition(actor, now, armed)
}

// IsArmed is nil-safe: a missing state means monitoring is off.
func (s *State) IsArmed() bool {
	return s != nil && s.Armed
}

// Clone returns a copy of the state to avoid leaking internal references.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}

	return &State{
		Timestamp: s.Timestamp,
		LastActor: s.LastActor.Clone(),
		Armed:     s.Armed,
	}
}

func (s *State) transition(actor *Actor, now time.Time, armed bool) *State {
	return &State{
		Timestamp: now,
		LastActor: actor.Clone(),
		Armed:     armed,
	}
}
