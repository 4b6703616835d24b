package monitoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestActorClone verifies that Clone returns a deep copy and handles nil safely.
func TestActorClone(t *testing.T) {
	t.Parallel()
	require.Nil(t, (*Actor)(nil).Clone())

	a := &Actor{
		Hostname: "pixel-7",
		Username: "n.ivanova",
	}

	b := a.Clone()

	require.Equal(t, a, b)
	require.NotSame(t, a, b)
	require.Equal(t, "n.ivanova@pixel-7", a.String())
	require.Equal(t, "<unknown>", (*Actor)(nil).String())
}

// TestStateTransitions checks Arm and Disarm produce new values and keep the receiver intact.
func TestStateTransitions(t *testing.T) {
	t.Parallel()

	start := time.Unix(100, 0).UTC()
	actor := &Actor{Hostname: "pixel-7", Username: "n.ivanova"}

	initial := Disarmed(start)
	require.False(t, initial.IsArmed())
	require.Nil(t, initial.LastActor)

	armed := initial.Arm(actor, start.Add(time.Minute))
	require.True(t, armed.IsArmed())
	require.False(t, initial.IsArmed())
	require.Equal(t, start.Add(time.Minute), armed.Timestamp)
	require.Equal(t, actor, armed.LastActor)
	require.NotSame(t, actor, armed.LastActor)

	disarmed := armed.Disarm(nil, start.Add(2*time.Minute))
	require.False(t, disarmed.IsArmed())
	require.True(t, armed.IsArmed())

	require.True(t, disarmed.Set(actor, start, true).IsArmed())
	require.False(t, (*State)(nil).IsArmed())
}

// TestStateClone verifies that State.Clone copies fields and deep-copies LastActor.
func TestStateClone(t *testing.T) {
	t.Parallel()

	s := State{
		Timestamp: time.Now().UTC().Truncate(time.Second),
		LastActor: &Actor{
			Hostname: "pixel-7",
			Username: "n.ivanova",
		},
		Armed: true,
	}

	c := s.Clone()
	require.Equal(t, s.Timestamp, c.Timestamp)
	require.Equal(t, s.Armed, c.Armed)
	require.Equal(t, s.LastActor, c.LastActor)
	require.NotSame(t, s.LastActor, c.LastActor)
	require.Nil(t, (*State)(nil).Clone())
}
