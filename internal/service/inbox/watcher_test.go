package inbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/sos-sentinel/internal/domain/alert"
	"github.com/oshokin/sos-sentinel/internal/identity"
)

var errStore = errors.New("store offline")

type records struct {
	mu     sync.Mutex
	byUser map[string][]*alert.DistressRecord
	err    error
}

func (r *records) UnreadRecords(_ context.Context, userID string) ([]*alert.DistressRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.byUser[userID], r.err
}

func (r *records) add(userID string, record *alert.DistressRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byUser[userID] = append(r.byUser[userID], record)
}

type user struct {
	id  string
	err error
}

func (u user) CurrentUserID(context.Context) (string, error) { return u.id, u.err }

type sink struct {
	mu    sync.Mutex
	shown [][2]string
}

func (s *sink) Show(_ context.Context, title, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shown = append(s.shown, [2]string{title, text})
}

func (s *sink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.shown)
}

func TestWatcher_Check(t *testing.T) {
	t.Parallel()

	store := &records{byUser: map[string][]*alert.DistressRecord{}}
	out := new(sink)
	w := New(store, user{id: "bob"}, out, time.Second)

	store.add("bob", alert.NewDistressRecord("bob", "help", time.Now()))
	store.add("bob", &alert.DistressRecord{ID: "blank", UserID: "bob"})
	store.add("carol", alert.NewDistressRecord("carol", "help", time.Now()))

	shown, err := w.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, shown)
	require.Equal(t, [][2]string{
		{alert.RecordTitle, "help"},
		{DefaultTitle, DefaultText},
	}, out.shown)

	shown, err = w.Check(context.Background())
	require.NoError(t, err)
	require.Zero(t, shown)
}

func TestWatcher_CheckErrors(t *testing.T) {
	t.Parallel()

	out := new(sink)

	shown, err := New(&records{}, user{err: identity.ErrNoSession}, out, time.Second).Check(context.Background())
	require.NoError(t, err)
	require.Zero(t, shown)

	_, err = New(&records{}, user{err: identity.ErrInvalidSession}, out, time.Second).Check(context.Background())
	require.ErrorIs(t, err, identity.ErrInvalidSession)

	_, err = New(&records{err: errStore}, user{id: "bob"}, out, time.Second).Check(context.Background())
	require.ErrorIs(t, err, errStore)
	require.Zero(t, out.count())
}

func TestWatcher_Run(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		store := &records{byUser: map[string][]*alert.DistressRecord{}}
		out := new(sink)
		w := New(store, user{id: "bob"}, out, 5*time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)

		go func() { done <- w.Run(ctx) }()

		store.add("bob", alert.NewDistressRecord("bob", "first", time.Now()))

		time.Sleep(4 * time.Second)
		synctest.Wait()
		require.Zero(t, out.count())

		time.Sleep(2 * time.Second)
		synctest.Wait()
		require.Equal(t, 1, out.count())

		store.add("bob", alert.NewDistressRecord("bob", "second", time.Now()))

		time.Sleep(5 * time.Second)
		synctest.Wait()
		require.Equal(t, 2, out.count())

		cancel()
		require.NoError(t, <-done)
	})
}
