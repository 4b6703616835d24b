package directory

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/sos-sentinel/internal/domain/alert"
)

func openSQLite(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), DialectSQLite, filepath.Join(t.TempDir(), "directory.db"))
	require.NoError(t, err)

	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestStore_SQLiteContacts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openSQLite(t)

	tick := time.UnixMilli(1_000)
	store.now = func() time.Time {
		tick = tick.Add(time.Millisecond)

		return tick
	}

	require.NoError(t, store.AddContact(ctx, "alice", "+15550002"))
	require.NoError(t, store.AddContact(ctx, "alice", "+15550001"))
	require.NoError(t, store.AddContact(ctx, "alice", "+15550002"))
	require.NoError(t, store.AddContact(ctx, "bob", "+15550003"))

	contacts, err := store.Contacts(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []string{"+15550002", "+15550001"}, contacts)

	removed, err := store.RemoveContact(ctx, "alice", "+15550002")
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = store.RemoveContact(ctx, "alice", "+15550002")
	require.NoError(t, err)
	require.False(t, removed)

	contacts, err = store.Contacts(ctx, "nobody")
	require.NoError(t, err)
	require.Empty(t, contacts)

	require.ErrorIs(t, store.AddContact(ctx, "alice", "  "), errEmptyKey)
}

func TestStore_SQLiteSubscribersAndRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openSQLite(t)

	require.NoError(t, store.AddSubscriber(ctx, "alice", "bob"))
	require.NoError(t, store.AddSubscriber(ctx, "alice", "carol"))

	subscribers, err := store.Subscribers(ctx, "alice")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"bob", "carol"}, subscribers)

	created := time.UnixMilli(1_700_000_000_123).UTC()
	first := alert.NewDistressRecord("bob", alert.Message(""), created)
	second := alert.NewDistressRecord("bob", alert.Message(""), created.Add(time.Second))

	require.NoError(t, store.CreateRecord(ctx, second))
	require.NoError(t, store.CreateRecord(ctx, first))
	require.NoError(t, store.CreateRecord(ctx, alert.NewDistressRecord("carol", "hi", created)))

	unread, err := store.UnreadRecords(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, []*alert.DistressRecord{first, second}, unread)

	require.NoError(t, store.MarkRead(ctx, first.ID))

	unread, err = store.UnreadRecords(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, unread, 1)
	require.Equal(t, second.ID, unread[0].ID)

	require.ErrorIs(t, store.MarkRead(ctx, "missing"), ErrRecordNotFound)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "directory.db")

	store, err := Open(ctx, DialectSQLite, path)
	require.NoError(t, err)
	require.NoError(t, store.AddContact(ctx, "alice", "+15550001"))
	require.NoError(t, store.Close())

	store, err = Open(ctx, DialectSQLite, path)
	require.NoError(t, err)

	defer store.Close() //nolint:errcheck // Test cleanup.

	contacts, err := store.Contacts(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []string{"+15550001"}, contacts)
}

func TestStore_UnknownDialect(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "mysql", "dsn")
	require.ErrorIs(t, err, ErrUnknownDialect)

	_, err = New(nil, "oracle")
	require.ErrorIs(t, err, ErrUnknownDialect)
}

func newPostgresMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	store, err := New(db, DialectPostgres)
	require.NoError(t, err)

	return store, mock
}

func TestStore_PostgresContacts(t *testing.T) {
	t.Parallel()

	store, mock := newPostgresMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM emergency_contacts WHERE user_id = $1")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"phone_number"}).AddRow("+15550001").AddRow("+15550002"))

	contacts, err := store.Contacts(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, []string{"+15550001", "+15550002"}, contacts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_PostgresCreateRecord(t *testing.T) {
	t.Parallel()

	store, mock := newPostgresMock(t)
	record := alert.NewDistressRecord("bob", "help", time.UnixMilli(42))

	mock.ExpectExec(regexp.QuoteMeta("VALUES ($1, $2, $3, $4, $5, $6)")).
		WithArgs(record.ID, "bob", alert.RecordTitle, "help", false, int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.CreateRecord(context.Background(), record))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_PostgresErrors(t *testing.T) {
	t.Parallel()

	store, mock := newPostgresMock(t)
	errBroken := errors.New("connection reset")

	mock.ExpectQuery(regexp.QuoteMeta("FROM subscribers WHERE user_id = $1")).
		WithArgs("alice").
		WillReturnError(errBroken)

	_, err := store.Subscribers(context.Background(), "alice")
	require.ErrorIs(t, err, errBroken)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE distress_records SET is_read = $1 WHERE id = $2")).
		WithArgs(true, "r1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.ErrorIs(t, store.MarkRead(context.Background(), "r1"), ErrRecordNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Rebind(t *testing.T) {
	t.Parallel()

	postgres := &Store{dialect: DialectPostgres}
	sqlite := &Store{dialect: DialectSQLite}

	query := "SELECT a FROM t WHERE b = ? AND c = ?"

	require.Equal(t, "SELECT a FROM t WHERE b = $1 AND c = $2", postgres.rebind(query))
	require.Equal(t, query, sqlite.rebind(query))
}
