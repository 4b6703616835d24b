package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	// Registers the "postgres" driver.
	_ "github.com/lib/pq"
	// Registers the "sqlite" driver.
	_ "modernc.org/sqlite"

	"github.com/oshokin/sos-sentinel/internal/domain/alert"
)

// Supported dialects. They match the database/sql driver names.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

var (
	// ErrUnknownDialect is returned for a driver the store has no queries for.
	ErrUnknownDialect = errors.New("unknown sql dialect")
	// ErrRecordNotFound is returned when a record id matches nothing.
	ErrRecordNotFound = errors.New("distress record not found")
	// errEmptyKey is returned when a user, phone number or subscriber is blank.
	errEmptyKey = errors.New("user id and value must not be empty")
)

//nolint:gochecknoglobals // Static schema.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS emergency_contacts (
		user_id TEXT NOT NULL,
		phone_number TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		PRIMARY KEY (user_id, phone_number)
	)`,
	`CREATE TABLE IF NOT EXISTS subscribers (
		user_id TEXT NOT NULL,
		subscriber_id TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		PRIMARY KEY (user_id, subscriber_id)
	)`,
	`CREATE TABLE IF NOT EXISTS distress_records (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS distress_records_user_idx ON distress_records (user_id, is_read)`,
}

// Store reads and writes the directory tables.
type Store struct {
	db      *sql.DB
	dialect string
	now     func() time.Time
}

// Open connects to the database, applies the schema and returns a store.
func Open(ctx context.Context, dialect, dsn string) (*Store, error) {
	if dialect != DialectSQLite && dialect != DialectPostgres {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, dialect)
	}

	db, err := sql.Open(dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		// One writer at a time; the pipeline fans out record writes.
		db.SetMaxOpenConns(1)

		if _, err = db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
			_ = db.Close()

			return nil, fmt.Errorf("configure sqlite: %w", err)
		}
	}

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping %s database: %w", dialect, err)
	}

	store, err := New(db, dialect)
	if err != nil {
		_ = db.Close()

		return nil, err
	}

	if err = store.Migrate(ctx); err != nil {
		_ = db.Close()

		return nil, err
	}

	return store, nil
}

// New wraps an already opened database.
func New(db *sql.DB, dialect string) (*Store, error) {
	if dialect != DialectSQLite && dialect != DialectPostgres {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, dialect)
	}

	return &Store{db: db, dialect: dialect, now: time.Now}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates missing tables.
func (s *Store) Migrate(ctx context.Context) error {
	for _, statement := range schema {
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	return nil
}

// Contacts returns the phone numbers registered for userID in insertion order.
func (s *Store) Contacts(ctx context.Context, userID string) ([]string, error) {
	return s.column(ctx,
		"SELECT phone_number FROM emergency_contacts WHERE user_id = ? ORDER BY created_at, phone_number",
		userID)
}

// Subscribers returns the users that receive userID's distress records.
func (s *Store) Subscribers(ctx context.Context, userID string) ([]string, error) {
	return s.column(ctx,
		"SELECT subscriber_id FROM subscribers WHERE user_id = ? ORDER BY created_at, subscriber_id",
		userID)
}

// AddContact registers a phone number. Adding it twice is a no-op.
func (s *Store) AddContact(ctx context.Context, userID, phoneNumber string) error {
	return s.link(ctx,
		"INSERT INTO emergency_contacts (user_id, phone_number, created_at) VALUES (?, ?, ?) ON CONFLICT DO NOTHING",
		userID, phoneNumber)
}

// RemoveContact deletes a phone number and reports whether it existed.
func (s *Store) RemoveContact(ctx context.Context, userID, phoneNumber string) (bool, error) {
	return s.unlink(ctx, "DELETE FROM emergency_contacts WHERE user_id = ? AND phone_number = ?", userID, phoneNumber)
}

// AddSubscriber registers subscriberID as a watcher of userID.
func (s *Store) AddSubscriber(ctx context.Context, userID, subscriberID string) error {
	return s.link(ctx,
		"INSERT INTO subscribers (user_id, subscriber_id, created_at) VALUES (?, ?, ?) ON CONFLICT DO NOTHING",
		userID, subscriberID)
}

// RemoveSubscriber deletes a watcher and reports whether it existed.
func (s *Store) RemoveSubscriber(ctx context.Context, userID, subscriberID string) (bool, error) {
	return s.unlink(ctx, "DELETE FROM subscribers WHERE user_id = ? AND subscriber_id = ?", userID, subscriberID)
}

// CreateRecord appends one distress record.
func (s *Store) CreateRecord(ctx context.Context, record *alert.DistressRecord) error {
	if record == nil || record.ID == "" || record.UserID == "" {
		return errEmptyKey
	}

	_, err := s.db.ExecContext(ctx, s.rebind(
		"INSERT INTO distress_records (id, user_id, title, message, is_read, created_at) VALUES (?, ?, ?, ?, ?, ?)"),
		record.ID, record.UserID, record.Title, record.Message, record.Read, record.Timestamp.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert distress record: %w", err)
	}

	return nil
}

// UnreadRecords lists the unread records addressed to userID, oldest first.
func (s *Store) UnreadRecords(ctx context.Context, userID string) ([]*alert.DistressRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		"SELECT id, user_id, title, message, is_read, created_at FROM distress_records "+
			"WHERE user_id = ? AND is_read = ? ORDER BY created_at, id"),
		userID, false)
	if err != nil {
		return nil, fmt.Errorf("query distress records: %w", err)
	}

	defer rows.Close() //nolint:errcheck // Read-only cursor.

	var records []*alert.DistressRecord

	for rows.Next() {
		var (
			record    alert.DistressRecord
			createdAt int64
		)

		if err = rows.Scan(&record.ID, &record.UserID, &record.Title, &record.Message, &record.Read, &createdAt); err != nil {
			return nil, fmt.Errorf("scan distress record: %w", err)
		}

		record.Timestamp = time.UnixMilli(createdAt).UTC()
		records = append(records, &record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distress records: %w", err)
	}

	return records, nil
}

// MarkRead flips a record to read.
func (s *Store) MarkRead(ctx context.Context, recordID string) error {
	result, err := s.db.ExecContext(ctx, s.rebind("UPDATE distress_records SET is_read = ? WHERE id = ?"), true, recordID)
	if err != nil {
		return fmt.Errorf("mark distress record read: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark distress record read: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, recordID)
	}

	return nil
}

func (s *Store) column(ctx context.Context, query, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), userID)
	if err != nil {
		return nil, fmt.Errorf("query directory: %w", err)
	}

	defer rows.Close() //nolint:errcheck // Read-only cursor.

	var values []string

	for rows.Next() {
		var value string
		if err = rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("scan directory: %w", err)
		}

		values = append(values, value)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate directory: %w", err)
	}

	return values, nil
}

func (s *Store) link(ctx context.Context, query, userID, value string) error {
	userID, value = strings.TrimSpace(userID), strings.TrimSpace(value)
	if userID == "" || value == "" {
		return errEmptyKey
	}

	if _, err := s.db.ExecContext(ctx, s.rebind(query), userID, value, s.now().UnixMilli()); err != nil {
		return fmt.Errorf("insert directory entry: %w", err)
	}

	return nil
}

func (s *Store) unlink(ctx context.Context, query, userID, value string) (bool, error) {
	result, err := s.db.ExecContext(ctx, s.rebind(query), userID, value)
	if err != nil {
		return false, fmt.Errorf("delete directory entry: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete directory entry: %w", err)
	}

	return affected > 0, nil
}

// rebind turns "?" placeholders into "$1".."$n" for postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}

	var (
		b strings.Builder
		n int
	)

	b.Grow(len(query) + 8)

	for _, r := range query {
		if r != '?' {
			b.WriteRune(r)

			continue
		}

		n++

		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}

	return b.String()
}
