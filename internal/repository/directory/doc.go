// Package directory is the SQL store behind emergency contacts, subscribers
// and distress records.
//
// The same queries run on SQLite (modernc.org/sqlite, the default) and on
// PostgreSQL (github.com/lib/pq); placeholders are rebound per dialect.
package directory
