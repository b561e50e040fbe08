package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/cognicore/linkfinder/pkg/linkfinder/dataset"
	"github.com/cognicore/linkfinder/pkg/linkfinder/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite dataset database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	keyword TEXT NOT NULL,
	url TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_keyword ON records(keyword);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// AddRecords appends records in one transaction
func (s *sqliteStore) AddRecords(ctx context.Context, records []dataset.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records (keyword, url) VALUES (?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Keyword, r.URL); err != nil {
			return 0, fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(records), nil
}

// Records returns all records ordered by insertion
func (s *sqliteStore) Records(ctx context.Context) ([]dataset.Record, error) {
	return s.queryRecords(ctx, `SELECT keyword, url FROM records ORDER BY id`)
}

// RecordsByKeyword returns records whose keyword matches exactly
func (s *sqliteStore) RecordsByKeyword(ctx context.Context, keyword string) ([]dataset.Record, error) {
	return s.queryRecords(ctx, `SELECT keyword, url FROM records WHERE keyword = ? ORDER BY id`, keyword)
}

// Count returns the number of stored records
func (s *sqliteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *sqliteStore) queryRecords(ctx context.Context, query string, args ...interface{}) ([]dataset.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dataset.Record
	for rows.Next() {
		var r dataset.Record
		if err := rows.Scan(&r.Keyword, &r.URL); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
