package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"chordbook/internal/chordbook"
	"chordbook/internal/store/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore keeps records in a single sqlite table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and brings
// its schema up to date. path may be ":memory:".
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.Check(db); err != nil {
		if !errors.Is(err, migrations.ErrBehind) {
			db.Close()
			return nil, fmt.Errorf("checking schema: %w", err)
		}
		if err := migrations.MigrateUp(db); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &SQLiteStore{db: db}, nil
}

// OpenConnection opens and configures a SQLite connection. The pool is
// limited to one connection so ":memory:" databases are shared by every
// query and writers never contend.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return db, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM records WHERE record_key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	if value == nil {
		value = unreadable()
	}
	return value, nil
}

const upsertRecord = `
INSERT INTO records (record_key, value) VALUES (?, ?)
ON CONFLICT (record_key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, upsertRecord, key, value); err != nil {
		return fmt.Errorf("failed to set record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE record_key = ?", key); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, prefix string) ([]chordbook.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT record_key, value FROM records WHERE substr(record_key, 1, length(?)) = ? ORDER BY record_key",
		prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var out []chordbook.Record
	for rows.Next() {
		var r chordbook.Record
		if err := rows.Scan(&r.Key, &r.Value); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if r.Value == nil {
			r.Value = unreadable()
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Replace(ctx context.Context, oldKey, newKey string, value []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM records WHERE record_key = ?", oldKey); err != nil {
		return fmt.Errorf("failed to delete old record: %w", err)
	}
	if _, err := tx.ExecContext(ctx, upsertRecord, newKey, value); err != nil {
		return fmt.Errorf("failed to write new record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
