package backend

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	storeerrors "github.com/arthur-debert/objstore/pkg/errors"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS blobs (
	name TEXT PRIMARY KEY,
	data BLOB
)`

// SQLite keeps every blob of a store as a row in one database file.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens the database at path on the operating system
// filesystem. When create is false a missing file is reported as not found
// instead of being created.
func OpenSQLite(ctx context.Context, path string, create bool) (*SQLite, error) {
	cleanPath := filepath.Clean(path)

	if _, err := os.Stat(cleanPath); err != nil {
		if !os.IsNotExist(err) {
			return nil, failure(err, "stat", cleanPath)
		}
		if !create {
			return nil, storeerrors.Newf(storeerrors.ErrNotFound, "sqlite store %s does not exist", cleanPath)
		}
		if err := os.MkdirAll(filepath.Dir(cleanPath), 0755); err != nil {
			return nil, failure(err, "mkdir", filepath.Dir(cleanPath))
		}
	}

	dsn := "file:" + cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, failure(err, "open sqlite", cleanPath)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, failure(err, "ping sqlite", cleanPath)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, failure(err, "migrate sqlite", cleanPath)
	}

	return &SQLite{db: db, path: cleanPath}, nil
}

// Path returns the database file.
func (s *SQLite) Path() string { return s.path }

func (s *SQLite) Persist(ctx context.Context, name string, data []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blobs (name, data) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET data = excluded.data`,
		name, data)
	return failure(err, "persist", name)
}

func (s *SQLite) Retrieve(ctx context.Context, name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM blobs WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, failure(err, "retrieve", name)
	}
	return data, nil
}

func (s *SQLite) Exists(ctx context.Context, name string) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, err
	}
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM blobs WHERE name = ?`, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, failure(err, "exists", name)
	}
	return true, nil
}

func (s *SQLite) Remove(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM blobs WHERE name = ?`, name)
	return failure(err, "remove", name)
}

func (s *SQLite) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM blobs`)
	return failure(err, "clear", s.path)
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var _ Backend = (*SQLite)(nil)
