// Package storage provides the SQLite processing ledger: which units were
// seen, what the oracle said about them and a history of runs.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Ledger records per-unit oracle answers keyed by content hash so re-runs
// can skip the oracle for content already seen.
type Ledger struct {
	db     *sql.DB
	dbPath string
}

// Open opens (creating if needed) the ledger database at dbPath. Use
// ":memory:" for a throwaway ledger.
func Open(dbPath string) (*Ledger, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	dsn := ":memory:"
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
		dsn = dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	// One connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping ledger: %w", err)
	}

	return &Ledger{db: db, dbPath: dbPath}, nil
}

// OpenAndMigrate opens the ledger and brings its schema up to date.
func OpenAndMigrate(ctx context.Context, dbPath string) (*Ledger, error) {
	l, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := l.Migrate(ctx); err != nil {
		_ = l.Close()
		return nil, err
	}
	return l, nil
}

// Path returns the database location.
func (l *Ledger) Path() string {
	return l.dbPath
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}
