package storage

import (
	"context"
	"fmt"

	"github.com/Veraticus/serena/internal/model"
)

// RecordUnits registers staged units under runID. A path seen before is
// updated to its latest content.
func (l *Ledger) RecordUnits(ctx context.Context, runID string, units []model.MessageUnit) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(units) == 0 {
		return nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO units (path, content_hash, archive_path, session, run_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			content_hash = excluded.content_hash,
			archive_path = excluded.archive_path,
			session = excluded.session,
			run_id = excluded.run_id,
			staged_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("failed to prepare unit insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, u := range units {
		if _, err := stmt.ExecContext(ctx, u.ID, u.ContentHash(), u.Provenance.ArchivePath, u.Provenance.Session, runID); err != nil {
			return fmt.Errorf("failed to record unit %s: %w", u.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit units: %w", err)
	}
	return nil
}

// LedgerStats counts what the ledger holds.
type LedgerStats struct {
	Units       int
	A2P         int
	P2P         int
	Extractions int
	Runs        int
}

// Stats returns row counts for each ledger table.
func (l *Ledger) Stats(ctx context.Context) (LedgerStats, error) {
	if err := validateContext(ctx); err != nil {
		return LedgerStats{}, err
	}

	var s LedgerStats
	queries := []struct {
		dest  *int
		query string
	}{
		{&s.Units, `SELECT COUNT(*) FROM units`},
		{&s.A2P, `SELECT COUNT(*) FROM classifications WHERE label = 'A2P'`},
		{&s.P2P, `SELECT COUNT(*) FROM classifications WHERE label = 'P2P'`},
		{&s.Extractions, `SELECT COUNT(*) FROM extractions`},
		{&s.Runs, `SELECT COUNT(*) FROM runs`},
	}
	for _, q := range queries {
		if err := l.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return LedgerStats{}, fmt.Errorf("failed to count rows: %w", err)
		}
	}
	return s, nil
}
