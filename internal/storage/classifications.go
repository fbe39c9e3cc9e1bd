package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/serena/internal/model"
)

// LookupLabel returns the label stored for contentHash, if any.
func (l *Ledger) LookupLabel(ctx context.Context, contentHash string) (model.Label, bool, error) {
	if err := validateContext(ctx); err != nil {
		return "", false, err
	}

	var label string
	err := l.db.QueryRowContext(ctx,
		`SELECT label FROM classifications WHERE content_hash = ?`, contentHash).Scan(&label)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up label: %w", err)
	}
	return model.Label(label), true, nil
}

// SaveLabel stores the label for contentHash, replacing any earlier one.
func (l *Ledger) SaveLabel(ctx context.Context, contentHash string, label model.Label, unitPath string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(contentHash, "contentHash"); err != nil {
		return err
	}
	if err := validateLabel(label); err != nil {
		return err
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO classifications (content_hash, label, unit_path)
		VALUES (?, ?, ?)
		ON CONFLICT(content_hash) DO UPDATE SET
			label = excluded.label,
			unit_path = excluded.unit_path,
			classified_at = CURRENT_TIMESTAMP`,
		contentHash, string(label), unitPath)
	if err != nil {
		return fmt.Errorf("failed to save label: %w", err)
	}
	return nil
}
