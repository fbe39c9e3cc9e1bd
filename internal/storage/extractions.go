package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Veraticus/serena/internal/model"
)

// LookupExtraction returns the stored extraction for contentHash, if any.
func (l *Ledger) LookupExtraction(ctx context.Context, contentHash string) (model.Extraction, bool, error) {
	if err := validateContext(ctx); err != nil {
		return model.Extraction{}, false, err
	}

	var rawJSON, normalizedJSON string
	err := l.db.QueryRowContext(ctx,
		`SELECT raw_json, normalized_json FROM extractions WHERE content_hash = ?`, contentHash).
		Scan(&rawJSON, &normalizedJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Extraction{}, false, nil
	}
	if err != nil {
		return model.Extraction{}, false, fmt.Errorf("failed to look up extraction: %w", err)
	}

	var ext model.Extraction
	if err := json.Unmarshal([]byte(rawJSON), &ext.Raw); err != nil {
		return model.Extraction{}, false, fmt.Errorf("failed to decode stored raw record: %w", err)
	}
	if err := json.Unmarshal([]byte(normalizedJSON), &ext.Normalized); err != nil {
		return model.Extraction{}, false, fmt.Errorf("failed to decode stored normalized record: %w", err)
	}
	return ext, true, nil
}

// SaveExtraction stores a successful extraction for contentHash.
func (l *Ledger) SaveExtraction(ctx context.Context, contentHash string, ext model.Extraction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(contentHash, "contentHash"); err != nil {
		return err
	}
	if ext.Raw.Failed() {
		return ErrFailedRecord
	}

	rawJSON, err := json.Marshal(ext.Raw)
	if err != nil {
		return fmt.Errorf("failed to encode raw record: %w", err)
	}
	normalizedJSON, err := json.Marshal(ext.Normalized)
	if err != nil {
		return fmt.Errorf("failed to encode normalized record: %w", err)
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO extractions (content_hash, raw_json, normalized_json, source_path)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(content_hash) DO UPDATE SET
			raw_json = excluded.raw_json,
			normalized_json = excluded.normalized_json,
			source_path = excluded.source_path,
			extracted_at = CURRENT_TIMESTAMP`,
		contentHash, string(rawJSON), string(normalizedJSON), ext.Raw.SourcePath)
	if err != nil {
		return fmt.Errorf("failed to save extraction: %w", err)
	}
	return nil
}
