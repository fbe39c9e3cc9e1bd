package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/serena/internal/model"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// BeginRun records the start of a pipeline run and returns its id.
func (l *Ledger) BeginRun(ctx context.Context, root string, startedAt time.Time) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, root, started_at) VALUES (?, ?, ?)`,
		id, root, startedAt.UTC())
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}
	return id, nil
}

// FinishRun stores the summary of a finished run.
func (l *Ledger) FinishRun(ctx context.Context, summary model.Summary) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(summary.RunID, "runID"); err != nil {
		return err
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	res, err := l.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, summary_json = ? WHERE id = ?`,
		summary.FinishedAt.UTC(), string(data), summary.RunID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, summary.RunID)
	}
	return nil
}

// RecentRuns returns up to limit finished runs, newest first.
func (l *Ledger) RecentRuns(ctx context.Context, limit int) ([]model.Summary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT summary_json FROM runs
		WHERE summary_json IS NOT NULL
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []model.Summary
	for rows.Next() {
		var data sql.NullString
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		var s model.Summary
		if err := json.Unmarshal([]byte(data.String), &s); err != nil {
			return nil, fmt.Errorf("failed to decode run summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return summaries, nil
}
