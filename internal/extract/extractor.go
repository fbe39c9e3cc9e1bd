// Package extract pulls transactional fields out of A2P units with the
// oracle, persists the raw records and normalizes them for the result cache.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Veraticus/serena/internal/common"
	"github.com/Veraticus/serena/internal/llm"
	"github.com/Veraticus/serena/internal/model"
)

// RawPrefix starts the name of every persisted raw record.
const RawPrefix = "raw_"

// Sink receives normalized records. Add reports whether the record was new.
type Sink interface {
	Add(rec model.NormalizedRecord) bool
}

// Store remembers successful extractions by unit content hash.
type Store interface {
	LookupExtraction(ctx context.Context, contentHash string) (model.Extraction, bool, error)
	SaveExtraction(ctx context.Context, contentHash string, ext model.Extraction) error
}

// Options tune an extraction batch.
type Options struct {
	// Progress is called once per unit with its raw record.
	Progress func(path string, raw model.ExtractionRecord)
	Workers  int
}

// Extractor runs the two oracle passes over A2P units.
type Extractor struct {
	oracle     llm.Client
	normalizer *Normalizer
	store      Store
	logger     *slog.Logger
}

// New creates an extractor. store may be nil.
func New(oracle llm.Client, store Store, logger *slog.Logger) *Extractor {
	return &Extractor{
		oracle:     oracle,
		normalizer: NewNormalizer(oracle, logger),
		store:      store,
		logger:     logger,
	}
}

// RawName maps a unit file name to its raw record file name.
func RawName(unitName string) string {
	return RawPrefix + unitName + ".json"
}

// Extract runs the extraction call for one unit. Failures come back as an
// error record carrying the unit path, never as a Go error.
func (e *Extractor) Extract(ctx context.Context, unit model.MessageUnit) model.ExtractionRecord {
	reply, err := e.oracle.Complete(ctx, llm.ExtractionRequest(unit.Body))
	if err != nil {
		return model.NewErrorRecord(unit.ID, err)
	}

	obj, err := llm.ExtractJSONObject(reply)
	if err != nil {
		return model.NewErrorRecord(unit.ID, err)
	}

	rec, err := Coerce(obj, unit.ID)
	if err != nil {
		return model.NewErrorRecord(unit.ID, err)
	}
	return rec
}

// Process extracts and normalizes one unit. ok is false for error records,
// which carry no normalized form. reused reports a ledger hit.
func (e *Extractor) Process(ctx context.Context, unit model.MessageUnit) (ext model.Extraction, ok, reused bool) {
	hash := unit.ContentHash()

	if e.store != nil {
		stored, found, err := e.store.LookupExtraction(ctx, hash)
		if err != nil {
			e.logger.Warn("extraction lookup failed", "unit", unit.ID, "error", err)
		} else if found {
			stored.Raw.SourcePath = unit.ID
			stored.Normalized.SourcePath = unit.ID
			return stored, true, true
		}
	}

	raw := e.Extract(ctx, unit)
	if raw.Failed() {
		return model.Extraction{Raw: raw}, false, false
	}

	normalized, _ := e.normalizer.Normalize(ctx, raw)
	ext = model.Extraction{Raw: raw, Normalized: normalized}

	if e.store != nil {
		if err := e.store.SaveExtraction(ctx, hash, ext); err != nil {
			e.logger.Warn("failed to record extraction", "unit", unit.ID, "error", err)
		}
	}
	return ext, true, false
}

// ExtractDirs processes every .txt file in inputDirs, writes raw_<name>.json
// into jsonDir for each and hands the normalized records to sink. Error
// records are persisted for review but never reach sink.
func (e *Extractor) ExtractDirs(ctx context.Context, inputDirs []string, jsonDir string, sink Sink, opts Options) (model.StageStats, error) {
	stats := model.StageStats{Stage: model.StageExtract}

	if err := os.MkdirAll(jsonDir, 0750); err != nil {
		return stats, fmt.Errorf("%w: %s: %w", common.ErrOutputNotReady, jsonDir, err)
	}

	var files []string
	for _, dir := range inputDirs {
		found, err := listUnits(dir)
		if err != nil {
			e.logger.Warn("failed to list input directory", "dir", dir, "error", err)
			continue
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		e.logger.Info("no units to extract")
		return stats, nil
	}

	e.logger.Info("extracting fields", "count", len(files), "output", jsonDir)

	var mu sync.Mutex
	err := common.ForEach(ctx, opts.Workers, len(files), func(ctx context.Context, i int) error {
		delta, raw, err := e.processFile(ctx, files[i], jsonDir, sink)
		if err != nil {
			return err
		}

		mu.Lock()
		stats.Add(delta)
		mu.Unlock()

		if opts.Progress != nil {
			opts.Progress(files[i], raw)
		}
		return nil
	})

	e.logger.Info("extraction finished",
		"processed", stats.Processed,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"duplicates", stats.Skipped,
		"reused", stats.Reused)

	return stats, err
}

func (e *Extractor) processFile(ctx context.Context, path, jsonDir string, sink Sink) (model.StageStats, model.ExtractionRecord, error) {
	stats := model.StageStats{Processed: 1}

	unit, err := model.LoadUnit(path)
	if err != nil {
		e.logger.Warn("failed to read unit", "file", path, "error", err)
		stats.Failed++
		rec := model.NewErrorRecord(path, err)
		return stats, rec, nil
	}

	ext, ok, reused := e.Process(ctx, unit)
	if !ok && ctx.Err() != nil {
		return stats, ext.Raw, ctx.Err()
	}
	if reused {
		stats.Reused++
	}

	if _, err := WriteRaw(jsonDir, filepath.Base(path), ext.Raw); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return stats, ext.Raw, fmt.Errorf("%w: %s: %w", common.ErrOutputNotReady, jsonDir, err)
		}
		e.logger.Warn("failed to persist raw record", "file", path, "error", err)
	}

	if !ok {
		e.logger.Warn("extraction failed", "file", path, "error", ext.Raw.Error)
		stats.Failed++
		return stats, ext.Raw, nil
	}

	stats.Succeeded++
	if sink != nil && !sink.Add(ext.Normalized) {
		stats.Skipped++
	}
	return stats, ext.Raw, nil
}

// WriteRaw persists rec as raw_<unitName>.json in jsonDir.
func WriteRaw(jsonDir, unitName string, rec model.ExtractionRecord) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(rec); err != nil {
		return "", fmt.Errorf("failed to encode raw record: %w", err)
	}

	path := filepath.Join(jsonDir, RawName(unitName))
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// LoadRaw reads a raw record written by WriteRaw.
func LoadRaw(path string) (model.ExtractionRecord, error) {
	data, err := os.ReadFile(path) //nolint:gosec // caller controls the path
	if err != nil {
		return model.ExtractionRecord{}, fmt.Errorf("failed to read raw record: %w", err)
	}
	var rec model.ExtractionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.ExtractionRecord{}, fmt.Errorf("failed to parse raw record %s: %w", path, err)
	}
	return rec, nil
}

// LoadRawDir reads every raw record in jsonDir, sorted by file name.
// Unreadable files are skipped.
func LoadRawDir(jsonDir string, logger *slog.Logger) ([]model.ExtractionRecord, error) {
	entries, err := os.ReadDir(jsonDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", jsonDir, err)
	}

	var records []model.ExtractionRecord
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, RawPrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		rec, err := LoadRaw(filepath.Join(jsonDir, name))
		if err != nil {
			logger.Warn("skipping raw record", "file", name, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func listUnits(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".txt") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
