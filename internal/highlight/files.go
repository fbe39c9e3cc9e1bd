package highlight

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/serena/internal/model"
)

// OutputSuffix replaces .html in the name of a highlighted copy.
const OutputSuffix = ".highlighted.html"

// ErrNoRecord is returned when no raw record belongs to a document.
var ErrNoRecord = errors.New("no extraction record for document")

// DocumentName maps a record's source_path to the rendered document name.
func DocumentName(sourcePath string) string {
	return strings.TrimSuffix(filepath.Base(sourcePath), ".txt") + ".html"
}

// FindRecord returns the record whose source_path belongs to htmlName.
func FindRecord(htmlName string, records []model.ExtractionRecord) (model.ExtractionRecord, bool) {
	for _, rec := range records {
		if rec.SourcePath != "" && DocumentName(rec.SourcePath) == htmlName {
			return rec, true
		}
	}
	return model.ExtractionRecord{}, false
}

// Result describes one highlighted document.
type Result struct {
	Document string
	Output   string
	Spans    int
	Failed   bool
}

// File highlights htmlPath with its record and writes the copy next to it.
func File(htmlPath string, records []model.ExtractionRecord) (Result, error) {
	name := filepath.Base(htmlPath)
	rec, ok := FindRecord(name, records)
	if !ok {
		return Result{Document: htmlPath}, fmt.Errorf("%w: %s", ErrNoRecord, name)
	}

	data, err := os.ReadFile(htmlPath) //nolint:gosec // caller controls the path
	if err != nil {
		return Result{Document: htmlPath}, fmt.Errorf("failed to read %s: %w", htmlPath, err)
	}

	out, spans, err := Apply(bytes.NewReader(data), rec)
	if err != nil {
		return Result{Document: htmlPath}, err
	}

	dst := strings.TrimSuffix(htmlPath, ".html") + OutputSuffix
	if err := os.WriteFile(dst, out, 0600); err != nil {
		return Result{Document: htmlPath}, fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return Result{Document: htmlPath, Output: dst, Spans: spans, Failed: rec.Failed()}, nil
}

// Dir highlights every rendered document in htmlDir that has a record.
// Documents without a record are logged and skipped.
func Dir(htmlDir string, records []model.ExtractionRecord, logger *slog.Logger) ([]Result, error) {
	entries, err := os.ReadDir(htmlDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", htmlDir, err)
	}

	var results []Result
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".html") || strings.HasSuffix(name, OutputSuffix) {
			continue
		}
		res, err := File(filepath.Join(htmlDir, name), records)
		if err != nil {
			logger.Warn("skipping document", "file", name, "error", err)
			continue
		}
		results = append(results, res)
	}
	return results, nil
}
