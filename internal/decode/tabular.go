package decode

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/Veraticus/serena/internal/model"
)

var errNoSheets = errors.New("workbook has no sheets")

// TabularDecoder stages each data row of a spreadsheet as one unit named
// <stem>_msg_<row>.txt. The first row is the header. Workbooks (.xlsx) are
// read from their first sheet; .csv files are read whole.
type TabularDecoder struct {
	logger *slog.Logger
}

// NewTabularDecoder creates a tabular decoder.
func NewTabularDecoder(logger *slog.Logger) *TabularDecoder {
	return &TabularDecoder{logger: logger}
}

// Name implements Decoder.
func (d *TabularDecoder) Name() string { return "tabular" }

// Decode implements Decoder.
func (d *TabularDecoder) Decode(ctx context.Context, srcDir, dstDir string) (Result, error) {
	result := Result{Stats: model.StageStats{Stage: model.StageDecode}}

	files, err := listFiles(srcDir, ".xlsx", ".csv")
	if err != nil || len(files) == 0 {
		return result, err
	}
	area, err := prepareStaging(dstDir)
	if err != nil {
		return result, err
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		rows, err := readRows(file)
		if err != nil {
			result.Stats.Processed++
			result.Stats.Failed++
			logFailure(d.logger, d.Name(), file, err)
			continue
		}

		d.stageRows(file, rows, area, &result)
	}

	return result, nil
}

func (d *TabularDecoder) stageRows(file string, rows [][]string, area *staging, result *Result) {
	if len(rows) < 2 {
		d.logger.Debug("spreadsheet has no data rows", "file", file)
		return
	}

	stem := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	header := rows[0]

	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		result.Stats.Processed++

		text := formatRow(header, row)
		name := fmt.Sprintf("%s_msg_%d.txt", stem, i+1)
		path, dup, err := area.stage(name, []byte(text))
		if err != nil {
			result.Stats.Failed++
			logFailure(d.logger, d.Name(), file, err)
			continue
		}
		if dup {
			result.Stats.Skipped++
			continue
		}

		result.Stats.Succeeded++
		result.add(model.MessageUnit{
			ID:         path,
			Body:       text,
			Provenance: model.Provenance{ArchivePath: file, Session: i + 1},
		})
	}
}

// formatRow renders one "<column>: <value>" line per header column. Short
// rows are padded with empty values; cells beyond the header are dropped.
func formatRow(header, row []string) string {
	lines := make([]string, len(header))
	for j, col := range header {
		val := ""
		if j < len(row) {
			val = row[j]
		}
		lines[j] = fmt.Sprintf("%s: %s", col, val)
	}
	return strings.Join(lines, "\n")
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func readRows(path string) ([][]string, error) {
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		return readCSV(path)
	}
	return readWorkbook(path)
}

func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errNoSheets
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from a directory listing
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return rows, nil
}
