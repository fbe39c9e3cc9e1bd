package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/serena/internal/common"
	"github.com/Veraticus/serena/internal/model"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Writer exports normalized records to one tab of a spreadsheet.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewWriter creates a new Google Sheets writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	service, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return newWriter(service, config, logger), nil
}

func newWriter(service *sheets.Service, config Config, logger *slog.Logger) *Writer {
	if config.SheetTitle == "" {
		config.SheetTitle = DefaultSheetTitle
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	return &Writer{service: service, config: config, logger: logger}
}

// Write replaces the contents of the records tab with records and returns
// the spreadsheet ID written to.
func (w *Writer) Write(ctx context.Context, records []model.NormalizedRecord) (string, error) {
	w.logger.Info("starting sheets export", "records", len(records))

	spreadsheetID, sheetID, err := w.prepareSpreadsheet(ctx)
	if err != nil {
		return "", err
	}

	if err := w.retry(ctx, func() error { return w.clearSheet(ctx, spreadsheetID) }); err != nil {
		return "", fmt.Errorf("failed to clear sheet: %w", err)
	}

	values := toValues(Header, Rows(records))
	if err := w.writeData(ctx, spreadsheetID, values); err != nil {
		return "", fmt.Errorf("failed to write data: %w", err)
	}

	if w.config.EnableFormatting {
		err := w.retry(ctx, func() error { return w.applyFormatting(ctx, spreadsheetID, sheetID) })
		if err != nil {
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("sheets export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(values))

	return spreadsheetID, nil
}

func (w *Writer) retry(ctx context.Context, op func() error) error {
	opts := common.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	return common.WithRetry(ctx, func() error {
		err := op()
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != http.StatusTooManyRequests {
			return common.Permanent(err)
		}
		return err
	}, opts)
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		token := &oauth2.Token{RefreshToken: config.RefreshToken, TokenType: "Bearer"}
		if token.RefreshToken == "" {
			saved, err := LoadToken(config.TokenFile)
			if err != nil {
				return nil, fmt.Errorf("unable to load token from %s: %w", config.TokenFile, err)
			}
			token = saved
		}
		tokenSource = oauthConfig(config.ClientID, config.ClientSecret, "").TokenSource(ctx, token)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return srv, nil
}

// prepareSpreadsheet returns the target spreadsheet and the ID of the
// records tab, creating either when missing.
func (w *Writer) prepareSpreadsheet(ctx context.Context) (string, int64, error) {
	if w.config.SpreadsheetID == "" {
		return w.createSpreadsheet(ctx)
	}

	var existing *sheets.Spreadsheet
	err := w.retry(ctx, func() error {
		var err error
		existing, err = w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", 0, fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
	}

	for _, s := range existing.Sheets {
		if s.Properties != nil && s.Properties.Title == w.config.SheetTitle {
			return w.config.SpreadsheetID, s.Properties.SheetId, nil
		}
	}

	sheetID, err := w.addSheet(ctx, w.config.SpreadsheetID)
	if err != nil {
		return "", 0, err
	}
	return w.config.SpreadsheetID, sheetID, nil
}

func (w *Writer) createSpreadsheet(ctx context.Context) (string, int64, error) {
	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: w.config.SheetTitle}},
		},
	}

	var created *sheets.Spreadsheet
	err := w.retry(ctx, func() error {
		var err error
		created, err = w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", 0, fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	var sheetID int64
	if len(created.Sheets) > 0 && created.Sheets[0].Properties != nil {
		sheetID = created.Sheets[0].Properties.SheetId
	}
	return created.SpreadsheetId, sheetID, nil
}

func (w *Writer) addSheet(ctx context.Context, spreadsheetID string) (int64, error) {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: w.config.SheetTitle},
			}},
		},
	}

	var resp *sheets.BatchUpdateSpreadsheetResponse
	err := w.retry(ctx, func() error {
		var err error
		resp, err = w.service.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("unable to add sheet %q: %w", w.config.SheetTitle, err)
	}

	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return 0, fmt.Errorf("unable to add sheet %q: empty reply", w.config.SheetTitle)
	}
	w.logger.Info("added sheet", "title", w.config.SheetTitle)
	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}

// a1 builds an A1 range on the records tab.
func (w *Writer) a1(cells string) string {
	title := strings.ReplaceAll(w.config.SheetTitle, "'", "''")
	return fmt.Sprintf("'%s'!%s", title, cells)
}

func (w *Writer) clearSheet(ctx context.Context, spreadsheetID string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, w.a1("A:Z"), &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// writeData writes values in batches. Cells are written raw so dates and
// amounts keep their canonical text.
func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))
		batch := &sheets.ValueRange{Values: values[i:end]}
		rangeStr := w.a1(fmt.Sprintf("A%d", i+1))

		err := w.retry(ctx, func() error {
			_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, batch).
				ValueInputOption("RAW").
				Context(ctx).
				Do()
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "start_row", i+1, "rows", end-i)
	}
	return nil
}

// applyFormatting bolds and freezes the header row and sizes the columns.
func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, sheetID int64) error {
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   int64(len(Header)),
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   int64(len(Header)),
				},
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        sheetID,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	batchUpdate := &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}
	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, batchUpdate).Context(ctx).Do()
	return err
}
