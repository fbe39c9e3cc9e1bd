package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/serena/internal/common"
	"github.com/Veraticus/serena/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// fakeSheets is an in-process stand-in for the Sheets REST API.
type fakeSheets struct {
	t           *testing.T
	mu          sync.Mutex
	tabs        []string
	rows        [][]any
	calls       map[string]int
	batches     []*sheets.BatchUpdateSpreadsheetRequest
	getStatus   int
	putFailures int
}

func newFakeSheets(t *testing.T, tabs ...string) *fakeSheets {
	t.Helper()
	return &fakeSheets{t: t, tabs: tabs, calls: map[string]int{}}
}

func (f *fakeSheets) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && path == "/v4/spreadsheets":
		f.calls["create"]++
		var req sheets.Spreadsheet
		if !assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		title := req.Sheets[0].Properties.Title
		_ = json.NewEncoder(w).Encode(map[string]any{
			"spreadsheetId":  "created-1",
			"spreadsheetUrl": "https://example.invalid/created-1",
			"sheets": []any{
				map[string]any{"properties": map[string]any{"sheetId": 3, "title": title}},
			},
		})

	case r.Method == http.MethodGet && strings.HasPrefix(path, "/v4/spreadsheets/"):
		f.calls["get"]++
		if f.getStatus != 0 {
			w.WriteHeader(f.getStatus)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Requested entity was not found."}}`))
			return
		}
		tabs := make([]any, 0, len(f.tabs))
		for i, title := range f.tabs {
			tabs = append(tabs, map[string]any{"properties": map[string]any{"sheetId": 7 + i, "title": title}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sheet-1", "sheets": tabs})

	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		f.calls["clear"]++
		f.rows = nil
		_, _ = w.Write([]byte(`{}`))

	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		f.calls["batchUpdate"]++
		var req sheets.BatchUpdateSpreadsheetRequest
		if !assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		f.batches = append(f.batches, &req)
		if len(req.Requests) > 0 && req.Requests[0].AddSheet != nil {
			_, _ = w.Write([]byte(`{"replies":[{"addSheet":{"properties":{"sheetId":42,"title":"Records"}}}]}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))

	case r.Method == http.MethodPut:
		f.calls["update"]++
		if f.putFailures > 0 {
			f.putFailures--
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"code":500,"message":"backend error"}}`))
			return
		}
		assert.Equal(f.t, "RAW", r.URL.Query().Get("valueInputOption"))
		var vr sheets.ValueRange
		if !assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&vr)) {
			return
		}
		for _, row := range vr.Values {
			f.rows = append(f.rows, row)
		}
		_, _ = w.Write([]byte(`{}`))

	default:
		f.t.Errorf("unexpected request %s %s", r.Method, path)
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestWriter(t *testing.T, fake *fakeSheets, cfg Config) *Writer {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	cfg.RetryDelay = time.Millisecond
	return newWriter(svc, cfg, common.DiscardLogger())
}

func sampleRecords() []model.NormalizedRecord {
	return []model.NormalizedRecord{
		{ServiceName: "Uber", MessageDatetime: "2024/03/05 09:00:00", Amount: "USD 99", SourcePath: "a.txt"},
		{ServiceName: "Coupang", MessageDatetime: "2024/03/06 10:00:00", Amount: "KRW 12,000", SourcePath: "b.txt"},
		{ServiceName: "Baemin", MessageDatetime: "2024/03/07 11:00:00", SourcePath: "c.txt"},
	}
}

func TestWriter_WritesExistingSpreadsheetInBatches(t *testing.T) {
	fake := newFakeSheets(t, "Sheet1", DefaultSheetTitle)
	w := newTestWriter(t, fake, Config{SpreadsheetID: "sheet-1", BatchSize: 2, EnableFormatting: true})

	id, err := w.Write(context.Background(), sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, "sheet-1", id)

	assert.Equal(t, 1, fake.count("get"))
	assert.Equal(t, 1, fake.count("clear"))
	assert.Equal(t, 2, fake.count("update"), "header plus three rows in batches of two")
	assert.Equal(t, 0, fake.count("create"))

	require.Len(t, fake.rows, 4)
	assert.Equal(t, "Service", fake.rows[0][0])
	assert.Equal(t, "Uber", fake.rows[1][0])
	assert.Equal(t, "USD 99", fake.rows[1][6])
	assert.Equal(t, "Baemin", fake.rows[3][0])

	require.Len(t, fake.batches, 1, "only the formatting batch")
	fmtReq := fake.batches[0]
	require.NotEmpty(t, fmtReq.Requests)
	assert.Equal(t, int64(8), fmtReq.Requests[0].RepeatCell.Range.SheetId)
}

func TestWriter_AddsMissingTab(t *testing.T) {
	fake := newFakeSheets(t, "Sheet1")
	w := newTestWriter(t, fake, Config{SpreadsheetID: "sheet-1", BatchSize: 100, EnableFormatting: true})

	_, err := w.Write(context.Background(), sampleRecords())
	require.NoError(t, err)

	require.Len(t, fake.batches, 2)
	require.NotNil(t, fake.batches[0].Requests[0].AddSheet)
	assert.Equal(t, DefaultSheetTitle, fake.batches[0].Requests[0].AddSheet.Properties.Title)
	assert.Equal(t, int64(42), fake.batches[1].Requests[0].RepeatCell.Range.SheetId)
	assert.Len(t, fake.rows, 4)
}

func TestWriter_CreatesSpreadsheet(t *testing.T) {
	fake := newFakeSheets(t)
	w := newTestWriter(t, fake, Config{SpreadsheetName: "Serena", BatchSize: 100})

	id, err := w.Write(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "created-1", id)
	assert.Equal(t, 1, fake.count("create"))
	assert.Equal(t, 0, fake.count("get"))
	assert.Equal(t, 0, fake.count("batchUpdate"), "formatting disabled")
	require.Len(t, fake.rows, 1)
	assert.Equal(t, "Service", fake.rows[0][0])
}

func TestWriter_ClientErrorsAreNotRetried(t *testing.T) {
	fake := newFakeSheets(t)
	fake.getStatus = http.StatusNotFound
	w := newTestWriter(t, fake, Config{SpreadsheetID: "missing", BatchSize: 100, RetryAttempts: 3})

	_, err := w.Write(context.Background(), sampleRecords())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to access spreadsheet missing")
	assert.Equal(t, 1, fake.count("get"))
	assert.Equal(t, 0, fake.count("update"))
}

func TestWriter_RetriesServerErrors(t *testing.T) {
	fake := newFakeSheets(t, DefaultSheetTitle)
	fake.putFailures = 1
	w := newTestWriter(t, fake, Config{SpreadsheetID: "sheet-1", BatchSize: 100, RetryAttempts: 3})

	_, err := w.Write(context.Background(), sampleRecords())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, fake.count("update"), 2)
	assert.Len(t, fake.rows, 4)
}

func TestA1_QuotesTitle(t *testing.T) {
	w := newWriter(nil, Config{SheetTitle: "Bob's Records"}, common.DiscardLogger())
	assert.Equal(t, "'Bob''s Records'!A1", w.a1("A1"))
}
