package highlight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/serena/internal/common"
	"github.com/Veraticus/serena/internal/model"
	"github.com/Veraticus/serena/internal/render"
)

func page(t *testing.T, title, body string) string {
	t.Helper()
	doc, err := render.Document(title, body)
	require.NoError(t, err)
	return string(doc)
}

func TestApply_WrapsValuesInTextOnly(t *testing.T) {
	doc := page(t, "a2p_eml_1", "Uber receipt\nTotal USD 99\nUber Eats: Burger")
	rec := model.ExtractionRecord{
		ServiceName: model.StringPtr("Uber"),
		Amount:      model.StringPtr("USD 99"),
		Item:        []model.Item{{Name: "Burger"}},
		SourcePath:  "/x/a2p_eml_1.txt",
	}

	out, spans, err := Apply(strings.NewReader(doc), rec)
	require.NoError(t, err)
	html := string(out)

	assert.Equal(t, 4, spans)
	assert.Contains(t, html, `<span style="background-color: yellow;" data-field="service_name">Uber</span> receipt`)
	assert.Contains(t, html, `<span style="background-color: peachpuff;" data-field="amount">USD 99</span>`)
	assert.Contains(t, html, `<span style="background-color: lavender;" data-field="item">Burger</span>`)
	assert.Contains(t, html, "<title>a2p_eml_1</title>", "head is left alone")
}

func TestApply_NeverReentersWrappedSpans(t *testing.T) {
	doc := page(t, "u", "Paid USD 99 to USD Bank")
	rec := model.ExtractionRecord{
		ServiceName: model.StringPtr("USD 99"),
		Amount:      model.StringPtr("99"),
		Address1:    model.StringPtr("USD"),
	}

	out, spans, err := Apply(strings.NewReader(doc), rec)
	require.NoError(t, err)
	html := string(out)

	assert.Equal(t, 2, spans)
	assert.Contains(t, html, `data-field="service_name">USD 99</span>`)
	assert.Contains(t, html, `data-field="address1">USD</span> Bank`)
	assert.NotContains(t, html, `data-field="amount"`)
}

func TestApply_DoesNotMatchMarkup(t *testing.T) {
	doc := `<html><body><a href="https://uber.example/style">ride</a> with uber and style</body></html>`
	rec := model.ExtractionRecord{ServiceName: model.StringPtr("style")}

	out, spans, err := Apply(strings.NewReader(doc), rec)
	require.NoError(t, err)
	assert.Equal(t, 1, spans)
	assert.Contains(t, string(out), `href="https://uber.example/style"`)
}

func TestApply_FailedRecordShowsNotice(t *testing.T) {
	doc := page(t, "u", "Uber")
	rec := model.ExtractionRecord{ServiceName: model.StringPtr("Uber"), Error: "oracle timeout"}

	out, spans, err := Apply(strings.NewReader(doc), rec)
	require.NoError(t, err)
	assert.Zero(t, spans)
	assert.Contains(t, string(out), "Extraction failed: oracle timeout")
}

func TestFindRecord(t *testing.T) {
	records := []model.ExtractionRecord{
		{SourcePath: "/a/A2P-classified-text/a2p_eml_1.txt"},
		{SourcePath: "/a/A2P-classified-text/a2p_chat_part2.txt"},
		{},
	}

	rec, ok := FindRecord("a2p_chat_part2.html", records)
	require.True(t, ok)
	assert.Equal(t, records[1].SourcePath, rec.SourcePath)

	_, ok = FindRecord("a2p_eml_9.html", records)
	assert.False(t, ok)
}

func TestColorOf(t *testing.T) {
	assert.Equal(t, "magenta", ColorOf(model.FieldMobileNumber))
	assert.Equal(t, "lavender", ColorOf(model.FieldItem))
	assert.Equal(t, "", ColorOf("unknown"))
	assert.Len(t, Legend, len(model.FieldNames))
}

func TestDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a2p_eml_1.html"), []byte(page(t, "a2p_eml_1", "Uber ride")), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orphan.html"), []byte(page(t, "orphan", "Uber")), 0600))

	records := []model.ExtractionRecord{{ServiceName: model.StringPtr("Uber"), SourcePath: "/t/a2p_eml_1.txt"}}
	results, err := Dir(dir, records, common.DiscardLogger())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Spans)
	assert.Equal(t, filepath.Join(dir, "a2p_eml_1.highlighted.html"), results[0].Output)

	again, err := Dir(dir, records, common.DiscardLogger())
	require.NoError(t, err)
	assert.Len(t, again, 1, "highlighted copies are not highlighted again")
}
