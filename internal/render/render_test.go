package render

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/serena/internal/common"
)

func TestDocument_InsertsBodyVerbatim(t *testing.T) {
	page, err := Document("a2p_eml_1", "Total: <b>USD 5</b> & tax\n")
	require.NoError(t, err)

	html := string(page)
	assert.Contains(t, html, "<title>a2p_eml_1</title>")
	assert.Contains(t, html, "<pre>Total: <b>USD 5</b> & tax\n</pre>")
}

func TestHTMLName(t *testing.T) {
	assert.Equal(t, "a2p_eml_1.html", HTMLName("a2p_eml_1.txt"))
	assert.Equal(t, "chat_part2.html", HTMLName("chat_part2.txt"))
}

func TestRenderDir(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "A2P-classified-text")
	out := filepath.Join(root, "A2P-classified-html")
	require.NoError(t, os.MkdirAll(src, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a2p_eml_1.txt"), []byte("Order shipped"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(src, "skip.json"), []byte("{}"), 0600))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "dir.txt"), 0750))

	stats, err := New(common.DiscardLogger()).RenderDir(context.Background(), src, out)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Succeeded)

	page, err := os.ReadFile(filepath.Join(out, "a2p_eml_1.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "<pre>Order shipped</pre>")

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRenderDir_MissingSource(t *testing.T) {
	root := t.TempDir()
	stats, err := New(common.DiscardLogger()).RenderDir(context.Background(), filepath.Join(root, "none"), filepath.Join(root, "out"))
	require.NoError(t, err)
	assert.Zero(t, stats.Processed)
}
