// Package render produces the minimal HTML review documents for A2P units.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/Veraticus/serena/internal/common"
	"github.com/Veraticus/serena/internal/model"
)

// The body is inserted verbatim and unescaped.
var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
</head>
<body>
    <pre>{{.Body}}</pre>
</body>
</html>`))

type document struct {
	Title string
	Body  string
}

// Document renders one unit's text as an HTML page titled title.
func Document(title, body string) ([]byte, error) {
	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, document{Title: title, Body: body}); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", title, err)
	}
	return buf.Bytes(), nil
}

// HTMLName maps a unit file name to its rendered document name.
func HTMLName(textName string) string {
	return strings.TrimSuffix(textName, filepath.Ext(textName)) + ".html"
}

// Renderer writes one HTML document per text unit.
type Renderer struct {
	logger *slog.Logger
}

// New creates a renderer.
func New(logger *slog.Logger) *Renderer {
	return &Renderer{logger: logger}
}

// RenderDir writes <stem>.html into outDir for every .txt file in srcDir.
// Per-file failures are logged and counted.
func (r *Renderer) RenderDir(ctx context.Context, srcDir, outDir string) (model.StageStats, error) {
	stats := model.StageStats{Stage: model.StageRender}

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return stats, fmt.Errorf("%w: %s: %w", common.ErrOutputNotReady, outDir, err)
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return stats, nil
		}
		return stats, fmt.Errorf("failed to list %s: %w", srcDir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		stats.Processed++
		src := filepath.Join(srcDir, entry.Name())
		if err := r.renderFile(src, outDir); err != nil {
			stats.Failed++
			r.logger.Warn("failed to render unit", "file", src, "error", err)
			continue
		}
		stats.Succeeded++
	}

	r.logger.Info("rendered units", "count", stats.Succeeded, "failed", stats.Failed, "output", outDir)
	return stats, nil
}

func (r *Renderer) renderFile(src, outDir string) error {
	data, err := os.ReadFile(src) //nolint:gosec // path comes from a directory listing
	if err != nil {
		return fmt.Errorf("failed to read: %w", err)
	}

	name := filepath.Base(src)
	page, err := Document(strings.TrimSuffix(name, filepath.Ext(name)), string(data))
	if err != nil {
		return err
	}

	dst := filepath.Join(outDir, HTMLName(name))
	if err := os.WriteFile(dst, page, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}
