package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/serena/internal/config"
)

// Archive is a scratch archive root laid out like a real one.
type Archive struct {
	t      *testing.T
	Layout config.Layout
}

// NewArchive creates an empty archive root under t.TempDir().
func NewArchive(t *testing.T) *Archive {
	t.Helper()
	return &Archive{t: t, Layout: config.NewLayout(t.TempDir())}
}

// Root returns the archive root directory.
func (a *Archive) Root() string {
	return a.Layout.Root
}

// AddEmail writes a single-part plain text .eml file.
func (a *Archive) AddEmail(name, from, subject, body string) *Archive {
	a.t.Helper()
	content := strings.Join([]string{
		"From: " + from,
		"To: me@example.com",
		"Subject: " + subject,
		"Date: Mon, 4 Mar 2024 09:00:00 +0000",
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
		"",
	}, "\r\n")
	a.write(filepath.Join(a.Layout.Emls, name), content)
	return a
}

// AddTranscript writes a messaging-app export.
func (a *Archive) AddTranscript(name, content string) *Archive {
	a.t.Helper()
	a.write(filepath.Join(a.Layout.MessagingApp, name), content)
	return a
}

// AddCSV writes a text-message spreadsheet export as CSV.
func (a *Archive) AddCSV(name string, rows ...[]string) *Archive {
	a.t.Helper()
	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = strings.Join(row, ",")
	}
	a.write(filepath.Join(a.Layout.TextMessage, name), strings.Join(lines, "\n")+"\n")
	return a
}

// Files lists the file names in dir, sorted.
func (a *Archive) Files(dir string) []string {
	a.t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		a.t.Fatalf("failed to list %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}

// Read returns the content of path.
func (a *Archive) Read(path string) string {
	a.t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // test fixture path
	if err != nil {
		a.t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func (a *Archive) write(path, content string) {
	a.t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		a.t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		a.t.Fatalf("failed to write %s: %v", path, err)
	}
}
