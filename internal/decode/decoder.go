// Package decode turns raw archive files into staged plain-text message
// units, one file per unit.
package decode

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

	"github.com/Veraticus/serena/internal/common"
	"github.com/Veraticus/serena/internal/model"
)

// Decoder reads every matching file in srcDir and stages its message units
// in dstDir. A missing or empty srcDir is a no-op.
type Decoder interface {
	Name() string
	Decode(ctx context.Context, srcDir, dstDir string) (Result, error)
}

// Result reports what a decoder staged.
type Result struct {
	Units []model.MessageUnit
	Stats model.StageStats
}

func (r *Result) add(unit model.MessageUnit) {
	r.Units = append(r.Units, unit)
}

// listFiles returns the regular files in dir whose extension is one of exts,
// sorted by name. A missing directory yields no files and no error.
func listFiles(dir string, exts ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		for _, want := range exts {
			if ext == want {
				files = append(files, filepath.Join(dir, entry.Name()))
				break
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// prepareStaging creates dstDir and indexes what it already holds. Failures
// are wrapped as catastrophic.
func prepareStaging(dstDir string) (*staging, error) {
	if err := os.MkdirAll(dstDir, 0750); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrOutputNotReady, dstDir, err)
	}
	return openStaging(dstDir)
}

// staging indexes the units already in a staging directory by content hash,
// so an input whose unit text is already staged maps back to that file
// whatever name it was given. Re-running a decoder after inputs were added,
// removed or reordered therefore never stages the same unit twice.
type staging struct {
	dir    string
	byHash map[string]string
	seen   map[string]bool
}

// openStaging indexes every regular file in dstDir, which must exist.
func openStaging(dstDir string) (*staging, error) {
	entries, err := os.ReadDir(dstDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrOutputNotReady, dstDir, err)
	}

	s := &staging{
		dir:    dstDir,
		byHash: make(map[string]string, len(entries)),
		seen:   make(map[string]bool),
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		path := filepath.Join(dstDir, name)
		data, err := os.ReadFile(path) //nolint:gosec // path is built from dstDir
		if err != nil {
			return nil, fmt.Errorf("failed to inspect %s: %w", path, err)
		}
		hash := model.HashContent(data)
		if _, ok := s.byHash[hash]; !ok {
			s.byHash[hash] = path
		}
	}
	return s, nil
}

// stage writes body under name unless identical content is already staged.
// dup reports that this decoder call already returned the same unit, in
// which case the caller should not hand it out again.
func (s *staging) stage(name string, body []byte) (path string, dup bool, err error) {
	hash := model.HashContent(body)
	if existing, ok := s.byHash[hash]; ok {
		dup = s.seen[existing]
		s.seen[existing] = true
		return existing, dup, nil
	}

	path, err = writeUnit(s.dir, name, body)
	if err != nil {
		return "", false, err
	}
	s.byHash[hash] = path
	s.seen[path] = true
	return path, false, nil
}

// writeUnit stages body under name in dstDir without ever overwriting a
// different unit. When name is taken by identical content that file is
// reused; otherwise a numeric suffix is appended until a free name is found.
func writeUnit(dstDir, name string, body []byte) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for k := 0; ; k++ {
		candidate := name
		if k > 0 {
			candidate = fmt.Sprintf("%s-%d%s", stem, k, ext)
		}
		path := filepath.Join(dstDir, candidate)

		existing, err := os.ReadFile(path) //nolint:gosec // path is built from dstDir
		switch {
		case err == nil:
			if bytes.Equal(existing, body) {
				return path, nil
			}
			continue
		case !errors.Is(err, fs.ErrNotExist):
			return "", fmt.Errorf("failed to inspect %s: %w", path, err)
		}

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600) //nolint:gosec // path is built from dstDir
		if err != nil {
			if errors.Is(err, fs.ErrExist) {
				continue
			}
			return "", fmt.Errorf("failed to create %s: %w", path, err)
		}
		if _, err := f.Write(body); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("failed to write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to close %s: %w", path, err)
		}
		return path, nil
	}
}

// logFailure records a per-file failure without aborting the batch.
func logFailure(logger *slog.Logger, decoder, file string, err error) {
	logger.Warn("failed to decode file",
		"decoder", decoder,
		"file", file,
		"error", err)
}

// All returns the three decoders paired with their source directory names.
func All(logger *slog.Logger) []Decoder {
	return []Decoder{
		NewMailDecoder(logger),
		NewTabularDecoder(logger),
		NewTranscriptDecoder(logger),
	}
}
