// Package classify separates machine-generated (A2P) message units from
// person-to-person conversation.
package classify

import (
	"context"
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

// OutputPrefix is prepended to the name of every unit kept as A2P.
const OutputPrefix = "a2p_"

// LabelStore remembers labels by unit content hash so a re-run does not ask
// the oracle again for content it has already seen.
type LabelStore interface {
	LookupLabel(ctx context.Context, contentHash string) (model.Label, bool, error)
	SaveLabel(ctx context.Context, contentHash string, label model.Label, unitPath string) error
}

// Options tune a classification batch.
type Options struct {
	// Progress is called once per unit after it has been classified.
	Progress func(path string, label model.Label)
	Workers  int
}

// Classifier labels units with the oracle and keeps the A2P ones.
type Classifier struct {
	oracle llm.Client
	store  LabelStore
	logger *slog.Logger
}

// New creates a classifier. store may be nil.
func New(oracle llm.Client, store LabelStore, logger *slog.Logger) *Classifier {
	return &Classifier{oracle: oracle, store: store, logger: logger}
}

// ParseLabel maps an oracle reply to a label. A whole-word, case-insensitive
// "A2P" anywhere in the reply wins; anything else is P2P.
func ParseLabel(reply string) model.Label {
	if llm.ContainsWord(reply, string(model.LabelA2P)) {
		return model.LabelA2P
	}
	return model.LabelP2P
}

// Classify labels one unit. Oracle failures are returned alongside LabelP2P
// so callers can count them and still route the unit as discarded.
func (c *Classifier) Classify(ctx context.Context, unit model.MessageUnit) (model.Label, bool, error) {
	hash := unit.ContentHash()

	if c.store != nil {
		label, ok, err := c.store.LookupLabel(ctx, hash)
		if err != nil {
			c.logger.Warn("label lookup failed", "unit", unit.ID, "error", err)
		} else if ok {
			return label, true, nil
		}
	}

	reply, err := c.oracle.Complete(ctx, llm.ClassificationRequest(strings.TrimSpace(unit.Body)))
	if err != nil {
		return model.LabelP2P, false, fmt.Errorf("classify %s: %w", unit.ID, err)
	}

	label := ParseLabel(reply)
	c.logger.Debug("classified unit", "unit", unit.ID, "label", label, "reply", reply)

	if c.store != nil {
		if err := c.store.SaveLabel(ctx, hash, label, unit.ID); err != nil {
			c.logger.Warn("failed to record label", "unit", unit.ID, "error", err)
		}
	}
	return label, false, nil
}

// ClassifyDirs classifies every .txt file in inputDirs and copies the A2P
// ones byte for byte into outDir as a2p_<name>. Inputs are never modified.
// Only an unwritable outDir or cancellation aborts the batch.
func (c *Classifier) ClassifyDirs(ctx context.Context, inputDirs []string, outDir string, opts Options) (model.StageStats, error) {
	stats := model.StageStats{Stage: model.StageClassify}

	var files []string
	for _, dir := range inputDirs {
		found, err := listText(dir)
		if err != nil {
			c.logger.Warn("failed to list input directory", "dir", dir, "error", err)
			continue
		}
		files = append(files, found...)
	}

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return stats, fmt.Errorf("%w: %s: %w", common.ErrOutputNotReady, outDir, err)
	}
	if len(files) == 0 {
		return stats, nil
	}

	c.logger.Info("classifying units", "count", len(files), "output", outDir)

	var mu sync.Mutex
	err := common.ForEach(ctx, opts.Workers, len(files), func(ctx context.Context, i int) error {
		delta, err := c.classifyFile(ctx, files[i], outDir)
		if err != nil {
			return err
		}

		mu.Lock()
		stats.Add(delta.stats)
		mu.Unlock()

		if opts.Progress != nil {
			opts.Progress(files[i], delta.label)
		}
		return nil
	})

	c.logger.Info("classification finished",
		"processed", stats.Processed,
		"a2p", stats.Succeeded,
		"p2p", stats.Skipped,
		"failed", stats.Failed,
		"reused", stats.Reused)

	return stats, err
}

type fileOutcome struct {
	label model.Label
	stats model.StageStats
}

// classifyFile returns an error only when the batch has to stop.
func (c *Classifier) classifyFile(ctx context.Context, path, outDir string) (fileOutcome, error) {
	out := fileOutcome{label: model.LabelP2P, stats: model.StageStats{Processed: 1}}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from a directory listing
	if err != nil {
		c.logger.Warn("failed to read unit", "file", path, "error", err)
		out.stats.Failed++
		return out, nil
	}

	unit := model.MessageUnit{ID: path, Body: string(data), Provenance: model.Provenance{ArchivePath: path}}
	label, reused, err := c.Classify(ctx, unit)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return out, ctxErr
		}
		c.logger.Warn("classification failed, discarding unit", "file", path, "error", err)
		out.stats.Failed++
		return out, nil
	}
	if reused {
		out.stats.Reused++
	}
	out.label = label

	if !label.Kept() {
		out.stats.Skipped++
		return out, nil
	}

	dst := filepath.Join(outDir, OutputPrefix+filepath.Base(path))
	if err := os.WriteFile(dst, data, 0600); err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return out, fmt.Errorf("%w: %s: %w", common.ErrOutputNotReady, outDir, err)
		}
		c.logger.Warn("failed to copy A2P unit", "file", path, "error", err)
		out.stats.Failed++
		return out, nil
	}

	out.stats.Succeeded++
	return out, nil
}

func listText(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
