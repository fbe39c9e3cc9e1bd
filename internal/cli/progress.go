package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/serena/internal/model"
)

var stageLabels = map[model.Stage]string{
	model.StageDecode:   "Decoding sources...",
	model.StageClassify: "Classifying units...",
	model.StageRender:   "Rendering HTML...",
	model.StageExtract:  "Extracting fields...",
}

// ProgressObserver draws one progress bar per pipeline stage.
type ProgressObserver struct {
	writer io.Writer
	bar    *progressbar.ProgressBar
	mu     sync.Mutex
}

// NewProgressObserver creates an observer writing bars to w.
func NewProgressObserver(w io.Writer) *ProgressObserver {
	return &ProgressObserver{writer: w}
}

// StageStarted opens a bar sized to total. A total of zero means the size
// is unknown and a spinner is shown instead.
func (p *ProgressObserver) StageStarted(stage model.Stage, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	size := total
	if size <= 0 {
		size = -1
	}

	p.bar = progressbar.NewOptions(size,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+stageLabels[stage]+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(p.writer)
		}),
	)
}

// UnitDone advances the current bar.
func (p *ProgressObserver) UnitDone(_ model.Stage, _ string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		return
	}
	if err := p.bar.Add(1); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// StageFinished completes and drops the current bar.
func (p *ProgressObserver) StageFinished(_ model.StageStats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		return
	}
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
	p.bar = nil
}
