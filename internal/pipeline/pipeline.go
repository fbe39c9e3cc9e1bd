// Package pipeline runs the staged triage over one archive root: decode,
// classify, render, extract, then persist the result cache.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/serena/internal/cache"
	"github.com/Veraticus/serena/internal/classify"
	"github.com/Veraticus/serena/internal/config"
	"github.com/Veraticus/serena/internal/decode"
	"github.com/Veraticus/serena/internal/extract"
	"github.com/Veraticus/serena/internal/llm"
	"github.com/Veraticus/serena/internal/model"
	"github.com/Veraticus/serena/internal/render"
	"github.com/Veraticus/serena/internal/storage"
)

// Config holds pipeline settings.
type Config struct {
	CachePath string
	Workers   int
}

// Result is what a run hands to the display layer.
type Result struct {
	Cache   *cache.Cache
	JSONDir string
	HTMLDir string
	Summary model.Summary
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLedger makes the pipeline record units and reuse oracle answers.
func WithLedger(ledger *storage.Ledger) Option {
	return func(p *Pipeline) { p.ledger = ledger }
}

// WithObserver reports stage progress to o.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// WithCache uses c instead of loading the cache from Config.CachePath.
func WithCache(c *cache.Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// Pipeline wires the stages together.
type Pipeline struct {
	oracle   llm.Client
	observer Observer
	ledger   *storage.Ledger
	cache    *cache.Cache
	logger   *slog.Logger
	cfg      Config
}

// New creates a pipeline that consults oracle for classification and
// extraction.
func New(oracle llm.Client, cfg Config, logger *slog.Logger, opts ...Option) *Pipeline {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	p := &Pipeline{
		oracle:   oracle,
		cfg:      cfg,
		logger:   logger,
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Cache returns the result cache, loading it on first use.
func (p *Pipeline) Cache() *cache.Cache {
	if p.cache == nil {
		p.cache = cache.Load(p.cfg.CachePath, p.logger)
	}
	return p.cache
}

// Records returns the cached normalized records for tabular display.
func (p *Pipeline) Records() []model.NormalizedRecord {
	return p.Cache().Records()
}

// Run executes every stage over root. Per-unit failures are counted in the
// summary; only an unusable output location, an unwritable cache or
// cancellation make Run fail. The cache is saved even when Run fails part
// way through extraction.
func (p *Pipeline) Run(ctx context.Context, root string) (Result, error) {
	layout := config.NewLayout(root)
	result := Result{
		Cache:   p.Cache(),
		JSONDir: layout.A2PJSON,
		HTMLDir: layout.A2PHTML,
	}
	if err := layout.Validate(); err != nil {
		return result, err
	}

	summary := model.Summary{Root: layout.Root, StartedAt: time.Now()}
	summary.RunID = p.beginRun(ctx, layout.Root, summary.StartedAt)
	cacheBefore := result.Cache.Len()

	p.logger.Info("starting run", "root", layout.Root, "run_id", summary.RunID, "workers", p.cfg.Workers)

	finish := func(err error) (Result, error) {
		summary.FinishedAt = time.Now()
		summary.CacheSize = result.Cache.Len()
		summary.NewRecords = summary.CacheSize - cacheBefore
		result.Summary = summary
		p.finishRun(ctx, summary)
		return result, err
	}

	stages := []func(context.Context, config.Layout, string) (model.StageStats, error){
		p.decodeStage,
		p.classifyStage,
		p.renderStage,
		p.extractStage,
	}
	for _, stage := range stages {
		stats, err := stage(ctx, layout, summary.RunID)
		summary.Stages = append(summary.Stages, stats)
		if err != nil {
			return finish(err)
		}
	}

	p.logger.Info("run finished",
		"run_id", summary.RunID,
		"cache_size", result.Cache.Len(),
		"new_records", result.Cache.Len()-cacheBefore)
	return finish(nil)
}

// Decode runs only the decoders.
func (p *Pipeline) Decode(ctx context.Context, root string) (model.StageStats, error) {
	return p.single(ctx, root, p.decodeStage)
}

// Classify runs only the classifier over the staged units.
func (p *Pipeline) Classify(ctx context.Context, root string) (model.StageStats, error) {
	return p.single(ctx, root, p.classifyStage)
}

// Render runs only the renderer over the A2P units.
func (p *Pipeline) Render(ctx context.Context, root string) (model.StageStats, error) {
	return p.single(ctx, root, p.renderStage)
}

// Extract runs only the extractor over the A2P units and saves the cache.
func (p *Pipeline) Extract(ctx context.Context, root string) (model.StageStats, error) {
	return p.single(ctx, root, p.extractStage)
}

func (p *Pipeline) single(ctx context.Context, root string, stage func(context.Context, config.Layout, string) (model.StageStats, error)) (model.StageStats, error) {
	layout := config.NewLayout(root)
	if err := layout.Validate(); err != nil {
		return model.StageStats{}, err
	}
	return stage(ctx, layout, "")
}

func (p *Pipeline) decodeStage(ctx context.Context, layout config.Layout, runID string) (model.StageStats, error) {
	stats := model.StageStats{Stage: model.StageDecode}
	p.observer.StageStarted(model.StageDecode, 0)

	sources := map[string]string{
		"mail":       layout.Emls,
		"tabular":    layout.TextMessage,
		"transcript": layout.MessagingApp,
	}

	var units []model.MessageUnit
	for _, d := range decode.All(p.logger) {
		res, err := d.Decode(ctx, sources[d.Name()], layout.Text)
		stats.Add(res.Stats)
		units = append(units, res.Units...)
		for _, u := range res.Units {
			p.observer.UnitDone(model.StageDecode, u.ID)
		}
		if err != nil {
			p.observer.StageFinished(stats)
			return stats, fmt.Errorf("%s decoder: %w", d.Name(), err)
		}
	}

	if p.ledger != nil && len(units) > 0 {
		if err := p.ledger.RecordUnits(ctx, runID, units); err != nil {
			p.logger.Warn("failed to record staged units", "error", err)
		}
	}

	p.logger.Info("decoded sources", "units", len(units), "failed", stats.Failed)
	p.observer.StageFinished(stats)
	return stats, nil
}

func (p *Pipeline) classifyStage(ctx context.Context, layout config.Layout, _ string) (model.StageStats, error) {
	var store classify.LabelStore
	if p.ledger != nil {
		store = p.ledger
	}

	inputs := []string{layout.Text}
	p.observer.StageStarted(model.StageClassify, countText(inputs))
	stats, err := classify.New(p.oracle, store, p.logger).ClassifyDirs(ctx, inputs, layout.A2PText, classify.Options{
		Workers: p.cfg.Workers,
		Progress: func(path string, _ model.Label) {
			p.observer.UnitDone(model.StageClassify, path)
		},
	})
	p.observer.StageFinished(stats)
	return stats, err
}

func (p *Pipeline) renderStage(ctx context.Context, layout config.Layout, _ string) (model.StageStats, error) {
	p.observer.StageStarted(model.StageRender, countText([]string{layout.A2PText}))
	stats, err := render.New(p.logger).RenderDir(ctx, layout.A2PText, layout.A2PHTML)
	p.observer.StageFinished(stats)
	return stats, err
}

func (p *Pipeline) extractStage(ctx context.Context, layout config.Layout, _ string) (model.StageStats, error) {
	var store extract.Store
	if p.ledger != nil {
		store = p.ledger
	}

	c := p.Cache()
	inputs := []string{layout.A2PText}
	total := countText(inputs)
	p.observer.StageStarted(model.StageExtract, total)

	stats, err := extract.New(p.oracle, store, p.logger).ExtractDirs(ctx, inputs, layout.A2PJSON, c, extract.Options{
		Workers: p.cfg.Workers,
		Progress: func(path string, _ model.ExtractionRecord) {
			p.observer.UnitDone(model.StageExtract, path)
		},
	})
	p.observer.StageFinished(stats)

	if total == 0 && err == nil {
		return stats, nil
	}
	if saveErr := c.Save(); saveErr != nil {
		return stats, errors.Join(err, fmt.Errorf("failed to save cache: %w", saveErr))
	}
	p.logger.Debug("saved cache", "path", c.Path(), "records", c.Len())
	return stats, err
}

func (p *Pipeline) beginRun(ctx context.Context, root string, startedAt time.Time) string {
	if p.ledger == nil {
		return uuid.NewString()
	}
	id, err := p.ledger.BeginRun(ctx, root, startedAt)
	if err != nil {
		p.logger.Warn("failed to record run start", "error", err)
		return uuid.NewString()
	}
	return id
}

func (p *Pipeline) finishRun(ctx context.Context, summary model.Summary) {
	if p.ledger == nil {
		return
	}
	if err := p.ledger.FinishRun(context.WithoutCancel(ctx), summary); err != nil {
		p.logger.Warn("failed to record run summary", "error", err)
	}
}

func countText(dirs []string) int {
	n := 0
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
				n++
			}
		}
	}
	return n
}
