package main

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/serena/internal/cache"
	"github.com/Veraticus/serena/internal/config"
	"github.com/Veraticus/serena/internal/llm"
	"github.com/Veraticus/serena/internal/pipeline"
	"github.com/Veraticus/serena/internal/storage"
)

func cachePath(v *viper.Viper) string {
	p := config.ExpandPath(v.GetString("cache.path"))
	if p == "" {
		return cache.FileName
	}
	return p
}

func loadCache(v *viper.Viper) *cache.Cache {
	return cache.Load(cachePath(v), slog.Default())
}

// openLedger opens the processing ledger, or returns nil when it is
// disabled. A ledger that cannot be opened is logged and skipped; the
// pipeline works without it, just without reuse.
func openLedger(ctx context.Context, v *viper.Viper) *storage.Ledger {
	if !v.GetBool("ledger.enabled") {
		return nil
	}

	path := config.ExpandPath(v.GetString("ledger.path"))
	ledger, err := storage.OpenAndMigrate(ctx, path)
	if err != nil {
		slog.Warn("processing ledger unavailable, continuing without it", "path", path, "error", err)
		return nil
	}
	slog.Debug("opened processing ledger", "path", filepath.Clean(path))
	return ledger
}

func closeLedger(ledger *storage.Ledger) {
	if ledger == nil {
		return
	}
	if err := ledger.Close(); err != nil {
		slog.Warn("failed to close ledger", "error", err)
	}
}

// newPipeline wires the oracle, cache and ledger from configuration. Stages
// that never consult the oracle pass needOracle false so no credentials are
// required. The returned cleanup closes the ledger.
func newPipeline(cmd *cobra.Command, v *viper.Viper, needOracle bool, opts ...pipeline.Option) (*pipeline.Pipeline, func(), error) {
	var oracle llm.Client
	if needOracle {
		var err error
		if oracle, err = createOracle(v); err != nil {
			return nil, nil, err
		}
	}

	ledger := openLedger(cmd.Context(), v)
	if ledger != nil {
		opts = append(opts, pipeline.WithLedger(ledger))
	}

	p := pipeline.New(oracle, pipeline.Config{
		CachePath: cachePath(v),
		Workers:   workers(cmd, v),
	}, slog.Default(), opts...)

	return p, func() { closeLedger(ledger) }, nil
}

func workers(cmd *cobra.Command, v *viper.Viper) int {
	if f := cmd.Flags().Lookup("workers"); f != nil && f.Changed {
		n, err := cmd.Flags().GetInt("workers")
		if err == nil {
			return n
		}
	}
	return v.GetInt("pipeline.workers")
}
