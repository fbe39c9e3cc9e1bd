// Package testutil provides shared fixtures for serena tests: an in-memory
// ledger and a scratch archive root with the standard directory layout.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/serena/internal/storage"
)

// SetupLedger creates a migrated in-memory ledger that is closed when the
// test ends.
//
// Example:
//
//	ledger := testutil.SetupLedger(t)
//	p := pipeline.New(oracle, cfg, pipeline.WithLedger(ledger))
func SetupLedger(t *testing.T) *storage.Ledger {
	t.Helper()

	ledger, err := storage.OpenAndMigrate(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("failed to create test ledger: %v", err)
	}

	t.Cleanup(func() {
		_ = ledger.Close()
	})
	return ledger
}
