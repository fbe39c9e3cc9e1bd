package pipeline

import "github.com/Veraticus/serena/internal/model"

// Observer is told about stage progress. Calls for one stage may come from
// several goroutines when workers > 1.
type Observer interface {
	StageStarted(stage model.Stage, total int)
	UnitDone(stage model.Stage, path string)
	StageFinished(stats model.StageStats)
}

// NopObserver ignores every event.
type NopObserver struct{}

// StageStarted implements Observer.
func (NopObserver) StageStarted(model.Stage, int) {}

// UnitDone implements Observer.
func (NopObserver) UnitDone(model.Stage, string) {}

// StageFinished implements Observer.
func (NopObserver) StageFinished(model.StageStats) {}
