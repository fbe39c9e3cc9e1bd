package model

import "time"

// Stage names a pipeline stage.
type Stage string

// Pipeline stages.
const (
	StageDecode   Stage = "decode"
	StageClassify Stage = "classify"
	StageRender   Stage = "render"
	StageExtract  Stage = "extract"
)

// StageStats counts what happened to the units a stage saw.
//
// For the classifier, Succeeded counts A2P units kept, Skipped counts P2P
// units discarded and Failed counts oracle failures (which are also
// discarded). For the decoders, Skipped counts units whose text another
// input of the same call already staged. Reused counts answers served from
// the processing ledger.
type StageStats struct {
	Stage     Stage `json:"stage"`
	Processed int   `json:"processed"`
	Succeeded int   `json:"succeeded"`
	Failed    int   `json:"failed"`
	Skipped   int   `json:"skipped"`
	Reused    int   `json:"reused"`
}

// Add folds other into s.
func (s *StageStats) Add(other StageStats) {
	s.Processed += other.Processed
	s.Succeeded += other.Succeeded
	s.Failed += other.Failed
	s.Skipped += other.Skipped
	s.Reused += other.Reused
}

// Summary is the user-visible result of one pipeline run.
type Summary struct {
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	RunID      string       `json:"run_id"`
	Root       string       `json:"root"`
	Stages     []StageStats `json:"stages"`
	CacheSize  int          `json:"cache_size"`
	NewRecords int          `json:"new_records"`
}

// Stage returns the stats for the named stage.
func (s Summary) Stage(name Stage) StageStats {
	for _, st := range s.Stages {
		if st.Stage == name {
			return st
		}
	}
	return StageStats{Stage: name}
}

// Failures totals failed units across stages.
func (s Summary) Failures() int {
	total := 0
	for _, st := range s.Stages {
		total += st.Failed
	}
	return total
}
