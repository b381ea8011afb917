// Package history persists per-run inspection summaries in sqlite so trend
// queries survive process restarts.
package history

import "time"

const SchemaVersion = 1

// RunSummary is the persisted aggregate of one inspection run. Individual
// findings are not stored; they are cheap to reproduce from the sources.
type RunSummary struct {
	RunID         string
	ProjectKey    string
	Timestamp     time.Time
	SchemaVersion int

	Files         int
	Findings      int
	RuleErrors    int
	HintCount     int
	InfoCount     int
	WarningCount  int
	ErrorCount    int
	Duration      time.Duration
}
