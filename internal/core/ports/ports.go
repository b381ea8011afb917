package ports

import (
	"context"
	"time"

	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/data/history"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/rule"
)

// FileCollector abstracts project file discovery for driving adapters.
type FileCollector interface {
	Collect(root string) ([]rule.FileHandle, error)
}

// HistoryStore abstracts run-summary persistence for trend workflows.
type HistoryStore interface {
	SaveRun(ctx context.Context, summary history.RunSummary) error
	LoadRuns(ctx context.Context, since time.Time, limit int) ([]history.RunSummary, error)
}

// ProgressFunc receives completion updates during a run: the completed/total
// fraction and the path of the most recently finished file. The engine
// serializes and throttles delivery.
type ProgressFunc func(completed, total int, path string)

// InspectRequest defines a full-project inspection for driving adapters.
type InspectRequest struct {
	Root     string
	Progress ProgressFunc
}

// InspectResult summarizes a completed inspection run.
type InspectResult struct {
	RunID      string
	Files      int
	Findings   int
	Errors     int
	BySeverity map[rule.Severity]int
	Duration   time.Duration
}

// InspectionService exposes run execution to driving adapters (CLI, watch
// loop, editor integrations).
type InspectionService interface {
	Inspect(ctx context.Context, req InspectRequest) (*rule.Results, error)
	InspectFile(ctx context.Context, root, path string) (*rule.Results, error)
}

// WatchUpdate is emitted to driving adapters after each incremental re-run.
type WatchUpdate struct {
	Path     string
	Findings int
	Errors   int
}

// WatchService exposes the watch lifecycle for driving adapters.
type WatchService interface {
	Start(ctx context.Context, updates chan<- WatchUpdate) error
	Stop() error
}
