package app

import (
	"context"
	"log/slog"
	"path/filepath"

	apperrors "github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/core/errors"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/core/ports"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/data/history"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/index"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/rule"
)

// Service drives inspections for the CLI and the watch loop: it discovers
// files, runs the engine, and archives run summaries when a store is wired.
type Service struct {
	engine    *Engine
	collector ports.FileCollector
	store     ports.HistoryStore // nil disables persistence
}

var _ ports.InspectionService = (*Service)(nil)

func NewService(engine *Engine, collector ports.FileCollector, store ports.HistoryStore) *Service {
	return &Service{engine: engine, collector: collector, store: store}
}

// Inspect runs a full-project inspection rooted at req.Root.
func (s *Service) Inspect(ctx context.Context, req ports.InspectRequest) (*rule.Results, error) {
	files, err := s.collector.Collect(req.Root)
	if err != nil {
		return nil, apperrors.AddContext(err, apperrors.CtxOperation, "collect_files")
	}

	results, err := s.engine.ExecuteAll(ctx, req.Root, files, req.Progress)
	if results != nil {
		s.archive(ctx, results)
	}
	return results, err
}

// InspectFile re-runs the rules for one file. The project index is rebuilt
// from the current file set so cross-file rules see fresh state.
func (s *Service) InspectFile(ctx context.Context, root, path string) (*rule.Results, error) {
	files, err := s.collector.Collect(root)
	if err != nil {
		return nil, apperrors.AddContext(err, apperrors.CtxOperation, "collect_files")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	var target rule.FileHandle
	for _, f := range files {
		if f.Path() == path || f.Path() == abs {
			target = f
			break
		}
	}
	if target == nil {
		return nil, apperrors.AddContext(
			apperrors.New(apperrors.CodeNotFound, "file is not part of the inspected file set"),
			apperrors.CtxPath, path)
	}

	idx := index.Build(root, files, s.engine.dispatch)
	return s.engine.ExecuteFile(ctx, root, target, idx)
}

func (s *Service) archive(ctx context.Context, results *rule.Results) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveRun(ctx, Summarize(results)); err != nil {
		slog.Warn("failed to archive run summary", "run", results.RunID, "error", err)
	}
}

// Summarize reduces sealed results to the persisted run summary.
func Summarize(results *rule.Results) history.RunSummary {
	bySeverity := results.BySeverity()
	return history.RunSummary{
		RunID:        results.RunID,
		Timestamp:    results.StartedAt.UTC(),
		Files:        results.FilesCompleted(),
		Findings:     results.Total(),
		RuleErrors:   len(results.Errors()),
		HintCount:    bySeverity[rule.SeverityHint],
		InfoCount:    bySeverity[rule.SeverityInfo],
		WarningCount: bySeverity[rule.SeverityWarning],
		ErrorCount:   bySeverity[rule.SeverityError],
		Duration:     results.Duration(),
	}
}
