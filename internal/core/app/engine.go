// Package app wires the engine together: it discovers the active rules,
// builds the shared project index, and drives parallel rule execution with
// per-invocation failure isolation.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/core/config"
	apperrors "github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/core/errors"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/core/ports"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/cache"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/index"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/parser"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/rule"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/shared/observability"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/shared/util"
)

// shutdownGrace bounds how long ExecuteAll waits for in-flight rule
// invocations after the context is cancelled. A var so tests can shorten it.
var shutdownGrace = 5 * time.Second

// Engine is the execution coordinator. It is safe to run multiple inspections
// from one Engine sequentially; a single run uses one shared cache and index.
type Engine struct {
	cfg      *config.Config
	registry *rule.Registry
	dispatch *parser.Dispatch
	settings rule.Settings
}

func NewEngine(cfg *config.Config, registry *rule.Registry, dispatch *parser.Dispatch) *Engine {
	return &Engine{
		cfg:      cfg,
		registry: registry,
		dispatch: dispatch,
		settings: cfg.Settings(),
	}
}

// ExecuteAll inspects every file and aggregates findings and isolated rule
// failures into one Results value. Workers never abort the run: a panicking
// or failing rule costs only its own invocation. On context cancellation the
// run returns early with whatever completed within the grace window.
func (e *Engine) ExecuteAll(ctx context.Context, root string, files []rule.FileHandle, progress ports.ProgressFunc) (*rule.Results, error) {
	ctx, span := observability.Tracer.Start(ctx, "inspection.run",
		trace.WithAttributes(
			attribute.String("root", root),
			attribute.Int("files", len(files)),
		))
	defer span.End()

	start := time.Now()
	results := rule.NewResults(len(files))
	span.SetAttributes(attribute.String("run_id", results.RunID))

	if !e.cfg.IsEnabled() {
		slog.Info("inspection disabled by configuration", "run", results.RunID)
		results.Seal()
		return results, nil
	}

	idx := index.Build(root, files, e.dispatch)
	runCache := cache.New(e.cfg.Execution.IsCacheEnabled())
	defer runCache.Close()

	slog.Info("inspection run starting",
		"run", results.RunID,
		"root", root,
		"files", len(files),
		"rules", e.registry.Len(),
		"parallel", e.cfg.Execution.IsParallel(),
	)

	notify := progressNotifier(progress, len(files))

	if e.cfg.Execution.IsParallel() && len(files) > 1 {
		e.executeParallel(ctx, root, files, idx, runCache, results, notify)
	} else {
		e.executeSequential(ctx, root, files, idx, runCache, results, notify)
	}

	results.Seal()
	observability.RunDuration.Observe(time.Since(start).Seconds())

	slog.Info("inspection run finished",
		"run", results.RunID,
		"files", results.FilesCompleted(),
		"findings", results.Total(),
		"errors", len(results.Errors()),
		"duration", results.Duration(),
	)

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("inspection interrupted: %w", err)
	}
	return results, nil
}

// ExecuteFile inspects a single file against an existing index. Watch mode
// uses it for incremental re-runs after a change event.
func (e *Engine) ExecuteFile(ctx context.Context, root string, f rule.FileHandle, idx *index.Project) (*rule.Results, error) {
	ctx, span := observability.Tracer.Start(ctx, "inspection.file",
		trace.WithAttributes(attribute.String("path", f.Path())))
	defer span.End()

	results := rule.NewResults(1)
	if !e.cfg.IsEnabled() {
		results.Seal()
		return results, nil
	}

	runCache := cache.New(e.cfg.Execution.IsCacheEnabled())
	defer runCache.Close()

	findings, errs := e.inspectFile(ctx, root, f, idx, runCache)
	results.MergeFile(findings, errs)
	results.Seal()

	return results, ctx.Err()
}

func (e *Engine) executeSequential(ctx context.Context, root string, files []rule.FileHandle, idx *index.Project, runCache *cache.Cache, results *rule.Results, notify func(int, string)) {
	for i, f := range files {
		if ctx.Err() != nil {
			return
		}
		findings, errs := e.inspectFile(ctx, root, f, idx, runCache)
		results.MergeFile(findings, errs)
		notify(i+1, util.RelativeTo(root, f.Path()))
	}
}

func (e *Engine) executeParallel(ctx context.Context, root string, files []rule.FileHandle, idx *index.Project, runCache *cache.Cache, results *rule.Results, notify func(int, string)) {
	workers := e.cfg.Execution.MaxWorkers
	if workers > len(files) {
		workers = len(files)
	}

	work := make(chan rule.FileHandle)
	var wg sync.WaitGroup
	var completed int
	var completedMu sync.Mutex

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range work {
				findings, errs := e.inspectFile(ctx, root, f, idx, runCache)
				results.MergeFile(findings, errs)

				// notify stays under the lock so observers never see the
				// completed count go backwards.
				completedMu.Lock()
				completed++
				notify(completed, util.RelativeTo(root, f.Path()))
				completedMu.Unlock()
			}
		}()
	}

feed:
	for _, f := range files {
		select {
		case work <- f:
		case <-ctx.Done():
			break feed
		}
	}
	close(work)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	// An uncancelled run always drains every in-flight file; the grace
	// window only bounds the wait after cancellation.
	select {
	case <-done:
	case <-ctx.Done():
		select {
		case <-done:
		case <-time.After(shutdownGrace):
			slog.Warn("workers did not drain within grace period", "grace", shutdownGrace)
		}
	}
}

// inspectFile runs every applicable, enabled rule against one file. Findings
// below the configured minimum severity are dropped here so the aggregate
// only ever sees reportable results.
func (e *Engine) inspectFile(ctx context.Context, root string, f rule.FileHandle, idx *index.Project, runCache *cache.Cache) ([]rule.Finding, []rule.ExecutionError) {
	kind := parser.DetectKind(f.Name())
	if kind == parser.KindNone {
		observability.FilesSkipped.WithLabelValues("unknown_kind").Inc()
		return nil, nil
	}

	applicable := e.enabledRules(kind)
	if len(applicable) == 0 {
		observability.FilesSkipped.WithLabelValues("no_rules").Inc()
		return nil, nil
	}

	content, err := f.Content()
	if err != nil {
		slog.Warn("skipping unreadable file", "path", f.Path(), "error", err)
		observability.FilesSkipped.WithLabelValues("unreadable").Inc()
		return nil, nil
	}
	observability.FilesInspected.WithLabelValues(kind.String()).Inc()

	ectx := &rule.ExecutionContext{
		Root:     root,
		File:     f,
		RelPath:  util.RelativeTo(root, f.Path()),
		Content:  content,
		Kind:     kind,
		Settings: e.settings,
		Dispatch: e.dispatch,
		Cache:    runCache,
		Index:    idx,
	}

	var findings []rule.Finding
	var errs []rule.ExecutionError
	for _, r := range applicable {
		if ctx.Err() != nil {
			break
		}

		ruleFindings, ruleErr := invoke(r, ectx)
		if ruleErr != nil {
			slog.Error("rule failed", "rule", r.ID(), "path", f.Path(), "error", ruleErr)
			observability.RuleErrorsTotal.WithLabelValues(r.ID()).Inc()
			errs = append(errs, rule.ExecutionError{File: ectx.RelPath, RuleID: r.ID(), Err: ruleErr})
			continue
		}
		for _, finding := range ruleFindings {
			if finding.Severity < e.settings.MinSeverity {
				continue
			}
			observability.FindingsTotal.WithLabelValues(finding.Severity.String()).Inc()
			findings = append(findings, finding)
		}
	}
	return findings, errs
}

func (e *Engine) enabledRules(kind parser.FileKind) []rule.Rule {
	all := e.registry.ByFileKind(kind)
	out := make([]rule.Rule, 0, len(all))
	for _, r := range all {
		if e.settings.RuleEnabled(r.ID()) {
			out = append(out, r)
		}
	}
	return out
}

// invoke runs one rule with panic isolation. A panic is converted into an
// error carrying the stack, attributed to the rule like any other failure.
func invoke(r rule.Rule, ectx *rule.ExecutionContext) (findings []rule.Finding, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			findings = nil
			err = apperrors.New(apperrors.CodeRuleFault,
				fmt.Sprintf("rule panic: %v\n%s", rec, debug.Stack()))
		}
	}()

	timer := time.Now()
	defer func() {
		observability.RuleDuration.WithLabelValues(r.ID()).Observe(time.Since(timer).Seconds())
	}()

	return r.Inspect(ectx)
}

// progressNotifier wraps the optional progress callback with throttling; the
// final completion call always goes through.
func progressNotifier(progress ports.ProgressFunc, total int) func(int, string) {
	if progress == nil {
		return func(int, string) {}
	}
	limiter := util.NewLimiter(20, 1)
	return func(completed int, path string) {
		if completed == total || limiter.Allow(1) {
			progress(completed, total, path)
		}
	}
}
