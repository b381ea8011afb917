package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/core/app"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/core/config"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/core/ports"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/core/watcher"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/data/fsfile"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/data/history"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/parser"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/rule"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/rules"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/shared/observability"
)

// App wires the configured stack behind the CLI: rule registry, file
// collector, engine, optional history store and observability endpoints.
type App struct {
	Config    *config.Config
	Service   *app.Service
	collector *fsfile.Collector
	store     *history.Store
	watcher   *watcher.Watcher
	metrics   *observability.Server
	shutdown  func(context.Context) error
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	registry := rule.NewRegistry()
	registry.Discover(rules.BuiltinProvider{})

	dispatch := parser.NewDispatch(parser.NewGrammarLoader())

	collector, err := fsfile.NewCollector(cfg.Scan.Include, cfg.Scan.Exclude)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:    cfg,
		collector: collector,
	}

	var store ports.HistoryStore
	if cfg.History.Enabled {
		s, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open history store: %w", err)
		}
		a.store = s
		store = s
	}

	if cfg.Observability.MetricsAddr != "" {
		a.metrics = observability.NewServer(cfg.Observability.MetricsAddr, VERSION)
		a.metrics.Start()
	}
	if cfg.Observability.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint, VERSION)
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
		} else {
			a.shutdown = shutdown
		}
	}

	engine := app.NewEngine(cfg, registry, dispatch)
	a.Service = app.NewService(engine, collector, store)
	return a, nil
}

// RunOnce inspects the whole project and prints the report.
func (a *App) RunOnce(ctx context.Context) (*rule.Results, error) {
	var progress ports.ProgressFunc
	if slog.Default().Enabled(ctx, slog.LevelDebug) {
		progress = func(completed, total int, path string) {
			slog.Debug("inspection progress", "completed", completed, "total", total, "path", path)
		}
	}

	results, err := a.Service.Inspect(ctx, ports.InspectRequest{
		Root:     a.Config.ProjectRoot,
		Progress: progress,
	})
	if err != nil {
		return results, err
	}

	a.printReport(results)
	return results, nil
}

// StartWatch re-inspects changed files until the context ends.
func (a *App) StartWatch(ctx context.Context) error {
	w, err := watcher.New(
		a.Config.ProjectRoot,
		a.Config.Watch.Debounce,
		a.collector.Matches,
		func(paths []string) { a.handleChanges(ctx, paths) },
	)
	if err != nil {
		return err
	}
	a.watcher = w
	return w.Start()
}

func (a *App) handleChanges(ctx context.Context, paths []string) {
	for _, path := range paths {
		if ctx.Err() != nil {
			return
		}
		results, err := a.Service.InspectFile(ctx, a.Config.ProjectRoot, path)
		if err != nil {
			slog.Warn("failed to re-inspect file", "path", path, "error", err)
			continue
		}
		a.printReport(results)
	}
}

func (a *App) printReport(results *rule.Results) {
	findings := results.Findings()
	for _, f := range findings {
		fmt.Printf("%s:%d:%d [%s] %s: %s\n",
			f.File, f.Span.StartLine, f.Span.StartColumn, f.Severity, f.RuleID, f.Message)
	}

	for _, e := range results.Errors() {
		fmt.Printf("%s [rule-error] %s: %v\n", e.File, e.RuleID, e.Err)
	}

	bySeverity := results.BySeverity()
	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("Inspected %d files in %v: %d findings (%d errors, %d warnings, %d info, %d hints), %d rule errors\n",
		results.FilesCompleted(), results.Duration().Round(time.Millisecond), len(findings),
		bySeverity[rule.SeverityError], bySeverity[rule.SeverityWarning],
		bySeverity[rule.SeverityInfo], bySeverity[rule.SeverityHint], len(results.Errors()))
}

func (a *App) Close() {
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			slog.Warn("failed to close watcher", "error", err)
		}
	}
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := a.metrics.Stop(ctx); err != nil {
			slog.Warn("failed to stop metrics server", "error", err)
		}
	}
	if a.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := a.shutdown(ctx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			slog.Warn("failed to close history store", "error", err)
		}
	}
}
