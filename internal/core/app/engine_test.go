package app

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/core/config"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/parser"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/rule"
)

var testDispatch = parser.NewDispatch(parser.NewGrammarLoader())

type memFile struct {
	path    string
	content []byte
}

func (f memFile) Path() string             { return f.path }
func (f memFile) Name() string             { return filepath.Base(f.path) }
func (f memFile) Size() int64              { return int64(len(f.content)) }
func (f memFile) ModTime() time.Time       { return time.Time{} }
func (f memFile) Exists() bool             { return true }
func (f memFile) Content() ([]byte, error) { return f.content, nil }

// fakeRule lets each test script the rule behavior.
type fakeRule struct {
	id       string
	severity rule.Severity
	kinds    []parser.FileKind
	inspect  func(ctx *rule.ExecutionContext) ([]rule.Finding, error)
}

func (r fakeRule) ID() string                     { return r.id }
func (r fakeRule) Name() string                   { return r.id }
func (r fakeRule) Description() string            { return "test rule" }
func (r fakeRule) Category() rule.Category        { return rule.CategoryQuality }
func (r fakeRule) DefaultSeverity() rule.Severity { return r.severity }

func (r fakeRule) Kinds() []parser.FileKind {
	if len(r.kinds) > 0 {
		return r.kinds
	}
	return []parser.FileKind{parser.KindConfig}
}

func (r fakeRule) Inspect(ctx *rule.ExecutionContext) ([]rule.Finding, error) {
	return r.inspect(ctx)
}

func oneFindingPerFile(id string) fakeRule {
	r := fakeRule{id: id, severity: rule.SeverityWarning}
	r.inspect = func(ctx *rule.ExecutionContext) ([]rule.Finding, error) {
		return []rule.Finding{ctx.NewFinding(r, rule.SpanAt(1, 1), "marker for "+ctx.RelPath)}, nil
	}
	return r
}

func yamlFiles(n int) []rule.FileHandle {
	files := make([]rule.FileHandle, 0, n)
	for i := 0; i < n; i++ {
		name := "/project/" + string(rune('a'+i)) + ".yaml"
		files = append(files, memFile{path: name, content: []byte("key: value")})
	}
	return files
}

func newTestEngine(cfg *config.Config, rules ...rule.Rule) *Engine {
	registry := rule.NewRegistry()
	for _, r := range rules {
		registry.Register(r)
	}
	return NewEngine(cfg, registry, testDispatch)
}

func TestExecuteAllParallelMatchesSequential(t *testing.T) {
	files := yamlFiles(8)

	seqCfg := config.Default()
	off := false
	seqCfg.Execution.Parallel = &off
	sequential := newTestEngine(seqCfg, oneFindingPerFile("quality.marker"))

	parCfg := config.Default()
	parCfg.Execution.MaxWorkers = 4
	parallel := newTestEngine(parCfg, oneFindingPerFile("quality.marker"))

	seqResults, err := sequential.ExecuteAll(context.Background(), "/project", files, nil)
	if err != nil {
		t.Fatalf("sequential run: %v", err)
	}
	parResults, err := parallel.ExecuteAll(context.Background(), "/project", files, nil)
	if err != nil {
		t.Fatalf("parallel run: %v", err)
	}

	if !reflect.DeepEqual(seqResults.Findings(), parResults.Findings()) {
		t.Errorf("parallel findings diverge from sequential:\nseq: %v\npar: %v",
			seqResults.Findings(), parResults.Findings())
	}
	if seqResults.FilesCompleted() != parResults.FilesCompleted() {
		t.Errorf("files completed: seq %d, par %d",
			seqResults.FilesCompleted(), parResults.FilesCompleted())
	}
}

func TestExecuteAllIsolatesPanickingRule(t *testing.T) {
	panicking := fakeRule{id: "quality.broken", severity: rule.SeverityWarning}
	panicking.inspect = func(ctx *rule.ExecutionContext) ([]rule.Finding, error) {
		panic("boom")
	}

	engine := newTestEngine(config.Default(), panicking, oneFindingPerFile("quality.marker"))
	files := yamlFiles(3)

	results, err := engine.ExecuteAll(context.Background(), "/project", files, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if results.Total() != 3 {
		t.Errorf("healthy rule produced %d findings, want 3", results.Total())
	}
	errs := results.Errors()
	if len(errs) != 3 {
		t.Fatalf("expected 3 isolated failures, got %d", len(errs))
	}
	for _, e := range errs {
		if e.RuleID != "quality.broken" {
			t.Errorf("failure attributed to %q", e.RuleID)
		}
	}
	if results.FilesCompleted() != 3 {
		t.Errorf("files completed = %d, want 3", results.FilesCompleted())
	}
}

func TestExecuteAllIsolatesFailingRule(t *testing.T) {
	failing := fakeRule{id: "quality.failing", severity: rule.SeverityWarning}
	failing.inspect = func(ctx *rule.ExecutionContext) ([]rule.Finding, error) {
		return nil, errors.New("backend unavailable")
	}

	engine := newTestEngine(config.Default(), failing)
	results, err := engine.ExecuteAll(context.Background(), "/project", yamlFiles(1), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	errs := results.Errors()
	if len(errs) != 1 {
		t.Fatalf("errors = %v", errs)
	}
	if errs[0].File != "a.yaml" || errs[0].RuleID != "quality.failing" {
		t.Errorf("failure attribution = %+v", errs[0])
	}
	if errs[0].Err.Error() != "backend unavailable" {
		t.Errorf("error message = %q", errs[0].Err)
	}
}

func TestExecuteAllFiltersBelowMinSeverity(t *testing.T) {
	cfg := config.Default()
	cfg.MinSeverity = "warning"

	hinting := fakeRule{id: "quality.hint", severity: rule.SeverityHint}
	hinting.inspect = func(ctx *rule.ExecutionContext) ([]rule.Finding, error) {
		return []rule.Finding{ctx.NewFinding(hinting, rule.SpanAt(1, 1), "just a hint")}, nil
	}

	engine := newTestEngine(cfg, hinting, oneFindingPerFile("quality.marker"))
	results, err := engine.ExecuteAll(context.Background(), "/project", yamlFiles(2), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, f := range results.Findings() {
		if f.Severity < rule.SeverityWarning {
			t.Errorf("finding below min severity leaked through: %v", f)
		}
	}
	if results.Total() != 2 {
		t.Errorf("total = %d, want 2 warning findings", results.Total())
	}
}

func TestExecuteAllHonorsRuleDisable(t *testing.T) {
	cfg := config.Default()
	off := false
	cfg.Rules = map[string]config.RuleOverride{
		"quality.marker": {Enabled: &off},
	}

	engine := newTestEngine(cfg, oneFindingPerFile("quality.marker"))
	results, err := engine.ExecuteAll(context.Background(), "/project", yamlFiles(2), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if results.Total() != 0 {
		t.Errorf("disabled rule still produced %d findings", results.Total())
	}
}

func TestExecuteAllSkipsUnknownKinds(t *testing.T) {
	engine := newTestEngine(config.Default(), oneFindingPerFile("quality.marker"))
	files := []rule.FileHandle{
		memFile{path: "/project/a.yaml", content: []byte("key: value")},
		memFile{path: "/project/README.md", content: []byte("# readme")},
	}

	results, err := engine.ExecuteAll(context.Background(), "/project", files, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if results.Total() != 1 {
		t.Errorf("total = %d, want 1 (markdown has no kind)", results.Total())
	}
}

func TestExecuteAllReportsProgress(t *testing.T) {
	engine := newTestEngine(config.Default(), oneFindingPerFile("quality.marker"))
	files := yamlFiles(4)

	var finalCompleted, finalTotal int
	var finalPath string
	progress := func(completed, total int, path string) {
		finalCompleted, finalTotal, finalPath = completed, total, path
	}

	if _, err := engine.ExecuteAll(context.Background(), "/project", files, progress); err != nil {
		t.Fatalf("run: %v", err)
	}
	if finalCompleted != 4 || finalTotal != 4 {
		t.Errorf("final progress = %d/%d, want 4/4", finalCompleted, finalTotal)
	}
	if !strings.HasSuffix(finalPath, ".yaml") || strings.HasPrefix(finalPath, "/") {
		t.Errorf("final progress path = %q, want a project-relative file", finalPath)
	}
}

func TestExecuteAllProgressIsMonotonic(t *testing.T) {
	cfg := config.Default()
	cfg.Execution.MaxWorkers = 4
	engine := newTestEngine(cfg, oneFindingPerFile("quality.marker"))

	var mu sync.Mutex
	var seen []int
	progress := func(completed, total int, path string) {
		mu.Lock()
		seen = append(seen, completed)
		mu.Unlock()
	}

	if _, err := engine.ExecuteAll(context.Background(), "/project", yamlFiles(16), progress); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(seen) == 0 {
		t.Fatal("no progress delivered")
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] < seen[i-1] {
			t.Fatalf("completed count went backwards: %v", seen)
		}
	}
	if seen[len(seen)-1] != 16 {
		t.Errorf("final completed = %d, want 16", seen[len(seen)-1])
	}
}

func TestExecuteAllWaitsForSlowWorkers(t *testing.T) {
	oldGrace := shutdownGrace
	shutdownGrace = 50 * time.Millisecond
	defer func() { shutdownGrace = oldGrace }()

	// One file takes much longer than the grace window; an uncancelled run
	// must still wait for it.
	var once sync.Once
	slow := fakeRule{id: "quality.slow", severity: rule.SeverityWarning}
	slow.inspect = func(ctx *rule.ExecutionContext) ([]rule.Finding, error) {
		once.Do(func() { time.Sleep(300 * time.Millisecond) })
		return []rule.Finding{ctx.NewFinding(slow, rule.SpanAt(1, 1), "marker for "+ctx.RelPath)}, nil
	}

	cfg := config.Default()
	cfg.Execution.MaxWorkers = 2
	engine := newTestEngine(cfg, slow)

	results, err := engine.ExecuteAll(context.Background(), "/project", yamlFiles(4), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if results.FilesCompleted() != 4 {
		t.Errorf("files completed = %d, want 4", results.FilesCompleted())
	}
	if results.Total() != 4 {
		t.Errorf("total = %d, want 4", results.Total())
	}
}

func TestExecuteAllIsIdempotent(t *testing.T) {
	engine := newTestEngine(config.Default(), oneFindingPerFile("quality.marker"))
	files := yamlFiles(6)

	first, err := engine.ExecuteAll(context.Background(), "/project", files, nil)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := engine.ExecuteAll(context.Background(), "/project", files, nil)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if !reflect.DeepEqual(first.Findings(), second.Findings()) {
		t.Errorf("repeated run diverges:\nfirst:  %v\nsecond: %v",
			first.Findings(), second.Findings())
	}
	if first.FilesCompleted() != second.FilesCompleted() {
		t.Errorf("files completed: first %d, second %d",
			first.FilesCompleted(), second.FilesCompleted())
	}
}

func TestExecuteAllSeverityFilterIsMonotonic(t *testing.T) {
	mixed := fakeRule{id: "quality.mixed", severity: rule.SeverityWarning}
	mixed.inspect = func(ctx *rule.ExecutionContext) ([]rule.Finding, error) {
		levels := []rule.Severity{rule.SeverityHint, rule.SeverityInfo, rule.SeverityWarning, rule.SeverityError}
		out := make([]rule.Finding, 0, len(levels))
		for i, sev := range levels {
			f := ctx.NewFinding(mixed, rule.SpanAt(i+1, 1), "graded "+sev.String())
			f.Severity = sev
			out = append(out, f)
		}
		return out, nil
	}

	files := yamlFiles(3)
	run := func(min string) []rule.Finding {
		t.Helper()
		cfg := config.Default()
		cfg.MinSeverity = min
		results, err := newTestEngine(cfg, mixed).ExecuteAll(context.Background(), "/project", files, nil)
		if err != nil {
			t.Fatalf("run at min severity %s: %v", min, err)
		}
		return results.Findings()
	}

	// Raising the threshold may only remove findings, never add them.
	prev := run("hint")
	for _, level := range []string{"info", "warning", "error"} {
		next := run(level)
		if !findingSubset(next, prev) {
			t.Errorf("findings at min severity %s are not a subset of the level below", level)
		}
		if len(next) >= len(prev) {
			t.Errorf("raising threshold to %s kept %d of %d findings", level, len(next), len(prev))
		}
		prev = next
	}
}

func findingSubset(sub, super []rule.Finding) bool {
	counts := make(map[string]int)
	for _, f := range super {
		counts[f.File+"|"+f.Message]++
	}
	for _, f := range sub {
		key := f.File + "|" + f.Message
		if counts[key] == 0 {
			return false
		}
		counts[key]--
	}
	return true
}

func TestExecuteAllDisabledByConfig(t *testing.T) {
	cfg := config.Default()
	off := false
	cfg.Enabled = &off

	engine := newTestEngine(cfg, oneFindingPerFile("quality.marker"))
	results, err := engine.ExecuteAll(context.Background(), "/project", yamlFiles(3), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if results.Total() != 0 || results.FilesCompleted() != 0 {
		t.Errorf("disabled engine produced %d findings over %d files",
			results.Total(), results.FilesCompleted())
	}
}

func TestExecuteAllCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := newTestEngine(config.Default(), oneFindingPerFile("quality.marker"))
	results, err := engine.ExecuteAll(ctx, "/project", yamlFiles(4), nil)
	if err == nil {
		t.Fatal("expected an interruption error")
	}
	if results == nil {
		t.Fatal("partial results must still be returned")
	}
}

func TestExecuteFile(t *testing.T) {
	engine := newTestEngine(config.Default(), oneFindingPerFile("quality.marker"))
	files := yamlFiles(2)

	results, err := engine.ExecuteFile(context.Background(), "/project", files[1], nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if results.Total() != 1 {
		t.Fatalf("total = %d, want 1", results.Total())
	}
	if results.Findings()[0].File != "b.yaml" {
		t.Errorf("finding file = %q", results.Findings()[0].File)
	}
}
