package rule

import (
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/parser"
)

// Settings is the validated, rule-relevant slice of run configuration. The
// coordinator builds it once per run; rules treat it as read-only.
type Settings struct {
	MinSeverity Severity

	// Lifecycle tracking (repository.session-leak).
	AcquireCalls []string
	ReleaseCalls []string

	// Loop access tracking (performance.repository-access-in-loop).
	AccessCalls []string

	// Sitemap shadowing.
	CatchAllNames []string
	RouteParents  []string

	PerRule map[string]Override
}

// Override adjusts one rule's enablement or severity.
type Override struct {
	Enabled  *bool
	Severity *Severity
}

// RuleEnabled reports whether a rule is enabled under these settings.
// Rules are enabled by default.
func (s Settings) RuleEnabled(id string) bool {
	if o, ok := s.PerRule[id]; ok && o.Enabled != nil {
		return *o.Enabled
	}
	return true
}

// RuleSeverity resolves a rule's effective severity.
func (s Settings) RuleSeverity(r Rule) Severity {
	if sev, ok := s.SeverityOverride(r.ID()); ok {
		return sev
	}
	return r.DefaultSeverity()
}

// SeverityOverride reports whether configuration pins a rule's severity.
// Rules that grade their own findings must honor a pinned severity.
func (s Settings) SeverityOverride(id string) (Severity, bool) {
	if o, ok := s.PerRule[id]; ok && o.Severity != nil {
		return *o.Severity, true
	}
	return 0, false
}

// ExecutionContext is the per-file view handed to every rule invocation.
// It is immutable for the duration of one invocation; the cache and index
// references are shared across the whole run.
type ExecutionContext struct {
	Root     string
	File     FileHandle
	RelPath  string
	Content  []byte
	Kind     parser.FileKind
	Settings Settings

	Dispatch *parser.Dispatch
	Cache    Cache
	Index    ProjectIndex
}

// SourceDoc parses the file as source code, memoized in the shared cache so
// several rules on one file share a single tree.
func (ctx *ExecutionContext) SourceDoc() parser.Document[*parser.SourceDoc] {
	value := ctx.Cache.GetOrCompute("source|"+ctx.RelPath, func() interface{} {
		return ctx.Dispatch.ParseSource(ctx.File.Name(), ctx.Content)
	})
	return value.(parser.Document[*parser.SourceDoc])
}

// MarkupDoc parses the file as XML/HTML markup, memoized.
func (ctx *ExecutionContext) MarkupDoc() parser.Document[*parser.Element] {
	value := ctx.Cache.GetOrCompute("markup|"+ctx.RelPath, func() interface{} {
		return ctx.Dispatch.ParseMarkup(ctx.File.Name(), ctx.Content)
	})
	return value.(parser.Document[*parser.Element])
}

// ConfigDoc parses the file as declarative configuration, memoized.
func (ctx *ExecutionContext) ConfigDoc() parser.Document[*parser.Node] {
	value := ctx.Cache.GetOrCompute("config|"+ctx.RelPath, func() interface{} {
		return ctx.Dispatch.ParseConfig(ctx.File.Name(), ctx.Content)
	})
	return value.(parser.Document[*parser.Node])
}

// PropertiesDoc parses the file as a Java-style properties file, memoized.
func (ctx *ExecutionContext) PropertiesDoc() parser.Document[*parser.Properties] {
	value := ctx.Cache.GetOrCompute("properties|"+ctx.RelPath, func() interface{} {
		return ctx.Dispatch.ParseProperties(ctx.Content)
	})
	return value.(parser.Document[*parser.Properties])
}

// NewFinding starts a finding for this context's file with the rule's
// effective severity.
func (ctx *ExecutionContext) NewFinding(r Rule, span Span, message string) Finding {
	return Finding{
		RuleID:   r.ID(),
		Category: r.Category(),
		Severity: ctx.Settings.RuleSeverity(r),
		Message:  message,
		File:     ctx.RelPath,
		Span:     span,
	}
}
