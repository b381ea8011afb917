package rules

import (
	"fmt"
	"strconv"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/parser"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/rule"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/shared/util"
)

// LoopAccess flags repository/data-access calls executed once per loop
// iteration. The check is purely syntactic: it cannot tell a per-iteration
// query from an already-batched call, so the configured access set should
// stay narrow.
type LoopAccess struct{}

func (LoopAccess) ID() string                     { return "performance.repository-access-in-loop" }
func (LoopAccess) Name() string                   { return "Repository access inside loop" }
func (LoopAccess) Category() rule.Category        { return rule.CategoryPerformance }
func (LoopAccess) DefaultSeverity() rule.Severity { return rule.SeverityWarning }
func (LoopAccess) Kinds() []parser.FileKind       { return []parser.FileKind{parser.KindSource} }

func (LoopAccess) Description() string {
	return "Calling the repository once per loop iteration multiplies round trips. " +
		"Batch the access before the loop or use a query that fetches all items at once."
}

func (r LoopAccess) Inspect(ctx *rule.ExecutionContext) ([]rule.Finding, error) {
	doc := ctx.SourceDoc()
	if !doc.OK() {
		return nil, nil
	}
	tr := traitsByLanguage[doc.Doc.Language]
	if tr == nil {
		return nil, nil
	}

	v := &loopVisitor{
		rule:   r,
		ctx:    ctx,
		doc:    doc.Doc,
		traits: tr,
		access: util.StringSet(ctx.Settings.AccessCalls),
	}
	v.visit(doc.Doc.Root())
	return v.findings, nil
}

// loopVisitor tracks loop depth during a single traversal; constructed fresh
// per Inspect call.
type loopVisitor struct {
	rule   rule.Rule
	ctx    *rule.ExecutionContext
	doc    *parser.SourceDoc
	traits *langTraits
	access map[string]bool

	loopStack []string // innermost loop label last
	findings  []rule.Finding
}

func (v *loopVisitor) visit(node *sitter.Node) {
	if node == nil {
		return
	}

	if label, isLoop := v.traits.loopKinds[node.Kind()]; isLoop {
		v.loopStack = append(v.loopStack, label)
		defer func() { v.loopStack = v.loopStack[:len(v.loopStack)-1] }()
	}

	if len(v.loopStack) > 0 && v.traits.callKinds[node.Kind()] {
		v.checkCall(node)
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		v.visit(node.Child(i))
	}
}

func (v *loopVisitor) checkCall(call *sitter.Node) {
	_, method := callee(v.doc, call)
	if !v.access[method] {
		return
	}

	depth := len(v.loopStack)
	innermost := v.loopStack[depth-1]
	line, col, endLine, endCol := nodeSpan(call)
	f := v.ctx.NewFinding(v.rule, rule.Span{
		StartLine: line, StartColumn: col, EndLine: endLine, EndColumn: endCol,
	}, fmt.Sprintf("%s() is called on every iteration of a %s loop", method, innermost))
	f.Rationale = v.rule.Description()
	f.Metadata = map[string]string{
		"call":     method,
		"loopKind": innermost,
		"depth":    strconv.Itoa(depth),
	}
	v.findings = append(v.findings, f)
}
