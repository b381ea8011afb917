package rules

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/parser"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/rule"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/shared/util"
)

// SessionLeak flags a resource-acquiring call whose enclosing function never
// releases the result on a guaranteed-execution path. Only a release inside
// a finally-equivalent block (or Go defer) counts; a release in plain
// sequential code can be skipped by an early exit and is intentionally not
// accepted. Try-with-resources and context managers are inherently safe and
// never collected as bindings in the first place.
type SessionLeak struct{}

func (SessionLeak) ID() string                     { return "repository.session-leak" }
func (SessionLeak) Name() string                   { return "Repository session leak" }
func (SessionLeak) Category() rule.Category        { return rule.CategoryRepository }
func (SessionLeak) DefaultSeverity() rule.Severity { return rule.SeverityError }
func (SessionLeak) Kinds() []parser.FileKind       { return []parser.FileKind{parser.KindSource} }

func (SessionLeak) Description() string {
	return "A repository session or connection obtained from an acquire call must be " +
		"released in a finally block (or equivalent guaranteed construct); otherwise an " +
		"exception between acquire and release leaks the session."
}

func (r SessionLeak) Inspect(ctx *rule.ExecutionContext) ([]rule.Finding, error) {
	doc := ctx.SourceDoc()
	if !doc.OK() {
		return nil, nil
	}
	tr := traitsByLanguage[doc.Doc.Language]
	if tr == nil {
		return nil, nil
	}

	v := &leakVisitor{
		rule:    r,
		ctx:     ctx,
		doc:     doc.Doc,
		traits:  tr,
		acquire: util.StringSet(ctx.Settings.AcquireCalls),
		release: util.StringSet(ctx.Settings.ReleaseCalls),
	}
	v.visit(doc.Doc.Root())
	return v.findings, nil
}

// leakVisitor is rebuilt for every Inspect call; state is scoped per function
// and discarded between functions.
type leakVisitor struct {
	rule    rule.Rule
	ctx     *rule.ExecutionContext
	doc     *parser.SourceDoc
	traits  *langTraits
	acquire map[string]bool
	release map[string]bool

	findings []rule.Finding
}

func (v *leakVisitor) visit(node *sitter.Node) {
	if node == nil {
		return
	}
	if v.traits.functionKinds[node.Kind()] {
		v.analyzeFunction(node)
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		v.visit(node.Child(i))
	}
}

type acquiredBinding struct {
	name    string
	acquire string
	decl    *sitter.Node
}

func (v *leakVisitor) analyzeFunction(fn *sitter.Node) {
	body := fn.ChildByFieldName("body")
	if body == nil {
		return
	}

	var bindings []acquiredBinding
	v.collectBindings(body, &bindings)
	if len(bindings) == 0 {
		return
	}

	var guaranteed []*sitter.Node
	v.collectGuaranteed(body, &guaranteed)

	for _, b := range bindings {
		if v.releasedIn(guaranteed, b.name) {
			continue
		}
		line, col, endLine, endCol := nodeSpan(b.decl)
		f := v.ctx.NewFinding(v.rule, rule.Span{
			StartLine: line, StartColumn: col, EndLine: endLine, EndColumn: endCol,
		}, fmt.Sprintf("%q acquired by %s() is never released on a guaranteed path", b.name, b.acquire))
		f.Rationale = v.rule.Description()
		f.Metadata = map[string]string{"binding": b.name, "acquireCall": b.acquire}
		v.findings = append(v.findings, f)
	}
}

// collectBindings gathers local bindings initialized by an acquire call,
// without descending into nested functions (no cross-function tracking).
func (v *leakVisitor) collectBindings(node *sitter.Node, out *[]acquiredBinding) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if v.traits.functionKinds[child.Kind()] {
			continue
		}
		// Try-with-resources declarations release on every path and are
		// never tracked as bindings.
		if v.traits.resourceKind != "" && child.Kind() == v.traits.resourceKind {
			continue
		}
		// Same for a context-manager header; its body is still scanned.
		if v.traits.withKind != "" && child.Kind() == v.traits.withKind {
			if body := child.ChildByFieldName("body"); body != nil {
				v.collectBindings(body, out)
			}
			continue
		}
		if v.traits.declKinds[child.Kind()] {
			if b, ok := v.bindingFromDecl(child); ok {
				*out = append(*out, b)
			}
		}
		v.collectBindings(child, out)
	}
}

func (v *leakVisitor) bindingFromDecl(decl *sitter.Node) (acquiredBinding, bool) {
	var nameNode, valueNode *sitter.Node

	switch decl.Kind() {
	case "variable_declarator", "var_spec": // java, javascript, go var
		nameNode = decl.ChildByFieldName("name")
		valueNode = decl.ChildByFieldName("value")
	case "assignment": // python
		nameNode = decl.ChildByFieldName("left")
		valueNode = decl.ChildByFieldName("right")
	case "short_var_declaration": // go :=
		nameNode = firstIdentifier(decl.ChildByFieldName("left"))
		valueNode = firstCall(decl.ChildByFieldName("right"), v.traits)
	}

	if nameNode == nil || valueNode == nil {
		return acquiredBinding{}, false
	}
	if !v.traits.callKinds[valueNode.Kind()] {
		return acquiredBinding{}, false
	}
	_, method := callee(v.doc, valueNode)
	if !v.acquire[method] {
		return acquiredBinding{}, false
	}
	name := v.doc.Text(nameNode)
	if name == "" || name == "_" {
		return acquiredBinding{}, false
	}
	return acquiredBinding{name: name, acquire: method, decl: decl}, true
}

// collectGuaranteed gathers finally-equivalent blocks and defer statements
// within the function, again skipping nested functions.
func (v *leakVisitor) collectGuaranteed(node *sitter.Node, out *[]*sitter.Node) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if v.traits.functionKinds[child.Kind()] {
			continue
		}
		kind := child.Kind()
		if (v.traits.finallyKind != "" && kind == v.traits.finallyKind) ||
			(v.traits.deferKind != "" && kind == v.traits.deferKind) {
			*out = append(*out, child)
		}
		v.collectGuaranteed(child, out)
	}
}

func (v *leakVisitor) releasedIn(guaranteed []*sitter.Node, binding string) bool {
	for _, block := range guaranteed {
		if v.containsRelease(block, binding) {
			return true
		}
	}
	return false
}

func (v *leakVisitor) containsRelease(node *sitter.Node, binding string) bool {
	if v.traits.callKinds[node.Kind()] {
		receiver, method := callee(v.doc, node)
		if receiver == binding && v.release[method] {
			return true
		}
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if v.containsRelease(node.Child(i), binding) {
			return true
		}
	}
	return false
}

func firstIdentifier(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.Kind() == "identifier" {
		return node
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if found := firstIdentifier(node.Child(i)); found != nil {
			return found
		}
	}
	return nil
}

func firstCall(node *sitter.Node, tr *langTraits) *sitter.Node {
	if node == nil {
		return nil
	}
	if tr.callKinds[node.Kind()] {
		return node
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if found := firstCall(node.Child(i), tr); found != nil {
			return found
		}
	}
	return nil
}
