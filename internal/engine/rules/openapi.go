package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/parser"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/rule"
)

// OpenAPIContract validates OpenAPI documents that describe the site's
// delivery API endpoints. It only engages for files that advertise
// themselves as API specs, either by name or by a top-level openapi/swagger
// key, so ordinary bootstrap YAML passes through untouched.
type OpenAPIContract struct{}

func (OpenAPIContract) ID() string                     { return "integration.openapi-contract" }
func (OpenAPIContract) Name() string                   { return "OpenAPI contract validity" }
func (OpenAPIContract) Category() rule.Category        { return rule.CategoryIntegration }
func (OpenAPIContract) DefaultSeverity() rule.Severity { return rule.SeverityWarning }
func (OpenAPIContract) Kinds() []parser.FileKind       { return []parser.FileKind{parser.KindConfig} }

func (OpenAPIContract) Description() string {
	return "A published API contract that fails schema validation, or reuses operation " +
		"identifiers, breaks generated clients and the API console alike."
}

func (r OpenAPIContract) Inspect(ctx *rule.ExecutionContext) ([]rule.Finding, error) {
	doc := ctx.ConfigDoc()
	if !doc.OK() {
		return nil, nil
	}
	if !looksLikeAPISpec(ctx.File.Name(), doc.Doc) {
		return nil, nil
	}

	var findings []rule.Finding

	loader := openapi3.NewLoader()
	spec, err := loader.LoadFromData(ctx.Content)
	if err != nil {
		f := ctx.NewFinding(r, rule.SpanAt(1, 1),
			fmt.Sprintf("document could not be loaded as an OpenAPI spec: %v", err))
		f.Rationale = r.Description()
		return []rule.Finding{f}, nil
	}

	if err := spec.Validate(context.Background()); err != nil {
		f := ctx.NewFinding(r, rule.SpanAt(1, 1),
			fmt.Sprintf("spec fails validation: %v", err))
		f.Rationale = r.Description()
		findings = append(findings, f)
	}

	findings = append(findings, r.duplicateOperationIDs(ctx, spec)...)
	return findings, nil
}

// duplicateOperationIDs reports every reuse of an operationId. Positions come
// from the declarative document tree because the loaded spec drops them.
func (r OpenAPIContract) duplicateOperationIDs(ctx *rule.ExecutionContext, spec *openapi3.T) []rule.Finding {
	if spec.Paths == nil {
		return nil
	}

	type opRef struct {
		method string
		path   string
	}
	seen := make(map[string][]opRef)
	for path, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil || op.OperationID == "" {
				continue
			}
			seen[op.OperationID] = append(seen[op.OperationID], opRef{method: method, path: path})
		}
	}

	positions := operationIDPositions(ctx.ConfigDoc().Doc)

	var findings []rule.Finding
	for id, refs := range seen {
		if len(refs) < 2 {
			continue
		}
		usages := make([]string, len(refs))
		for i, ref := range refs {
			usages[i] = fmt.Sprintf("%s %s", ref.method, ref.path)
		}

		span := rule.SpanAt(1, 1)
		if lines := positions[id]; len(lines) > 1 {
			// Point at the second occurrence, the first one owns the name.
			span = rule.SpanAt(lines[1], 1)
		}
		f := ctx.NewFinding(r, span,
			fmt.Sprintf("operationId %q is used by %d operations: %s",
				id, len(refs), strings.Join(usages, ", ")))
		f.Rationale = r.Description()
		f.Metadata = map[string]string{"operationId": id}
		findings = append(findings, f)
	}
	rule.SortFindings(findings)
	return findings
}

// operationIDPositions maps each operationId value to the lines it appears
// on, in document order.
func operationIDPositions(root *parser.Node) map[string][]int {
	if root == nil {
		return nil
	}
	positions := make(map[string][]int)
	root.Walk(func(n *parser.Node) bool {
		if n.Kind == parser.NodeScalar && n.Key == "operationId" && n.Value != "" {
			positions[n.Value] = append(positions[n.Value], n.Line)
		}
		return true
	})
	return positions
}

// looksLikeAPISpec gates the rule: the file must either be named like a
// spec or start with a top-level openapi/swagger version key.
func looksLikeAPISpec(name string, root *parser.Node) bool {
	lower := strings.ToLower(name)
	if strings.Contains(lower, "openapi") || strings.Contains(lower, "swagger") {
		return true
	}
	if root == nil || root.Kind != parser.NodeMapping {
		return false
	}
	for _, child := range root.Children {
		if child.Key == "openapi" || child.Key == "swagger" {
			return true
		}
	}
	return false
}
