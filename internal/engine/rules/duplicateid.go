package rules

import (
	"fmt"
	"strings"

	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/index"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/parser"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/rule"
)

// DuplicateIdentifier reports identifiers this file declares that are also
// declared elsewhere, using the project index built before rule execution.
// Importing two bootstrap documents that claim the same node UUID makes the
// second import fail at deployment time.
type DuplicateIdentifier struct{}

func (DuplicateIdentifier) ID() string              { return "configuration.duplicate-identifier" }
func (DuplicateIdentifier) Name() string            { return "Duplicate bootstrap identifier" }
func (DuplicateIdentifier) Category() rule.Category { return rule.CategoryConfiguration }

func (DuplicateIdentifier) DefaultSeverity() rule.Severity { return rule.SeverityError }

func (DuplicateIdentifier) Kinds() []parser.FileKind {
	return []parser.FileKind{parser.KindConfig, parser.KindMarkup}
}

func (DuplicateIdentifier) Description() string {
	return "Bootstrap node identifiers must be unique across the project. When two " +
		"documents declare the same identifier, whichever imports last silently wins " +
		"or the import aborts, depending on the import strategy."
}

func (r DuplicateIdentifier) Inspect(ctx *rule.ExecutionContext) ([]rule.Finding, error) {
	var own []rule.IdentifierDecl
	switch ctx.Kind {
	case parser.KindConfig:
		doc := ctx.ConfigDoc()
		if !doc.OK() {
			return nil, nil
		}
		own = index.ConfigIdentifiers(ctx.RelPath, doc.Doc)
	case parser.KindMarkup:
		doc := ctx.MarkupDoc()
		if !doc.OK() {
			return nil, nil
		}
		own = index.MarkupIdentifiers(ctx.RelPath, doc.Doc)
	default:
		return nil, nil
	}

	var findings []rule.Finding
	for _, decl := range own {
		conflicts := ctx.Index.FindConflicts(decl.ID)
		if len(conflicts) == 0 {
			continue
		}

		others := make([]string, 0, len(conflicts)-1)
		for _, c := range conflicts {
			if c.File == decl.File && c.Line == decl.Line {
				continue
			}
			others = append(others, fmt.Sprintf("%s:%d", c.File, c.Line))
		}
		if len(others) == 0 {
			continue
		}

		f := ctx.NewFinding(r, rule.SpanAt(decl.Line, 1),
			fmt.Sprintf("identifier %q is also declared at %s", decl.ID, strings.Join(others, ", ")))
		f.Rationale = r.Description()
		f.Metadata = map[string]string{"identifier": decl.ID}
		findings = append(findings, f)
	}
	return findings, nil
}
