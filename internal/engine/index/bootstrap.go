package index

import (
	"log/slog"

	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/parser"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/rule"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/shared/util"
)

// identifierKeys are the bootstrap document keys whose scalar values declare
// project-unique identifiers (repository node UUIDs and explicit ids).
var identifierKeys = map[string]bool{
	"jcr:uuid": true,
	"uuid":     true,
	"id":       true,
}

// Build constructs the index in one pass: every file is recorded under its
// normalized relative path, and declarative/markup files are routed through
// the bootstrap identifier indexer. Unreadable or unparseable files are
// skipped; indexing is best-effort by design.
func Build(root string, files []rule.FileHandle, dispatch *parser.Dispatch) *Project {
	p := NewProject(root)

	for _, f := range files {
		p.AddFile(f)
		rel := util.RelativeTo(root, f.Path())

		switch parser.DetectKind(f.Name()) {
		case parser.KindConfig:
			content, err := f.Content()
			if err != nil {
				slog.Debug("index: skipping unreadable file", "path", f.Path(), "error", err)
				continue
			}
			doc := dispatch.ParseConfig(f.Name(), content)
			if doc.OK() {
				indexConfigIdentifiers(p, rel, doc.Doc)
			}
		case parser.KindMarkup:
			content, err := f.Content()
			if err != nil {
				slog.Debug("index: skipping unreadable file", "path", f.Path(), "error", err)
				continue
			}
			doc := dispatch.ParseMarkup(f.Name(), content)
			if doc.OK() {
				indexMarkupIdentifiers(p, rel, doc.Doc)
			}
		}
	}

	p.publishMetrics()
	return p
}

func indexConfigIdentifiers(p *Project, rel string, node *parser.Node) {
	for _, decl := range ConfigIdentifiers(rel, node) {
		p.RecordIdentifier(decl.ID, decl.File, decl.Line)
	}
}

func indexMarkupIdentifiers(p *Project, rel string, el *parser.Element) {
	for _, decl := range MarkupIdentifiers(rel, el) {
		p.RecordIdentifier(decl.ID, decl.File, decl.Line)
	}
}

// ConfigIdentifiers extracts identifier declarations from a bootstrap
// document tree. Shared with the duplicate-identifier rule, which must see
// its own file the same way the build pass did.
func ConfigIdentifiers(rel string, node *parser.Node) []rule.IdentifierDecl {
	var out []rule.IdentifierDecl
	node.Walk(func(n *parser.Node) bool {
		if n.Kind == parser.NodeScalar && identifierKeys[n.Key] && n.Value != "" {
			out = append(out, rule.IdentifierDecl{ID: n.Value, File: rel, Line: n.Line})
		}
		return true
	})
	return out
}

// MarkupIdentifiers extracts identifier declarations from markup attributes.
func MarkupIdentifiers(rel string, el *parser.Element) []rule.IdentifierDecl {
	var out []rule.IdentifierDecl
	el.Walk(func(e *parser.Element) bool {
		for _, attr := range []string{"id", "uuid", "jcr:uuid"} {
			if value := e.Attr(attr); value != "" {
				out = append(out, rule.IdentifierDecl{ID: value, File: rel, Line: e.Line})
			}
		}
		return true
	})
	return out
}
