package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// maxSyntaxErrors bounds error collection for heavily broken files.
const maxSyntaxErrors = 20

// SourceDoc is a parsed source file: the raw bytes, the grammar language ID,
// and the concrete syntax tree. The tree owns C memory; Close must be called
// exactly once when the document leaves the run cache.
type SourceDoc struct {
	Language string
	Source   []byte
	tree     *sitter.Tree
}

// Root returns the root node of the syntax tree.
func (d *SourceDoc) Root() *sitter.Node {
	return d.tree.RootNode()
}

// Text returns the source text covered by a node.
func (d *SourceDoc) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(d.Source[node.StartByte():node.EndByte()])
}

func (d *SourceDoc) Close() error {
	if d != nil && d.tree != nil {
		d.tree.Close()
		d.tree = nil
	}
	return nil
}

// collectSyntaxErrors walks the tree for error and missing nodes, bounded by
// maxSyntaxErrors.
func collectSyntaxErrors(node *sitter.Node, out *[]ParseError) {
	if node == nil || len(*out) >= maxSyntaxErrors {
		return
	}
	if node.IsError() || node.IsMissing() {
		msg := "syntax error"
		if node.IsMissing() {
			msg = "missing " + node.Kind()
		}
		*out = append(*out, ParseError{
			Line:    int(node.StartPosition().Row) + 1,
			Column:  int(node.StartPosition().Column) + 1,
			Message: msg,
		})
		return
	}
	if !node.HasError() {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		collectSyntaxErrors(node.Child(i), out)
	}
}
