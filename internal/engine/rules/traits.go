// Package rules contains the built-in rule catalog. Every rule is a
// stateless value; traversal state lives in a visitor constructed per
// Inspect call and discarded when it returns.
package rules

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/parser"
)

// langTraits maps one grammar's node kinds onto the structural concepts the
// source rules care about. Languages without an entry are skipped by those
// rules.
type langTraits struct {
	functionKinds map[string]bool
	loopKinds     map[string]string // node kind -> loop label
	callKinds     map[string]bool
	declKinds     map[string]bool // binding declarator nodes
	finallyKind   string          // guaranteed-execution clause
	deferKind     string          // Go's guaranteed-at-exit statement
	resourceKind  string          // Java try-with-resources declaration
	withKind      string          // Python context-manager statement
}

var javascriptTraits = &langTraits{
	functionKinds: map[string]bool{
		"function_declaration": true,
		"function_expression":  true,
		"method_definition":    true,
		"arrow_function":       true,
	},
	loopKinds: map[string]string{
		"for_statement":    "for",
		"for_in_statement": "for-in",
		"while_statement":  "while",
		"do_statement":     "do-while",
	},
	callKinds:   map[string]bool{"call_expression": true},
	declKinds:   map[string]bool{"variable_declarator": true},
	finallyKind: "finally_clause",
}

var traitsByLanguage = map[string]*langTraits{
	"java": {
		functionKinds: map[string]bool{
			"method_declaration":      true,
			"constructor_declaration": true,
			"lambda_expression":       true,
		},
		loopKinds: map[string]string{
			"for_statement":          "for",
			"enhanced_for_statement": "for-each",
			"while_statement":        "while",
			"do_statement":           "do-while",
		},
		callKinds:    map[string]bool{"method_invocation": true},
		declKinds:    map[string]bool{"variable_declarator": true},
		finallyKind:  "finally_clause",
		resourceKind: "resource",
	},
	"go": {
		functionKinds: map[string]bool{
			"function_declaration": true,
			"method_declaration":   true,
			"func_literal":         true,
		},
		loopKinds: map[string]string{"for_statement": "for"},
		callKinds: map[string]bool{"call_expression": true},
		declKinds: map[string]bool{"short_var_declaration": true, "var_spec": true},
		deferKind: "defer_statement",
	},
	"python": {
		functionKinds: map[string]bool{"function_definition": true},
		loopKinds: map[string]string{
			"for_statement":   "for",
			"while_statement": "while",
		},
		callKinds:   map[string]bool{"call": true},
		declKinds:   map[string]bool{"assignment": true},
		finallyKind: "finally_clause",
		withKind:    "with_statement",
	},
	"javascript": javascriptTraits,
	"typescript": javascriptTraits,
	"tsx":        javascriptTraits,
}

// callee splits a call node into (receiver, method). The receiver is "" for
// bare calls. Works across the supported grammars' field layouts.
func callee(doc *parser.SourceDoc, call *sitter.Node) (receiver, method string) {
	switch call.Kind() {
	case "method_invocation": // java
		return doc.Text(call.ChildByFieldName("object")), doc.Text(call.ChildByFieldName("name"))
	case "call_expression", "call": // go, javascript, python
		fn := call.ChildByFieldName("function")
		if fn == nil {
			return "", ""
		}
		switch fn.Kind() {
		case "selector_expression": // go
			return doc.Text(fn.ChildByFieldName("operand")), doc.Text(fn.ChildByFieldName("field"))
		case "member_expression": // javascript
			return doc.Text(fn.ChildByFieldName("object")), doc.Text(fn.ChildByFieldName("property"))
		case "attribute": // python
			return doc.Text(fn.ChildByFieldName("object")), doc.Text(fn.ChildByFieldName("attribute"))
		default:
			return "", doc.Text(fn)
		}
	}
	return "", ""
}

// nodeSpan converts a tree-sitter node position into a finding span.
func nodeSpan(node *sitter.Node) (startLine, startCol, endLine, endCol int) {
	return int(node.StartPosition().Row) + 1,
		int(node.StartPosition().Column) + 1,
		int(node.EndPosition().Row) + 1,
		int(node.EndPosition().Column) + 1
}
