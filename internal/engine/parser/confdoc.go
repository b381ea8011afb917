package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// NodeKind classifies a declarative-config node.
type NodeKind int

const (
	NodeMapping NodeKind = iota
	NodeSequence
	NodeScalar
)

// Node is one entry of a declarative document. Mapping children keep their
// declaration order, which matters for precedence-sensitive rules.
type Node struct {
	Kind     NodeKind
	Key      string // key under the parent mapping, "" for sequence items and the root
	Value    string // scalar value
	Line     int
	Column   int
	Children []*Node
}

// Child returns the mapping child with the given key, or nil.
func (n *Node) Child(key string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Key == key {
			return c
		}
	}
	return nil
}

// Walk visits the node and its descendants depth-first. Returning false from
// fn prunes the subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// parseYAML handles .yaml/.yml and, as a superset, .json. Positions come from
// the yaml.v3 node tree.
func parseYAML(content []byte) Document[*Node] {
	var root yaml.Node
	if err := yaml.Unmarshal(content, &root); err != nil {
		return failed[*Node](yamlError(err))
	}

	node := &root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	// Empty input leaves the node zero-valued.
	if node.Kind == 0 || node.Kind == yaml.DocumentNode {
		return Document[*Node]{Doc: &Node{Kind: NodeMapping, Line: 1, Column: 1}}
	}
	return Document[*Node]{Doc: convertYAML(node, "")}
}

func convertYAML(n *yaml.Node, key string) *Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}

	out := &Node{Key: key, Line: n.Line, Column: n.Column}
	switch n.Kind {
	case yaml.MappingNode:
		out.Kind = NodeMapping
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valueNode := n.Content[i], n.Content[i+1]
			child := convertYAML(valueNode, keyNode.Value)
			// Anchor the entry at its key, where the declaration reads.
			child.Line = keyNode.Line
			child.Column = keyNode.Column
			out.Children = append(out.Children, child)
		}
	case yaml.SequenceNode:
		out.Kind = NodeSequence
		for _, item := range n.Content {
			out.Children = append(out.Children, convertYAML(item, ""))
		}
	default:
		out.Kind = NodeScalar
		out.Value = n.Value
	}
	return out
}

func yamlError(err error) ParseError {
	msg := err.Error()
	line := 1
	// yaml.v3 reports "yaml: line N: ..." for syntax failures.
	if idx := strings.Index(msg, "line "); idx >= 0 {
		rest := msg[idx+len("line "):]
		if end := strings.IndexAny(rest, ":,"); end > 0 {
			if n, convErr := parseInt(rest[:end]); convErr == nil {
				line = n
			}
		}
	}
	return ParseError{Line: line, Column: 1, Message: msg}
}

func parseInt(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("not a number: %q", s)
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

// parseTOML decodes a TOML document into the shared Node shape. The decoder
// does not expose value positions, so nodes carry the zero position; mapping
// order follows key appearance order from the decoder metadata.
func parseTOML(content []byte) Document[*Node] {
	var raw map[string]interface{}
	md, err := toml.Decode(string(content), &raw)
	if err != nil {
		pe := ParseError{Line: 1, Column: 1, Message: err.Error()}
		var terr toml.ParseError
		if ok := asTOMLParseError(err, &terr); ok {
			pe.Line = terr.Position.Line
			pe.Column = terr.Position.Col
			pe.Message = terr.Message
		}
		return failed[*Node](pe)
	}

	order := topLevelKeyOrder(md)
	return Document[*Node]{Doc: convertTOMLValue(raw, "", order)}
}

func asTOMLParseError(err error, target *toml.ParseError) bool {
	pe, ok := err.(toml.ParseError)
	if ok {
		*target = pe
	}
	return ok
}

func topLevelKeyOrder(md toml.MetaData) map[string]int {
	order := make(map[string]int)
	for _, key := range md.Keys() {
		name := key[0]
		if _, seen := order[name]; !seen {
			order[name] = len(order)
		}
	}
	return order
}

func convertTOMLValue(value interface{}, key string, order map[string]int) *Node {
	out := &Node{Key: key}
	switch v := value.(type) {
	case map[string]interface{}:
		out.Kind = NodeMapping
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			oi, iok := order[keys[i]]
			oj, jok := order[keys[j]]
			if iok && jok {
				return oi < oj
			}
			if iok != jok {
				return iok
			}
			return keys[i] < keys[j]
		})
		for _, k := range keys {
			out.Children = append(out.Children, convertTOMLValue(v[k], k, nil))
		}
	case []map[string]interface{}:
		out.Kind = NodeSequence
		for _, item := range v {
			out.Children = append(out.Children, convertTOMLValue(item, "", nil))
		}
	case []interface{}:
		out.Kind = NodeSequence
		for _, item := range v {
			out.Children = append(out.Children, convertTOMLValue(item, "", nil))
		}
	default:
		out.Kind = NodeScalar
		out.Value = fmt.Sprint(v)
	}
	return out
}
