package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Element is one node of a markup tree. XML and HTML inputs both normalize
// into this shape so markup rules stay format-agnostic.
type Element struct {
	Name     string
	Attrs    map[string]string
	Text     string
	Line     int
	Column   int
	Children []*Element
}

// Attr returns the attribute value, or "" when absent.
func (e *Element) Attr(name string) string {
	return e.Attrs[name]
}

// Walk visits the element and its descendants depth-first. Returning false
// from fn prunes the subtree.
func (e *Element) Walk(fn func(*Element) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, child := range e.Children {
		child.Walk(fn)
	}
}

// parseXML builds an Element tree from an XML document using the streaming
// decoder so every element keeps its input position.
func parseXML(content []byte) Document[*Element] {
	decoder := xml.NewDecoder(bytes.NewReader(content))
	decoder.Strict = true

	root := &Element{Name: "#document", Attrs: map[string]string{}, Line: 1, Column: 1}
	stack := []*Element{root}

	for {
		line, col := decoder.InputPos()
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			var se *xml.SyntaxError
			msg := err.Error()
			if errors.As(err, &se) {
				line = se.Line
				msg = se.Msg
			}
			return failed[*Element](ParseError{Line: line, Column: col, Message: msg})
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{
				Name:   t.Name.Local,
				Attrs:  make(map[string]string, len(t.Attr)),
				Line:   line,
				Column: col,
			}
			for _, attr := range t.Attr {
				el.Attrs[attr.Name.Local] = attr.Value
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, el)
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text != "" {
				cur := stack[len(stack)-1]
				if cur.Text == "" {
					cur.Text = text
				} else {
					cur.Text += " " + text
				}
			}
		}
	}

	if len(stack) != 1 {
		line, col := decoder.InputPos()
		return failed[*Element](ParseError{Line: line, Column: col, Message: "unexpected end of document"})
	}
	return Document[*Element]{Doc: root}
}

// htmlToElement converts a tree-sitter HTML tree into the shared Element
// shape. Templates (.ftl) ride on the HTML grammar; unparseable template
// constructs degrade to text nodes rather than errors.
func htmlToElement(doc *SourceDoc) *Element {
	root := &Element{Name: "#document", Attrs: map[string]string{}, Line: 1, Column: 1}
	convertHTMLChildren(doc, doc.Root(), root)
	return root
}

func convertHTMLChildren(doc *SourceDoc, node *sitter.Node, parent *Element) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "element", "script_element", "style_element":
			el := convertHTMLElement(doc, child)
			if el != nil {
				parent.Children = append(parent.Children, el)
			}
		case "text":
			text := strings.TrimSpace(doc.Text(child))
			if text != "" {
				if parent.Text == "" {
					parent.Text = text
				} else {
					parent.Text += " " + text
				}
			}
		default:
			convertHTMLChildren(doc, child, parent)
		}
	}
}

func convertHTMLElement(doc *SourceDoc, node *sitter.Node) *Element {
	el := &Element{
		Attrs:  map[string]string{},
		Line:   int(node.StartPosition().Row) + 1,
		Column: int(node.StartPosition().Column) + 1,
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "start_tag", "self_closing_tag":
			for j := uint(0); j < child.ChildCount(); j++ {
				part := child.Child(j)
				switch part.Kind() {
				case "tag_name":
					el.Name = doc.Text(part)
				case "attribute":
					name, value := htmlAttribute(doc, part)
					if name != "" {
						el.Attrs[name] = value
					}
				}
			}
		case "element", "script_element", "style_element":
			if sub := convertHTMLElement(doc, child); sub != nil {
				el.Children = append(el.Children, sub)
			}
		case "text", "raw_text":
			text := strings.TrimSpace(doc.Text(child))
			if text != "" {
				if el.Text == "" {
					el.Text = text
				} else {
					el.Text += " " + text
				}
			}
		}
	}

	if el.Name == "" {
		return nil
	}
	return el
}

func htmlAttribute(doc *SourceDoc, node *sitter.Node) (string, string) {
	var name, value string
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "attribute_name":
			name = doc.Text(child)
		case "attribute_value":
			value = doc.Text(child)
		case "quoted_attribute_value":
			value = strings.Trim(doc.Text(child), `"'`)
		}
	}
	return name, value
}
