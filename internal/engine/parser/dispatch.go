package parser

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/shared/observability"
)

// Dispatch routes file content to the parser for its kind. All parse methods
// are stateless and reentrant; tree-sitter parser instances come from
// per-language pools. Dispatch never retries and never mutates global state.
type Dispatch struct {
	loader *GrammarLoader
	pools  map[string]*Pool
}

func NewDispatch(loader *GrammarLoader) *Dispatch {
	d := &Dispatch{loader: loader, pools: make(map[string]*Pool)}
	for _, id := range loader.Languages() {
		if lang, err := loader.Language(id); err == nil {
			d.pools[id] = NewPool(lang)
		}
	}
	return d
}

// Supports reports whether the dispatch has a parser for the kind.
func (d *Dispatch) Supports(kind FileKind) bool {
	switch kind {
	case KindSource, KindMarkup, KindConfig, KindProperties:
		return true
	default:
		return false
	}
}

// ParseSource parses a source file into its concrete syntax tree. A file in
// an unknown language or with syntax errors yields a failed document, not an
// error; the caller decides whether a broken file is interesting.
func (d *Dispatch) ParseSource(path string, content []byte) Document[*SourceDoc] {
	lang := SourceLanguage(path)
	if lang == "" {
		return failed[*SourceDoc](ParseError{Line: 1, Column: 1, Message: "unsupported source language"})
	}
	return d.parseWithGrammar(lang, content, true)
}

func (d *Dispatch) parseWithGrammar(lang string, content []byte, strict bool) Document[*SourceDoc] {
	pool := d.pools[lang]
	if pool == nil {
		return failed[*SourceDoc](ParseError{Line: 1, Column: 1, Message: "grammar not loaded: " + lang})
	}

	timer := time.Now()
	sp := pool.Get()
	tree := sp.Parse(content, nil)
	pool.Put(sp)
	observability.ParseDuration.WithLabelValues("source").Observe(time.Since(timer).Seconds())

	if tree == nil {
		return failed[*SourceDoc](ParseError{Line: 1, Column: 1, Message: "parse failed"})
	}

	doc := &SourceDoc{Language: lang, Source: content, tree: tree}
	if strict && doc.Root().HasError() {
		var errs []ParseError
		collectSyntaxErrors(doc.Root(), &errs)
		_ = doc.Close()
		return failed[*SourceDoc](errs...)
	}
	return Document[*SourceDoc]{Doc: doc}
}

// ParseMarkup parses XML strictly and HTML-shaped files (including
// FreeMarker templates) leniently via the HTML grammar.
func (d *Dispatch) ParseMarkup(path string, content []byte) Document[*Element] {
	timer := time.Now()
	defer func() {
		observability.ParseDuration.WithLabelValues("markup").Observe(time.Since(timer).Seconds())
	}()

	if strings.ToLower(filepath.Ext(path)) == ".xml" {
		return parseXML(content)
	}

	// Lenient: template directives inside HTML degrade to text, not errors.
	htmlDoc := d.parseWithGrammar("html", content, false)
	if !htmlDoc.OK() {
		return failed[*Element](htmlDoc.Errors...)
	}
	defer htmlDoc.Doc.Close()
	return Document[*Element]{Doc: htmlToElement(htmlDoc.Doc)}
}

// ParseConfig parses declarative configuration: YAML, JSON (as a YAML
// superset), and TOML.
func (d *Dispatch) ParseConfig(path string, content []byte) Document[*Node] {
	timer := time.Now()
	defer func() {
		observability.ParseDuration.WithLabelValues("config").Observe(time.Since(timer).Seconds())
	}()

	if strings.ToLower(filepath.Ext(path)) == ".toml" {
		return parseTOML(content)
	}
	return parseYAML(content)
}

// ParseProperties parses a Java-style properties file.
func (d *Dispatch) ParseProperties(content []byte) Document[*Properties] {
	return parseProperties(content)
}
