package parser

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_css "github.com/tree-sitter/tree-sitter-css/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_html "github.com/tree-sitter/tree-sitter-html/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// GrammarLoader owns the statically linked tree-sitter grammars. Grammars are
// loaded once and shared for the process lifetime; sitter.Language values are
// immutable and safe for concurrent use.
type GrammarLoader struct {
	languages map[string]*sitter.Language
}

func NewGrammarLoader() *GrammarLoader {
	gl := &GrammarLoader{languages: make(map[string]*sitter.Language)}

	gl.languages["css"] = sitter.NewLanguage(tree_sitter_css.Language())
	gl.languages["go"] = sitter.NewLanguage(tree_sitter_go.Language())
	gl.languages["html"] = sitter.NewLanguage(tree_sitter_html.Language())
	gl.languages["java"] = sitter.NewLanguage(tree_sitter_java.Language())
	gl.languages["javascript"] = sitter.NewLanguage(tree_sitter_javascript.Language())
	gl.languages["python"] = sitter.NewLanguage(tree_sitter_python.Language())
	gl.languages["rust"] = sitter.NewLanguage(tree_sitter_rust.Language())
	gl.languages["tsx"] = sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
	gl.languages["typescript"] = sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())

	return gl
}

// Language returns the grammar for a language ID.
func (gl *GrammarLoader) Language(id string) (*sitter.Language, error) {
	lang := gl.languages[id]
	if lang == nil {
		return nil, fmt.Errorf("grammar not loaded: %s", id)
	}
	return lang, nil
}

// Languages lists the loaded language IDs.
func (gl *GrammarLoader) Languages() []string {
	out := make([]string, 0, len(gl.languages))
	for id := range gl.languages {
		out = append(out, id)
	}
	return out
}
