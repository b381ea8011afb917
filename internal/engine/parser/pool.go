package parser

import (
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Pool recycles tree-sitter parser instances to avoid the per-file
// allocation overhead of sitter.NewParser() / parser.Close().
//
// Each pool is tied to a single grammar; multi-language workloads hold one
// Pool per language. The underlying tree-sitter parser is not reentrant, so
// every parse checks an instance out and returns it when done.
//
// Concurrency: safe for use by multiple goroutines simultaneously.
type Pool struct {
	lang *sitter.Language
	pool sync.Pool
}

// NewPool creates a pool for the given grammar. The grammar must remain
// valid for the lifetime of the pool.
func NewPool(lang *sitter.Language) *Pool {
	p := &Pool{lang: lang}
	p.pool = sync.Pool{
		New: func() any {
			sp := sitter.NewParser()
			sp.SetLanguage(lang)
			return sp
		},
	}
	return p
}

// Get retrieves a parser from the pool, or allocates a new one if the pool is
// empty. The returned parser is already configured for the pool's language.
func (p *Pool) Get() *sitter.Parser {
	sp := p.pool.Get().(*sitter.Parser)
	// Ensure the language is set in case the parser was Reset() externally.
	sp.SetLanguage(p.lang)
	return sp
}

// Put returns a parser to the pool for reuse. The parser is reset first so
// no references to previous parse trees are retained. Callers must not use
// sp after calling Put.
func (p *Pool) Put(sp *sitter.Parser) {
	if sp == nil {
		return
	}
	sp.Reset()
	p.pool.Put(sp)
}
