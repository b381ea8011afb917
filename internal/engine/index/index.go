// Package index holds the cross-file project index: a catalog of declared
// identifiers and the project file listing, built in one pass before rule
// execution and read concurrently by rule invocations afterwards.
package index

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gobwas/glob"

	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/rule"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/shared/observability"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/shared/util"
)

// Project implements rule.ProjectIndex. All mutation happens in the build
// pass; afterwards the structure is effectively immutable. A rule that calls
// RecordIdentifier later only pollutes its own bookkeeping; the RWMutex
// keeps the shared storage intact either way.
type Project struct {
	root string

	mu          sync.RWMutex
	identifiers map[string][]rule.IdentifierDecl
	files       map[string]rule.FileHandle
}

var _ rule.ProjectIndex = (*Project)(nil)

func NewProject(root string) *Project {
	return &Project{
		root:        root,
		identifiers: make(map[string][]rule.IdentifierDecl),
		files:       make(map[string]rule.FileHandle),
	}
}

// Root returns the project root the index was built for.
func (p *Project) Root() string {
	return p.root
}

// AddFile records a file under its normalized relative path.
func (p *Project) AddFile(f rule.FileHandle) {
	rel := util.RelativeTo(p.root, f.Path())
	p.mu.Lock()
	p.files[rel] = f
	p.mu.Unlock()
}

// RecordIdentifier records one declaration of a project-wide identifier.
func (p *Project) RecordIdentifier(id, file string, line int) {
	if id == "" {
		return
	}
	p.mu.Lock()
	p.identifiers[id] = append(p.identifiers[id], rule.IdentifierDecl{ID: id, File: file, Line: line})
	p.mu.Unlock()
}

// FindConflicts returns every declaration of id when more than one exists,
// sorted by (file, line); nil for unique or unknown identifiers.
func (p *Project) FindConflicts(id string) []rule.IdentifierDecl {
	p.mu.RLock()
	decls := p.identifiers[id]
	p.mu.RUnlock()
	if len(decls) < 2 {
		return nil
	}
	out := make([]rule.IdentifierDecl, len(decls))
	copy(out, decls)
	sort.Slice(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].Line < out[j].Line
	})
	return out
}

// FindFiles returns the handles whose normalized relative path matches the
// glob pattern, sorted by path.
func (p *Project) FindFiles(pattern string) ([]rule.FileHandle, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	paths := make([]string, 0)
	for rel := range p.files {
		if g.Match(rel) {
			paths = append(paths, rel)
		}
	}
	sort.Strings(paths)

	out := make([]rule.FileHandle, 0, len(paths))
	for _, rel := range paths {
		out = append(out, p.files[rel])
	}
	return out, nil
}

// File returns the handle registered under a normalized relative path, or nil.
func (p *Project) File(relPath string) rule.FileHandle {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.files[util.NormalizeRelPath(relPath)]
}

// IdentifierCount returns the number of distinct recorded identifiers.
func (p *Project) IdentifierCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.identifiers)
}

func (p *Project) publishMetrics() {
	observability.IndexEntries.Set(float64(p.IdentifierCount()))
}
