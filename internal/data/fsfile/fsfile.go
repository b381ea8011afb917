// Package fsfile adapts the local filesystem to the engine's file contract.
package fsfile

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/parser"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/rule"
)

// File is an OS-backed file handle. Metadata is captured at collection time;
// Content always reads the current bytes.
type File struct {
	path string
	info os.FileInfo
}

var _ rule.FileHandle = File{}

func New(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	return File{path: path, info: info}, nil
}

func (f File) Path() string { return f.path }
func (f File) Name() string { return filepath.Base(f.path) }

func (f File) Size() int64 {
	if f.info == nil {
		return 0
	}
	return f.info.Size()
}

func (f File) ModTime() time.Time {
	if f.info == nil {
		return time.Time{}
	}
	return f.info.ModTime()
}

func (f File) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

func (f File) Content() ([]byte, error) {
	return os.ReadFile(f.path)
}

// Collector walks a project tree and yields the files the engine can work
// on. Include and exclude patterns match against the file's normalized
// root-relative path.
type Collector struct {
	include []glob.Glob
	exclude []glob.Glob
}

func NewCollector(include, exclude []string) (*Collector, error) {
	c := &Collector{}
	for _, pattern := range include {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid include pattern %q: %w", pattern, err)
		}
		c.include = append(c.include, g)
	}
	for _, pattern := range exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		c.exclude = append(c.exclude, g)
	}
	return c, nil
}

// Collect returns the eligible files under root, sorted by path. Hidden
// directories are pruned during the walk; everything else is filtered by
// pattern and by whether the parser knows the file kind at all.
func (c *Collector) Collect(root string) ([]rule.FileHandle, error) {
	var out []rule.FileHandle

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		base := filepath.Base(path)
		if d.IsDir() {
			if path != root && strings.HasPrefix(base, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if parser.DetectKind(base) == parser.KindNone {
			return nil
		}
		if len(c.include) > 0 && !matchAny(c.include, rel) {
			return nil
		}
		if matchAny(c.exclude, rel) {
			return nil
		}

		f, newErr := New(path)
		if newErr != nil {
			return nil // raced with a delete; skip
		}
		out = append(out, f)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect files under %s: %w", root, err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path() < out[j].Path() })
	return out, nil
}

// Matches reports whether a single root-relative path passes the collector's
// filters. Watch mode uses it to triage change events.
func (c *Collector) Matches(rel string) bool {
	rel = filepath.ToSlash(rel)
	if parser.DetectKind(filepath.Base(rel)) == parser.KindNone {
		return false
	}
	if len(c.include) > 0 && !matchAny(c.include, rel) {
		return false
	}
	return !matchAny(c.exclude, rel)
}

func matchAny(globs []glob.Glob, path string) bool {
	for _, g := range globs {
		if g.Match(path) {
			return true
		}
	}
	return false
}
