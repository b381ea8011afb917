package rules

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/cache"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/index"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/parser"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/rule"
)

var testDispatch = parser.NewDispatch(parser.NewGrammarLoader())

type memFile struct {
	path    string
	content []byte
}

func (f memFile) Path() string             { return f.path }
func (f memFile) Name() string             { return filepath.Base(f.path) }
func (f memFile) Size() int64              { return int64(len(f.content)) }
func (f memFile) ModTime() time.Time       { return time.Time{} }
func (f memFile) Exists() bool             { return true }
func (f memFile) Content() ([]byte, error) { return f.content, nil }

func testSettings() rule.Settings {
	return rule.Settings{
		AcquireCalls: []string{"login", "getSession", "impersonate"},
		ReleaseCalls: []string{"logout", "close"},
		AccessCalls:  []string{"getNode", "getNodeByIdentifier", "execute"},
		RouteParents: []string{"sitemap", "routes"},
	}
}

// newProjectContext builds an execution context over a small in-memory
// project, targeting one of its files by relative path.
func newProjectContext(t *testing.T, files map[string]string, target string) *rule.ExecutionContext {
	t.Helper()

	const root = "/project"
	handles := make([]rule.FileHandle, 0, len(files))
	var targetFile rule.FileHandle
	for rel, content := range files {
		h := memFile{path: root + "/" + rel, content: []byte(content)}
		handles = append(handles, h)
		if rel == target {
			targetFile = h
		}
	}
	if targetFile == nil {
		t.Fatalf("target %q not among project files", target)
	}

	c := cache.New(true)
	t.Cleanup(c.Close)

	content, err := targetFile.Content()
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	return &rule.ExecutionContext{
		Root:     root,
		File:     targetFile,
		RelPath:  target,
		Content:  content,
		Kind:     parser.DetectKind(targetFile.Name()),
		Settings: testSettings(),
		Dispatch: testDispatch,
		Cache:    c,
		Index:    index.Build(root, handles, testDispatch),
	}
}

// newFileContext is the single-file shorthand.
func newFileContext(t *testing.T, name, content string) *rule.ExecutionContext {
	t.Helper()
	return newProjectContext(t, map[string]string{name: content}, name)
}
