// Package rule defines the detection contract: what a rule is, what it gets
// to look at, and what it reports. Rules are stateless and reentrant; one
// instance is shared across all files and goroutines in a run, and any
// per-file traversal state must be built fresh inside Inspect.
package rule

import (
	"fmt"
	"strings"
	"time"

	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/parser"
)

// Severity is totally ordered: Hint < Info < Warning < Error.
type Severity int

const (
	SeverityHint Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityHint:
		return "hint"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// ParseSeverity accepts the string form, case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hint":
		return SeverityHint, nil
	case "info":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	default:
		return SeverityHint, fmt.Errorf("unknown severity %q", s)
	}
}

// Category buckets rules by domain. Weights order categories in reports
// only; they never influence execution order.
type Category string

const (
	CategoryRepository    Category = "repository"
	CategoryConfiguration Category = "configuration"
	CategoryPerformance   Category = "performance"
	CategorySecurity      Category = "security"
	CategoryDeployment    Category = "deployment"
	CategoryIntegration   Category = "integration"
	CategoryQuality       Category = "quality"
)

var categoryWeights = map[Category]int{
	CategorySecurity:      70,
	CategoryRepository:    60,
	CategoryConfiguration: 50,
	CategoryPerformance:   40,
	CategoryDeployment:    30,
	CategoryIntegration:   20,
	CategoryQuality:       10,
}

// Weight returns the category's fixed reporting priority; unknown categories
// sort last.
func (c Category) Weight() int {
	return categoryWeights[c]
}

// FileHandle is the engine's read-only view of an input file. Implementations
// come from the filesystem adapter or a host editor.
type FileHandle interface {
	Path() string
	Name() string
	Size() int64
	ModTime() time.Time
	Exists() bool
	Content() ([]byte, error)
}

// IdentifierDecl is one recorded declaration of a project-wide identifier.
type IdentifierDecl struct {
	ID   string
	File string
	Line int
}

// ProjectIndex is the shared cross-file catalog, built once before rule
// execution and read-only thereafter from the rules' point of view.
type ProjectIndex interface {
	RecordIdentifier(id, file string, line int)
	FindConflicts(id string) []IdentifierDecl
	FindFiles(pattern string) ([]FileHandle, error)
	File(relPath string) FileHandle
}

// Cache is the per-run shared memoization surface.
type Cache interface {
	GetOrCompute(key string, compute func() interface{}) interface{}
}

// Rule is one independent detector. Inspect must not fail for expected
// conditions (parse failure, absent pattern): it returns no findings instead.
// An error return or panic signals a genuine fault, which the coordinator
// records without halting the run.
type Rule interface {
	ID() string
	Name() string
	Description() string
	Category() Category
	DefaultSeverity() Severity
	Kinds() []parser.FileKind
	Inspect(ctx *ExecutionContext) ([]Finding, error)
}

// AppliesTo reports whether the rule handles the given kind.
func AppliesTo(r Rule, kind parser.FileKind) bool {
	for _, k := range r.Kinds() {
		if k == kind {
			return true
		}
	}
	return false
}
