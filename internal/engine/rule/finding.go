package rule

import "sort"

// Span is a source region. Lines and columns are 1-based; EndLine is never
// smaller than StartLine.
type Span struct {
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
}

// SpanAt makes a single-position span.
func SpanAt(line, column int) Span {
	return Span{StartLine: line, StartColumn: column, EndLine: line, EndColumn: column}
}

func (s Span) Valid() bool {
	return s.StartLine >= 1 && s.EndLine >= s.StartLine && s.StartColumn >= 0 && s.EndColumn >= 0
}

func (s Span) less(o Span) bool {
	if s.StartLine != o.StartLine {
		return s.StartLine < o.StartLine
	}
	if s.StartColumn != o.StartColumn {
		return s.StartColumn < o.StartColumn
	}
	if s.EndLine != o.EndLine {
		return s.EndLine < o.EndLine
	}
	return s.EndColumn < o.EndColumn
}

// Finding is one reported defect instance.
type Finding struct {
	RuleID    string
	Category  Category
	Severity  Severity
	Message   string
	Rationale string
	File      string // normalized project-relative path
	Span      Span
	Metadata  map[string]string // machine-readable extras, e.g. suggested replacement
}

// ExecutionError records a rule fault; it never propagates past the
// coordinator.
type ExecutionError struct {
	File   string
	RuleID string
	Err    error
}

func (e ExecutionError) Error() string {
	return e.File + ": " + e.RuleID + ": " + e.Err.Error()
}

// SortFindings orders findings by (file, rule id, span) for deterministic
// output and run-to-run comparison.
func SortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		if a.Span != b.Span {
			return a.Span.less(b.Span)
		}
		return a.Message < b.Message
	})
}
