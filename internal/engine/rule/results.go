package rule

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Results is the aggregate of one run: findings plus isolated execution
// errors. Append-only while workers run (one critical section per file-level
// merge, not per finding), read-only after Seal. Derived views are computed
// on demand from the finding list.
type Results struct {
	RunID      string
	StartedAt  time.Time
	TotalFiles int

	mu             sync.Mutex
	findings       []Finding
	errors         []ExecutionError
	filesCompleted int
	duration       time.Duration
}

func NewResults(totalFiles int) *Results {
	return &Results{
		RunID:      uuid.New().String(),
		StartedAt:  time.Now(),
		TotalFiles: totalFiles,
	}
}

// MergeFile appends one fully processed file's findings and errors. Partial
// files are never merged: a file is either completely present or absent.
func (r *Results) MergeFile(findings []Finding, errs []ExecutionError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findings = append(r.findings, findings...)
	r.errors = append(r.errors, errs...)
	r.filesCompleted++
}

// Seal records the run duration and sorts findings deterministically.
// Callers must not merge after sealing.
func (r *Results) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.duration = time.Since(r.StartedAt)
	SortFindings(r.findings)
}

// FilesCompleted returns how many files were fully processed.
func (r *Results) FilesCompleted() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filesCompleted
}

// Duration returns the sealed run duration.
func (r *Results) Duration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.duration
}

// Findings returns a copy of the finding list.
func (r *Results) Findings() []Finding {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Finding, len(r.findings))
	copy(out, r.findings)
	return out
}

// Errors returns a copy of the execution error list.
func (r *Results) Errors() []ExecutionError {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ExecutionError, len(r.errors))
	copy(out, r.errors)
	return out
}

// Total returns the number of findings.
func (r *Results) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.findings)
}

// BySeverity counts findings per severity.
func (r *Results) BySeverity() map[Severity]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[Severity]int)
	for _, f := range r.findings {
		out[f.Severity]++
	}
	return out
}

// ByCategory counts findings per category.
func (r *Results) ByCategory() map[Category]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[Category]int)
	for _, f := range r.findings {
		out[f.Category]++
	}
	return out
}

// ByFile groups findings per normalized file path.
func (r *Results) ByFile() map[string][]Finding {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string][]Finding)
	for _, f := range r.findings {
		out[f.File] = append(out[f.File], f)
	}
	return out
}
