package parser

import (
	"fmt"
	"io"
)

// ParseError is one positioned syntax error. Lines and columns are 1-based.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e ParseError) String() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// Document is the outcome of parsing: a structural tree or a list of
// positioned errors, never both. Rules are expected to treat a failed
// document as "not applicable" rather than as a run error.
type Document[T any] struct {
	Doc    T
	Errors []ParseError
}

func (d Document[T]) OK() bool {
	return len(d.Errors) == 0
}

// Close releases the underlying tree when the document type holds native
// resources; a no-op otherwise. Lets run caches treat all documents alike.
func (d Document[T]) Close() error {
	if closer, ok := any(d.Doc).(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func failed[T any](errs ...ParseError) Document[T] {
	var zero T
	return Document[T]{Doc: zero, Errors: errs}
}
