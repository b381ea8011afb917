package errors

import (
	"errors"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "file not found")
		if err.Error() != "[NOT_FOUND] file not found" {
			t.Errorf("unexpected message: %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("read failed")
		err := Wrap(original, CodeInternal, "internal failure")
		expected := "[INTERNAL_ERROR] internal failure: read failed"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
		if !errors.Is(err, original) {
			t.Error("expected wrapped error to unwrap to original")
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeRuleFault, "rule panicked")
		if !IsCode(err, CodeRuleFault) {
			t.Error("expected IsCode to match CodeRuleFault")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("did not expect IsCode to match CodeNotFound")
		}
	})

	t.Run("AddContext", func(t *testing.T) {
		err := AddContext(New(CodeParseError, "bad yaml"), CtxPath, "content.yaml")
		var de *DomainError
		if !errors.As(err, &de) {
			t.Fatal("expected DomainError")
		}
		if de.Context[CtxPath] != "content.yaml" {
			t.Errorf("context not recorded: %v", de.Context)
		}
	})
}
