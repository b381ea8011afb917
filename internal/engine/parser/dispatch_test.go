package parser

import (
	"strings"
	"testing"
)

var testDispatch = NewDispatch(NewGrammarLoader())

func TestParseSourceJava(t *testing.T) {
	src := []byte(`public class Greeter {
    public String greet(String name) {
        return "hello " + name;
    }
}
`)
	doc := testDispatch.ParseSource("Greeter.java", src)
	if !doc.OK() {
		t.Fatalf("expected clean parse, got errors: %v", doc.Errors)
	}
	defer doc.Doc.Close()

	if doc.Doc.Language != "java" {
		t.Errorf("Language = %q, want java", doc.Doc.Language)
	}
	if kind := doc.Doc.Root().Kind(); kind != "program" {
		t.Errorf("root kind = %q, want program", kind)
	}
}

func TestParseSourceBroken(t *testing.T) {
	doc := testDispatch.ParseSource("Broken.java", []byte("public class { {{{"))
	if doc.OK() {
		doc.Doc.Close()
		t.Fatal("expected parse errors for broken source")
	}
	if len(doc.Errors) == 0 {
		t.Fatal("expected at least one positioned error")
	}
	if doc.Errors[0].Line < 1 {
		t.Errorf("error line = %d, want >= 1", doc.Errors[0].Line)
	}
}

func TestParseSourceUnknownLanguage(t *testing.T) {
	doc := testDispatch.ParseSource("notes.txt", []byte("anything"))
	if doc.OK() {
		t.Fatal("expected a failed document for an unknown extension")
	}
	if !strings.Contains(doc.Errors[0].Message, "unsupported source language") {
		t.Errorf("unexpected message: %q", doc.Errors[0].Message)
	}
}

func TestSupports(t *testing.T) {
	for _, kind := range []FileKind{KindSource, KindMarkup, KindConfig, KindProperties} {
		if !testDispatch.Supports(kind) {
			t.Errorf("Supports(%v) = false, want true", kind)
		}
	}
	if testDispatch.Supports(KindNone) {
		t.Error("Supports(KindNone) = true, want false")
	}
}

func TestSourceDocText(t *testing.T) {
	doc := testDispatch.ParseSource("main.go", []byte("package main\n"))
	if !doc.OK() {
		t.Fatalf("expected clean parse, got errors: %v", doc.Errors)
	}
	defer doc.Doc.Close()

	root := doc.Doc.Root()
	if got := doc.Doc.Text(root.Child(0)); got != "package main" {
		t.Errorf("Text = %q, want %q", got, "package main")
	}
	if got := doc.Doc.Text(nil); got != "" {
		t.Errorf("Text(nil) = %q, want empty", got)
	}
}
