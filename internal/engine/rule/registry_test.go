package rule

import (
	"errors"
	"testing"

	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/parser"
)

type listProvider struct {
	name  string
	rules []Rule
	err   error
	panic bool
}

func (p listProvider) Name() string { return p.name }

func (p listProvider) Provide() ([]Rule, error) {
	if p.panic {
		panic("provider exploded")
	}
	return p.rules, p.err
}

func TestRegisterKeepsFirst(t *testing.T) {
	reg := NewRegistry()
	first := stubRule{id: "x", severity: SeverityError}
	second := stubRule{id: "x", severity: SeverityHint}

	reg.Register(first)
	reg.Register(second)

	if reg.Len() != 1 {
		t.Fatalf("Len = %d, want 1", reg.Len())
	}
	if got := reg.Get("x").DefaultSeverity(); got != SeverityError {
		t.Error("duplicate registration overwrote the original")
	}
}

func TestRegisterRejectsEmptyID(t *testing.T) {
	reg := NewRegistry()
	reg.Register(stubRule{})
	reg.Register(nil)
	if reg.Len() != 0 {
		t.Errorf("Len = %d, want 0", reg.Len())
	}
}

func TestAllPreservesRegistrationOrder(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{"c", "a", "b"} {
		reg.Register(stubRule{id: id})
	}

	all := reg.All()
	if len(all) != 3 {
		t.Fatalf("All = %d rules, want 3", len(all))
	}
	for i, want := range []string{"c", "a", "b"} {
		if all[i].ID() != want {
			t.Errorf("All[%d] = %q, want %q", i, all[i].ID(), want)
		}
	}
}

func TestByFileKind(t *testing.T) {
	reg := NewRegistry()
	reg.Register(stubRule{id: "src", kinds: []parser.FileKind{parser.KindSource}})
	reg.Register(stubRule{id: "cfg", kinds: []parser.FileKind{parser.KindConfig}})
	reg.Register(stubRule{id: "both", kinds: []parser.FileKind{parser.KindSource, parser.KindConfig}})

	got := reg.ByFileKind(parser.KindSource)
	if len(got) != 2 || got[0].ID() != "src" || got[1].ID() != "both" {
		t.Errorf("ByFileKind(source) = %v", ids(got))
	}
	if got := reg.ByFileKind(parser.KindMarkup); len(got) != 0 {
		t.Errorf("ByFileKind(markup) = %v, want none", ids(got))
	}
}

func TestByCategory(t *testing.T) {
	reg := NewRegistry()
	reg.Register(stubRule{id: "s1", category: CategorySecurity})
	reg.Register(stubRule{id: "q1", category: CategoryQuality})
	reg.Register(stubRule{id: "s2", category: CategorySecurity})

	got := reg.ByCategory(CategorySecurity)
	if len(got) != 2 || got[0].ID() != "s1" || got[1].ID() != "s2" {
		t.Errorf("ByCategory(security) = %v", ids(got))
	}
}

func TestDiscoverIsolatesBrokenProviders(t *testing.T) {
	reg := NewRegistry()
	reg.Discover(
		listProvider{name: "good", rules: []Rule{stubRule{id: "g1"}}},
		listProvider{name: "failing", err: errors.New("load failed")},
		listProvider{name: "panicking", panic: true},
		listProvider{name: "also-good", rules: []Rule{stubRule{id: "g2"}}},
	)

	if reg.Len() != 2 {
		t.Fatalf("Len = %d, want 2", reg.Len())
	}
	if reg.Get("g1") == nil || reg.Get("g2") == nil {
		t.Error("healthy providers must register despite broken siblings")
	}
}

func ids(rules []Rule) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.ID()
	}
	return out
}
