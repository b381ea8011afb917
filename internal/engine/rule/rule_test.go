package rule

import (
	"testing"

	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/parser"
)

type stubRule struct {
	id       string
	category Category
	severity Severity
	kinds    []parser.FileKind
}

func (r stubRule) ID() string                { return r.id }
func (r stubRule) Name() string              { return r.id }
func (r stubRule) Description() string       { return "stub" }
func (r stubRule) Category() Category        { return r.category }
func (r stubRule) DefaultSeverity() Severity { return r.severity }
func (r stubRule) Kinds() []parser.FileKind  { return r.kinds }

func (r stubRule) Inspect(ctx *ExecutionContext) ([]Finding, error) {
	return nil, nil
}

func TestParseSeverity(t *testing.T) {
	cases := []struct {
		in      string
		want    Severity
		wantErr bool
	}{
		{"hint", SeverityHint, false},
		{"info", SeverityInfo, false},
		{"warning", SeverityWarning, false},
		{"warn", SeverityWarning, false},
		{"error", SeverityError, false},
		{"  Error ", SeverityError, false},
		{"critical", 0, true},
		{"", 0, true},
	}

	for _, tc := range cases {
		got, err := ParseSeverity(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseSeverity(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSeverity(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseSeverity(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSeverityOrdering(t *testing.T) {
	if !(SeverityHint < SeverityInfo && SeverityInfo < SeverityWarning && SeverityWarning < SeverityError) {
		t.Error("severity ordering broken")
	}
}

func TestCategoryWeight(t *testing.T) {
	if CategorySecurity.Weight() <= CategoryQuality.Weight() {
		t.Error("security must outrank quality in reports")
	}
	if Category("made-up").Weight() != 0 {
		t.Error("unknown categories must sort last")
	}
}

func TestAppliesTo(t *testing.T) {
	r := stubRule{id: "a", kinds: []parser.FileKind{parser.KindSource, parser.KindConfig}}
	if !AppliesTo(r, parser.KindSource) || !AppliesTo(r, parser.KindConfig) {
		t.Error("declared kinds not matched")
	}
	if AppliesTo(r, parser.KindMarkup) {
		t.Error("undeclared kind matched")
	}
}

func TestSettingsOverrides(t *testing.T) {
	off := false
	warn := SeverityWarning
	s := Settings{PerRule: map[string]Override{
		"disabled.rule": {Enabled: &off},
		"tuned.rule":    {Severity: &warn},
	}}

	if s.RuleEnabled("disabled.rule") {
		t.Error("disabled rule reported enabled")
	}
	if !s.RuleEnabled("tuned.rule") || !s.RuleEnabled("unknown.rule") {
		t.Error("rules must default to enabled")
	}

	tuned := stubRule{id: "tuned.rule", severity: SeverityError}
	if got := s.RuleSeverity(tuned); got != SeverityWarning {
		t.Errorf("RuleSeverity = %v, want warning override", got)
	}
	plain := stubRule{id: "plain.rule", severity: SeverityInfo}
	if got := s.RuleSeverity(plain); got != SeverityInfo {
		t.Errorf("RuleSeverity = %v, want the default", got)
	}

	if sev, ok := s.SeverityOverride("tuned.rule"); !ok || sev != SeverityWarning {
		t.Errorf("SeverityOverride = %v, %v", sev, ok)
	}
	if _, ok := s.SeverityOverride("plain.rule"); ok {
		t.Error("unconfigured rule reported a pinned severity")
	}
}
