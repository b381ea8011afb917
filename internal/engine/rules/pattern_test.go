package rules

import "testing"

func TestMoreGeneral(t *testing.T) {
	cases := []struct {
		name    string
		earlier string
		later   string
		want    bool
	}{
		{"wildcard before literal", "_default", "products", true},
		{"underscore wildcard variant", "_default_", "products", true},
		{"placeholder before literal", "{id}", "latest", true},
		{"literal before wildcard", "products", "_default", false},
		{"literal before placeholder", "latest", "{id}", false},
		{"identical literals", "products", "products", false},
		{"identical wildcards", "_default", "_default", false},
		{"unrelated literals", "news", "products", false},
		{"catch-all before literal", "_any", "news", true},
		{"catch-all before wildcard", "_any", "_default", true},
		{"double-star catch-all", "**", "news", true},
		{"nested catch-all", "news/**", "news/archive", true},
		{"prefix with wildcard", "{id}", "latest/news", true},
		{"literal prefix", "news", "news/archive", true},
		{"mismatched prefix", "news", "products/archive", false},
		{"longer earlier never shadows", "news/archive", "news", false},
		{"mixed segments equal length", "news/{year}", "news/2024", true},
		{"mixed segments no win", "news/{year}", "products/2024", false},
		{"wildcard over wildcard is a tie", "news/{year}", "news/{month}", false},
		{"leading slash normalized", "/_default", "products", true},
		{"empty later", "_default", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MoreGeneral(tc.earlier, tc.later, defaultCatchAllNames)
			if got != tc.want {
				t.Errorf("MoreGeneral(%q, %q) = %v, want %v", tc.earlier, tc.later, got, tc.want)
			}
		})
	}
}

func TestMoreGeneralCustomCatchAll(t *testing.T) {
	if !MoreGeneral("fallback", "news", []string{"fallback"}) {
		t.Error("configured catch-all name should shadow a literal sibling")
	}
	if MoreGeneral("fallback", "news", defaultCatchAllNames) {
		t.Error("fallback is a plain literal under the default names")
	}
}

func TestFindShadowedSiblings(t *testing.T) {
	entries := []routeEntry{
		{Pattern: "products", Line: 1},
		{Pattern: "_default", Line: 2},
		{Pattern: "news", Line: 3},
		{Pattern: "archive", Line: 4},
	}
	pairs := findShadowedSiblings(entries, defaultCatchAllNames)
	if len(pairs) != 2 {
		t.Fatalf("expected 2 shadow pairs, got %d: %v", len(pairs), pairs)
	}
	for _, p := range pairs {
		if p.Earlier.Pattern != "_default" {
			t.Errorf("shadowing entry = %q, want _default", p.Earlier.Pattern)
		}
	}
	if pairs[0].Later.Pattern != "news" || pairs[1].Later.Pattern != "archive" {
		t.Errorf("shadowed entries = %q, %q", pairs[0].Later.Pattern, pairs[1].Later.Pattern)
	}
}
