package parser

import "testing"

func TestDetectKind(t *testing.T) {
	cases := []struct {
		name string
		want FileKind
	}{
		{"SessionPool.java", KindSource},
		{"main.go", KindSource},
		{"util.py", KindSource},
		{"app.TSX", KindSource},
		{"styles.css", KindSource},
		{"hst-config.xml", KindMarkup},
		{"homepage.ftl", KindMarkup},
		{"index.html", KindMarkup},
		{"bootstrap.yaml", KindConfig},
		{"bootstrap.yml", KindConfig},
		{"settings.json", KindConfig},
		{"inspection.toml", KindConfig},
		{"repository.properties", KindProperties},
		{"README.md", KindNone},
		{"archive.tar.gz", KindNone},
		{"Makefile", KindNone},
	}

	for _, tc := range cases {
		if got := DetectKind(tc.name); got != tc.want {
			t.Errorf("DetectKind(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSourceLanguage(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"SessionPool.java", "java"},
		{"main.go", "go"},
		{"component.jsx", "javascript"},
		{"component.tsx", "tsx"},
		{"lib.rs", "rust"},
		{"config.yaml", ""},
		{"notes.txt", ""},
	}

	for _, tc := range cases {
		if got := SourceLanguage(tc.name); got != tc.want {
			t.Errorf("SourceLanguage(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
