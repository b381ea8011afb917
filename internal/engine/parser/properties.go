package parser

import "strings"

// Property is one key=value entry of a .properties file.
type Property struct {
	Key   string
	Value string
	Line  int
}

// Properties is the parsed form of a Java-style properties file.
type Properties struct {
	Entries []Property
}

// Get returns the last value for a key, matching java.util.Properties
// semantics, or "" when absent.
func (p *Properties) Get(key string) string {
	value := ""
	for _, e := range p.Entries {
		if e.Key == key {
			value = e.Value
		}
	}
	return value
}

// parseProperties accepts '=' and ':' separators, '#' and '!' comments, and
// trailing-backslash continuations. Properties files have no failure mode;
// junk lines are skipped.
func parseProperties(content []byte) Document[*Properties] {
	doc := &Properties{}
	lines := strings.Split(string(content), "\n")

	for i := 0; i < len(lines); i++ {
		startLine := i + 1
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}

		for strings.HasSuffix(line, "\\") && i+1 < len(lines) {
			i++
			line = strings.TrimSuffix(line, "\\") + strings.TrimSpace(lines[i])
		}

		sep := strings.IndexAny(line, "=:")
		if sep < 0 {
			continue
		}
		doc.Entries = append(doc.Entries, Property{
			Key:   strings.TrimSpace(line[:sep]),
			Value: strings.TrimSpace(line[sep+1:]),
			Line:  startLine,
		})
	}

	return Document[*Properties]{Doc: doc}
}
