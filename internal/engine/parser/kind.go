package parser

import (
	"path/filepath"
	"strings"
)

// FileKind is the closed classification of a file's structural format.
// KindNone short-circuits all further processing for the file.
type FileKind int

const (
	KindNone FileKind = iota
	KindSource
	KindMarkup
	KindConfig
	KindProperties
)

func (k FileKind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindMarkup:
		return "markup"
	case KindConfig:
		return "config"
	case KindProperties:
		return "properties"
	default:
		return "none"
	}
}

// sourceLanguages maps source extensions to grammar language IDs.
var sourceLanguages = map[string]string{
	".java": "java",
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".jsx":  "javascript",
	".mjs":  "javascript",
	".ts":   "typescript",
	".tsx":  "tsx",
	".rs":   "rust",
	".css":  "css",
}

var markupExtensions = map[string]bool{
	".xml":   true,
	".html":  true,
	".xhtml": true,
	".htm":   true,
	".ftl":   true, // FreeMarker templates are HTML-shaped enough for structural checks
}

var configExtensions = map[string]bool{
	".yaml": true,
	".yml":  true,
	".json": true,
	".toml": true,
}

// DetectKind derives the FileKind from a file name. The mapping is
// deterministic; unknown extensions yield KindNone.
func DetectKind(name string) FileKind {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case sourceLanguages[ext] != "":
		return KindSource
	case markupExtensions[ext]:
		return KindMarkup
	case configExtensions[ext]:
		return KindConfig
	case ext == ".properties":
		return KindProperties
	default:
		return KindNone
	}
}

// SourceLanguage returns the grammar language ID for a source file name,
// or "" when the extension is not a known source language.
func SourceLanguage(name string) string {
	return sourceLanguages[strings.ToLower(filepath.Ext(name))]
}
