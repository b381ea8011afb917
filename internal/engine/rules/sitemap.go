package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/parser"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/rule"
)

// SitemapShadowing detects sitemap/route entries that can never match
// because an earlier sibling's pattern is more general. Applies to XML
// sitemap trees and to route groups in bootstrap YAML.
type SitemapShadowing struct{}

func (SitemapShadowing) ID() string              { return "configuration.sitemap-shadowing" }
func (SitemapShadowing) Name() string            { return "Shadowed sitemap item" }
func (SitemapShadowing) Category() rule.Category { return rule.CategoryConfiguration }

func (SitemapShadowing) DefaultSeverity() rule.Severity { return rule.SeverityWarning }

func (SitemapShadowing) Kinds() []parser.FileKind {
	return []parser.FileKind{parser.KindMarkup, parser.KindConfig}
}

func (SitemapShadowing) Description() string {
	return "Sitemap items are matched in declaration order. An earlier sibling whose " +
		"pattern is more general (wildcard or catch-all) matches every request the later " +
		"sibling could handle, so the later item is unreachable. Move the specific item " +
		"before the general one."
}

func (r SitemapShadowing) Inspect(ctx *rule.ExecutionContext) ([]rule.Finding, error) {
	catchAll := ctx.Settings.CatchAllNames
	if len(catchAll) == 0 {
		catchAll = defaultCatchAllNames
	}

	var groups [][]routeEntry
	switch ctx.Kind {
	case parser.KindMarkup:
		doc := ctx.MarkupDoc()
		if !doc.OK() {
			return nil, nil
		}
		groups = markupRouteGroups(doc.Doc)
	case parser.KindConfig:
		doc := ctx.ConfigDoc()
		if !doc.OK() {
			return nil, nil
		}
		groups = configRouteGroups(doc.Doc, ctx.Settings.RouteParents)
	default:
		return nil, nil
	}

	var findings []rule.Finding
	for _, group := range groups {
		for _, pair := range findShadowedSiblings(group, catchAll) {
			f := ctx.NewFinding(r, rule.SpanAt(pair.Later.Line, pair.Later.Column),
				fmt.Sprintf("sitemap item %q can never match: earlier sibling %q is more general",
					pair.Later.Pattern, pair.Earlier.Pattern))
			f.Rationale = r.Description()
			f.Metadata = map[string]string{
				"shadowedBy":     pair.Earlier.Pattern,
				"shadowedByLine": strconv.Itoa(pair.Earlier.Line),
			}
			findings = append(findings, f)
		}
	}
	return findings, nil
}

// markupRouteGroups collects, per parent element, the ordered children that
// declare a matchable name. Each parent forms its own independent group.
func markupRouteGroups(root *parser.Element) [][]routeEntry {
	var groups [][]routeEntry
	root.Walk(func(el *parser.Element) bool {
		var group []routeEntry
		for _, child := range el.Children {
			pattern := child.Attr("name")
			if pattern == "" {
				pattern = child.Attr("pattern")
			}
			if pattern == "" {
				continue
			}
			group = append(group, routeEntry{
				Name:    child.Name,
				Pattern: pattern,
				Line:    child.Line,
				Column:  child.Column,
			})
		}
		if len(group) > 1 {
			groups = append(groups, group)
		}
		return true
	})
	return groups
}

// configRouteGroups collects sibling groups from bootstrap YAML: the ordered
// mapping children under any route-parent key (hst:sitemap and friends).
// Keys keep their declaration order from the document.
func configRouteGroups(root *parser.Node, parents []string) [][]routeEntry {
	parentSet := make(map[string]bool, len(parents))
	for _, p := range parents {
		parentSet[strings.ToLower(p)] = true
	}

	var groups [][]routeEntry
	root.Walk(func(n *parser.Node) bool {
		if n.Kind != parser.NodeMapping || !isRouteParent(n.Key, parentSet) {
			return true
		}
		var group []routeEntry
		for _, child := range n.Children {
			if child.Kind != parser.NodeMapping && child.Kind != parser.NodeScalar {
				continue
			}
			pattern := strings.TrimPrefix(child.Key, "/")
			if pattern == "" {
				continue
			}
			group = append(group, routeEntry{
				Name:    child.Key,
				Pattern: pattern,
				Line:    child.Line,
				Column:  child.Column,
			})
		}
		if len(group) > 1 {
			groups = append(groups, group)
		}
		return true
	})
	return groups
}

func isRouteParent(key string, parentSet map[string]bool) bool {
	key = strings.ToLower(strings.TrimPrefix(key, "/"))
	if parentSet[key] {
		return true
	}
	// Namespaced keys like hst:sitemap match on their local part.
	if idx := strings.LastIndex(key, ":"); idx >= 0 {
		return parentSet[key[idx+1:]]
	}
	return false
}
