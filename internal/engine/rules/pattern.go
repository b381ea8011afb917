package rules

import "strings"

// Route pattern generality. Patterns are segment lists split on '/'; a
// segment is a literal, a wildcard ("{id}"-style placeholders, "*", or the
// sitemap any-matcher names), or part of a catch-all pattern ("**" and its
// named equivalents), which matches everything at its level.

var defaultCatchAllNames = []string{"**", "_any", "_any_"}

var wildcardNames = map[string]bool{
	"*":         true,
	"_default":  true,
	"_default_": true,
}

func isWildcardSegment(seg string) bool {
	if wildcardNames[seg] {
		return true
	}
	return strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}")
}

func isCatchAllSegment(seg string, catchAll map[string]bool) bool {
	return catchAll[seg]
}

func splitPattern(pattern string) []string {
	pattern = strings.Trim(strings.TrimSpace(pattern), "/")
	if pattern == "" {
		return nil
	}
	return strings.Split(pattern, "/")
}

// segmentsMatch reports whether an earlier segment matches a later one:
// literally equal, or the earlier is a wildcard covering the later.
func segmentsMatch(earlier, later string) bool {
	if earlier == later {
		return true
	}
	return isWildcardSegment(earlier)
}

// MoreGeneral reports whether the earlier pattern is general enough to match
// everything the later sibling pattern would match, making the later entry
// unreachable. Identical patterns are a tie, not a shadow; duplication is a
// separate concern.
//
// Known limitation, kept deliberately: when the later sibling has more
// segments than a wildcard-heavy earlier pattern, prefix matching can miss a
// real shadow for some wildcard/literal mixes. The precedence model of the
// original matcher is underspecified there, so the heuristic is carried
// forward as documented behavior.
func MoreGeneral(earlier, later string, catchAllNames []string) bool {
	if earlier == later {
		return false
	}

	catchAll := make(map[string]bool, len(catchAllNames))
	for _, name := range catchAllNames {
		catchAll[name] = true
	}

	e := splitPattern(earlier)
	l := splitPattern(later)
	if len(e) == 0 || len(l) == 0 {
		return false
	}

	// A catch-all shadows any sibling with at most as many segments.
	if isCatchAllSegment(e[len(e)-1], catchAll) && len(l) <= len(e) {
		return true
	}

	switch {
	case len(e) < len(l):
		// Prefix generality: every earlier segment must cover the later
		// pattern's corresponding prefix segment.
		for i, seg := range e {
			if !segmentsMatch(seg, l[i]) {
				return false
			}
		}
		return true

	case len(e) == len(l):
		// Equal length: at least one wildcard-over-literal position, all
		// other positions matching.
		wins := false
		for i := range e {
			if e[i] == l[i] {
				continue
			}
			if isWildcardSegment(e[i]) && !isWildcardSegment(l[i]) {
				wins = true
				continue
			}
			if isWildcardSegment(e[i]) && isWildcardSegment(l[i]) {
				continue
			}
			return false
		}
		return wins

	default:
		return false
	}
}

// routeEntry is one named pattern at a position within its sibling group.
type routeEntry struct {
	Name    string
	Pattern string
	Line    int
	Column  int
}

// shadowPair records an earlier entry shadowing a later one.
type shadowPair struct {
	Earlier routeEntry
	Later   routeEntry
}

// findShadowedSiblings runs the pairwise check across one ordered sibling
// group. Quadratic in sibling count; realistic groups are small.
func findShadowedSiblings(entries []routeEntry, catchAllNames []string) []shadowPair {
	var out []shadowPair
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			if MoreGeneral(entries[i].Pattern, entries[j].Pattern, catchAllNames) {
				out = append(out, shadowPair{Earlier: entries[i], Later: entries[j]})
			}
		}
	}
	return out
}
