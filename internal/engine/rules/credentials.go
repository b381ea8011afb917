package rules

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/parser"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/rule"
)

const (
	credEntropyThreshold = 4.0
	credMinTokenLength   = 20
)

type credPattern struct {
	name     string
	severity rule.Severity
	re       *regexp.Regexp
}

// builtinCredPatterns covers well-known token shapes plus the repository
// credential keys that ship in brXM property files.
var builtinCredPatterns = []credPattern{
	{"aws-access-key-id", rule.SeverityError, regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)},
	{"github-pat", rule.SeverityError, regexp.MustCompile(`\bghp_[A-Za-z0-9]{36}\b`)},
	{"github-fine-grained-pat", rule.SeverityError, regexp.MustCompile(`\bgithub_pat_[A-Za-z0-9_]{82}\b`)},
	{"stripe-live-secret", rule.SeverityError, regexp.MustCompile(`\bsk_live_[A-Za-z0-9]{16,}\b`)},
	{"slack-token", rule.SeverityError, regexp.MustCompile(`\bxox[baprs]-[A-Za-z0-9-]{10,}\b`)},
	{"private-key-block", rule.SeverityError, regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY-----`)},
	{"repository-credentials", rule.SeverityWarning, regexp.MustCompile(`(?i)\brepo(?:sitory)?\.(?:password|pass)\s*[=:]\s*\S+`)},
}

var (
	credContextRE = regexp.MustCompile(`(?i)\b(password|passwd|pwd|secret|api[_-]?key|token|auth[_-]?token|access[_-]?key|private[_-]?key|client[_-]?secret)\b`)
	credQuotedRE  = regexp.MustCompile(`"([^"\r\n]{4,})"|'([^'\r\n]{4,})'`)
	credTokenRE   = regexp.MustCompile(`"([A-Za-z0-9_\-+=:/.]{12,})"|'([A-Za-z0-9_\-+=:/.]{12,})'`)
)

// HardcodedCredentials scans raw file content for credential material:
// known token formats, high-entropy values assigned to sensitive-looking
// keys, and standalone high-entropy quoted strings. It runs on every file
// kind because credentials leak into sources, templates, bootstrap YAML and
// property files alike.
type HardcodedCredentials struct{}

func (HardcodedCredentials) ID() string                     { return "security.hardcoded-credentials" }
func (HardcodedCredentials) Name() string                   { return "Hardcoded credentials" }
func (HardcodedCredentials) Category() rule.Category        { return rule.CategorySecurity }
func (HardcodedCredentials) DefaultSeverity() rule.Severity { return rule.SeverityWarning }

func (HardcodedCredentials) Kinds() []parser.FileKind {
	return []parser.FileKind{parser.KindSource, parser.KindMarkup, parser.KindConfig, parser.KindProperties}
}

func (HardcodedCredentials) Description() string {
	return "Credentials committed to the repository survive in history forever and " +
		"bypass the credential store. External secrets belong in environment " +
		"configuration or a vault, not in sources or bootstrap content."
}

type credHit struct {
	kind       string
	severity   rule.Severity
	value      string
	entropy    float64
	confidence float64
	line       int
	column     int
}

func (r HardcodedCredentials) Inspect(ctx *rule.ExecutionContext) ([]rule.Finding, error) {
	if len(ctx.Content) == 0 {
		return nil, nil
	}

	text := string(ctx.Content)
	index := buildLineIndex(ctx.Content)
	hits := make(map[string]credHit)

	scanCredPatterns(text, index, hits)
	scanCredContext(text, index, hits)
	scanCredEntropy(text, index, hits)

	if len(hits) == 0 {
		return nil, nil
	}

	ordered := make([]credHit, 0, len(hits))
	for _, h := range hits {
		ordered = append(ordered, h)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].line != ordered[j].line {
			return ordered[i].line < ordered[j].line
		}
		if ordered[i].column != ordered[j].column {
			return ordered[i].column < ordered[j].column
		}
		return ordered[i].kind < ordered[j].kind
	})

	// Per-hit severities step in only when configuration does not pin one.
	_, pinned := ctx.Settings.SeverityOverride(r.ID())

	findings := make([]rule.Finding, 0, len(ordered))
	for _, h := range ordered {
		f := ctx.NewFinding(r, rule.SpanAt(h.line, h.column),
			fmt.Sprintf("possible %s: %s", h.kind, maskCredential(h.value)))
		if !pinned {
			f.Severity = h.severity
		}
		f.Rationale = r.Description()
		f.Metadata = map[string]string{
			"pattern":    h.kind,
			"entropy":    fmt.Sprintf("%.2f", h.entropy),
			"confidence": fmt.Sprintf("%.2f", h.confidence),
		}
		findings = append(findings, f)
	}
	return findings, nil
}

func scanCredPatterns(text string, index lineIndex, hits map[string]credHit) {
	for _, p := range builtinCredPatterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			value := text[loc[0]:loc[1]]
			if ignoreCredCandidate(value) {
				continue
			}
			line, col := index.lineCol(loc[0])
			upsertCredHit(hits, credHit{
				kind:       p.name,
				severity:   p.severity,
				value:      value,
				entropy:    shannonEntropy(value),
				confidence: 0.99,
				line:       line,
				column:     col,
			})
		}
	}
}

func scanCredContext(text string, index lineIndex, hits map[string]credHit) {
	offset := 0
	for _, line := range strings.Split(text, "\n") {
		if !credContextRE.MatchString(line) {
			offset += len(line) + 1
			continue
		}
		for _, match := range credQuotedRE.FindAllStringSubmatchIndex(line, -1) {
			start, end, ok := firstMatchedGroup(match)
			if !ok {
				continue
			}
			candidate := line[start:end]
			if len(candidate) < credMinTokenLength || ignoreCredCandidate(candidate) {
				continue
			}
			entropy := shannonEntropy(candidate)
			if entropy < credEntropyThreshold*0.8 {
				continue
			}
			confidence := 0.70
			if entropy >= credEntropyThreshold {
				confidence = 0.85
			}
			ln, col := index.lineCol(offset + start)
			upsertCredHit(hits, credHit{
				kind:       "sensitive-assignment",
				severity:   rule.SeverityWarning,
				value:      candidate,
				entropy:    entropy,
				confidence: confidence,
				line:       ln,
				column:     col,
			})
		}
		offset += len(line) + 1
	}
}

func scanCredEntropy(text string, index lineIndex, hits map[string]credHit) {
	for _, match := range credTokenRE.FindAllStringSubmatchIndex(text, -1) {
		start, end, ok := firstMatchedGroup(match)
		if !ok {
			continue
		}
		candidate := text[start:end]
		if len(candidate) < credMinTokenLength || ignoreCredCandidate(candidate) {
			continue
		}
		if !containsLetterAndDigit(candidate) {
			continue
		}
		entropy := shannonEntropy(candidate)
		if entropy < credEntropyThreshold {
			continue
		}
		line, col := index.lineCol(start)
		upsertCredHit(hits, credHit{
			kind:       "high-entropy-string",
			severity:   rule.SeverityInfo,
			value:      candidate,
			entropy:    entropy,
			confidence: 0.6,
			line:       line,
			column:     col,
		})
	}
}

// upsertCredHit keeps the highest-confidence hit per location and value, so
// a token that trips both a known pattern and the entropy scan reports once.
func upsertCredHit(hits map[string]credHit, candidate credHit) {
	key := fmt.Sprintf("%d:%d:%s", candidate.line, candidate.column, candidate.value)
	if existing, ok := hits[key]; ok && existing.confidence >= candidate.confidence {
		return
	}
	hits[key] = candidate
}

func ignoreCredCandidate(value string) bool {
	lower := strings.ToLower(value)
	for _, blocked := range []string{"example", "sample", "dummy", "placeholder", "changeme", "notasecret", "test"} {
		if strings.Contains(lower, blocked) {
			return true
		}
	}
	return false
}

func containsLetterAndDigit(value string) bool {
	hasLetter := false
	hasDigit := false
	for _, r := range value {
		if unicode.IsLetter(r) {
			hasLetter = true
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		}
		if hasLetter && hasDigit {
			return true
		}
	}
	return false
}

func shannonEntropy(value string) float64 {
	if value == "" {
		return 0
	}
	freq := make(map[rune]float64)
	for _, r := range value {
		freq[r]++
	}
	length := float64(len([]rune(value)))
	entropy := 0.0
	for _, count := range freq {
		p := count / length
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// maskCredential keeps enough of the value to locate it without reproducing
// the full secret in reports.
func maskCredential(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:4] + "..." + value[len(value)-4:]
}

type lineIndex struct {
	starts []int
}

func buildLineIndex(content []byte) lineIndex {
	starts := []int{0}
	for i, b := range content {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return lineIndex{starts: starts}
}

func (i lineIndex) lineCol(offset int) (int, int) {
	if offset < 0 {
		return 1, 1
	}
	line := sort.Search(len(i.starts), func(idx int) bool { return i.starts[idx] > offset }) - 1
	if line < 0 {
		line = 0
	}
	col := (offset - i.starts[line]) + 1
	if col < 1 {
		col = 1
	}
	return line + 1, col
}

func firstMatchedGroup(match []int) (int, int, bool) {
	for i := 2; i+1 < len(match); i += 2 {
		if match[i] >= 0 && match[i+1] >= 0 {
			return match[i], match[i+1], true
		}
	}
	return 0, 0, false
}
