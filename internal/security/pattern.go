package security

import (
	"regexp"
	"strings"
)

// FalsePositiveRisk tags how often a pattern fires on benign input.
type FalsePositiveRisk string

const (
	FPRiskLow    FalsePositiveRisk = "low"
	FPRiskMedium FalsePositiveRisk = "medium"
	FPRiskHigh   FalsePositiveRisk = "high"
)

// Matcher is either a compiled RE2 expression or a literal substring.
// RE2 guarantees linear-time matching, which keeps scans inside the latency
// budget regardless of input.
type Matcher struct {
	re      *regexp.Regexp
	literal string
}

// Regex compiles expr and panics on a bad expression; catalogs are static.
func Regex(expr string) Matcher {
	return Matcher{re: regexp.MustCompile(expr)}
}

// Literal matches s exactly, or case-insensitively when fold is set.
func Literal(s string, fold bool) Matcher {
	if fold {
		return Matcher{re: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(s)), literal: s}
	}
	return Matcher{literal: s}
}

// IsZero reports whether the matcher has nothing to match with.
func (m Matcher) IsZero() bool { return m.re == nil && m.literal == "" }

// FindAll returns [start, end) byte offsets of every non-overlapping match,
// left to right.
func (m Matcher) FindAll(text string) [][]int {
	if m.re != nil {
		return m.re.FindAllStringIndex(text, -1)
	}
	if m.literal == "" {
		return nil
	}
	var out [][]int
	for from := 0; from <= len(text); {
		i := strings.Index(text[from:], m.literal)
		if i < 0 {
			break
		}
		start := from + i
		end := start + len(m.literal)
		out = append(out, []int{start, end})
		from = end
	}
	return out
}

// FindAllSubmatch returns submatch offsets for regex matchers. Literal
// matchers report only the whole-match pair.
func (m Matcher) FindAllSubmatch(text string) [][]int {
	if m.re != nil {
		return m.re.FindAllStringSubmatchIndex(text, -1)
	}
	return m.FindAll(text)
}

// MatchString reports whether the matcher fires anywhere in text.
func (m Matcher) MatchString(text string) bool {
	if m.re != nil {
		return m.re.MatchString(text)
	}
	return m.literal != "" && strings.Contains(text, m.literal)
}

func (m Matcher) String() string {
	if m.literal != "" {
		return m.literal
	}
	if m.re != nil {
		return m.re.String()
	}
	return ""
}

// MarshalText exposes the expression when patterns are serialised.
func (m Matcher) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// SecurityPattern is one immutable detection rule from the catalog.
type SecurityPattern struct {
	ID                string            `json:"id"`
	Category          string            `json:"category"`
	Subcategory       string            `json:"subcategory,omitempty"`
	Matcher           Matcher           `json:"matcher"`
	Severity          Severity          `json:"severity"`
	Language          string            `json:"language"`
	Description       string            `json:"description"`
	Examples          []string          `json:"examples,omitempty"`
	FalsePositiveRisk FalsePositiveRisk `json:"false_positive_risk"`
	Enabled           bool              `json:"enabled"`
	Tags              []string          `json:"tags,omitempty"`
}

// HasTag reports whether tag is attached to the pattern.
func (p SecurityPattern) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
