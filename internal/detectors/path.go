package detectors

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/Wikid82/sentinel/internal/patterns"
	"github.com/Wikid82/sentinel/internal/security"
)

// PathValidator flags traversal, sensitive locations, null bytes and
// separators that only become traversal after Unicode normalization.
type PathValidator struct {
	scanner
}

func NewPathValidator(opts Options) *PathValidator {
	return &PathValidator{scanner: newScanner(patterns.ModulePath, opts.sensitivity())}
}

func (d *PathValidator) Name() string { return patterns.ModulePath }

func (d *PathValidator) Scan(ctx context.Context, text string) ([]security.Finding, error) {
	out, err := d.scan(ctx, text, 0)
	if err != nil {
		return nil, err
	}
	if p, ok := d.rule(patterns.PathUnicodeTraversal); ok {
		out = append(out, d.normalizedTraversal(p, text)...)
	}
	return sortByOffset(out), nil
}

// normalizedTraversal checks each whitespace-delimited token that contains
// non-ASCII runes and reports those whose NFKC form traverses when the raw
// form does not.
func (d *PathValidator) normalizedTraversal(p security.SecurityPattern, text string) []security.Finding {
	var out []security.Finding
	forEachToken(text, func(start, end int) {
		token := text[start:end]
		if isASCII(token) || hasTraversal(token) {
			return
		}
		normalized := norm.NFKC.String(token)
		if !hasTraversal(normalized) {
			return
		}
		if f, ok := d.finding(p, text, start, end); ok {
			f.Metadata[security.MetaNormalized] = security.TruncateMatch(normalized)
			out = append(out, f)
		}
	})
	return out
}

func hasTraversal(s string) bool {
	return strings.Contains(s, "../") || strings.Contains(s, `..\`)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// forEachToken calls fn with the byte span of every whitespace-separated token.
func forEachToken(text string, fn func(start, end int)) {
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				fn(start, i)
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		fn(start, len(text))
	}
}
