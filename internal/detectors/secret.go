package detectors

import (
	"context"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Wikid82/sentinel/internal/patterns"
	"github.com/Wikid82/sentinel/internal/security"
)

// MinSecretEntropy is the bits-per-byte floor for generic key=value secrets.
const MinSecretEntropy = 3.5

// SecretDetector flags credential shapes. Matched secrets are redacted in
// the Finding so they never reach logs or the audit store verbatim.
type SecretDetector struct {
	scanner
}

func NewSecretDetector(opts Options) *SecretDetector {
	return &SecretDetector{scanner: newScanner(patterns.ModuleSecret, opts.sensitivity())}
}

func (d *SecretDetector) Name() string { return patterns.ModuleSecret }

func (d *SecretDetector) Scan(ctx context.Context, text string) ([]security.Finding, error) {
	if text == "" {
		return nil, nil
	}
	var out []security.Finding
	for _, p := range d.rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.HasTag(patterns.TagEntropy) {
			out = append(out, d.entropyMatches(p, text)...)
			continue
		}
		for _, loc := range p.Matcher.FindAll(text) {
			f, ok := d.finding(p, text, loc[0], loc[1])
			if !ok {
				continue
			}
			if p.HasTag(patterns.TagRedact) {
				f.Match = redact(text[loc[0]:loc[1]])
			}
			out = append(out, f)
		}
	}
	return sortByOffset(out), nil
}

// entropyMatches keeps only assignments whose value (group 1) looks random.
func (d *SecretDetector) entropyMatches(p security.SecurityPattern, text string) []security.Finding {
	var out []security.Finding
	for _, loc := range p.Matcher.FindAllSubmatch(text) {
		if len(loc) < 4 || loc[2] < 0 {
			continue
		}
		value := text[loc[2]:loc[3]]
		h := shannonEntropy(value)
		if h < MinSecretEntropy {
			continue
		}
		f, ok := d.finding(p, text, loc[0], loc[1])
		if !ok {
			continue
		}
		f.Match = security.TruncateMatch(text[loc[0]:loc[2]] + redact(value))
		f.Metadata[security.MetaEntropy] = math.Round(h*100) / 100
		out = append(out, f)
	}
	return out
}

// redact keeps a short prefix so operators can tell keys apart.
func redact(s string) string {
	n := utf8.RuneCountInString(s)
	keep := 4
	if n <= 8 {
		keep = 1
	}
	runes := []rune(s)
	return string(runes[:keep]) + strings.Repeat("*", 4) + "(" + strconv.Itoa(n) + " chars)"
}
