package detectors

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/Wikid82/sentinel/internal/patterns"
	"github.com/Wikid82/sentinel/internal/security"
)

// Words that make a decoded base64 payload worth more attention.
var decodedSuspicious = regexp.MustCompile(`(?i)\b(?:eval|exec|bash|sh|curl|wget|powershell|ignore\s+(?:all\s+)?previous|system\s+prompt|rm\s+-rf)\b`)

var hexOnly = regexp.MustCompile(`^[0-9a-fA-F]+$`)

// ContentScanner detects obfuscation: encoded runs, invisible characters,
// mixed-script words and deobfuscation idioms.
type ContentScanner struct {
	scanner
}

func NewContentScanner(opts Options) *ContentScanner {
	return &ContentScanner{scanner: newScanner(patterns.ModuleContent, opts.sensitivity())}
}

func (d *ContentScanner) Name() string { return patterns.ModuleContent }

func (d *ContentScanner) Scan(ctx context.Context, text string) ([]security.Finding, error) {
	raw, err := d.scan(ctx, text, 0)
	if err != nil {
		return nil, err
	}
	out := raw[:0]
	for _, f := range raw {
		if f.Pattern.ID == patterns.ContentBase64 {
			if !annotateBase64(&f, text) {
				continue
			}
		}
		switch f.Pattern.Category {
		case "encoding":
			if _, set := f.Metadata[security.MetaEncoding]; !set {
				f.Metadata[security.MetaEncoding] = f.Pattern.Subcategory
			}
		case "invisible_characters":
			f.Metadata[security.MetaInvisible] = true
			f.Metadata[security.MetaCodepoints] = codepoints(matched(f, text))
			f.Match = strings.Join(f.Metadata[security.MetaCodepoints].([]string), " ")
		}
		out = append(out, f)
	}

	if p, ok := d.rule(patterns.ContentHomoglyph); ok {
		out = append(out, d.mixedScripts(p, text)...)
	}
	return sortByOffset(out), nil
}

// annotateBase64 decides whether a base64-shaped run is really base64 and
// records what it decodes to. Pure hex runs are left to the hex rule.
func annotateBase64(f *security.Finding, text string) bool {
	run := matched(*f, text)
	if hexOnly.MatchString(strings.TrimRight(run, "=")) {
		return false
	}
	f.Metadata[security.MetaEncoding] = "base64"
	decoded, err := base64.StdEncoding.DecodeString(run)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(run, "="))
	}
	if err != nil {
		f.Metadata[security.MetaDecodedPrintable] = false
		return true
	}
	printable := isMostlyPrintable(decoded)
	f.Metadata[security.MetaDecodedPrintable] = printable
	if printable && decodedSuspicious.Match(decoded) {
		f.Severity = security.MaxSeverity(f.Severity, security.SeverityHigh)
		f.Metadata[security.MetaDecodedSuspicious] = true
	}
	return true
}

func isMostlyPrintable(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	printable := 0
	for _, r := range string(b) {
		if r == '\n' || r == '\t' || r == '\r' || (unicode.IsPrint(r) && r != unicode.ReplacementChar) {
			printable++
		}
	}
	return float64(printable)/float64(len([]rune(string(b)))) >= 0.9
}

func matched(f security.Finding, text string) string {
	start := f.Offset()
	length, _ := f.Metadata[security.MetaLength].(int)
	if start < 0 || start+length > len(text) {
		return f.Match
	}
	return text[start : start+length]
}

func codepoints(s string) []string {
	out := make([]string, 0, len(s)/3)
	for _, r := range s {
		out = append(out, fmt.Sprintf("U+%04X", r))
	}
	return out
}

var confusableScripts = []struct {
	name  string
	table *unicode.RangeTable
}{
	{"Latin", unicode.Latin},
	{"Cyrillic", unicode.Cyrillic},
	{"Greek", unicode.Greek},
	{"Armenian", unicode.Armenian},
}

// mixedScripts reports words whose letters come from more than one of the
// commonly confused alphabets, like "pаypal" with a Cyrillic а.
func (d *ContentScanner) mixedScripts(p security.SecurityPattern, text string) []security.Finding {
	var out []security.Finding
	start := -1
	check := func(end int) {
		word := text[start:end]
		if isASCII(word) {
			return
		}
		seen := map[string]bool{}
		for _, r := range word {
			for _, s := range confusableScripts {
				if unicode.Is(s.table, r) {
					seen[s.name] = true
				}
			}
		}
		if len(seen) < 2 {
			return
		}
		scripts := make([]string, 0, len(seen))
		for name := range seen {
			scripts = append(scripts, name)
		}
		sort.Strings(scripts)
		if f, ok := d.finding(p, text, start, end); ok {
			f.Metadata[security.MetaScripts] = scripts
			out = append(out, f)
		}
	}
	for i, r := range text {
		if unicode.IsLetter(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			check(i)
			start = -1
		}
	}
	if start >= 0 {
		check(len(text))
	}
	return out
}
