package security

import (
	"unicode/utf8"
)

// Known Finding metadata keys. Modules only ever write these keys so
// downstream consumers can rely on them.
const (
	// MetaOffset is the byte offset of the match in the scanned text (int).
	MetaOffset = "offset"
	// MetaLength is the byte length of the match (int).
	MetaLength = "length"
	// MetaCatalogSeverity is the catalog severity when sensitivity discounting changed it (string).
	MetaCatalogSeverity = "catalog_severity"
	// MetaEncoding names the detected encoding: base64, hex, hex_escape, unicode_escape, url_encoding (string).
	MetaEncoding = "encoding_type"
	// MetaInvisible is set when the match contains zero-width or bidi control characters (bool).
	MetaInvisible = "invisible_chars"
	// MetaCodepoints lists the offending code points as U+XXXX strings ([]string).
	MetaCodepoints = "codepoints"
	// MetaScripts lists the Unicode scripts mixed inside a token ([]string).
	MetaScripts = "scripts"
	// MetaDecodedPrintable is set when an encoded run decodes to printable text (bool).
	MetaDecodedPrintable = "decoded_printable"
	// MetaDecodedSuspicious is set when decoded base64 contains shell or injection keywords (bool).
	MetaDecodedSuspicious = "decoded_suspicious"
	// MetaNormalized carries the NFKC form of a suspicious run (string).
	MetaNormalized = "normalized_form"
	// MetaHost is the parsed URL host (string).
	MetaHost = "host"
	// MetaScheme is the parsed URL scheme (string).
	MetaScheme = "scheme"
	// MetaParsed is false when URL parsing failed and raw matching was used (bool).
	MetaParsed = "parsed"
	// MetaASN and MetaASNOrg carry optional ASN enrichment (uint, string).
	MetaASN    = "asn"
	MetaASNOrg = "asn_org"
	// MetaEscalated is set when a command operator was escalated by a destructive command (bool).
	MetaEscalated = "escalated"
	// MetaEntropy is the Shannon entropy of a generic secret value (float64).
	MetaEntropy = "entropy"
)

// MaxMatchDisplay caps the rune length of Finding.Match.
const MaxMatchDisplay = 120

// Finding is one occurrence of one pattern in one scan. It is never mutated
// after the module that created it returns.
type Finding struct {
	Module   string          `json:"module"`
	Pattern  SecurityPattern `json:"pattern"`
	Match    string          `json:"match"`
	Severity Severity        `json:"severity"`
	Metadata map[string]any  `json:"metadata,omitempty"`
}

// NewFinding records a match at text[start:end].
func NewFinding(module string, p SecurityPattern, text string, start, end int, sev Severity) Finding {
	return Finding{
		Module:   module,
		Pattern:  p,
		Match:    TruncateMatch(text[start:end]),
		Severity: sev,
		Metadata: map[string]any{
			MetaOffset: start,
			MetaLength: end - start,
		},
	}
}

// Offset returns the recorded match offset, or -1 when absent.
func (f Finding) Offset() int {
	if v, ok := f.Metadata[MetaOffset].(int); ok {
		return v
	}
	return -1
}

// TruncateMatch shortens long matches for display on a rune boundary.
func TruncateMatch(s string) string {
	if utf8.RuneCountInString(s) <= MaxMatchDisplay {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxMatchDisplay]) + "..."
}
