package security

import (
	"encoding/hex"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/unicode/norm"
)

// ValidationResult is the synchronous outcome of one validate call.
type ValidationResult struct {
	Severity          Severity          `json:"severity"`
	Action            Action            `json:"action"`
	Reasoning         string            `json:"reasoning"`
	BypassReason      string            `json:"bypass_reason,omitempty"`
	Findings          []Finding         `json:"findings"`
	Fingerprint       string            `json:"fingerprint"`
	Timestamp         time.Time         `json:"timestamp"`
	Recommendations   []string          `json:"recommendations"`
	ModulesConcerned  []string          `json:"modules_concerned,omitempty"`
	SeverityBreakdown map[string]int    `json:"severity_breakdown,omitempty"`
	ModuleErrors      map[string]string `json:"module_errors,omitempty"`
	EventID           string            `json:"event_id,omitempty"`
	Duration          time.Duration     `json:"duration_ns"`
}

// Categories returns the distinct finding categories in first-appearance order.
func (r *ValidationResult) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range r.Findings {
		if !seen[f.Pattern.Category] {
			seen[f.Pattern.Category] = true
			out = append(out, f.Pattern.Category)
		}
	}
	return out
}

// PatternIDs lists the matched pattern ids in finding order.
func (r *ValidationResult) PatternIDs() []string {
	ids := make([]string, 0, len(r.Findings))
	for _, f := range r.Findings {
		ids = append(ids, f.Pattern.ID)
	}
	return ids
}

// NormalizeText is the canonical form the fingerprint is computed over:
// NFKC composed, surrounding whitespace trimmed and internal whitespace runs
// collapsed to one space.
func NormalizeText(text string) string {
	composed := norm.NFKC.String(text)
	var b strings.Builder
	b.Grow(len(composed))
	space := false
	for _, r := range composed {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// Fingerprint is a BLAKE2b-256 digest of the normalized text. It depends on
// nothing but the text, so identical input from different identities hashes
// the same.
func Fingerprint(text string) string {
	sum := blake2b.Sum256([]byte(NormalizeText(text)))
	return hex.EncodeToString(sum[:])
}
