package patterns

import "github.com/Wikid82/sentinel/internal/security"

// Content rule ids the scanner treats specially.
const (
	ContentBase64    = "cs-base64-run"
	ContentHexRun    = "cs-hex-run"
	ContentHomoglyph = "cs-homoglyph-mixing"
)

var contentRules = []rule{
	{
		id: ContentBase64, category: "encoding", sub: "base64",
		expr: `[A-Za-z0-9+/]{40,}={0,2}`,
		sev:  security.SeverityMedium, fp: security.FPRiskMedium,
		desc: "Long base64 run",
	},
	{
		id: ContentHexRun, category: "encoding", sub: "hex",
		expr: `\b(?:[0-9a-fA-F]{2}){32,}\b`,
		sev:  security.SeverityLow, fp: security.FPRiskHigh,
		desc: "Long raw hex run",
	},
	{
		id: "cs-hex-escape", category: "encoding", sub: "hex_escape",
		expr: `(?:\\x[0-9a-fA-F]{2}){4,}`,
		sev:  security.SeverityMedium, fp: security.FPRiskLow,
		desc:     "Run of \\x escapes",
		examples: []string{`\x72\x6d\x20\x2d`},
	},
	{
		id: "cs-unicode-escape", category: "encoding", sub: "unicode_escape",
		expr: `(?:\\u[0-9a-fA-F]{4}|\\u\{[0-9a-fA-F]{1,6}\}){3,}`,
		sev:  security.SeverityMedium, fp: security.FPRiskLow,
		desc: "Run of \\u escapes",
	},
	{
		id: "cs-url-encoding", category: "encoding", sub: "url_encoding",
		expr: `(?:%[0-9a-fA-F]{2}){6,}`,
		sev:  security.SeverityLow, fp: security.FPRiskMedium,
		desc: "Run of percent escapes",
	},
	{
		id: "cs-html-entities", category: "encoding", sub: "html_entity",
		expr: `(?:&#[xX]?[0-9a-fA-F]{2,6};){4,}`,
		sev:  security.SeverityLow, fp: security.FPRiskMedium,
		desc: "Run of numeric HTML entities",
	},
	{
		id: "cs-zero-width", category: "invisible_characters", sub: "zero_width",
		expr: `[\x{200B}\x{200C}\x{200D}\x{2060}\x{FEFF}\x{180E}]+`,
		sev:  security.SeverityMedium, fp: security.FPRiskLow,
		desc: "Zero-width characters",
	},
	{
		id: "cs-bidi-override", category: "invisible_characters", sub: "bidi",
		expr: `[\x{202A}-\x{202E}\x{2066}-\x{2069}]+`,
		sev:  security.SeverityHigh, fp: security.FPRiskLow,
		desc: "Bidirectional override controls",
	},
	{
		id: "cs-tag-characters", category: "invisible_characters", sub: "unicode_tags",
		expr: `[\x{E0000}-\x{E007F}]+`,
		sev:  security.SeverityHigh, fp: security.FPRiskLow,
		desc: "Unicode tag characters used to smuggle hidden text",
	},
	{
		id: "cs-eval-call", category: "deobfuscation", sub: "eval",
		expr: `\beval\s*\(`,
		sev:  security.SeverityHigh, fp: security.FPRiskMedium,
		desc: "Dynamic code evaluation",
	},
	{
		id: "cs-atob-call", category: "deobfuscation", sub: "atob",
		expr: `\b(?:atob|btoa)\s*\(`,
		sev:  security.SeverityMedium, fp: security.FPRiskMedium,
		desc: "Browser base64 decode",
	},
	{
		id: "cs-chr-chain", category: "deobfuscation", sub: "chr_concat",
		expr: `(?i)(?:chr\s*\(\s*\d+\s*\)\s*[+.&]\s*){2,}chr\s*\(\s*\d+\s*\)`,
		sev:  security.SeverityHigh, fp: security.FPRiskLow,
		desc:     "String built from chr() concatenation",
		examples: []string{"chr(114)+chr(109)+chr(32)"},
	},
	{
		id: "cs-from-char-code", category: "deobfuscation", sub: "from_char_code",
		expr: `String\.fromCharCode\s*\(`,
		sev:  security.SeverityMedium, fp: security.FPRiskMedium,
		desc: "JavaScript char-code decoding",
	},
	{
		id: "cs-base64-decode-call", category: "deobfuscation", sub: "base64_decode",
		expr: `(?i)\b(?:base64\.b64decode|base64_decode|base64\s+(?:-d|--decode))\b|Buffer\.from\s*\([^)]*['"]base64['"]`,
		sev:  security.SeverityHigh, fp: security.FPRiskMedium,
		desc: "Explicit base64 decode",
	},
	{
		id: "cs-dynamic-import", category: "deobfuscation", sub: "dynamic_exec",
		expr: `__import__\s*\(|\bexec\s*\(\s*(?:compile|base64|bytes|codecs)`,
		sev:  security.SeverityHigh, fp: security.FPRiskMedium,
		desc: "Python dynamic import or exec",
	},
	{
		id: "cs-powershell-encoded", category: "deobfuscation", sub: "powershell",
		expr: `(?i)\bpowershell(?:\.exe)?\s[^\n]*-(?:e|enc|encodedcommand)\s+[A-Za-z0-9+/=]{16,}`,
		sev:  security.SeverityCritical, fp: security.FPRiskLow,
		desc: "PowerShell encoded command",
	},
	{
		id: ContentHomoglyph, category: "homoglyph", sub: "mixed_script",
		sev: security.SeverityMedium, fp: security.FPRiskMedium, tags: []string{TagStructured},
		desc: "Word mixing Latin with Cyrillic or Greek letters",
	},
}
