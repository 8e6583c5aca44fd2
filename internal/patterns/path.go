package patterns

import "github.com/Wikid82/sentinel/internal/security"

// PathUnicodeTraversal is emitted by the structured NFKC check.
const PathUnicodeTraversal = "path-unicode-traversal"

var pathRules = []rule{
	{
		id: "path-traversal-unix", category: "path_traversal", sub: "dot_dot_slash",
		expr: `\.\./`,
		sev:  security.SeverityMedium, fp: security.FPRiskMedium,
		desc:     "Parent directory traversal",
		examples: []string{"../../etc/passwd"},
	},
	{
		id: "path-traversal-windows", category: "path_traversal", sub: "dot_dot_backslash",
		expr: `\.\.\\`,
		sev:  security.SeverityMedium, fp: security.FPRiskMedium,
		desc: "Windows parent directory traversal",
	},
	{
		id: "path-traversal-deep", category: "path_traversal", sub: "deep",
		expr: `(?:\.\.[/\\]){3,}`,
		sev:  security.SeverityHigh, fp: security.FPRiskLow,
		desc: "Three or more chained traversal steps",
	},
	{
		id: "path-traversal-encoded", category: "path_traversal", sub: "encoded",
		expr: `(?i)(?:%2e%2e(?:%2f|%5c|/|\\)|\.\.(?:%2f|%5c)|%252e%252e|%c0%ae%c0%ae|%c0%af|%e0%80%ae)`,
		sev:  security.SeverityHigh, fp: security.FPRiskLow,
		desc: "URL encoded or overlong UTF-8 traversal",
	},
	{
		id: "path-sensitive-unix", category: "sensitive_path", sub: "system",
		expr: `(?:/etc/(?:passwd|shadow|gshadow|sudoers|master\.passwd)|/proc/self/(?:environ|cmdline|mem|maps)|/var/run/secrets/|/etc/ssl/private|/root/\.)`,
		sev:  security.SeverityHigh, fp: security.FPRiskLow,
		desc: "Credential or process file on a Unix host",
	},
	{
		id: "path-sensitive-home", category: "sensitive_path", sub: "user_credentials",
		expr: `(?:~|\$HOME|/home/[^/\s]+|/Users/[^/\s]+)/\.(?:ssh|aws|gnupg|kube|docker|netrc|git-credentials)\b`,
		sev:  security.SeverityHigh, fp: security.FPRiskLow,
		desc: "Per-user credential store",
	},
	{
		id: "path-sensitive-windows", category: "sensitive_path", sub: "windows",
		expr: `(?i)\b[a-z]:\\(?:windows\\system32|windows\\win\.ini|boot\.ini|windows\\repair\\sam)`,
		sev:  security.SeverityHigh, fp: security.FPRiskLow,
		desc: "Windows system location",
	},
	{
		id: "path-sensitive-dotenv", category: "sensitive_path", sub: "dotenv",
		expr: `(?:^|[\s/"'=])\.env(?:\.[a-z]+)?\b`,
		sev:  security.SeverityMedium, fp: security.FPRiskMedium,
		desc: "Environment file with secrets",
	},
	{
		id: "path-null-byte", category: "null_byte", sub: "injection",
		expr: `\x00|%00|\\x00|\\u0000`,
		sev:  security.SeverityHigh, fp: security.FPRiskLow,
		desc: "Null byte that truncates paths in native APIs",
	},
	{
		id: "path-unicode-separators", category: "unicode_normalization", sub: "lookalike_separator",
		expr: `[\x{FF0E}\x{2024}\x{FE52}\x{FF0F}\x{2215}\x{2044}\x{FF3C}\x{FE68}\x{2216}]`,
		sev:  security.SeverityMedium, fp: security.FPRiskLow,
		desc: "Dot or slash lookalike that may normalize into a separator",
	},
	{
		id: PathUnicodeTraversal, category: "unicode_normalization", sub: "nfkc_traversal",
		sev: security.SeverityHigh, fp: security.FPRiskLow, tags: []string{TagStructured},
		desc: "Traversal that only appears after NFKC normalization",
	},
}
