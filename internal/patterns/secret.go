package patterns

import "github.com/Wikid82/sentinel/internal/security"

var redact = []string{TagRedact}

var secretRules = []rule{
	{
		id: "sec-aws-access-key", category: "cloud_credentials", sub: "aws",
		expr: `\b(?:AKIA|ASIA|AIDA|AGPA|AROA)[0-9A-Z]{16}\b`,
		sev:  security.SeverityCritical, fp: security.FPRiskLow, tags: redact,
		desc: "AWS access key id",
	},
	{
		id: "sec-aws-secret-key", category: "cloud_credentials", sub: "aws",
		expr: `(?i)aws[_-]?secret[_-]?access[_-]?key\s*[:=]\s*["']?[A-Za-z0-9/+=]{40}`,
		sev:  security.SeverityCritical, fp: security.FPRiskLow, tags: redact,
		desc: "AWS secret access key assignment",
	},
	{
		id: "sec-gcp-api-key", category: "cloud_credentials", sub: "gcp",
		expr: `\bAIza[0-9A-Za-z_-]{35}\b`,
		sev:  security.SeverityHigh, fp: security.FPRiskLow, tags: redact,
		desc: "Google API key",
	},
	{
		id: "sec-gcp-service-account", category: "cloud_credentials", sub: "gcp",
		expr: `"type"\s*:\s*"service_account"`,
		sev:  security.SeverityHigh, fp: security.FPRiskMedium,
		desc: "Google service account key file",
	},
	{
		id: "sec-azure-storage", category: "cloud_credentials", sub: "azure",
		expr: `(?i)DefaultEndpointsProtocol=https?;AccountName=[^;\s]+;AccountKey=[A-Za-z0-9+/=]{20,}`,
		sev:  security.SeverityCritical, fp: security.FPRiskLow, tags: redact,
		desc: "Azure storage connection string",
	},
	{
		id: "sec-private-key", category: "private_key", sub: "pem",
		expr: `-----BEGIN (?:RSA |EC |DSA |OPENSSH |ENCRYPTED |PGP )?PRIVATE KEY(?: BLOCK)?-----`,
		sev:  security.SeverityCritical, fp: security.FPRiskLow,
		desc: "PEM private key header",
	},
	{
		id: "sec-jwt", category: "token", sub: "jwt",
		expr: `\beyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`,
		sev:  security.SeverityHigh, fp: security.FPRiskLow, tags: redact,
		desc: "JSON Web Token",
	},
	{
		id: "sec-github-token", category: "token", sub: "github",
		expr: `\b(?:gh[pousr]_[A-Za-z0-9]{36,}|github_pat_[A-Za-z0-9_]{22,})\b`,
		sev:  security.SeverityCritical, fp: security.FPRiskLow, tags: redact,
		desc: "GitHub token",
	},
	{
		id: "sec-slack-token", category: "token", sub: "slack",
		expr: `\bxox[baprs]-[0-9A-Za-z-]{10,}`,
		sev:  security.SeverityHigh, fp: security.FPRiskLow, tags: redact,
		desc: "Slack token",
	},
	{
		id: "sec-slack-webhook", category: "token", sub: "slack",
		expr: `https://hooks\.slack\.com/services/T[A-Za-z0-9_]{8,}/B[A-Za-z0-9_]{8,}/[A-Za-z0-9_]{24,}`,
		sev:  security.SeverityHigh, fp: security.FPRiskLow, tags: redact,
		desc: "Slack incoming webhook URL",
	},
	{
		id: "sec-stripe-key", category: "token", sub: "stripe",
		expr: `\b[sr]k_(?:live|test)_[0-9A-Za-z]{24,}\b`,
		sev:  security.SeverityCritical, fp: security.FPRiskLow, tags: redact,
		desc: "Stripe secret or restricted key",
	},
	{
		id: "sec-llm-api-key", category: "token", sub: "llm_provider",
		expr: `\bsk-(?:proj-|ant-)?[A-Za-z0-9_-]{32,}`,
		sev:  security.SeverityHigh, fp: security.FPRiskLow, tags: redact,
		desc: "LLM provider API key",
	},
	{
		id: "sec-npm-token", category: "token", sub: "npm",
		expr: `\bnpm_[A-Za-z0-9]{36}\b`,
		sev:  security.SeverityHigh, fp: security.FPRiskLow, tags: redact,
		desc: "npm access token",
	},
	{
		id: "sec-connection-string", category: "connection_string", sub: "password",
		expr: `(?i)\b(?:postgres(?:ql)?|mysql|mongodb(?:\+srv)?|redis|rediss|amqps?|mssql|sqlserver)://[^\s:/@]+:[^\s@/]+@[^\s/]+`,
		sev:  security.SeverityCritical, fp: security.FPRiskLow, tags: redact,
		desc:     "Database URL with an embedded password",
		examples: []string{"postgres://app:hunter2@db:5432/app"},
	},
	{
		id: "sec-bearer-token", category: "token", sub: "bearer",
		expr: `(?i)\bbearer\s+[A-Za-z0-9_\-.=]{20,}`,
		sev:  security.SeverityMedium, fp: security.FPRiskMedium, tags: redact,
		desc: "Bearer credential in an Authorization header",
	},
	{
		id: "sec-password-assignment", category: "generic_secret", sub: "password",
		expr: `(?i)\b(?:password|passwd|pwd)\s*[:=]\s*["'][^"'\s]{4,}["']`,
		sev:  security.SeverityHigh, fp: security.FPRiskMedium, tags: redact,
		desc: "Quoted password literal",
	},
	{
		id: "sec-generic-assignment", category: "generic_secret", sub: "high_entropy",
		expr: `(?i)\b[a-z0-9_.-]*(?:api[_-]?key|apikey|secret|token|access[_-]?key|auth[_-]?key|client[_-]?secret)[a-z0-9_.-]*\s*[:=]\s*["']?([A-Za-z0-9/+=_\-.]{16,})`,
		sev:  security.SeverityMedium, fp: security.FPRiskMedium, tags: []string{TagRedact, TagEntropy},
		desc: "High-entropy value assigned to a key or secret name",
	},
}
