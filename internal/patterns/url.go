package patterns

import "github.com/Wikid82/sentinel/internal/security"

// URL rule ids referenced by the structured URL check.
const (
	URLCloudMetadata  = "url-cloud-metadata"
	URLLoopback       = "url-loopback"
	URLPrivateNetwork = "url-private-network"
	URLLinkLocal      = "url-link-local"
	URLFileScheme     = "url-file-scheme"
	URLExoticScheme   = "url-exotic-scheme"
	URLCredentials    = "url-embedded-credentials"
	URLNumericHost    = "url-numeric-host"
	URLInternalDomain = "url-internal-domain"
	URLDirectIP       = "url-direct-ip"
)

var ssrf = []string{TagSSRF}

var urlRules = []rule{
	{
		id: URLCloudMetadata, category: "ssrf", sub: "cloud_metadata",
		expr: `(?i)(?:169\.254\.169\.254|169\.254\.170\.2|metadata\.google\.internal|metadata\.azure\.com|100\.100\.100\.200|fd00:ec2::254)`,
		sev:  security.SeverityCritical, fp: security.FPRiskLow, tags: []string{TagSSRF, TagCloudMetadata},
		desc:     "Cloud instance metadata endpoint",
		examples: []string{"http://169.254.169.254/latest/meta-data/"},
	},
	{
		id: URLLoopback, category: "ssrf", sub: "loopback",
		expr: `(?i)\b(?:localhost|127(?:\.\d{1,3}){3}|0\.0\.0\.0)\b|\[::1?\]`,
		sev:  security.SeverityHigh, fp: security.FPRiskMedium, tags: ssrf,
		desc: "Loopback or unspecified host",
	},
	{
		id: URLPrivateNetwork, category: "ssrf", sub: "private_network",
		expr: `\b(?:10(?:\.\d{1,3}){3}|172\.(?:1[6-9]|2\d|3[01])(?:\.\d{1,3}){2}|192\.168(?:\.\d{1,3}){2})\b`,
		sev:  security.SeverityHigh, fp: security.FPRiskMedium, tags: ssrf,
		desc: "RFC 1918 private address",
	},
	{
		id: URLLinkLocal, category: "ssrf", sub: "link_local",
		expr: `\b169\.254\.\d{1,3}\.\d{1,3}\b|\[(?i:fe80):`,
		sev:  security.SeverityHigh, fp: security.FPRiskLow, tags: ssrf,
		desc: "Link-local address",
	},
	{
		id: URLFileScheme, category: "dangerous_scheme", sub: "file",
		expr: `(?i)\bfile://`,
		sev:  security.SeverityHigh, fp: security.FPRiskLow,
		desc: "file:// URI reads local files",
	},
	{
		id: URLExoticScheme, category: "dangerous_scheme", sub: "protocol_smuggling",
		expr: `(?i)\b(?:gopher|dict|ldap|tftp|jar|netdoc)://`,
		sev:  security.SeverityHigh, fp: security.FPRiskLow, tags: ssrf,
		desc: "Scheme commonly abused for protocol smuggling",
	},
	{
		id: URLCredentials, category: "credential_exposure", sub: "userinfo",
		expr: `(?i)\b[a-z][a-z0-9+.-]*://[^/\s:@]+:[^/\s@]+@`,
		sev:  security.SeverityHigh, fp: security.FPRiskLow,
		desc: "Credentials embedded in a URL",
	},
	{
		id: URLNumericHost, category: "ssrf", sub: "obfuscated_ip",
		expr: `(?i)\b[a-z][a-z0-9+.-]*://(?:0x[0-9a-f]{8}|\d{8,10}|0[0-7]{1,3}(?:\.0[0-7]{1,3}){3})(?:[:/]|\s|$)`,
		sev:  security.SeverityHigh, fp: security.FPRiskLow, tags: ssrf,
		desc: "Decimal, hex or octal encoded IP host",
	},
	{
		id: URLInternalDomain, category: "ssrf", sub: "internal_domain",
		expr: `(?i)\b[a-z0-9-]+(?:\.[a-z0-9-]+)*\.(?:internal|local|localdomain|corp|intranet|lan)\b`,
		sev:  security.SeverityMedium, fp: security.FPRiskHigh, tags: ssrf,
		desc: "Internal-only DNS suffix",
	},
	{
		id: URLDirectIP, category: "network", sub: "direct_ip",
		expr: `(?i)\b[a-z][a-z0-9+.-]*://\d{1,3}(?:\.\d{1,3}){3}\b`,
		sev:  security.SeverityLow, fp: security.FPRiskHigh,
		desc: "URL addressed by raw public IP",
	},
}
