package detectors

import (
	"context"
	"net/netip"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/Wikid82/sentinel/internal/patterns"
	"github.com/Wikid82/sentinel/internal/security"
)

// ASNLookup resolves the autonomous system that announces addr.
type ASNLookup interface {
	LookupASN(addr netip.Addr) (number uint, org string, err error)
}

var urlCandidate = regexp.MustCompile("(?i)\\b[a-z][a-z0-9+.-]{1,15}://[^\\s\"'<>`]+")

var metadataHosts = map[string]bool{
	"metadata.google.internal": true,
	"metadata.azure.com":       true,
	"metadata":                 true,
}

var metadataAddrs = map[netip.Addr]bool{
	netip.MustParseAddr("169.254.169.254"): true,
	netip.MustParseAddr("169.254.170.2"):   true,
	netip.MustParseAddr("100.100.100.200"): true,
	netip.MustParseAddr("fd00:ec2::254"):   true,
}

var exoticSchemes = map[string]bool{
	"gopher": true, "dict": true, "ldap": true, "tftp": true, "jar": true, "netdoc": true,
}

var internalSuffixes = []string{".internal", ".local", ".localdomain", ".corp", ".intranet", ".lan"}

// URLValidator is the SSRF check. URLs that parse are classified by host;
// anything that does not parse, and all text outside URLs, falls back to the
// raw expressions.
type URLValidator struct {
	scanner
	asn ASNLookup
}

func NewURLValidator(opts Options) *URLValidator {
	return &URLValidator{scanner: newScanner(patterns.ModuleURL, opts.sensitivity()), asn: opts.ASN}
}

func (d *URLValidator) Name() string { return patterns.ModuleURL }

func (d *URLValidator) Scan(ctx context.Context, text string) ([]security.Finding, error) {
	if text == "" {
		return nil, nil
	}
	var out []security.Finding
	masked := []byte(text)
	for _, loc := range urlCandidate.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		for end > start && strings.ContainsRune(".,;:!?)'", rune(text[end-1])) {
			end--
		}
		raw := text[start:end]
		found, parsed := d.classify(raw)
		if !parsed {
			fallback, err := d.scan(ctx, raw, start)
			if err != nil {
				return nil, err
			}
			for i := range fallback {
				fallback[i].Metadata[security.MetaParsed] = false
			}
			out = append(out, fallback...)
		} else {
			for _, f := range found {
				shift(&f, start)
				out = append(out, f)
			}
		}
		for i := start; i < end; i++ {
			masked[i] = ' '
		}
	}

	residual, err := d.scan(ctx, string(masked), 0)
	if err != nil {
		return nil, err
	}
	out = append(out, residual...)
	return sortByOffset(out), nil
}

// classify returns structured findings for one URL. parsed is false when
// the URL could not be understood and raw matching should take over.
func (d *URLValidator) classify(raw string) (out []security.Finding, parsed bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, false
	}
	scheme := strings.ToLower(u.Scheme)
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" && scheme != "file" {
		return nil, false
	}

	emit := func(id string, addr netip.Addr) {
		p, ok := d.rule(id)
		if !ok {
			return
		}
		f, ok := d.finding(p, raw, 0, len(raw))
		if !ok {
			return
		}
		if id == patterns.URLCredentials {
			f.Match = security.TruncateMatch(redactUserinfo(u))
		}
		f.Metadata[security.MetaScheme] = scheme
		f.Metadata[security.MetaParsed] = true
		if host != "" {
			f.Metadata[security.MetaHost] = host
		}
		if addr.IsValid() && id == patterns.URLDirectIP && d.asn != nil {
			if num, org, err := d.asn.LookupASN(addr); err == nil && num != 0 {
				f.Metadata[security.MetaASN] = num
				f.Metadata[security.MetaASNOrg] = org
			}
		}
		out = append(out, f)
	}

	switch {
	case scheme == "file":
		emit(patterns.URLFileScheme, netip.Addr{})
	case exoticSchemes[scheme]:
		emit(patterns.URLExoticScheme, netip.Addr{})
	}
	if hasCredentials(u.User) {
		emit(patterns.URLCredentials, netip.Addr{})
	}
	if host == "" {
		return out, true
	}

	if id, addr := classifyHost(host); id != "" {
		emit(id, addr)
	}
	return out, true
}

// classifyHost maps a lowercased host to the most specific URL rule.
func classifyHost(host string) (string, netip.Addr) {
	if metadataHosts[host] {
		return patterns.URLCloudMetadata, netip.Addr{}
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return patterns.URLLoopback, netip.Addr{}
	}

	addr, err := netip.ParseAddr(host)
	if err == nil {
		return classifyAddr(addr.Unmap()), addr.Unmap()
	}

	if legacy, ok := parseLegacyIPv4(host); ok {
		if metadataAddrs[legacy] {
			return patterns.URLCloudMetadata, legacy
		}
		return patterns.URLNumericHost, legacy
	}

	for _, suffix := range internalSuffixes {
		if strings.HasSuffix(host, suffix) {
			return patterns.URLInternalDomain, netip.Addr{}
		}
	}
	return "", netip.Addr{}
}

func classifyAddr(addr netip.Addr) string {
	switch {
	case metadataAddrs[addr]:
		return patterns.URLCloudMetadata
	case addr.IsLoopback(), addr.IsUnspecified():
		return patterns.URLLoopback
	case addr.IsLinkLocalUnicast():
		return patterns.URLLinkLocal
	case addr.IsPrivate():
		return patterns.URLPrivateNetwork
	default:
		return patterns.URLDirectIP
	}
}

// parseLegacyIPv4 decodes the inet_aton forms browsers and libc still
// accept: a single 32-bit integer, hex or octal parts, and fewer than four
// dotted parts.
func parseLegacyIPv4(host string) (netip.Addr, bool) {
	parts := strings.Split(host, ".")
	if len(parts) > 4 {
		return netip.Addr{}, false
	}
	vals := make([]uint64, len(parts))
	for i, part := range parts {
		if !numericPart(part) {
			return netip.Addr{}, false
		}
		base := 10
		digits := part
		switch {
		case strings.HasPrefix(part, "0x"):
			base, digits = 16, part[2:]
		case len(part) > 1 && part[0] == '0':
			base, digits = 8, part[1:]
		}
		v, err := strconv.ParseUint(digits, base, 32)
		if err != nil {
			return netip.Addr{}, false
		}
		vals[i] = v
	}

	var n uint64
	for _, v := range vals[:len(vals)-1] {
		if v > 255 {
			return netip.Addr{}, false
		}
		n = n<<8 | v
	}
	restBits := uint(8 * (5 - len(vals)))
	last := vals[len(vals)-1]
	if last >= 1<<restBits {
		return netip.Addr{}, false
	}
	n = n<<restBits | last
	return netip.AddrFrom4([4]byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}), true
}

func numericPart(part string) bool {
	if part == "" {
		return false
	}
	if strings.HasPrefix(part, "0x") {
		if len(part) == 2 {
			return false
		}
		for _, c := range part[2:] {
			if !strings.ContainsRune("0123456789abcdef", c) {
				return false
			}
		}
		return true
	}
	for _, c := range part {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// MinTokenUsernameLength is the shortest password-less username treated as
// a token, as in https://<token>@host/.
const MinTokenUsernameLength = 20

// hasCredentials reports a password, or a username that looks like an
// access token.
func hasCredentials(user *url.Userinfo) bool {
	if user == nil {
		return false
	}
	if _, ok := user.Password(); ok {
		return true
	}
	return tokenLike(user.Username())
}

func tokenLike(name string) bool {
	return len(name) >= MinTokenUsernameLength && shannonEntropy(name) >= MinSecretEntropy
}

// redactUserinfo hides the password and any token-like username.
func redactUserinfo(u *url.URL) string {
	name := u.User.Username()
	if !tokenLike(name) {
		return u.Redacted()
	}
	userinfo := redact(name)
	if _, ok := u.User.Password(); ok {
		userinfo += ":xxxxx"
	}
	c := *u
	c.User = nil
	return strings.Replace(c.String(), "//", "//"+userinfo+"@", 1)
}
