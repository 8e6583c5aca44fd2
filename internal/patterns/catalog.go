// Package patterns holds the static detection catalog, one table per
// detection module. Tables are compiled once at init and handed out as
// copies, so nothing downstream can mutate them.
package patterns

import (
	"fmt"
	"sort"

	"github.com/Wikid82/sentinel/internal/security"
)

// Version identifies the catalog revision. Bump it whenever a rule changes.
const Version = "2026.10.2"

// Module names, in the fixed order findings are concatenated.
const (
	ModulePromptInjection = "prompt_injection"
	ModuleCommand         = "command_validator"
	ModuleURL             = "url_validator"
	ModulePath            = "path_validator"
	ModuleSecret          = "secret_detector"
	ModuleContent         = "content_scanner"
)

// Tags with meaning to the detectors.
const (
	TagOperator      = "operator"
	TagDestructive   = "destructive"
	TagStructured    = "structured"
	TagSSRF          = "ssrf"
	TagCloudMetadata = "cloud-metadata"
	TagRedact        = "redact"
	TagEntropy       = "entropy"
)

var moduleOrder = []string{
	ModulePromptInjection,
	ModuleCommand,
	ModuleURL,
	ModulePath,
	ModuleSecret,
	ModuleContent,
}

// rule is the uncompiled form of a SecurityPattern used by the tables.
type rule struct {
	id       string
	category string
	sub      string
	expr     string
	sev      security.Severity
	fp       security.FalsePositiveRisk
	lang     string
	desc     string
	examples []string
	tags     []string
	disabled bool
}

var (
	catalog = map[string][]security.SecurityPattern{}
	byID    = map[string]security.SecurityPattern{}
)

func init() {
	register(ModulePromptInjection, injectionRules)
	register(ModuleCommand, commandRules)
	register(ModuleURL, urlRules)
	register(ModulePath, pathRules)
	register(ModuleSecret, secretRules)
	register(ModuleContent, contentRules)
}

func register(module string, rules []rule) {
	compiled := make([]security.SecurityPattern, 0, len(rules))
	for _, r := range rules {
		if _, dup := byID[r.id]; dup {
			panic(fmt.Sprintf("patterns: duplicate id %q", r.id))
		}
		p := compile(r)
		compiled = append(compiled, p)
		byID[r.id] = p
	}
	catalog[module] = compiled
}

func compile(r rule) security.SecurityPattern {
	lang := r.lang
	if lang == "" {
		lang = "universal"
	}
	var m security.Matcher
	if r.expr != "" {
		m = security.Regex(r.expr)
	}
	return security.SecurityPattern{
		ID:                r.id,
		Category:          r.category,
		Subcategory:       r.sub,
		Matcher:           m,
		Severity:          r.sev,
		Language:          lang,
		Description:       r.desc,
		Examples:          r.examples,
		FalsePositiveRisk: r.fp,
		Enabled:           !r.disabled,
		Tags:              r.tags,
	}
}

// Modules returns the module names in concatenation order.
func Modules() []string {
	return append([]string(nil), moduleOrder...)
}

// ForModule returns a copy of the module's table, disabled rules included.
func ForModule(module string) []security.SecurityPattern {
	return append([]security.SecurityPattern(nil), catalog[module]...)
}

// Enabled returns the enabled rules for a module.
func Enabled(module string) []security.SecurityPattern {
	var out []security.SecurityPattern
	for _, p := range catalog[module] {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out
}

// Lookup finds a rule by id.
func Lookup(id string) (security.SecurityPattern, bool) {
	p, ok := byID[id]
	return p, ok
}

// Entry pairs a rule with its owning module for listings.
type Entry struct {
	Module  string                   `json:"module"`
	Pattern security.SecurityPattern `json:"pattern"`
}

// All lists every rule, grouped by module in concatenation order and sorted
// by id inside each module.
func All() []Entry {
	var out []Entry
	for _, module := range moduleOrder {
		rules := ForModule(module)
		sort.SliceStable(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
		for _, p := range rules {
			out = append(out, Entry{Module: module, Pattern: p})
		}
	}
	return out
}
