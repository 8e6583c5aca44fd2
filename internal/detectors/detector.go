// Package detectors implements the six detection modules. Every module is
// stateless after construction and safe for concurrent Scan calls.
package detectors

import (
	"context"
	"fmt"
	"sort"

	"github.com/Wikid82/sentinel/internal/patterns"
	"github.com/Wikid82/sentinel/internal/security"
)

// Detector scans text and reports one Finding per pattern occurrence.
// Empty text always yields no findings.
type Detector interface {
	Name() string
	Scan(ctx context.Context, text string) ([]security.Finding, error)
}

// Options tunes a detector at construction time.
type Options struct {
	Sensitivity security.Sensitivity
	// ASN enriches URL findings for public hosts. Optional.
	ASN ASNLookup
}

func (o Options) sensitivity() security.Sensitivity {
	if o.Sensitivity == "" {
		return security.SensitivityMedium
	}
	return o.Sensitivity
}

// New builds the named detection module.
func New(name string, opts Options) (Detector, error) {
	if opts.Sensitivity != "" && !opts.Sensitivity.Valid() {
		return nil, security.NewPreconditionError("new detector", "sensitivity", fmt.Sprintf("unknown sensitivity %q", opts.Sensitivity))
	}
	switch name {
	case patterns.ModulePromptInjection:
		return NewPromptInjection(opts), nil
	case patterns.ModuleCommand:
		return NewCommandValidator(opts), nil
	case patterns.ModuleURL:
		return NewURLValidator(opts), nil
	case patterns.ModulePath:
		return NewPathValidator(opts), nil
	case patterns.ModuleSecret:
		return NewSecretDetector(opts), nil
	case patterns.ModuleContent:
		return NewContentScanner(opts), nil
	default:
		return nil, security.NewPreconditionError("new detector", "module", fmt.Sprintf("unknown module %q", name))
	}
}

// scanner runs a module's enabled regex rules with sensitivity applied.
// Structured rules are left to the owning module.
type scanner struct {
	module      string
	sensitivity security.Sensitivity
	rules       []security.SecurityPattern
	structured  map[string]security.SecurityPattern
}

func newScanner(module string, s security.Sensitivity) scanner {
	sc := scanner{module: module, sensitivity: s, structured: map[string]security.SecurityPattern{}}
	for _, p := range patterns.Enabled(module) {
		if p.HasTag(patterns.TagStructured) || p.Matcher.IsZero() {
			sc.structured[p.ID] = p
			continue
		}
		sc.rules = append(sc.rules, p)
	}
	return sc
}

// scan matches every rule against text. offset is added to recorded
// positions when text is a slice of a larger input.
func (s scanner) scan(ctx context.Context, text string, offset int) ([]security.Finding, error) {
	if text == "" {
		return nil, nil
	}
	var out []security.Finding
	for _, p := range s.rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, loc := range p.Matcher.FindAll(text) {
			if f, ok := s.finding(p, text, loc[0], loc[1]); ok {
				shift(&f, offset)
				out = append(out, f)
			}
		}
	}
	return out, nil
}

// finding applies sensitivity to one match; ok is false when the rule does
// not participate at this sensitivity.
func (s scanner) finding(p security.SecurityPattern, text string, start, end int) (security.Finding, bool) {
	sev, ok := s.sensitivity.Adjust(p.Severity, p.FalsePositiveRisk)
	if !ok {
		return security.Finding{}, false
	}
	f := security.NewFinding(s.module, p, text, start, end, sev)
	if sev != p.Severity {
		f.Metadata[security.MetaCatalogSeverity] = p.Severity.String()
	}
	return f, true
}

// rule returns a structured rule if it is enabled for the module.
func (s scanner) rule(id string) (security.SecurityPattern, bool) {
	if p, ok := s.structured[id]; ok {
		return p, true
	}
	for _, p := range s.rules {
		if p.ID == id {
			return p, true
		}
	}
	return security.SecurityPattern{}, false
}

func shift(f *security.Finding, offset int) {
	if offset != 0 {
		f.Metadata[security.MetaOffset] = f.Offset() + offset
	}
}

// sortByOffset orders findings left to right, keeping catalog order for ties.
func sortByOffset(fs []security.Finding) []security.Finding {
	sort.SliceStable(fs, func(i, j int) bool { return fs[i].Offset() < fs[j].Offset() })
	return fs
}
