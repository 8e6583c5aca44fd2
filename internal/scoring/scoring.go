// Package scoring reduces a set of findings to one overall severity.
package scoring

import (
	"fmt"

	"github.com/Wikid82/sentinel/internal/security"
)

// NoFindingsReasoning is returned for clean input.
const NoFindingsReasoning = "SAFE: no findings from any detection module"

// Assessment is the scorer's verdict.
type Assessment struct {
	Severity          security.Severity `json:"severity"`
	Reasoning         string            `json:"reasoning"`
	FindingCount      int               `json:"finding_count"`
	ModulesConcerned  []string          `json:"modules_concerned"`
	SeverityBreakdown map[string]int    `json:"severity_breakdown"`
}

// CalculateSeverity takes the maximum severity over findings. A nil slice is
// a caller bug and is rejected; an empty non-nil slice is SAFE.
func CalculateSeverity(findings []security.Finding) (*Assessment, error) {
	if findings == nil {
		return nil, security.NewPreconditionError("calculate severity", "findings", "nil findings list")
	}

	a := &Assessment{
		Severity:          security.SeveritySafe,
		FindingCount:      len(findings),
		ModulesConcerned:  []string{},
		SeverityBreakdown: map[string]int{},
	}
	if len(findings) == 0 {
		a.Reasoning = NoFindingsReasoning
		return a, nil
	}

	seen := make(map[string]bool)
	for _, f := range findings {
		if !f.Severity.Valid() {
			return nil, security.NewPreconditionError("calculate severity", "severity", fmt.Sprintf("finding %q has invalid severity %d", f.Pattern.ID, int(f.Severity)))
		}
		a.Severity = security.MaxSeverity(a.Severity, f.Severity)
		a.SeverityBreakdown[f.Severity.String()]++
		if !seen[f.Module] {
			seen[f.Module] = true
			a.ModulesConcerned = append(a.ModulesConcerned, f.Module)
		}
	}

	a.Reasoning = fmt.Sprintf("%s: %d finding%s across %d module%s (%s)",
		a.Severity, a.FindingCount, plural(a.FindingCount),
		len(a.ModulesConcerned), plural(len(a.ModulesConcerned)), breakdown(a.SeverityBreakdown))
	return a, nil
}

func breakdown(counts map[string]int) string {
	out := ""
	for i := len(security.Severities) - 1; i >= 0; i-- {
		name := security.Severities[i].String()
		if n := counts[name]; n > 0 {
			if out != "" {
				out += ", "
			}
			out += fmt.Sprintf("%d %s", n, name)
		}
	}
	return out
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
