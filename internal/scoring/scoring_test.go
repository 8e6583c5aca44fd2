package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Wikid82/sentinel/internal/security"
)

func finding(module string, sev security.Severity) security.Finding {
	return security.Finding{Module: module, Severity: sev, Pattern: security.SecurityPattern{ID: module + "-rule"}}
}

func TestCalculateSeverity_NilIsPrecondition(t *testing.T) {
	_, err := CalculateSeverity(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, security.ErrPrecondition)
}

func TestCalculateSeverity_Empty(t *testing.T) {
	a, err := CalculateSeverity([]security.Finding{})
	require.NoError(t, err)
	assert.Equal(t, security.SeveritySafe, a.Severity)
	assert.Equal(t, NoFindingsReasoning, a.Reasoning)
	assert.Zero(t, a.FindingCount)
	assert.Empty(t, a.ModulesConcerned)
}

func TestCalculateSeverity_Max(t *testing.T) {
	a, err := CalculateSeverity([]security.Finding{
		finding("command_validator", security.SeverityMedium),
		finding("url_validator", security.SeverityCritical),
		finding("command_validator", security.SeverityLow),
	})
	require.NoError(t, err)
	assert.Equal(t, security.SeverityCritical, a.Severity)
	assert.Equal(t, 3, a.FindingCount)
	assert.Equal(t, []string{"command_validator", "url_validator"}, a.ModulesConcerned)
	assert.Equal(t, map[string]int{"MEDIUM": 1, "CRITICAL": 1, "LOW": 1}, a.SeverityBreakdown)
	assert.Equal(t, "CRITICAL: 3 findings across 2 modules (1 CRITICAL, 1 MEDIUM, 1 LOW)", a.Reasoning)
}

func TestCalculateSeverity_InvalidSeverity(t *testing.T) {
	_, err := CalculateSeverity([]security.Finding{finding("x", security.Severity(42))})
	assert.ErrorIs(t, err, security.ErrPrecondition)
}

func TestCalculateSeverity_Properties(t *testing.T) {
	modules := []string{"prompt_injection", "command_validator", "url_validator"}
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(t, "n")
		findings := make([]security.Finding, n)
		want := security.SeveritySafe
		for i := range findings {
			sev := security.Severity(rapid.IntRange(int(security.SeverityLow), int(security.SeverityCritical)).Draw(t, "sev"))
			findings[i] = finding(rapid.SampledFrom(modules).Draw(t, "module"), sev)
			want = security.MaxSeverity(want, sev)
		}

		first, err := CalculateSeverity(findings)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, _ := CalculateSeverity(findings)
		if first.Severity != want {
			t.Fatalf("severity %s, want max %s", first.Severity, want)
		}
		if first.Reasoning != second.Reasoning || first.Severity != second.Severity {
			t.Fatalf("scorer not idempotent")
		}
		total := 0
		for _, c := range first.SeverityBreakdown {
			total += c
		}
		if total != n {
			t.Fatalf("breakdown sums to %d, want %d", total, n)
		}
	})
}
