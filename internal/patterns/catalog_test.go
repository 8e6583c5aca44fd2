package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_EveryModuleHasRules(t *testing.T) {
	require.Len(t, Modules(), 6)
	for _, m := range Modules() {
		rules := ForModule(m)
		assert.NotEmpty(t, rules, m)
		for _, p := range rules {
			assert.NotEmpty(t, p.ID)
			assert.NotEmpty(t, p.Category, p.ID)
			assert.NotEmpty(t, p.Description, p.ID)
			assert.True(t, p.Severity.Valid(), p.ID)
			if !p.HasTag(TagStructured) {
				assert.False(t, p.Matcher.IsZero(), "%s has no matcher", p.ID)
			}
		}
	}
}

func TestCatalog_ForModuleReturnsCopy(t *testing.T) {
	rules := ForModule(ModuleCommand)
	rules[0].ID = "mutated"
	assert.NotEqual(t, "mutated", ForModule(ModuleCommand)[0].ID)
}

func TestCatalog_ExamplesMatch(t *testing.T) {
	for _, e := range All() {
		for _, ex := range e.Pattern.Examples {
			assert.True(t, e.Pattern.Matcher.MatchString(ex), "%s should match %q", e.Pattern.ID, ex)
		}
	}
}

func TestCatalog_Lookup(t *testing.T) {
	p, ok := Lookup(URLCloudMetadata)
	require.True(t, ok)
	assert.True(t, p.HasTag(TagCloudMetadata))

	_, ok = Lookup("nope")
	assert.False(t, ok)
}

func TestCatalog_BenignTextIsQuiet(t *testing.T) {
	for _, e := range All() {
		assert.False(t, e.Pattern.Matcher.MatchString("Hello, how is the weather?"), e.Pattern.ID)
	}
}
