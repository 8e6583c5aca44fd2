package security

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParseSeverity(t *testing.T) {
	for _, s := range Severities {
		got, err := ParseSeverity(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	got, err := ParseSeverity(" high ")
	require.NoError(t, err)
	assert.Equal(t, SeverityHigh, got)

	_, err = ParseSeverity("severe")
	require.Error(t, err)
	assert.True(t, IsPrecondition(err))

	var pe *PreconditionError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "severity", pe.Field)
}

func TestSeverity_OrderAndShift(t *testing.T) {
	assert.True(t, SeverityCritical.AtLeast(SeverityHigh))
	assert.False(t, SeverityLow.AtLeast(SeverityMedium))
	assert.Equal(t, SeverityHigh, MaxSeverity(SeverityLow, SeverityHigh))

	assert.Equal(t, SeverityLow, SeverityLow.Shift(-1))
	assert.Equal(t, SeverityMedium, SeverityHigh.Shift(-1))
	assert.Equal(t, SeverityCritical, SeverityCritical.Shift(2))
}

func TestSeverity_JSONRoundTrip(t *testing.T) {
	b, err := json.Marshal(map[string]Severity{"s": SeverityMedium})
	require.NoError(t, err)
	assert.JSONEq(t, `{"s":"MEDIUM"}`, string(b))

	var out map[string]Severity
	require.NoError(t, json.Unmarshal([]byte(`{"s":"critical"}`), &out))
	assert.Equal(t, SeverityCritical, out["s"])

	assert.Error(t, json.Unmarshal([]byte(`{"s":"nope"}`), &out))
}

func TestAction_Upgrade(t *testing.T) {
	assert.Equal(t, ActionWarn, ActionLog.Upgrade(1))
	assert.Equal(t, ActionBlock, ActionWarn.Upgrade(1))
	assert.Equal(t, ActionBlockAndNotify, ActionBlock.Upgrade(5))
	assert.Equal(t, ActionBlockAndNotify, ActionBlockAndNotify.Upgrade(1))
	assert.Equal(t, ActionLog, ActionLog.Upgrade(0))

	assert.True(t, ActionAllow.WeakerThan(ActionLog))
	assert.True(t, ActionBlockAndNotify.Blocks())
	assert.True(t, ActionBlockAndNotify.Notifies())
	assert.False(t, ActionBlock.Notifies())
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("BLOCK_AND_NOTIFY")
	require.NoError(t, err)
	assert.Equal(t, ActionBlockAndNotify, a)

	_, err = ParseAction("quarantine")
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestMatcher_LiteralAndRegex(t *testing.T) {
	lit := Literal("rm", false)
	assert.Equal(t, [][]int{{0, 2}, {6, 8}}, lit.FindAll("rm -- rm"))

	fold := Literal("IGNORE", true)
	assert.Len(t, fold.FindAll("ignore Ignore"), 2)

	re := Regex(`\d+`)
	assert.Equal(t, [][]int{{1, 3}, {4, 5}}, re.FindAll("a12b3"))
	assert.Nil(t, Matcher{}.FindAll("abc"))
}

func TestTruncateMatch(t *testing.T) {
	short := "abc"
	assert.Equal(t, short, TruncateMatch(short))

	long := make([]rune, MaxMatchDisplay+10)
	for i := range long {
		long[i] = 'é'
	}
	out := TruncateMatch(string(long))
	assert.Equal(t, MaxMatchDisplay+3, len([]rune(out)))
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "a b c", NormalizeText("  a \t b\n\nc  "))
	// fullwidth letters fold under NFKC
	assert.Equal(t, "ABC", NormalizeText("ＡＢＣ"))
}

func TestFingerprint_Deterministic(t *testing.T) {
	a := Fingerprint("Hello,  world")
	b := Fingerprint("Hello, world")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, Fingerprint("Hello, world!"))
}

func TestFingerprint_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.String().Draw(t, "text")
		if Fingerprint(text) != Fingerprint(text) {
			t.Fatalf("fingerprint not stable for %q", text)
		}
		suffix := rapid.StringMatching(`[a-z]`).Draw(t, "suffix")
		if NormalizeText(text+suffix) != NormalizeText(text) && Fingerprint(text+suffix) == Fingerprint(text) {
			t.Fatalf("distinct normalized text collided: %q", text)
		}
	})
}

func TestSensitivity_Adjust(t *testing.T) {
	cases := []struct {
		s       Sensitivity
		sev     Severity
		fp      FalsePositiveRisk
		want    Severity
		enabled bool
	}{
		{SensitivityParanoid, SeverityLow, FPRiskHigh, SeverityLow, true},
		{SensitivityStrict, SeverityHigh, FPRiskHigh, SeverityMedium, true},
		{SensitivityStrict, SeverityHigh, FPRiskMedium, SeverityHigh, true},
		{SensitivityMedium, SeverityLow, FPRiskHigh, SeverityLow, false},
		{SensitivityMedium, SeverityMedium, FPRiskHigh, SeverityLow, true},
		{SensitivityMedium, SeverityCritical, FPRiskLow, SeverityCritical, true},
		{SensitivityPermissive, SeverityCritical, FPRiskHigh, SeverityCritical, false},
		{SensitivityPermissive, SeverityLow, FPRiskMedium, SeverityLow, true},
		{SensitivityPermissive, SeverityHigh, FPRiskMedium, SeverityMedium, true},
	}
	for _, tc := range cases {
		got, ok := tc.s.Adjust(tc.sev, tc.fp)
		assert.Equal(t, tc.enabled, ok, "%s %s %s", tc.s, tc.sev, tc.fp)
		if ok {
			assert.Equal(t, tc.want, got, "%s %s %s", tc.s, tc.sev, tc.fp)
		}
	}

	_, err := ParseSensitivity("lenient")
	assert.ErrorIs(t, err, ErrPrecondition)
}
