package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wikid82/sentinel/internal/config"
	"github.com/Wikid82/sentinel/internal/models"
	"github.com/Wikid82/sentinel/internal/ratelimit"
	"github.com/Wikid82/sentinel/internal/reputation"
	"github.com/Wikid82/sentinel/internal/security"
)

func newTestEngine(t *testing.T, mutate func(*config.Config)) (*Engine, *reputation.Store) {
	t.Helper()
	cfg := config.Default()
	cfg.Owners = []string{"root"}
	if mutate != nil {
		mutate(&cfg)
	}
	require.NoError(t, cfg.Validate())
	reps := reputation.NewStore(nil, cfg.Reputation)
	e, err := New(cfg, reps, ratelimit.New(cfg.RateLimit, nil))
	require.NoError(t, err)
	return e, reps
}

func setFlags(t *testing.T, reps *reputation.Store, user string, f reputation.Flags) {
	t.Helper()
	_, err := reps.SetFlags(context.Background(), user, f)
	require.NoError(t, err)
}

func TestDetermineAction_BaseMapping(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	want := map[security.Severity]security.Action{
		security.SeveritySafe:     security.ActionAllow,
		security.SeverityLow:      security.ActionLog,
		security.SeverityMedium:   security.ActionWarn,
		security.SeverityHigh:     security.ActionBlock,
		security.SeverityCritical: security.ActionBlockAndNotify,
	}
	for sev, action := range want {
		d, err := e.DetermineAction(context.Background(), sev, "alice")
		require.NoError(t, err)
		assert.Equal(t, action, d.Action, sev.String())
		assert.Contains(t, d.Reasoning, sev.String())
		assert.Contains(t, d.Reasoning, action.Verb())
		assert.Empty(t, d.BypassReason)
	}
}

func TestDetermineAction_ConfiguredMapping(t *testing.T) {
	e, _ := newTestEngine(t, func(c *config.Config) { c.Actions["medium"] = "block" })
	d, err := e.DetermineAction(context.Background(), security.SeverityMedium, "alice")
	require.NoError(t, err)
	assert.Equal(t, security.ActionBlock, d.Action)
}

func TestDetermineAction_Owner(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	d, err := e.DetermineAction(context.Background(), security.SeverityCritical, "root")
	require.NoError(t, err)
	assert.Equal(t, security.ActionAllow, d.Action)
	assert.Equal(t, BypassOwner, d.BypassReason)
	assert.Contains(t, d.Reasoning, "owner")
	assert.Contains(t, d.Reasoning, "CRITICAL")
	assert.True(t, d.Owner)
}

func TestDetermineAction_BlocklistBeatsEverything(t *testing.T) {
	e, reps := newTestEngine(t, nil)
	yes := true
	setFlags(t, reps, "mallory", reputation.Flags{Blocklisted: &yes, Allowlisted: &yes})
	setFlags(t, reps, "root", reputation.Flags{Blocklisted: &yes})

	for _, user := range []string{"mallory", "root"} {
		d, err := e.DetermineAction(context.Background(), security.SeveritySafe, user)
		require.NoError(t, err)
		assert.Equal(t, security.ActionBlock, d.Action, user)
		assert.Contains(t, d.Reasoning, "blocklisted")
		assert.Empty(t, d.BypassReason)
	}
}

func TestDetermineAction_AllowlistCeiling(t *testing.T) {
	e, reps := newTestEngine(t, nil)
	yes := true
	setFlags(t, reps, "trusted", reputation.Flags{Allowlisted: &yes})

	d, err := e.DetermineAction(context.Background(), security.SeverityHigh, "trusted")
	require.NoError(t, err)
	assert.Equal(t, security.ActionAllow, d.Action)
	assert.Equal(t, BypassAllowlisted, d.BypassReason)

	d, err = e.DetermineAction(context.Background(), security.SeverityCritical, "trusted")
	require.NoError(t, err)
	assert.Equal(t, security.ActionBlockAndNotify, d.Action)
	assert.Empty(t, d.BypassReason)
}

func TestDetermineAction_LowTrustUpgrade(t *testing.T) {
	e, reps := newTestEngine(t, nil)
	low := 10
	setFlags(t, reps, "shady", reputation.Flags{TrustScore: &low})

	d, err := e.DetermineAction(context.Background(), security.SeverityLow, "shady")
	require.NoError(t, err)
	assert.Equal(t, security.ActionWarn, d.Action)
	assert.Equal(t, security.ActionLog, d.BaseAction)
	assert.True(t, d.Escalated)
	assert.Contains(t, d.Reasoning, "low trust score")

	d, err = e.DetermineAction(context.Background(), security.SeverityLow, "neutral")
	require.NoError(t, err)
	assert.Equal(t, security.ActionLog, d.Action)
	assert.False(t, d.Escalated)

	d, err = e.DetermineAction(context.Background(), security.SeverityCritical, "shady")
	require.NoError(t, err)
	assert.Equal(t, security.ActionBlockAndNotify, d.Action)
	assert.False(t, d.Escalated)
}

func TestDetermineAction_UpgradeTiersConfigurable(t *testing.T) {
	e, reps := newTestEngine(t, func(c *config.Config) {
		c.Reputation.UpgradeTiers = 2
		c.Reputation.LowTrustThreshold = 30
	})
	low := 25
	setFlags(t, reps, "shady", reputation.Flags{TrustScore: &low})
	d, err := e.DetermineAction(context.Background(), security.SeverityLow, "shady")
	require.NoError(t, err)
	assert.Equal(t, security.ActionBlock, d.Action)
}

func TestDetermineAction_RateLimit(t *testing.T) {
	e, _ := newTestEngine(t, func(c *config.Config) { c.RateLimit.RequestsPerMinute = 2 })
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := e.DetermineAction(ctx, security.SeveritySafe, "chatty")
		require.NoError(t, err)
		assert.Equal(t, security.ActionAllow, d.Action)
	}
	d, err := e.DetermineAction(ctx, security.SeveritySafe, "chatty")
	require.NoError(t, err)
	assert.Equal(t, security.ActionBlock, d.Action)
	assert.True(t, d.RateLimited)
	assert.Contains(t, d.Reasoning, "rate limit exceeded")

	for i := 0; i < 5; i++ {
		d, err = e.DetermineAction(ctx, security.SeverityCritical, "root")
		require.NoError(t, err)
		assert.Equal(t, security.ActionAllow, d.Action, "owners are exempt")
	}
}

type brokenBackend struct{}

func (brokenBackend) Load(context.Context, string) (*models.UserReputation, error) {
	return nil, errors.New("db down")
}
func (brokenBackend) SaveStats(context.Context, *models.UserReputation) error { return nil }
func (brokenBackend) SaveFlags(context.Context, *models.UserReputation) error { return nil }

func TestDetermineAction_BackendFailureUsesNeutral(t *testing.T) {
	cfg := config.Default()
	e, err := New(cfg, reputation.NewStore(brokenBackend{}, cfg.Reputation), nil)
	require.NoError(t, err)

	d, err := e.DetermineAction(context.Background(), security.SeverityMedium, "alice")
	require.NoError(t, err)
	assert.Equal(t, security.ActionWarn, d.Action)
	assert.Equal(t, 50, d.TrustScore)
}

func TestDetermineAction_Preconditions(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	_, err := e.DetermineAction(context.Background(), security.Severity(9), "alice")
	assert.ErrorIs(t, err, security.ErrPrecondition)
	_, err = e.DetermineAction(context.Background(), security.SeverityLow, "")
	assert.ErrorIs(t, err, security.ErrPrecondition)

	cfg := config.Default()
	cfg.Actions["high"] = "quarantine"
	_, err = New(cfg, reputation.NewStore(nil, cfg.Reputation), nil)
	assert.ErrorIs(t, err, security.ErrPrecondition)
}
