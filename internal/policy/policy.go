// Package policy turns a severity and an identity into an enforcement
// decision.
package policy

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Wikid82/sentinel/internal/config"
	"github.com/Wikid82/sentinel/internal/logger"
	"github.com/Wikid82/sentinel/internal/ratelimit"
	"github.com/Wikid82/sentinel/internal/reputation"
	"github.com/Wikid82/sentinel/internal/security"
	"github.com/Wikid82/sentinel/internal/util"
)

// Bypass reasons.
const (
	BypassOwner       = "owner"
	BypassAllowlisted = "allowlisted"
)

// Decision is the action engine's verdict for one request.
type Decision struct {
	Action       security.Action
	Reasoning    string
	BypassReason string
	// BaseAction is the configured mapping for the severity before any
	// identity override.
	BaseAction  security.Action
	Escalated   bool
	RateLimited bool
	Owner       bool
	TrustScore  int
}

// Engine decides actions. It is safe for concurrent use.
type Engine struct {
	owners   map[string]bool
	mapping  map[security.Severity]security.Action
	lowTrust int
	tiers    int
	reps     *reputation.Store
	limiter  *ratelimit.Limiter
}

// New builds an Engine from validated configuration. limiter may be nil.
func New(cfg config.Config, reps *reputation.Store, limiter *ratelimit.Limiter) (*Engine, error) {
	mapping, err := cfg.ActionPolicy()
	if err != nil {
		return nil, err
	}
	if reps == nil {
		return nil, security.NewPreconditionError("new policy engine", "reputation", "store is required")
	}
	owners := make(map[string]bool, len(cfg.Owners))
	for _, o := range cfg.Owners {
		owners[o] = true
	}
	return &Engine{
		owners:   owners,
		mapping:  mapping,
		lowTrust: cfg.Reputation.LowTrustThreshold,
		tiers:    cfg.Reputation.UpgradeTiers,
		reps:     reps,
		limiter:  limiter,
	}, nil
}

// IsOwner reports whether userID is a configured owner.
func (e *Engine) IsOwner(userID string) bool { return e.owners[userID] }

// BaseAction is the configured action for sev.
func (e *Engine) BaseAction(sev security.Severity) security.Action { return e.mapping[sev] }

// DetermineAction applies, in order: blocklist, owner bypass, rate limit,
// allowlist bypass (never for CRITICAL), the base mapping and the low-trust
// upgrade.
func (e *Engine) DetermineAction(ctx context.Context, sev security.Severity, userID string) (*Decision, error) {
	const op = "determine action"
	if !sev.Valid() {
		return nil, security.NewPreconditionError(op, "severity", fmt.Sprintf("invalid severity %d", int(sev)))
	}
	if strings.TrimSpace(userID) == "" {
		return nil, security.NewPreconditionError(op, "user_id", "must not be empty")
	}

	rep, err := e.reps.Get(ctx, userID)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"component": "policy",
			"user_id":   util.SanitizeForLog(userID),
			"error":     err.Error(),
		}).Warn("reputation lookup failed, using neutral reputation")
	}

	d := &Decision{
		BaseAction: e.mapping[sev],
		TrustScore: rep.TrustScore,
		Owner:      e.owners[userID],
	}
	switch {
	case rep.Blocklisted:
		d.Action = security.ActionBlock
		d.Reasoning = reason(sev, d.Action, "identity is blocklisted")
		return d, nil
	case d.Owner:
		d.Action = security.ActionAllow
		d.BypassReason = BypassOwner
		d.Reasoning = reason(sev, d.Action, "owner bypass")
		e.logBypass(userID, sev, d.BypassReason)
		return d, nil
	}

	if st := e.limiter.Hit(ctx, userID); st.Limited {
		d.Action = security.ActionBlock
		d.RateLimited = true
		d.Reasoning = reason(sev, d.Action, st.Reason)
		return d, nil
	}

	if rep.Allowlisted && sev != security.SeverityCritical {
		d.Action = security.ActionAllow
		d.BypassReason = BypassAllowlisted
		d.Reasoning = reason(sev, d.Action, "identity is allowlisted")
		if sev != security.SeveritySafe {
			e.logBypass(userID, sev, d.BypassReason)
		}
		return d, nil
	}

	d.Action = d.BaseAction
	why := "base policy"
	if rep.Allowlisted {
		why = "base policy, allowlist does not apply to CRITICAL"
	}
	if rep.TrustScore < e.lowTrust && d.Action.WeakerThan(security.ActionBlockAndNotify) {
		d.Action = d.Action.Upgrade(e.tiers)
		d.Escalated = true
		why = fmt.Sprintf("upgraded from %s for low trust score (%d < %d)", d.BaseAction.Verb(), rep.TrustScore, e.lowTrust)
	}
	d.Reasoning = reason(sev, d.Action, why)
	return d, nil
}

func reason(sev security.Severity, action security.Action, why string) string {
	return fmt.Sprintf("%s severity, action %s: %s", sev, action.Verb(), why)
}

func (e *Engine) logBypass(userID string, sev security.Severity, why string) {
	logger.WithFields(logrus.Fields{
		"component": "policy",
		"user_id":   util.SanitizeForLog(userID),
		"severity":  sev.String(),
		"bypass":    why,
	}).Warn("policy bypass applied")
}
