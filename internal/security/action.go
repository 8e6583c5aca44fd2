package security

import (
	"fmt"
	"strings"
)

// Action is the enforcement decision returned to the host integration.
type Action string

const (
	ActionAllow          Action = "allow"
	ActionLog            Action = "log"
	ActionWarn           Action = "warn"
	ActionBlock          Action = "block"
	ActionBlockAndNotify Action = "block_and_notify"
)

// Actions lists the legal actions from weakest to strongest.
var Actions = []Action{ActionAllow, ActionLog, ActionWarn, ActionBlock, ActionBlockAndNotify}

// Rank orders actions by strength. Unknown actions rank -1.
func (a Action) Rank() int {
	for i, known := range Actions {
		if a == known {
			return i
		}
	}
	return -1
}

// Valid reports whether a is one of the five legal actions.
func (a Action) Valid() bool { return a.Rank() >= 0 }

// Blocks reports whether the action denies the request.
func (a Action) Blocks() bool {
	return a == ActionBlock || a == ActionBlockAndNotify
}

// Notifies reports whether the action triggers the notification dispatcher.
func (a Action) Notifies() bool { return a == ActionBlockAndNotify }

// WeakerThan reports whether a ranks below other.
func (a Action) WeakerThan(other Action) bool { return a.Rank() < other.Rank() }

// Upgrade moves the action up by tiers, saturating at block_and_notify.
func (a Action) Upgrade(tiers int) Action {
	r := a.Rank()
	if r < 0 || tiers <= 0 {
		return a
	}
	r += tiers
	if r >= len(Actions) {
		r = len(Actions) - 1
	}
	return Actions[r]
}

// Verb is the human-facing form used in reasoning strings.
func (a Action) Verb() string {
	if a == ActionBlockAndNotify {
		return "block and notify"
	}
	return string(a)
}

// ParseAction validates a configured or stored action name.
func ParseAction(raw string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(raw)))
	if !a.Valid() {
		return "", NewPreconditionError("parse action", "action", fmt.Sprintf("unknown action %q", raw))
	}
	return a, nil
}

// DefaultActionPolicy is the base severity to action mapping.
func DefaultActionPolicy() map[Severity]Action {
	return map[Severity]Action{
		SeveritySafe:     ActionAllow,
		SeverityLow:      ActionLog,
		SeverityMedium:   ActionWarn,
		SeverityHigh:     ActionBlock,
		SeverityCritical: ActionBlockAndNotify,
	}
}
