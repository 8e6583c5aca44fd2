package security

import (
	"fmt"
	"strings"
)

// Severity is the five-level, totally ordered threat level shared by every
// finding, event and policy entry.
type Severity int

const (
	SeveritySafe Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = [...]string{"SAFE", "LOW", "MEDIUM", "HIGH", "CRITICAL"}

// Severities lists every legal severity in ascending order.
var Severities = []Severity{SeveritySafe, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// Valid reports whether s is one of the five legal levels.
func (s Severity) Valid() bool {
	return s >= SeveritySafe && s <= SeverityCritical
}

func (s Severity) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Severity(%d)", int(s))
	}
	return severityNames[s]
}

// Weight is the numeric rank used when comparing severities.
func (s Severity) Weight() int { return int(s) }

// AtLeast reports whether s is as severe as other or more.
func (s Severity) AtLeast(other Severity) bool { return s >= other }

// Shift moves s by delta levels, clamped to [LOW, CRITICAL] so a matched
// pattern never drops to SAFE.
func (s Severity) Shift(delta int) Severity {
	out := Severity(int(s) + delta)
	if out < SeverityLow {
		return SeverityLow
	}
	if out > SeverityCritical {
		return SeverityCritical
	}
	return out
}

// MaxSeverity returns the more severe of a and b.
func MaxSeverity(a, b Severity) Severity {
	if a > b {
		return a
	}
	return b
}

// ParseSeverity accepts the level names case-insensitively.
func ParseSeverity(raw string) (Severity, error) {
	name := strings.ToUpper(strings.TrimSpace(raw))
	for i, n := range severityNames {
		if n == name {
			return Severity(i), nil
		}
	}
	return SeveritySafe, NewPreconditionError("parse severity", "severity", fmt.Sprintf("unknown severity %q", raw))
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, NewPreconditionError("marshal severity", "severity", fmt.Sprintf("invalid severity %d", int(s)))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name.
func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
