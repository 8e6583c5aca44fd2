package security

import (
	"fmt"
	"strings"
)

// Sensitivity controls how aggressively high false-positive patterns count.
type Sensitivity string

const (
	SensitivityParanoid   Sensitivity = "paranoid"
	SensitivityStrict     Sensitivity = "strict"
	SensitivityMedium     Sensitivity = "medium"
	SensitivityPermissive Sensitivity = "permissive"
)

// Sensitivities lists the legal levels from most to least aggressive.
var Sensitivities = []Sensitivity{SensitivityParanoid, SensitivityStrict, SensitivityMedium, SensitivityPermissive}

// Valid reports whether s is a legal level.
func (s Sensitivity) Valid() bool {
	for _, known := range Sensitivities {
		if s == known {
			return true
		}
	}
	return false
}

// ParseSensitivity validates a configured sensitivity name.
func ParseSensitivity(raw string) (Sensitivity, error) {
	s := Sensitivity(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", NewPreconditionError("parse sensitivity", "sensitivity", fmt.Sprintf("unknown sensitivity %q", raw))
	}
	return s, nil
}

// Adjust returns the effective severity of a pattern under this sensitivity
// and whether the pattern participates at all.
//
//	paranoid:   everything as catalogued
//	strict:     high-FP patterns one level lower
//	medium:     high-FP patterns one level lower, LOW high-FP patterns dropped
//	permissive: high-FP patterns dropped, medium-FP patterns one level lower
func (s Sensitivity) Adjust(sev Severity, fp FalsePositiveRisk) (Severity, bool) {
	switch s {
	case SensitivityParanoid:
		return sev, true
	case SensitivityStrict:
		if fp == FPRiskHigh {
			return sev.Shift(-1), true
		}
	case SensitivityPermissive:
		switch fp {
		case FPRiskHigh:
			return sev, false
		case FPRiskMedium:
			return sev.Shift(-1), true
		}
	default:
		if fp == FPRiskHigh {
			if sev <= SeverityLow {
				return sev, false
			}
			return sev.Shift(-1), true
		}
	}
	return sev, true
}
