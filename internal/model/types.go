package model

import "fmt"

// OperatingState is the discrete load-pressure reading produced by the classifier.
// It is recomputed on every evaluation and never stored.
type OperatingState string

const (
	Normal     OperatingState = "NORMAL"
	Stressed   OperatingState = "STRESSED"
	Overloaded OperatingState = "OVERLOADED"
)

// States returns every operating state, least to most severe.
func States() []OperatingState {
	return []OperatingState{Normal, Stressed, Overloaded}
}

// Valid reports whether s is one of the three declared states.
func (s OperatingState) Valid() bool {
	switch s {
	case Normal, Stressed, Overloaded:
		return true
	default:
		return false
	}
}

// ParseState maps a string to an OperatingState. Matching is exact.
func ParseState(s string) (OperatingState, error) {
	st := OperatingState(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown operating state %q (expected NORMAL, STRESSED or OVERLOADED)", s)
	}
	return st, nil
}

// Permission is a granted or denied capability.
type Permission string

const (
	Allowed Permission = "ALLOWED"
	Denied  Permission = "DENIED"
)

// ParsePermission maps a string to a Permission.
func ParsePermission(s string) (Permission, error) {
	switch Permission(s) {
	case Allowed, Denied:
		return Permission(s), nil
	default:
		return "", fmt.Errorf("unknown permission %q (expected ALLOWED or DENIED)", s)
	}
}

// Mode is the authority mode carried by an Authority.
//
// ModeRecovery is declared but never produced by the deriver. It is
// reserved for a later phase that may act on recovery readiness.
type Mode string

const (
	ModeNormal      Mode = "NORMAL"
	ModeContainment Mode = "CONTAINMENT"
	ModeRecovery    Mode = "RECOVERY"
)

// Modes returns every declared authority mode.
func Modes() []Mode {
	return []Mode{ModeNormal, ModeContainment, ModeRecovery}
}

// ParseMode maps a string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNormal, ModeContainment, ModeRecovery:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown authority mode %q (expected NORMAL, CONTAINMENT or RECOVERY)", s)
	}
}
