// Package authority derives the permission object for one evaluation.
//
// Derive is the only constructor of a populated Authority. Fields are
// unexported and every accessor returns copies, so an Authority cannot be
// altered after derivation. The zero value denies every capability.
package authority

import (
	"encoding/json"
	"slices"

	"github.com/ppiankov/plo/internal/model"
)

// Authority is the single source of truth for what an evaluation permits.
type Authority struct {
	state    model.OperatingState
	planning bool
	mode     model.Mode
	rules    []string
}

// Derive maps a classified state and its active rules to an Authority.
//
//	OVERLOADED -> planning DENIED,  mode CONTAINMENT
//	STRESSED   -> planning DENIED,  mode CONTAINMENT
//	NORMAL     -> planning ALLOWED, mode NORMAL
//
// Execution is DENIED for every state. An unknown state fails closed.
func Derive(state model.OperatingState, rules []string) Authority {
	a := Authority{
		state: state,
		mode:  model.ModeContainment,
		rules: slices.Clone(rules),
	}
	if a.rules == nil {
		a.rules = []string{}
	}

	switch state {
	case model.Normal:
		a.planning = true
		a.mode = model.ModeNormal
	case model.Stressed, model.Overloaded:
		// containment
	}
	return a
}

// State is the operating state the authority was derived from.
func (a Authority) State() model.OperatingState {
	return a.state
}

// Planning is ALLOWED only when derived from NORMAL.
func (a Authority) Planning() model.Permission {
	if a.planning {
		return model.Allowed
	}
	return model.Denied
}

// PlanningAllowed is shorthand for Planning() == model.Allowed.
func (a Authority) PlanningAllowed() bool {
	return a.planning
}

// Execution is always DENIED in this version. There is no field behind it.
func (a Authority) Execution() model.Permission {
	return model.Denied
}

// Mode is NORMAL or CONTAINMENT. The zero value reports CONTAINMENT.
func (a Authority) Mode() model.Mode {
	if a.mode == "" {
		return model.ModeContainment
	}
	return a.mode
}

// ActiveRules returns a copy of the rules active for the state.
func (a Authority) ActiveRules() []string {
	if len(a.rules) == 0 {
		return []string{}
	}
	return slices.Clone(a.rules)
}

type authorityJSON struct {
	PlanningPermission  model.Permission     `json:"planning_permission"`
	ExecutionPermission model.Permission     `json:"execution_permission"`
	Mode                model.Mode           `json:"mode"`
	State               model.OperatingState `json:"state"`
	ActiveRules         []string             `json:"active_rules"`
}

// MarshalJSON renders the authority for reports and tool output.
// There is no UnmarshalJSON; an Authority is never read back.
func (a Authority) MarshalJSON() ([]byte, error) {
	return json.Marshal(authorityJSON{
		PlanningPermission:  a.Planning(),
		ExecutionPermission: a.Execution(),
		Mode:                a.Mode(),
		State:               a.state,
		ActiveRules:         a.ActiveRules(),
	})
}
