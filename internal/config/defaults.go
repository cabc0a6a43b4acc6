package config

// DefaultYAML returns a commented configuration document for 'plo init'.
func DefaultYAML() string {
	return `# plo configuration
# Generated by: plo init
#
# Evaluation order (cannot be changed):
#   1. Classify metrics against thresholds.overload -> NORMAL | STRESSED | OVERLOADED
#   2. Look up downgrade_rules for the state (NORMAL has none)
#   3. Derive authority from the state (fixed table, see authority_derivation)
#   4. Check recovery readiness against thresholds.recovery

version: 1

thresholds:
  # A condition is met when the metric reaches the threshold (inclusive).
  # 0 conditions -> NORMAL, 1 -> STRESSED, 2 or 3 -> OVERLOADED
  overload:
    fixed_deadlines_14d: 3
    active_high_load_domains: 3
    avg_energy_score: 2
  # Recovery requires all three at once. Keep these stricter than overload.
  recovery:
    fixed_deadlines_14d: 1
    active_high_load_domains: 2
    avg_energy_score: 4

# Constraints reported verbatim, in order, for each non-NORMAL state.
downgrade_rules:
  OVERLOADED:
    - "No new commitments"
    - "Pause technical tool development"
    - "Defer every non-fixed deadline"
  STRESSED:
    - "Warning: approaching overload"
    - "Discourage new projects"

# Appended to the recovery rationale when recovery is ready.
recovery_advice:
  - "Deadlines have cleared"
  - "High-load domains have reduced"

# Optional. Restates the fixed derivation table; any divergence is rejected.
authority_derivation:
  OVERLOADED: {planning: DENIED, execution: DENIED, mode: CONTAINMENT}
  STRESSED: {planning: DENIED, execution: DENIED, mode: CONTAINMENT}
  NORMAL: {planning: ALLOWED, execution: DENIED, mode: NORMAL}
`
}
