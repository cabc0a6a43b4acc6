// Package rules looks up the behavioral constraints active for a state.
package rules

import (
	"github.com/ppiankov/plo/internal/config"
	"github.com/ppiankov/plo/internal/model"
)

// For returns the configured constraints for state, verbatim and in order.
// NORMAL has no constraints. Nothing is synthesized, filtered or deduplicated.
func For(state model.OperatingState, cfg *config.Config) []string {
	if state == model.Normal || cfg == nil {
		return []string{}
	}
	return cfg.DowngradeRules(state)
}
