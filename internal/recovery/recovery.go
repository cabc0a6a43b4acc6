// Package recovery answers whether it is safe to leave containment.
//
// It uses only the recovery thresholds, never the overload thresholds, and it
// never changes authority: the mode always comes from the classified state.
package recovery

import (
	"fmt"
	"strings"

	"github.com/ppiankov/plo/internal/classify"
	"github.com/ppiankov/plo/internal/config"
	"github.com/ppiankov/plo/internal/model"
)

// Result is the outcome of a recovery check.
type Result struct {
	Ready     bool                 `json:"ready"`
	State     model.OperatingState `json:"current_state"`
	Rationale string               `json:"rationale"`
	Blocking  []string             `json:"blocking_conditions"`
}

// Check evaluates all three recovery conditions against cfg.Recovery:
// deadlines <= threshold, domains <= threshold, average energy >= threshold.
// Every failing condition is listed with its value and threshold.
func Check(m model.Metrics, current model.OperatingState, cfg *config.Config) (Result, error) {
	if cfg == nil {
		return Result{}, &config.Error{Problem: "no configuration supplied"}
	}
	if err := m.Validate(); err != nil {
		return Result{}, err
	}

	t := cfg.Recovery
	blocking := []string{}

	if m.FixedDeadlines14d > t.FixedDeadlines14d {
		blocking = append(blocking, fmt.Sprintf("%s (%d) > recovery threshold (%d)",
			classify.NameDeadlines, m.FixedDeadlines14d, t.FixedDeadlines14d))
	}
	if m.ActiveHighLoadDomains > t.ActiveHighLoadDomains {
		blocking = append(blocking, fmt.Sprintf("%s (%d) > recovery threshold (%d)",
			classify.NameDomains, m.ActiveHighLoadDomains, t.ActiveHighLoadDomains))
	}
	if avg := m.AverageEnergy(); avg < t.AvgEnergyScore {
		blocking = append(blocking, fmt.Sprintf("%s (%s) < recovery threshold (%s)",
			classify.NameEnergy, classify.FormatValue(avg), config.FormatNumber(t.AvgEnergyScore)))
	}

	r := Result{
		Ready:    len(blocking) == 0,
		State:    current,
		Blocking: blocking,
	}

	var b strings.Builder
	if r.Ready {
		b.WriteString("All recovery conditions met. Safe to return to NORMAL mode.")
		for _, line := range cfg.RecoveryAdvice() {
			b.WriteString("\n  - ")
			b.WriteString(line)
		}
	} else {
		b.WriteString("Recovery not ready. Blocking conditions:")
		for _, line := range blocking {
			b.WriteString("\n  - ")
			b.WriteString(line)
		}
	}
	r.Rationale = b.String()
	return r, nil
}
