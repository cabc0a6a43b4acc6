// Package classify maps self-reported metrics to an operating state.
// Classify is a pure function of its inputs; nothing is cached between calls.
package classify

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ppiankov/plo/internal/config"
	"github.com/ppiankov/plo/internal/model"
)

// Condition is one overload test and its outcome.
type Condition struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Operator  string  `json:"operator"`
	Met       bool    `json:"met"`
}

// String renders the condition with the operator that actually held.
func (c Condition) String() string {
	op := c.Operator
	if !c.Met {
		op = negate(op)
	}
	return fmt.Sprintf("%s (%s) %s threshold (%s)", c.Name, FormatValue(c.Value), op, config.FormatNumber(c.Threshold))
}

// Result is the classifier output.
type Result struct {
	State         model.OperatingState `json:"state"`
	Explanation   string               `json:"explanation"`
	ConditionsMet []string             `json:"conditions_met"`
	Conditions    []Condition          `json:"conditions"`
}

// Condition names, in evaluation order.
const (
	NameDeadlines = "Fixed deadlines"
	NameDomains   = "High-load domains"
	NameEnergy    = "Average energy"
)

// Classify validates m and evaluates the three overload conditions against
// cfg.Overload. Boundaries are inclusive: a metric exactly at its threshold
// counts as met.
func Classify(m model.Metrics, cfg *config.Config) (Result, error) {
	if cfg == nil {
		return Result{}, &config.Error{Problem: "no configuration supplied"}
	}
	if err := m.Validate(); err != nil {
		return Result{}, err
	}

	t := cfg.Overload
	avg := m.AverageEnergy()
	conditions := []Condition{
		{
			Name:      NameDeadlines,
			Value:     float64(m.FixedDeadlines14d),
			Threshold: float64(t.FixedDeadlines14d),
			Operator:  ">=",
			Met:       m.FixedDeadlines14d >= t.FixedDeadlines14d,
		},
		{
			Name:      NameDomains,
			Value:     float64(m.ActiveHighLoadDomains),
			Threshold: float64(t.ActiveHighLoadDomains),
			Operator:  ">=",
			Met:       m.ActiveHighLoadDomains >= t.ActiveHighLoadDomains,
		},
		{
			Name:      NameEnergy,
			Value:     avg,
			Threshold: t.AvgEnergyScore,
			Operator:  "<=",
			Met:       avg <= t.AvgEnergyScore,
		},
	}

	met := []string{}
	for _, c := range conditions {
		if c.Met {
			met = append(met, c.String())
		}
	}

	state := StateFor(len(met))
	return Result{
		State:         state,
		Explanation:   explain(conditions, len(met)),
		ConditionsMet: met,
		Conditions:    conditions,
	}, nil
}

// StateFor maps a count of met conditions to a state: 0 NORMAL, 1 STRESSED,
// 2 or more OVERLOADED.
func StateFor(met int) model.OperatingState {
	switch {
	case met >= 2:
		return model.Overloaded
	case met == 1:
		return model.Stressed
	default:
		return model.Normal
	}
}

func explain(conditions []Condition, met int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d overload conditions met", met, len(conditions))
	for _, c := range conditions {
		mark := "[met]    "
		if !c.Met {
			mark = "[not met]"
		}
		fmt.Fprintf(&b, "\n  %s %s", mark, c.String())
	}
	return b.String()
}

func negate(op string) string {
	switch op {
	case ">=":
		return "<"
	case "<=":
		return ">"
	default:
		return "not " + op
	}
}

// FormatValue renders a metric value rounded to two decimals without
// trailing zeros, so a mean of 7/3 prints as 2.33.
func FormatValue(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
