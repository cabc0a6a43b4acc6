package model

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Energy score bounds and the number of days scored.
const (
	EnergyDays = 3
	MinEnergy  = 1
	MaxEnergy  = 5
)

// Field names used in validation errors and on the wire.
const (
	FieldDeadlines = "fixed_deadlines_14d"
	FieldDomains   = "active_high_load_domains"
	FieldEnergy    = "energy_scores_last_3_days"
)

// Metrics is the self-reported input to one evaluation.
type Metrics struct {
	FixedDeadlines14d     int   `json:"fixed_deadlines_14d" yaml:"fixed_deadlines_14d"`
	ActiveHighLoadDomains int   `json:"active_high_load_domains" yaml:"active_high_load_domains"`
	EnergyScoresLast3Days []int `json:"energy_scores_last_3_days" yaml:"energy_scores_last_3_days"`
}

// InvalidMetricsError reports a metric outside its declared domain.
type InvalidMetricsError struct {
	Field    string
	Value    string
	Expected string
}

func (e *InvalidMetricsError) Error() string {
	return fmt.Sprintf("invalid metrics: %s is %s (expected %s)", e.Field, e.Value, e.Expected)
}

// Validate checks every metric against its domain. Nothing is defaulted.
func (m Metrics) Validate() error {
	if m.FixedDeadlines14d < 0 {
		return &InvalidMetricsError{
			Field:    FieldDeadlines,
			Value:    strconv.Itoa(m.FixedDeadlines14d),
			Expected: "a non-negative integer",
		}
	}
	if m.ActiveHighLoadDomains < 0 {
		return &InvalidMetricsError{
			Field:    FieldDomains,
			Value:    strconv.Itoa(m.ActiveHighLoadDomains),
			Expected: "a non-negative integer",
		}
	}
	if len(m.EnergyScoresLast3Days) != EnergyDays {
		return &InvalidMetricsError{
			Field:    FieldEnergy,
			Value:    fmt.Sprintf("%d values", len(m.EnergyScoresLast3Days)),
			Expected: fmt.Sprintf("exactly %d integers between %d and %d", EnergyDays, MinEnergy, MaxEnergy),
		}
	}
	for i, score := range m.EnergyScoresLast3Days {
		if score < MinEnergy || score > MaxEnergy {
			return &InvalidMetricsError{
				Field:    fmt.Sprintf("%s[%d]", FieldEnergy, i),
				Value:    strconv.Itoa(score),
				Expected: fmt.Sprintf("an integer between %d and %d", MinEnergy, MaxEnergy),
			}
		}
	}
	return nil
}

// AverageEnergy returns the arithmetic mean of the energy scores.
// Callers validate first; an empty list yields 0.
func (m Metrics) AverageEnergy() float64 {
	if len(m.EnergyScoresLast3Days) == 0 {
		return 0
	}
	sum := 0
	for _, s := range m.EnergyScoresLast3Days {
		sum += s
	}
	return float64(sum) / float64(len(m.EnergyScoresLast3Days))
}

// Clone returns a copy that shares no memory with m.
func (m Metrics) Clone() Metrics {
	m.EnergyScoresLast3Days = slices.Clone(m.EnergyScoresLast3Days)
	return m
}

// ParseEnergy reads energy scores separated by commas or spaces, as typed
// at a prompt or in a flag. Only the number format is checked here; the
// count and range are checked by Validate.
func ParseEnergy(raw string) ([]int, error) {
	scores := []int{}
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' }) {
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, &InvalidMetricsError{
				Field:    FieldEnergy,
				Value:    strconv.Quote(raw),
				Expected: "integers separated by commas or spaces",
			}
		}
		scores = append(scores, v)
	}
	return scores, nil
}
