// Package config loads the versioned threshold and rule document that
// drives classification, rule lookup and recovery checks.
//
// A Config is read-only once returned. Every accessor hands out copies,
// so one Config may be shared by concurrent evaluations.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"slices"

	"github.com/ppiankov/plo/internal/model"
)

// SupportedVersion is the only document version this build understands.
const SupportedVersion = 1

// DefaultPath is used when neither --config nor PLO_CONFIG is set.
const DefaultPath = "config.yaml"

// Thresholds is one set of the three metric boundaries.
type Thresholds struct {
	FixedDeadlines14d     int     `json:"fixed_deadlines_14d"`
	ActiveHighLoadDomains int     `json:"active_high_load_domains"`
	AvgEnergyScore        float64 `json:"avg_energy_score"`
}

// Config is the complete, validated configuration for one invocation.
type Config struct {
	Version  int
	Overload Thresholds
	Recovery Thresholds

	rules  map[model.OperatingState][]string
	advice []string
	hash   string
}

// Error is a configuration problem. Key is the dotted path of the offending
// entry, empty when the document as a whole is unusable.
type Error struct {
	Key      string
	Problem  string
	Expected string
}

func (e *Error) Error() string {
	msg := "configuration error"
	if e.Key != "" {
		msg += ": " + e.Key
	}
	msg += ": " + e.Problem
	if e.Expected != "" {
		msg += " (expected " + e.Expected + ")"
	}
	return msg
}

// DowngradeRules returns the configured rule list for state, verbatim and
// in order. The result is a copy.
func (c *Config) DowngradeRules(state model.OperatingState) []string {
	rules := c.rules[state]
	if rules == nil {
		return []string{}
	}
	return slices.Clone(rules)
}

// RecoveryAdvice returns the lines appended to a ready recovery rationale.
func (c *Config) RecoveryAdvice() []string {
	if c.advice == nil {
		return []string{}
	}
	return slices.Clone(c.advice)
}

// Hash is "sha256:<hex>" of the raw document the Config was parsed from.
func (c *Config) Hash() string {
	return c.hash
}

// Consistency reports thresholds that undermine containment: recovery
// thresholds are expected to be strictly tighter than overload entry.
// The result is advisory; a Config with warnings is still usable.
func (c *Config) Consistency() []string {
	var warnings []string
	if c.Recovery.FixedDeadlines14d >= c.Overload.FixedDeadlines14d {
		warnings = append(warnings, fmt.Sprintf(
			"thresholds.recovery.fixed_deadlines_14d (%d) is not below thresholds.overload.fixed_deadlines_14d (%d)",
			c.Recovery.FixedDeadlines14d, c.Overload.FixedDeadlines14d))
	}
	if c.Recovery.ActiveHighLoadDomains >= c.Overload.ActiveHighLoadDomains {
		warnings = append(warnings, fmt.Sprintf(
			"thresholds.recovery.active_high_load_domains (%d) is not below thresholds.overload.active_high_load_domains (%d)",
			c.Recovery.ActiveHighLoadDomains, c.Overload.ActiveHighLoadDomains))
	}
	if c.Recovery.AvgEnergyScore <= c.Overload.AvgEnergyScore {
		warnings = append(warnings, fmt.Sprintf(
			"thresholds.recovery.avg_energy_score (%s) is not above thresholds.overload.avg_energy_score (%s)",
			FormatNumber(c.Recovery.AvgEnergyScore), FormatNumber(c.Overload.AvgEnergyScore)))
	}
	return warnings
}

// Load reads and validates the configuration at path.
// A missing file is an error: there is no built-in fallback.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &Error{
				Problem:  fmt.Sprintf("file not found: %s", path),
				Expected: "a YAML configuration file (run 'plo init' to create one)",
			}
		}
		return nil, &Error{Problem: fmt.Sprintf("failed to read %s: %v", path, err)}
	}
	return Parse(data)
}

// Default returns the built-in configuration written by 'plo init'.
func Default() *Config {
	cfg, err := Parse([]byte(DefaultYAML()))
	if err != nil {
		panic(fmt.Sprintf("config: built-in default is invalid: %v", err))
	}
	return cfg
}

// HashBytes returns "sha256:<hex>" of data.
func HashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(h[:])
}
