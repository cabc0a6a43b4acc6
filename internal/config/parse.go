package config

import (
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/plo/internal/authority"
	"github.com/ppiankov/plo/internal/model"
)

// Parse validates a raw YAML document and builds a Config.
// Every failure names the dotted key that caused it.
func Parse(data []byte) (*Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &Error{
			Problem:  fmt.Sprintf("failed to parse YAML: %v", err),
			Expected: "valid YAML syntax",
		}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &Error{
			Problem:  "document is empty",
			Expected: "thresholds and downgrade_rules sections",
		}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &Error{Problem: "document root is not a mapping", Expected: "a YAML mapping"}
	}
	if err := checkDuplicates(root, ""); err != nil {
		return nil, err
	}

	cfg := &Config{
		Version: SupportedVersion,
		rules:   make(map[model.OperatingState][]string),
		hash:    HashBytes(data),
	}

	if n := child(root, "version"); n != nil {
		v, err := intScalar(n, "version")
		if err != nil {
			return nil, err
		}
		if v != SupportedVersion {
			return nil, &Error{
				Key:      "version",
				Problem:  fmt.Sprintf("unsupported version %d", v),
				Expected: strconv.Itoa(SupportedVersion),
			}
		}
		cfg.Version = v
	}

	thresholds, err := requireMapping(root, "", "thresholds")
	if err != nil {
		return nil, err
	}
	if cfg.Overload, err = parseThresholds(thresholds, "thresholds.overload"); err != nil {
		return nil, err
	}
	if cfg.Recovery, err = parseThresholds(thresholds, "thresholds.recovery"); err != nil {
		return nil, err
	}

	if err := parseRules(root, cfg); err != nil {
		return nil, err
	}

	if n := child(root, "recovery_advice"); n != nil {
		if cfg.advice, err = stringList(n, "recovery_advice"); err != nil {
			return nil, err
		}
	}

	if n := child(root, "authority_derivation"); n != nil {
		if err := checkAuthorityDerivation(n); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func parseThresholds(parent *yaml.Node, path string) (Thresholds, error) {
	key := path[len("thresholds."):]
	m, err := requireMapping(parent, "thresholds", key)
	if err != nil {
		return Thresholds{}, err
	}

	var t Thresholds
	if t.FixedDeadlines14d, err = requireCount(m, path, model.FieldDeadlines); err != nil {
		return Thresholds{}, err
	}
	if t.ActiveHighLoadDomains, err = requireCount(m, path, model.FieldDomains); err != nil {
		return Thresholds{}, err
	}

	energyKey := path + ".avg_energy_score"
	n := child(m, "avg_energy_score")
	if n == nil {
		return Thresholds{}, missing(energyKey, "a number between 1 and 5")
	}
	if t.AvgEnergyScore, err = numberScalar(n, energyKey); err != nil {
		return Thresholds{}, err
	}
	if t.AvgEnergyScore < model.MinEnergy || t.AvgEnergyScore > model.MaxEnergy {
		return Thresholds{}, &Error{
			Key:      energyKey,
			Problem:  fmt.Sprintf("value %s is out of range", FormatNumber(t.AvgEnergyScore)),
			Expected: "a number between 1 and 5",
		}
	}
	return t, nil
}

func parseRules(root *yaml.Node, cfg *Config) error {
	m, err := requireMapping(root, "", "downgrade_rules")
	if err != nil {
		return err
	}

	for i := 0; i+1 < len(m.Content); i += 2 {
		name := m.Content[i].Value
		key := "downgrade_rules." + name
		state, err := model.ParseState(name)
		if err != nil {
			return &Error{Key: key, Problem: "unknown state", Expected: "OVERLOADED, STRESSED or NORMAL"}
		}
		list, err := stringList(m.Content[i+1], key)
		if err != nil {
			return err
		}
		cfg.rules[state] = list
	}

	for _, state := range []model.OperatingState{model.Overloaded, model.Stressed} {
		if _, ok := cfg.rules[state]; !ok {
			return missing("downgrade_rules."+string(state), "a list of rule strings")
		}
	}
	return nil
}

// checkAuthorityDerivation accepts an authority_derivation section only when it
// restates the fixed derivation table. Configuration can document the
// boundary but never move it.
func checkAuthorityDerivation(m *yaml.Node) error {
	if m.Kind != yaml.MappingNode {
		return wrongType("authority_derivation", m, "a mapping of state to planning/execution/mode")
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		name := m.Content[i].Value
		key := "authority_derivation." + name
		state, err := model.ParseState(name)
		if err != nil {
			return &Error{Key: key, Problem: "unknown state", Expected: "OVERLOADED, STRESSED or NORMAL"}
		}
		entry := m.Content[i+1]
		if entry.Kind != yaml.MappingNode {
			return wrongType(key, entry, "a mapping with planning, execution and mode")
		}

		want := authority.Derive(state, nil)

		planning, err := requireString(entry, key, "planning")
		if err != nil {
			return err
		}
		if p, err := model.ParsePermission(planning); err != nil {
			return &Error{Key: key + ".planning", Problem: err.Error()}
		} else if p != want.Planning() {
			return &Error{
				Key:      key + ".planning",
				Problem:  fmt.Sprintf("%s would change the fixed derivation", p),
				Expected: string(want.Planning()),
			}
		}

		execution, err := requireString(entry, key, "execution")
		if err != nil {
			return err
		}
		if p, err := model.ParsePermission(execution); err != nil {
			return &Error{Key: key + ".execution", Problem: err.Error()}
		} else if p != want.Execution() {
			return &Error{
				Key:      key + ".execution",
				Problem:  fmt.Sprintf("%s would change the fixed derivation", p),
				Expected: string(want.Execution()),
			}
		}

		mode, err := requireString(entry, key, "mode")
		if err != nil {
			return err
		}
		if md, err := model.ParseMode(mode); err != nil {
			return &Error{Key: key + ".mode", Problem: err.Error()}
		} else if md != want.Mode() {
			return &Error{
				Key:      key + ".mode",
				Problem:  fmt.Sprintf("%s would change the fixed derivation", md),
				Expected: string(want.Mode()),
			}
		}
	}
	return nil
}

// checkDuplicates walks every mapping under n and rejects a key that appears
// twice in the same mapping. child would otherwise keep only the first.
func checkDuplicates(n *yaml.Node, path string) error {
	switch n.Kind {
	case yaml.MappingNode:
		seen := make(map[string]bool, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := join(path, n.Content[i].Value)
			if seen[n.Content[i].Value] {
				return &Error{Key: key, Problem: "duplicate key", Expected: "each key at most once"}
			}
			seen[n.Content[i].Value] = true
			if err := checkDuplicates(n.Content[i+1], key); err != nil {
				return err
			}
		}
	case yaml.SequenceNode:
		for i, item := range n.Content {
			if err := checkDuplicates(item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// child returns the value node for key in mapping m, or nil.
func child(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func requireMapping(parent *yaml.Node, path, key string) (*yaml.Node, error) {
	full := join(path, key)
	n := child(parent, key)
	if n == nil {
		return nil, missing(full, "a mapping")
	}
	if n.Kind != yaml.MappingNode {
		return nil, wrongType(full, n, "a mapping")
	}
	return n, nil
}

func requireCount(parent *yaml.Node, path, key string) (int, error) {
	full := join(path, key)
	n := child(parent, key)
	if n == nil {
		return 0, missing(full, "a non-negative integer")
	}
	v, err := intScalar(n, full)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, &Error{Key: full, Problem: fmt.Sprintf("value %d is negative", v), Expected: "a non-negative integer"}
	}
	return v, nil
}

func requireString(parent *yaml.Node, path, key string) (string, error) {
	full := join(path, key)
	n := child(parent, key)
	if n == nil {
		return "", missing(full, "a string")
	}
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!str" {
		return "", wrongType(full, n, "a string")
	}
	return n.Value, nil
}

func intScalar(n *yaml.Node, key string) (int, error) {
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!int" {
		return 0, wrongType(key, n, "an integer")
	}
	var v int
	if err := n.Decode(&v); err != nil {
		return 0, &Error{Key: key, Problem: err.Error(), Expected: "an integer"}
	}
	return v, nil
}

func numberScalar(n *yaml.Node, key string) (float64, error) {
	if n.Kind != yaml.ScalarNode || (n.ShortTag() != "!!int" && n.ShortTag() != "!!float") {
		return 0, wrongType(key, n, "a number")
	}
	var v float64
	if err := n.Decode(&v); err != nil {
		return 0, &Error{Key: key, Problem: err.Error(), Expected: "a number"}
	}
	// .nan and .inf decode as floats; NaN fails every threshold comparison.
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &Error{Key: key, Problem: fmt.Sprintf("invalid value %q", n.Value), Expected: "a finite number"}
	}
	return v, nil
}

func stringList(n *yaml.Node, key string) ([]string, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, wrongType(key, n, "a list of strings")
	}
	out := make([]string, 0, len(n.Content))
	for i, item := range n.Content {
		if item.Kind != yaml.ScalarNode {
			return nil, wrongType(fmt.Sprintf("%s[%d]", key, i), item, "a string")
		}
		out = append(out, item.Value)
	}
	return out, nil
}

func missing(key, expected string) *Error {
	return &Error{Key: key, Problem: "missing required key", Expected: expected}
}

func wrongType(key string, n *yaml.Node, expected string) *Error {
	got := n.ShortTag()
	switch n.Kind {
	case yaml.MappingNode:
		got = "mapping"
	case yaml.SequenceNode:
		got = "list"
	case yaml.ScalarNode:
		got = fmt.Sprintf("%s %q", got, n.Value)
	}
	return &Error{Key: key, Problem: "invalid value " + got, Expected: expected}
}

// FormatNumber renders a threshold or mean without trailing zeros.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
