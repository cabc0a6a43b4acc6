package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/plo/internal/model"
)

// Extensions lists the file types Load accepts.
var Extensions = []string{".yaml", ".yml", ".json"}

// Load reads a scenario file and validates every entry. Plain scenarios
// come first, then advisory scenarios, each in file order.
func Load(path string) ([]Scenario, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(Extensions, ext) {
		return nil, &Error{Path: path, Index: -1, Problem: fmt.Sprintf("unsupported file format %q (expected .yaml, .yml or .json)", ext)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Index: -1, Problem: err.Error()}
	}

	var f File
	if ext == ".json" {
		err = json.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, &Error{Path: path, Index: -1, Problem: "parse: " + err.Error()}
	}

	var out []Scenario
	for i, s := range f.Scenarios {
		if err := check(&s); err != nil {
			return nil, &Error{Path: path, Section: "scenarios", Index: i, Problem: err.Error()}
		}
		out = append(out, s)
	}
	for i, s := range f.AdvisoryScenarios {
		s.Advisory = true
		if err := check(&s); err != nil {
			return nil, &Error{Path: path, Section: "advisory_scenarios", Index: i, Problem: err.Error()}
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, &Error{Path: path, Index: -1, Problem: "no scenarios found (expected a scenarios or advisory_scenarios list)"}
	}
	return out, nil
}

// LoadAll loads every file in paths. A directory contributes every file in
// it with a supported extension, in name order.
func LoadAll(paths []string) (map[string][]Scenario, []string, error) {
	files, err := Expand(paths)
	if err != nil {
		return nil, nil, err
	}
	out := make(map[string][]Scenario, len(files))
	for _, f := range files {
		s, err := Load(f)
		if err != nil {
			return nil, nil, err
		}
		out[f] = s
	}
	return out, files, nil
}

// Expand resolves directories in paths to the scenario files they contain.
func Expand(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("scenario path %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("read scenario dir %s: %w", p, err)
		}
		for _, e := range entries {
			if e.IsDir() || !slices.Contains(Extensions, strings.ToLower(filepath.Ext(e.Name()))) {
				continue
			}
			files = append(files, filepath.Join(p, e.Name()))
		}
	}
	return files, nil
}

// check validates one entry and fills advisory defaults.
func check(s *Scenario) error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("missing required field 'name'")
	}
	in := s.Inputs
	if in.FixedDeadlines14d == nil {
		return fmt.Errorf("missing required input field '%s'", model.FieldDeadlines)
	}
	if in.ActiveHighLoadDomains == nil {
		return fmt.Errorf("missing required input field '%s'", model.FieldDomains)
	}
	if in.EnergyScoresLast3Days == nil {
		return fmt.Errorf("missing required input field '%s'", model.FieldEnergy)
	}

	exp := s.Expected
	if exp == nil {
		return nil
	}

	if exp.Error == "" {
		if exp.State == "" || exp.Planning == "" {
			return fmt.Errorf("expected must name state and planning")
		}
		if !s.Advisory && (exp.Execution == "" || exp.Mode == "") {
			return fmt.Errorf("expected must name state, planning, execution and mode")
		}
	}

	if exp.State != "" {
		st, err := model.ParseState(exp.State)
		if err != nil {
			return fmt.Errorf("expected.state: %w", err)
		}
		if exp.Mode == "" && s.Advisory {
			exp.Mode = string(model.ModeContainment)
			if st == model.Normal {
				exp.Mode = string(model.ModeNormal)
			}
		}
	}
	if exp.Execution == "" && s.Advisory && exp.State != "" {
		exp.Execution = string(model.Denied)
	}
	if exp.Planning != "" {
		if _, err := model.ParsePermission(exp.Planning); err != nil {
			return fmt.Errorf("expected.planning: %w", err)
		}
	}
	if exp.Execution != "" {
		if _, err := model.ParsePermission(exp.Execution); err != nil {
			return fmt.Errorf("expected.execution: %w", err)
		}
	}
	if exp.Mode != "" {
		if _, err := model.ParseMode(exp.Mode); err != nil {
			return fmt.Errorf("expected.mode: %w", err)
		}
	}
	return nil
}

// Find returns the scenario called name.
func Find(scenarios []Scenario, name string) (Scenario, bool) {
	for _, s := range scenarios {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}
