package scenario

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ppiankov/plo/internal/advisory"
	"github.com/ppiankov/plo/internal/config"
	"github.com/ppiankov/plo/internal/core"
	"github.com/ppiankov/plo/internal/model"
	"github.com/ppiankov/plo/internal/report"
)

// Metrics converts the inputs to a Metrics value. Missing counts become
// zero; Load rejects them before this is reached.
func (in Inputs) Metrics() model.Metrics {
	m := model.Metrics{EnergyScoresLast3Days: in.EnergyScoresLast3Days}
	if in.FixedDeadlines14d != nil {
		m.FixedDeadlines14d = *in.FixedDeadlines14d
	}
	if in.ActiveHighLoadDomains != nil {
		m.ActiveHighLoadDomains = *in.ActiveHighLoadDomains
	}
	return m.Clone()
}

// Run evaluates one scenario. Each run builds its own evaluation, so
// scenarios never influence each other.
func Run(s Scenario, cfg *config.Config) Result {
	r := Result{Name: s.Name, Advisory: s.Advisory}

	e, err := core.Evaluate(s.Inputs.Metrics(), cfg)
	if err != nil {
		r.Error = err.Error()
		r.Mismatches = compareError(s.Expected, r.Error)
		r.Passed = len(r.Mismatches) == 0 && s.Expected != nil && s.Expected.Error != ""
		return r
	}

	a := e.Authority
	r.State = string(a.State())
	r.Planning = string(a.Planning())
	r.Execution = string(a.Execution())
	r.Mode = string(a.Mode())

	var adv *advisory.Result
	if s.Inputs.Tasks != nil || s.Inputs.Constraints != nil {
		c := advisory.Constraint{}
		if s.Inputs.Constraints != nil {
			c = *s.Inputs.Constraints
		}
		res, err := e.Advise(s.Inputs.Tasks, c)
		if err != nil {
			r.Error = err.Error()
		} else {
			adv = &res
		}
	}
	r.Report = report.FormatFull(e, adv)

	r.Mismatches = compare(s.Expected, r, adv)
	r.Passed = len(r.Mismatches) == 0
	return r
}

func compareError(exp *Expected, actual string) []Mismatch {
	if exp == nil || exp.Error == "" {
		return []Mismatch{{Field: "error", Expected: "(none)", Actual: actual}}
	}
	if !strings.Contains(actual, exp.Error) {
		return []Mismatch{{Field: "error", Expected: exp.Error, Actual: actual}}
	}
	return nil
}

func compare(exp *Expected, r Result, adv *advisory.Result) []Mismatch {
	var out []Mismatch
	if r.Error != "" {
		out = append(out, compareError(exp, r.Error)...)
	} else if exp != nil && exp.Error != "" {
		out = append(out, Mismatch{Field: "error", Expected: exp.Error, Actual: "(none)"})
	}
	if exp == nil {
		return out
	}

	field := func(name, want, got string) {
		if want != "" && !strings.EqualFold(want, got) {
			out = append(out, Mismatch{Field: name, Expected: want, Actual: got})
		}
	}
	field("state", exp.State, r.State)
	field("planning", exp.Planning, r.Planning)
	field("execution", exp.Execution, r.Execution)
	field("mode", exp.Mode, r.Mode)

	if exp.AdvisoryBlocked != nil {
		got := "(not run)"
		if adv != nil {
			got = strconv.FormatBool(adv.Blocked)
		}
		if got != strconv.FormatBool(*exp.AdvisoryBlocked) {
			out = append(out, Mismatch{Field: "advisory_blocked", Expected: strconv.FormatBool(*exp.AdvisoryBlocked), Actual: got})
		}
	}
	if len(exp.AdvisoryContains) > 0 {
		text := ""
		if adv != nil {
			text = report.FormatAdvisory(*adv)
		}
		for _, want := range exp.AdvisoryContains {
			if !strings.Contains(text, want) {
				out = append(out, Mismatch{Field: "advisory_contains", Expected: want, Actual: "(absent)"})
			}
		}
	}
	return out
}

// RunFile loads path and runs every scenario in it against cfg.
func RunFile(path string, cfg *config.Config) (*FileResult, error) {
	scenarios, err := Load(path)
	if err != nil {
		return nil, err
	}
	return RunAll(path, scenarios, cfg), nil
}

// RunAll runs scenarios in order and tallies the outcome.
func RunAll(file string, scenarios []Scenario, cfg *config.Config) *FileResult {
	fr := &FileResult{File: file, Total: len(scenarios)}
	for _, s := range scenarios {
		r := Run(s, cfg)
		if r.Passed {
			fr.Passed++
		} else {
			fr.Failed++
		}
		fr.Results = append(fr.Results, r)
	}
	return fr
}

// Describe renders one scenario result with its full report.
func Describe(r Result) string {
	var b strings.Builder
	kind := "Scenario"
	if r.Advisory {
		kind = "Advisory scenario"
	}
	fmt.Fprintf(&b, "--- %s: %s ---\n\n", kind, r.Name)
	if r.Report != "" {
		b.WriteString(r.Report)
	}
	if r.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", r.Error)
	}
	return b.String()
}
