package scenario

import (
	"fmt"

	"github.com/ppiankov/plo/internal/advisory"
)

// Inputs are the metrics and optional advisory inputs of one scenario.
// Metric counts are pointers so a missing key can be told apart from zero.
type Inputs struct {
	FixedDeadlines14d     *int                 `yaml:"fixed_deadlines_14d" json:"fixed_deadlines_14d"`
	ActiveHighLoadDomains *int                 `yaml:"active_high_load_domains" json:"active_high_load_domains"`
	EnergyScoresLast3Days []int                `yaml:"energy_scores_last_3_days" json:"energy_scores_last_3_days"`
	Tasks                 []advisory.Task      `yaml:"tasks,omitempty" json:"tasks,omitempty"`
	Constraints           *advisory.Constraint `yaml:"constraints,omitempty" json:"constraints,omitempty"`
}

// Expected is what a scenario asserts. Empty fields are not checked.
type Expected struct {
	State            string   `yaml:"state,omitempty" json:"state,omitempty"`
	Planning         string   `yaml:"planning,omitempty" json:"planning,omitempty"`
	Execution        string   `yaml:"execution,omitempty" json:"execution,omitempty"`
	Mode             string   `yaml:"mode,omitempty" json:"mode,omitempty"`
	AdvisoryBlocked  *bool    `yaml:"advisory_blocked,omitempty" json:"advisory_blocked,omitempty"`
	AdvisoryContains []string `yaml:"advisory_contains,omitempty" json:"advisory_contains,omitempty"`
	Error            string   `yaml:"error,omitempty" json:"error,omitempty"`
}

// Scenario is one named input set with optional expectations.
type Scenario struct {
	Name     string    `yaml:"name" json:"name"`
	Inputs   Inputs    `yaml:"inputs" json:"inputs"`
	Expected *Expected `yaml:"expected,omitempty" json:"expected,omitempty"`

	// Advisory is set for entries read from advisory_scenarios.
	Advisory bool `yaml:"-" json:"-"`
}

// File is the on-disk layout of a scenario file.
type File struct {
	Scenarios         []Scenario `yaml:"scenarios" json:"scenarios"`
	AdvisoryScenarios []Scenario `yaml:"advisory_scenarios" json:"advisory_scenarios"`
}

// Mismatch is one expectation that did not hold.
type Mismatch struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// Result is the outcome of running one scenario.
type Result struct {
	Name       string     `json:"name"`
	Advisory   bool       `json:"advisory"`
	Passed     bool       `json:"passed"`
	State      string     `json:"state,omitempty"`
	Planning   string     `json:"planning,omitempty"`
	Execution  string     `json:"execution,omitempty"`
	Mode       string     `json:"mode,omitempty"`
	Error      string     `json:"error,omitempty"`
	Report     string     `json:"report,omitempty"`
	Mismatches []Mismatch `json:"mismatches,omitempty"`
}

// FileResult is the outcome of running every scenario in one file.
type FileResult struct {
	File    string   `json:"file"`
	Total   int      `json:"total"`
	Passed  int      `json:"passed"`
	Failed  int      `json:"failed"`
	Results []Result `json:"results"`
}

// Error is a malformed scenario file or entry. Index is -1 when the problem
// is with the file as a whole.
type Error struct {
	Path    string
	Section string
	Index   int
	Problem string
}

func (e *Error) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("scenario %s: %s", e.Path, e.Problem)
	}
	return fmt.Sprintf("scenario %s: %s[%d]: %s", e.Path, e.Section, e.Index, e.Problem)
}
