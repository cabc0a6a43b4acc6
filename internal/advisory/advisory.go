// Package advisory produces non-binding planning analysis for a task list.
//
// Advise is gated by the planning permission of an Authority. When planning
// is denied it returns a blocked Result before looking at its inputs. When
// allowed it validates the inputs and runs four independent analyses, each
// contributing descriptive lines only. Nothing here schedules, reorders, or
// executes anything, and the caller's tasks and constraint are never modified.
package advisory

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/plo/internal/authority"
)

// DateLayout is the accepted deadline format.
const DateLayout = "2006-01-02"

// TimeLayout is the accepted no_work_after format.
const TimeLayout = "15:04"

// ClusterWindowDays is the width of the deadline clustering window, and
// ClusterMinTasks the number of deadlines inside it that gets flagged.
const (
	ClusterWindowDays = 3
	ClusterMinTasks   = 3
)

// Task is one commitment with a fixed deadline.
type Task struct {
	Name     string `json:"name" yaml:"name"`
	Deadline string `json:"deadline" yaml:"deadline"`
	Category string `json:"category" yaml:"category"`
}

// Constraint holds optional user limits. A nil MaxParallelFocus and an empty
// NoWorkAfter mean "not set".
type Constraint struct {
	MaxParallelFocus *int   `json:"max_parallel_focus,omitempty" yaml:"max_parallel_focus,omitempty"`
	NoWorkAfter      string `json:"no_work_after,omitempty" yaml:"no_work_after,omitempty"`
}

// Output is the descriptive analysis. Lines are appended in analysis order.
type Output struct {
	Observations    []string `json:"observations"`
	Recommendations []string `json:"recommendations"`
	Warnings        []string `json:"warnings"`
}

// Result is what Advise returns. A blocked Result is a normal outcome, not
// an error, and carries no Output.
type Result struct {
	Blocked   bool    `json:"blocked"`
	Reason    string  `json:"reason"`
	BlockedBy string  `json:"blocked_by,omitempty"`
	Output    *Output `json:"output,omitempty"`
}

// InputError reports a malformed task or constraint. Field is the path of
// the offending value, e.g. "tasks[1].deadline".
type InputError struct {
	Field    string
	Value    string
	Expected string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid advisory input: %s is %q (expected %s)", e.Field, e.Value, e.Expected)
}

// Advise checks planning permission first and returns the blocked result
// when it is denied. Otherwise it validates tasks and c and runs deadline
// clustering, cognitive-load assessment, prioritization and conflict
// detection.
func Advise(tasks []Task, c Constraint, a authority.Authority) (Result, error) {
	adm := authority.CheckAdmission(a, authority.CapabilityPlanning)
	if !adm.Admitted {
		return Result{
			Blocked:   true,
			Reason:    adm.Reason,
			BlockedBy: adm.BlockedBy,
		}, nil
	}

	dated, err := validate(tasks, c)
	if err != nil {
		return Result{}, err
	}

	out := &Output{
		Observations:    []string{},
		Recommendations: []string{},
		Warnings:        []string{},
	}
	out.Observations = append(out.Observations, clustering(dated)...)
	out.Observations = append(out.Observations, cognitiveLoad(dated, c)...)
	out.Recommendations = append(out.Recommendations, prioritization(dated)...)
	out.Warnings = append(out.Warnings, conflicts(dated, c)...)

	return Result{Reason: "Advisory analysis complete", Output: out}, nil
}

// datedTask pairs a task with its parsed deadline and input position.
// The analyses work on these copies, never on the caller's slice.
type datedTask struct {
	Task
	due   time.Time
	index int
}

func validate(tasks []Task, c Constraint) ([]datedTask, error) {
	dated := make([]datedTask, 0, len(tasks))
	for i, t := range tasks {
		prefix := fmt.Sprintf("tasks[%d].", i)
		if strings.TrimSpace(t.Name) == "" {
			return nil, &InputError{Field: prefix + "name", Value: t.Name, Expected: "a non-empty name"}
		}
		due, err := time.Parse(DateLayout, t.Deadline)
		if err != nil {
			return nil, &InputError{Field: prefix + "deadline", Value: t.Deadline, Expected: "a calendar date in YYYY-MM-DD format"}
		}
		if strings.TrimSpace(t.Category) == "" {
			return nil, &InputError{Field: prefix + "category", Value: t.Category, Expected: "a non-empty category"}
		}
		dated = append(dated, datedTask{Task: t, due: due, index: i})
	}

	if c.MaxParallelFocus != nil && *c.MaxParallelFocus <= 0 {
		return nil, &InputError{
			Field:    "constraints.max_parallel_focus",
			Value:    strconv.Itoa(*c.MaxParallelFocus),
			Expected: "a positive integer",
		}
	}
	if c.NoWorkAfter != "" {
		if _, err := time.Parse(TimeLayout, c.NoWorkAfter); err != nil {
			return nil, &InputError{Field: "constraints.no_work_after", Value: c.NoWorkAfter, Expected: "a time of day in HH:MM format"}
		}
	}
	return dated, nil
}

// byDeadline returns a copy of tasks ordered by deadline, then input order.
func byDeadline(tasks []datedTask) []datedTask {
	sorted := slices.Clone(tasks)
	slices.SortStableFunc(sorted, func(a, b datedTask) int {
		return a.due.Compare(b.due)
	})
	return sorted
}

// clustering reports the first window of ClusterWindowDays calendar days
// that holds at least ClusterMinTasks deadlines.
func clustering(tasks []datedTask) []string {
	if len(tasks) < ClusterMinTasks {
		return nil
	}
	sorted := byDeadline(tasks)
	span := time.Duration(ClusterWindowDays-1) * 24 * time.Hour
	for i := range sorted {
		start := sorted[i].due
		end := start
		count := 1
		for j := i + 1; j < len(sorted) && sorted[j].due.Sub(start) <= span; j++ {
			count++
			end = sorted[j].due
		}
		if count >= ClusterMinTasks {
			return []string{fmt.Sprintf("%d deadlines fall within a %d-day window (%s to %s)",
				count, ClusterWindowDays, start.Format(DateLayout), end.Format(DateLayout))}
		}
	}
	return nil
}

func cognitiveLoad(tasks []datedTask, c Constraint) []string {
	if c.MaxParallelFocus == nil || len(tasks) <= *c.MaxParallelFocus {
		return nil
	}
	return []string{
		fmt.Sprintf("Cognitive load likely exceeds safe threshold (%d tasks, max_parallel_focus %d)",
			len(tasks), *c.MaxParallelFocus),
		"This period carries more parallel work than your stated focus limit",
	}
}

// prioritization names the category of the earliest deadline as a suggested
// focus. Categories sharing that date are ordered by name.
func prioritization(tasks []datedTask) []string {
	if len(tasks) == 0 {
		return nil
	}
	earliest := byDeadline(tasks)[0].due
	var urgent []string
	categories := map[string]bool{}
	for _, t := range tasks {
		categories[t.Category] = true
		if t.due.Equal(earliest) {
			urgent = append(urgent, t.Category)
		}
	}
	slices.Sort(urgent)
	focus := urgent[0]

	recs := []string{fmt.Sprintf("Consider treating %s as the primary focus (earliest deadline %s)",
		focus, earliest.Format(DateLayout))}

	var rest []string
	for cat := range categories {
		if cat != focus {
			rest = append(rest, cat)
		}
	}
	if len(rest) > 0 {
		slices.Sort(rest)
		recs = append(recs, "Consider narrowing the scope of: "+strings.Join(rest, ", "))
	}
	if len(tasks) > 2 {
		recs = append(recs, "Avoid adding optional tasks in this period")
	}
	return recs
}

// conflicts flags deadlines that share a date and constraint violations.
// It describes them only.
func conflicts(tasks []datedTask, c Constraint) []string {
	var warnings []string
	if c.MaxParallelFocus != nil && len(tasks) > *c.MaxParallelFocus {
		warnings = append(warnings, fmt.Sprintf("Task load (%d) exceeds max_parallel_focus constraint (%d)",
			len(tasks), *c.MaxParallelFocus))
	}

	sorted := byDeadline(tasks)
	overlaps := 0
	for i := 0; i < len(sorted); {
		j := i + 1
		for j < len(sorted) && sorted[j].due.Equal(sorted[i].due) {
			j++
		}
		if j-i > 1 {
			names := make([]string, 0, j-i)
			for _, t := range sorted[i:j] {
				names = append(names, t.Name)
			}
			warnings = append(warnings, fmt.Sprintf("Overlapping deadlines on %s: %s",
				sorted[i].due.Format(DateLayout), strings.Join(names, ", ")))
			overlaps++
		}
		i = j
	}

	if overlaps > 0 && c.NoWorkAfter != "" {
		warnings = append(warnings, fmt.Sprintf("Overlapping deadlines leave less room before the %s cutoff", c.NoWorkAfter))
	}
	return warnings
}
