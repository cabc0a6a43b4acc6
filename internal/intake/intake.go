// Package intake turns a templated issue body into metrics and tasks.
//
// The body is split on "### " headings. Headings are matched loosely by
// keyword so small template edits keep working:
//
//	### Non-movable deadlines (next 14 days)   -> fixed_deadlines_14d
//	### Active high-load domains               -> active_high_load_domains
//	### Energy (1-5, comma-separated)          -> energy_scores_last_3_days
//	### Tasks / commitments                    -> optional task lines
package intake

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/plo/internal/advisory"
	"github.com/ppiankov/plo/internal/model"
)

// DefaultCategory is assigned to task lines without a [category] tag.
const DefaultCategory = "general"

// ParseError is returned when the issue body cannot be read. The message
// is written for the person who filed the issue.
type ParseError struct {
	Field   string
	Problem string
	Details string
	Action  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ERROR: %s\n\nDetails: %s\n\nAction: %s", e.Problem, e.Details, e.Action)
}

// Issue is the parsed content of an issue body.
type Issue struct {
	Metrics   model.Metrics
	TasksText string
}

type section struct {
	title   string
	content string
}

var headingRE = regexp.MustCompile(`###\s+`)

func sections(body string) []section {
	var out []section
	for _, part := range headingRE.Split(body, -1) {
		if strings.TrimSpace(part) == "" {
			continue
		}
		title, content, ok := strings.Cut(part, "\n")
		if !ok {
			continue
		}
		out = append(out, section{
			title:   strings.ToLower(strings.TrimSpace(title)),
			content: strings.TrimSpace(content),
		})
	}
	return out
}

// find returns the content of the first section whose title contains any
// of keywords.
func find(secs []section, keywords ...string) (string, bool) {
	for _, s := range secs {
		for _, k := range keywords {
			if strings.Contains(s.title, k) {
				return s.content, true
			}
		}
	}
	return "", false
}

// ParseIssue extracts the three metrics and the optional task block.
// Metric ranges are not checked here; that happens in evaluation.
func ParseIssue(body string) (Issue, error) {
	if strings.TrimSpace(body) == "" {
		return Issue{}, &ParseError{
			Problem: "Empty Issue body",
			Details: "Issue body is empty or contains only whitespace",
			Action:  "Please fill in all required fields in the Issue template",
		}
	}
	secs := sections(body)

	deadlines, err := parseCount(secs, model.FieldDeadlines, "Non-movable deadlines", "4", "deadline")
	if err != nil {
		return Issue{}, err
	}
	domains, err := parseCount(secs, model.FieldDomains, "Active high-load domains", "3", "domain", "high-load")
	if err != nil {
		return Issue{}, err
	}

	raw, ok := find(secs, "energy")
	if !ok {
		return Issue{}, missingField(model.FieldEnergy, "Energy")
	}
	var energy []int
	for _, part := range strings.Split(raw, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Issue{}, &ParseError{
				Field:   model.FieldEnergy,
				Problem: "Invalid energy format",
				Details: fmt.Sprintf("Could not parse '%s' as comma-separated integers", raw),
				Action:  "Please provide 3 comma-separated integers (e.g., 2,3,2)",
			}
		}
		energy = append(energy, v)
	}

	tasks, _ := find(secs, "task", "commitment")

	return Issue{
		Metrics: model.Metrics{
			FixedDeadlines14d:     deadlines,
			ActiveHighLoadDomains: domains,
			EnergyScoresLast3Days: energy,
		},
		TasksText: tasks,
	}, nil
}

func parseCount(secs []section, field, label, example string, keywords ...string) (int, error) {
	raw, ok := find(secs, keywords...)
	if !ok {
		return 0, missingField(field, label)
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &ParseError{
			Field:   field,
			Problem: fmt.Sprintf("Invalid %s format", keywords[0]+"s"),
			Details: fmt.Sprintf("Could not parse '%s' as an integer", raw),
			Action:  fmt.Sprintf("Please provide a valid integer for %ss (e.g., %s)", keywords[0], example),
		}
	}
	return v, nil
}

func missingField(field, label string) *ParseError {
	return &ParseError{
		Field:   field,
		Problem: "Missing required field",
		Details: fmt.Sprintf("Could not find '%s' field in Issue body", label),
		Action:  "Please ensure the Issue template includes the " + label + " field",
	}
}

var (
	dateRE     = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	categoryRE = regexp.MustCompile(`\[([^\]]+)\]`)
	spaceRE    = regexp.MustCompile(`\s+`)
)

// ParseTasks reads one task per line in any of these shapes:
//
//	ML Homework 3 due 2026-02-12 [coursework]
//	Org meeting prep by 2026-02-10
//	Review PR #123 - 2026-02-08 [work]
//
// Lines without a date or without a name are skipped. Dates are not
// validated here; the advisory layer rejects impossible ones.
func ParseTasks(text string) []advisory.Task {
	tasks := []advisory.Task{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		date := dateRE.FindString(line)
		if date == "" {
			continue
		}

		category := DefaultCategory
		name := strings.Replace(line, date, " ", 1)
		if m := categoryRE.FindStringSubmatch(name); m != nil {
			if c := strings.TrimSpace(m[1]); c != "" {
				category = c
			}
			name = strings.Replace(name, m[0], " ", 1)
		}
		name = trimSeparators(spaceRE.ReplaceAllString(name, " "))
		if name == "" {
			continue
		}
		tasks = append(tasks, advisory.Task{Name: name, Deadline: date, Category: category})
	}
	return tasks
}

// trimSeparators drops leading list markers and trailing "due", "by" or "-".
func trimSeparators(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "-* ")
	for {
		lower := strings.ToLower(s)
		switch {
		case strings.HasSuffix(lower, " due"), strings.HasSuffix(lower, " by"):
			s = s[:strings.LastIndex(s, " ")]
		case strings.HasSuffix(s, "-"), strings.HasSuffix(s, ":"):
			s = s[:len(s)-1]
		case lower == "due" || lower == "by":
			return ""
		default:
			return strings.TrimSpace(s)
		}
		s = strings.TrimSpace(s)
	}
}

// FenceForIssue wraps output in a Markdown code block for an issue comment.
func FenceForIssue(out string) string {
	return "```\n" + strings.TrimRight(out, "\n") + "\n```"
}
