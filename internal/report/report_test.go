package report

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ppiankov/plo/internal/advisory"
	"github.com/ppiankov/plo/internal/config"
	"github.com/ppiankov/plo/internal/core"
	"github.com/ppiankov/plo/internal/model"
)

func evaluate(t *testing.T, deadlines, domains int, energy ...int) core.Evaluation {
	t.Helper()
	e, err := core.Evaluate(model.Metrics{
		FixedDeadlines14d:     deadlines,
		ActiveHighLoadDomains: domains,
		EnergyScoresLast3Days: energy,
	}, config.Default())
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestFormatTextOverloaded(t *testing.T) {
	got := FormatText(evaluate(t, 4, 3, 2, 2, 2))
	want := `=== Personal Load Orchestrator ===

Current State: OVERLOADED
Reason: 3 of 3 overload conditions met
  [met]     Fixed deadlines (4) >= threshold (3)
  [met]     High-load domains (3) >= threshold (3)
  [met]     Average energy (2) <= threshold (2)

Planning Permission: DENIED
Execution Permission: DENIED
Authority Mode: CONTAINMENT

Active Rules:
  - No new commitments
  - Pause technical tool development
  - Defer every non-fixed deadline

Recovery Status: Not ready
Recovery not ready. Blocking conditions:
  - Fixed deadlines (4) > recovery threshold (1)
  - High-load domains (3) > recovery threshold (2)
  - Average energy (2) < recovery threshold (4)
`
	if got != want {
		t.Errorf("report mismatch:\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestFormatTextNormalHasNoneMarker(t *testing.T) {
	got := FormatText(evaluate(t, 1, 1, 4, 4, 5))
	for _, want := range []string{
		"Current State: NORMAL\n",
		"Planning Permission: ALLOWED\n",
		"Execution Permission: DENIED\n",
		"Authority Mode: NORMAL\n",
		"Active Rules:\n  (none)\n",
		"Recovery Status: Ready\nAll recovery conditions met. Safe to return to NORMAL mode.\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestSectionOrder(t *testing.T) {
	got := FormatText(evaluate(t, 3, 1, 3, 3, 3))
	markers := []string{"Current State:", "Reason:", "Planning Permission:", "Execution Permission:", "Authority Mode:", "Active Rules:", "Recovery Status:"}
	last := -1
	for _, m := range markers {
		idx := strings.Index(got, m)
		if idx <= last {
			t.Fatalf("%q out of order in:\n%s", m, got)
		}
		last = idx
	}
}

func TestFormatTextByteIdentical(t *testing.T) {
	first := FormatText(evaluate(t, 2, 4, 1, 2, 3))
	for i := 0; i < 20; i++ {
		if got := FormatText(evaluate(t, 2, 4, 1, 2, 3)); got != first {
			t.Fatalf("run %d differs", i)
		}
	}
}

func TestFormatAdvisoryBlocked(t *testing.T) {
	e := evaluate(t, 4, 3, 2, 2, 2)
	r, err := e.Advise([]advisory.Task{{Name: "a", Deadline: "2026-01-01", Category: "work"}}, advisory.Constraint{})
	if err != nil {
		t.Fatal(err)
	}
	want := "ADVICE BLOCKED\nReason: Planning forbidden by Decision Core\n"
	if got := FormatAdvisory(r); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatAdvisoryAllowed(t *testing.T) {
	r := advisory.Result{Output: &advisory.Output{
		Observations:    []string{"obs"},
		Warnings:        []string{"warn"},
		Recommendations: []string{"rec one", "rec two"},
	}}
	want := "PLANNING ADVISORY (NON-BINDING):\n" +
		"- obs\n" +
		"- warn\n" +
		"- Recommendation:\n" +
		"  - rec one\n" +
		"  - rec two\n" +
		"\n" +
		"NOTE: This is NON-BINDING advisory analysis.\n" +
		"Final authority remains with Decision Core.\n"
	if got := FormatAdvisory(r); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatFullAppendsAdvisory(t *testing.T) {
	e := evaluate(t, 0, 0, 5, 5, 5)
	r, err := e.Advise(nil, advisory.Constraint{})
	if err != nil {
		t.Fatal(err)
	}
	got := FormatFull(e, &r)
	if !strings.HasPrefix(got, FormatText(e)+"\n"+AdvisoryHeader) {
		t.Errorf("advisory section not appended after the base report:\n%s", got)
	}
	if FormatFull(e, nil) != FormatText(e) {
		t.Error("nil advisory should render the base report only")
	}
}

func TestFormatJSON(t *testing.T) {
	out, err := FormatJSON(evaluate(t, 4, 3, 2, 2, 2), nil)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Evaluation struct {
			Authority struct {
				Planning  string   `json:"planning_permission"`
				Execution string   `json:"execution_permission"`
				Mode      string   `json:"mode"`
				Rules     []string `json:"active_rules"`
			} `json:"authority"`
		} `json:"evaluation"`
		Advisory any `json:"advisory"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatal(err)
	}
	a := doc.Evaluation.Authority
	if a.Planning != "DENIED" || a.Execution != "DENIED" || a.Mode != "CONTAINMENT" || len(a.Rules) != 3 {
		t.Errorf("unexpected authority JSON: %+v", a)
	}
	if doc.Advisory != nil {
		t.Error("advisory should be omitted")
	}
}
