// Package report renders evaluations as plain text or JSON.
//
// Text output is a pure function of its input: the same Evaluation always
// renders to the same bytes, whichever channel produced it.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/plo/internal/advisory"
	"github.com/ppiankov/plo/internal/core"
)

// Title heads every text report.
const Title = "=== Personal Load Orchestrator ==="

// Advisory section markers.
const (
	AdvisoryHeader = "PLANNING ADVISORY (NON-BINDING):"
	BlockedHeader  = "ADVICE BLOCKED"
	AdvisoryFooter = "NOTE: This is NON-BINDING advisory analysis.\nFinal authority remains with Decision Core."
	NoRulesMarker  = "(none)"
	RecommendLabel = "- Recommendation:"
)

// FormatText renders the base report in its fixed section order.
func FormatText(e core.Evaluation) string {
	var b strings.Builder
	a := e.Authority

	b.WriteString(Title)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Current State: %s\n", e.Classification.State)
	fmt.Fprintf(&b, "Reason: %s\n\n", e.Classification.Explanation)

	fmt.Fprintf(&b, "Planning Permission: %s\n", a.Planning())
	fmt.Fprintf(&b, "Execution Permission: %s\n", a.Execution())
	fmt.Fprintf(&b, "Authority Mode: %s\n\n", a.Mode())

	b.WriteString("Active Rules:\n")
	rules := a.ActiveRules()
	if len(rules) == 0 {
		fmt.Fprintf(&b, "  %s\n", NoRulesMarker)
	}
	for _, r := range rules {
		fmt.Fprintf(&b, "  - %s\n", r)
	}
	b.WriteString("\n")

	status := "Not ready"
	if e.Recovery.Ready {
		status = "Ready"
	}
	fmt.Fprintf(&b, "Recovery Status: %s\n", status)
	b.WriteString(e.Recovery.Rationale)
	b.WriteString("\n")

	return b.String()
}

// FormatAdvisory renders an advisory result as the section appended after
// the base report.
func FormatAdvisory(r advisory.Result) string {
	var b strings.Builder
	if r.Blocked {
		b.WriteString(BlockedHeader)
		b.WriteString("\n")
		fmt.Fprintf(&b, "Reason: %s\n", r.Reason)
		return b.String()
	}

	b.WriteString(AdvisoryHeader)
	b.WriteString("\n")
	if r.Output != nil {
		for _, o := range r.Output.Observations {
			fmt.Fprintf(&b, "- %s\n", o)
		}
		for _, w := range r.Output.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		if len(r.Output.Recommendations) > 0 {
			b.WriteString(RecommendLabel)
			b.WriteString("\n")
			for _, rec := range r.Output.Recommendations {
				fmt.Fprintf(&b, "  - %s\n", rec)
			}
		}
	}
	b.WriteString("\n")
	b.WriteString(AdvisoryFooter)
	b.WriteString("\n")
	return b.String()
}

// FormatFull renders the base report followed by the advisory section when
// adv is non-nil.
func FormatFull(e core.Evaluation, adv *advisory.Result) string {
	out := FormatText(e)
	if adv != nil {
		out += "\n" + FormatAdvisory(*adv)
	}
	return out
}

// Document is the JSON form of a report.
type Document struct {
	Evaluation core.Evaluation  `json:"evaluation"`
	Advisory   *advisory.Result `json:"advisory,omitempty"`
}

// FormatJSON renders the evaluation and optional advisory as indented JSON.
func FormatJSON(e core.Evaluation, adv *advisory.Result) (string, error) {
	data, err := json.MarshalIndent(Document{Evaluation: e, Advisory: adv}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	return string(data), nil
}
