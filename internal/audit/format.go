package audit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const separator = "──────────────────────────────────────────────────────────────────"

// FormatTimeline renders a ReadResult as a text timeline.
func FormatTimeline(result *ReadResult) string {
	if len(result.Entries) == 0 {
		return "No evaluations found.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Evaluations: %s to %s UTC\n",
		formatDateTime(result.Summary.FirstTimestamp), formatDateTime(result.Summary.LastTimestamp))
	b.WriteString(separator + "\n")

	for _, e := range result.Entries {
		fmt.Fprintf(&b, "%-10s %-11s %-8s %-12s %-9s %s\n",
			formatTimeOnly(e.Timestamp), e.State, e.Planning, e.Mode, e.Channel, formatMetrics(e))
	}

	b.WriteString(separator + "\n")
	b.WriteString(formatSummary(result.Summary))
	return b.String()
}

// FormatJSON renders a ReadResult as indented JSON.
func FormatJSON(result *ReadResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal audit entries: %w", err)
	}
	return string(data), nil
}

func formatMetrics(e Entry) string {
	energy := make([]string, len(e.Metrics.EnergyScoresLast3Days))
	for i, s := range e.Metrics.EnergyScoresLast3Days {
		energy[i] = fmt.Sprint(s)
	}
	return fmt.Sprintf("deadlines=%d domains=%d energy=%s",
		e.Metrics.FixedDeadlines14d, e.Metrics.ActiveHighLoadDomains, strings.Join(energy, ","))
}

func formatDateTime(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatTimeOnly(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("15:04:05")
}

func formatSummary(s Summary) string {
	parts := []string{}
	if s.Normal > 0 {
		parts = append(parts, fmt.Sprintf("%d normal", s.Normal))
	}
	if s.Stressed > 0 {
		parts = append(parts, fmt.Sprintf("%d stressed", s.Stressed))
	}
	if s.Overloaded > 0 {
		parts = append(parts, fmt.Sprintf("%d overloaded", s.Overloaded))
	}
	return fmt.Sprintf("Summary: %s | Contained: %d of %d | Recovery ready: %d\n",
		strings.Join(parts, ", "), s.Contained, s.Total, s.RecoveryReady)
}
