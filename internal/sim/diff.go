package sim

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DiffEntry is one journaled evaluation whose outcome changed.
type DiffEntry struct {
	Timestamp    string `json:"ts"`
	EvaluationID string `json:"evaluation_id"`
	Metrics      string `json:"metrics"`
	OldState     string `json:"old_state"`
	NewState     string `json:"new_state"`
	OldPlanning  string `json:"old_planning"`
	NewPlanning  string `json:"new_planning"`
	OldMode      string `json:"old_mode"`
	NewMode      string `json:"new_mode"`
	Error        string `json:"error,omitempty"`
}

// SimResult holds the complete replay output.
type SimResult struct {
	ConfigPath         string      `json:"config_path"`
	ConfigHash         string      `json:"config_hash"`
	TotalEvaluations   int         `json:"total_evaluations"`
	ChangedEvaluations int         `json:"changed_evaluations"`
	NewlyContained     int         `json:"newly_contained"`
	NewlyReleased      int         `json:"newly_released"`
	Skipped            int         `json:"skipped"`
	Changes            []DiffEntry `json:"changes"`
}

// FormatText renders the replay result as human-readable text.
func FormatText(r *SimResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Replaying %d journaled evaluations against %s...\n", r.TotalEvaluations, r.ConfigPath)

	if len(r.Changes) == 0 {
		b.WriteString("\nNo changes detected.\n")
		return b.String()
	}

	b.WriteString("\n")
	for _, d := range r.Changes {
		ts := d.Timestamp
		if len(ts) >= 19 {
			ts = ts[11:19]
		}
		if d.Error != "" {
			fmt.Fprintf(&b, "  ERROR    %s  %-36s %s\n", ts, d.Metrics, d.Error)
			continue
		}
		fmt.Fprintf(&b, "  CHANGED  %s  %-36s %s/%s -> %s/%s\n",
			ts, d.Metrics, d.OldState, d.OldPlanning, d.NewState, d.NewPlanning)
	}

	fmt.Fprintf(&b, "\n%d of %d evaluations changed.", r.ChangedEvaluations, r.TotalEvaluations)
	if r.NewlyContained > 0 || r.NewlyReleased > 0 {
		fmt.Fprintf(&b, " %d newly contained, %d newly released.", r.NewlyContained, r.NewlyReleased)
	}
	if r.Skipped > 0 {
		fmt.Fprintf(&b, " %d malformed lines skipped.", r.Skipped)
	}
	b.WriteString("\n")

	return b.String()
}

// FormatJSON renders the replay result as JSON.
func FormatJSON(r *SimResult) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal sim result: %w", err)
	}
	return string(data), nil
}
