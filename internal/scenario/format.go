package scenario

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatText renders file results as a pass/fail summary.
func FormatText(results []*FileResult) string {
	var b strings.Builder

	totalFiles := len(results)
	fmt.Fprintf(&b, "Checking %d scenario file", totalFiles)
	if totalFiles != 1 {
		b.WriteString("s")
	}
	b.WriteString("...\n\n")

	total, passed, failedFiles := 0, 0, 0
	for _, fr := range results {
		total += fr.Total
		passed += fr.Passed
		if fr.Failed > 0 {
			failedFiles++
		}

		fmt.Fprintf(&b, "%s (%d/%d)\n", fr.File, fr.Passed, fr.Total)
		for _, r := range fr.Results {
			if r.Passed {
				fmt.Fprintf(&b, "  PASS  %s\n", r.Name)
				continue
			}
			fmt.Fprintf(&b, "  FAIL  %s\n", r.Name)
			for _, m := range r.Mismatches {
				fmt.Fprintf(&b, "    %-18s expected %s, got %s\n", m.Field, m.Expected, m.Actual)
			}
		}
	}

	fmt.Fprintf(&b, "\n%d of %d scenarios passed.", passed, total)
	if failedFiles > 0 {
		fmt.Fprintf(&b, " %d of %d files had failures.", failedFiles, totalFiles)
	}
	b.WriteString("\n")
	return b.String()
}

// FormatJSON renders file results as JSON.
func FormatJSON(results []*FileResult) (string, error) {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal results: %w", err)
	}
	return string(data), nil
}
