package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Filter selects journal entries. Zero fields do not filter.
type Filter struct {
	Channel string
	State   string
	From    time.Time
	To      time.Time
	Last    int
}

// Summary counts the selected entries.
type Summary struct {
	Total          int    `json:"total"`
	Normal         int    `json:"normal"`
	Stressed       int    `json:"stressed"`
	Overloaded     int    `json:"overloaded"`
	Contained      int    `json:"contained"`
	RecoveryReady  int    `json:"recovery_ready"`
	FirstTimestamp string `json:"first_timestamp"`
	LastTimestamp  string `json:"last_timestamp"`
}

// ReadResult holds the selected entries and their summary.
type ReadResult struct {
	Entries []Entry `json:"entries"`
	Summary Summary `json:"summary"`
}

// Read returns the journal entries at path that match filter, oldest first.
// Malformed lines are skipped; use Verify to detect them.
func Read(path string, filter Filter) (*ReadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		if filter.Channel != "" && entry.Channel != filter.Channel {
			continue
		}
		if filter.State != "" && entry.State != filter.State {
			continue
		}
		if !filter.From.IsZero() || !filter.To.IsZero() {
			ts, err := time.Parse(TimestampFormat, entry.Timestamp)
			if err != nil {
				continue
			}
			if !filter.From.IsZero() && ts.Before(filter.From) {
				continue
			}
			if !filter.To.IsZero() && ts.After(filter.To) {
				continue
			}
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	if filter.Last > 0 && len(entries) > filter.Last {
		entries = entries[len(entries)-filter.Last:]
	}

	result := &ReadResult{Entries: entries}
	for _, e := range entries {
		updateSummary(&result.Summary, e)
	}
	return result, nil
}

func updateSummary(s *Summary, e Entry) {
	s.Total++
	switch e.State {
	case "NORMAL":
		s.Normal++
	case "STRESSED":
		s.Stressed++
	case "OVERLOADED":
		s.Overloaded++
	}
	if e.Mode == "CONTAINMENT" {
		s.Contained++
	}
	if e.RecoveryReady {
		s.RecoveryReady++
	}
	if s.FirstTimestamp == "" {
		s.FirstTimestamp = e.Timestamp
	}
	s.LastTimestamp = e.Timestamp
}
