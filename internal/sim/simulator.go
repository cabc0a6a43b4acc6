// Package sim replays a journal of past evaluations against another
// configuration and reports where the outcome would have differed.
package sim

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/plo/internal/audit"
	"github.com/ppiankov/plo/internal/config"
	"github.com/ppiankov/plo/internal/core"
	"github.com/ppiankov/plo/internal/model"
)

// Simulate loads the config at configPath and replays the journal at
// logPath against it.
func Simulate(logPath, configPath string) (*SimResult, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	result, err := Replay(logPath, cfg)
	if err != nil {
		return nil, err
	}
	result.ConfigPath = configPath
	return result, nil
}

// Replay re-evaluates every journaled metric set under cfg. Each entry is
// evaluated on its own; journal order does not affect the outcome.
func Replay(logPath string, cfg *config.Config) (*SimResult, error) {
	entries, skipped, err := readEntries(logPath)
	if err != nil {
		return nil, err
	}

	result := &SimResult{ConfigHash: cfg.Hash(), Skipped: skipped}
	for _, entry := range entries {
		result.TotalEvaluations++

		diff := DiffEntry{
			Timestamp:    entry.Timestamp,
			EvaluationID: entry.EvaluationID,
			Metrics:      describe(entry.Metrics),
			OldState:     entry.State,
			OldPlanning:  entry.Planning,
			OldMode:      entry.Mode,
		}

		e, err := core.Evaluate(entry.Metrics, cfg)
		if err != nil {
			diff.Error = err.Error()
			result.Changes = append(result.Changes, diff)
			result.ChangedEvaluations++
			continue
		}

		a := e.Authority
		diff.NewState = string(a.State())
		diff.NewPlanning = string(a.Planning())
		diff.NewMode = string(a.Mode())

		if diff.NewState == diff.OldState && diff.NewPlanning == diff.OldPlanning && diff.NewMode == diff.OldMode {
			continue
		}
		result.Changes = append(result.Changes, diff)
		result.ChangedEvaluations++

		if diff.OldPlanning == string(model.Allowed) && diff.NewPlanning == string(model.Denied) {
			result.NewlyContained++
		}
		if diff.OldPlanning == string(model.Denied) && diff.NewPlanning == string(model.Allowed) {
			result.NewlyReleased++
		}
	}
	return result, nil
}

// readEntries reads the journal in order, counting lines that do not decode.
func readEntries(logPath string) ([]audit.Entry, int, error) {
	f, err := os.Open(logPath)
	if err != nil {
		return nil, 0, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var entries []audit.Entry
	skipped := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry audit.Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read audit log: %w", err)
	}
	return entries, skipped, nil
}

func describe(m model.Metrics) string {
	energy := make([]string, len(m.EnergyScoresLast3Days))
	for i, s := range m.EnergyScoresLast3Days {
		energy[i] = fmt.Sprint(s)
	}
	return fmt.Sprintf("d=%d h=%d e=%s", m.FixedDeadlines14d, m.ActiveHighLoadDomains, strings.Join(energy, ","))
}
