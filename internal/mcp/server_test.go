package mcp

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/plo/internal/advisory"
	"github.com/ppiankov/plo/internal/audit"
	"github.com/ppiankov/plo/internal/config"
	"github.com/ppiankov/plo/internal/model"
)

func newTestServer(t *testing.T, auditPath string) *Server {
	t.Helper()
	s, err := New(Config{Settings: config.Default(), AuditLogPath: auditPath})
	if err != nil {
		t.Fatalf("failed to create MCP server: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewMissingConfig(t *testing.T) {
	_, err := New(Config{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")})
	var cfgErr *config.Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected config.Error, got %v", err)
	}
}

func TestEvaluateOverloaded(t *testing.T) {
	s := newTestServer(t, "")

	result, out, err := s.handleEvaluate(context.Background(), &mcpsdk.CallToolRequest{}, EvaluateInput{
		FixedDeadlines14d:     4,
		ActiveHighLoadDomains: 3,
		EnergyScoresLast3Days: []int{2, 2, 2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil && result.IsError {
		t.Fatal("expected success, got error result")
	}
	if out.State != "OVERLOADED" || out.Planning != "DENIED" || out.Mode != "CONTAINMENT" {
		t.Fatalf("got %s/%s/%s", out.State, out.Planning, out.Mode)
	}
	if out.Execution != "DENIED" {
		t.Fatalf("execution must be denied, got %s", out.Execution)
	}
	if len(out.ActiveRules) != 3 {
		t.Fatalf("expected 3 active rules, got %v", out.ActiveRules)
	}
	if !strings.Contains(out.Report, "Current State: OVERLOADED") {
		t.Fatalf("report missing state line:\n%s", out.Report)
	}
}

func TestEvaluateInvalidMetrics(t *testing.T) {
	s := newTestServer(t, "")

	_, _, err := s.handleEvaluate(context.Background(), &mcpsdk.CallToolRequest{}, EvaluateInput{
		FixedDeadlines14d:     1,
		ActiveHighLoadDomains: 1,
		EnergyScoresLast3Days: []int{4, 9, 4},
	})
	var invalid *model.InvalidMetricsError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidMetricsError, got %v", err)
	}
}

func TestAdviseBlockedUnderContainment(t *testing.T) {
	s := newTestServer(t, "")

	result, out, err := s.handleAdvise(context.Background(), &mcpsdk.CallToolRequest{}, AdviseInput{
		FixedDeadlines14d:     3,
		ActiveHighLoadDomains: 1,
		EnergyScoresLast3Days: []int{3, 3, 3},
		Tasks:                 []advisory.Task{{Name: "Report", Deadline: "not a date", Category: "work"}},
	})
	if err != nil {
		t.Fatalf("blocked advice must not validate input, got %v", err)
	}
	if result != nil && result.IsError {
		t.Fatal("a blocked advisory is not a tool error")
	}
	if !out.Blocked || out.BlockedBy != "Decision Core" {
		t.Fatalf("expected blocked by Decision Core, got %+v", out)
	}
	if len(out.Observations)+len(out.Recommendations)+len(out.Warnings) != 0 {
		t.Fatalf("blocked advice must carry no analysis: %+v", out)
	}
	if !strings.HasPrefix(out.Report, "ADVICE BLOCKED") {
		t.Fatalf("unexpected report: %q", out.Report)
	}
}

func TestAdviseAllowedInNormal(t *testing.T) {
	s := newTestServer(t, "")
	focus := 1

	_, out, err := s.handleAdvise(context.Background(), &mcpsdk.CallToolRequest{}, AdviseInput{
		FixedDeadlines14d:     1,
		ActiveHighLoadDomains: 1,
		EnergyScoresLast3Days: []int{4, 4, 5},
		Tasks: []advisory.Task{
			{Name: "Essay", Deadline: "2026-03-02", Category: "coursework"},
			{Name: "Review", Deadline: "2026-03-02", Category: "work"},
		},
		MaxParallelFocus: &focus,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Blocked {
		t.Fatalf("planning is allowed in NORMAL: %+v", out)
	}
	if len(out.Recommendations) == 0 || len(out.Warnings) == 0 {
		t.Fatalf("expected recommendations and warnings, got %+v", out)
	}
	if !strings.Contains(out.Report, "NON-BINDING") {
		t.Fatalf("report missing footer:\n%s", out.Report)
	}
}

func TestAdviseInvalidTask(t *testing.T) {
	s := newTestServer(t, "")

	_, _, err := s.handleAdvise(context.Background(), &mcpsdk.CallToolRequest{}, AdviseInput{
		FixedDeadlines14d:     0,
		ActiveHighLoadDomains: 0,
		EnergyScoresLast3Days: []int{5, 5, 5},
		Tasks:                 []advisory.Task{{Name: "Essay", Deadline: "tomorrow", Category: "coursework"}},
	})
	var inputErr *advisory.InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected InputError, got %v", err)
	}
}

func TestExecuteAlwaysBlocked(t *testing.T) {
	s := newTestServer(t, "")
	cases := []EvaluateInput{
		{FixedDeadlines14d: 0, ActiveHighLoadDomains: 0, EnergyScoresLast3Days: []int{5, 5, 5}},
		{FixedDeadlines14d: 9, ActiveHighLoadDomains: 9, EnergyScoresLast3Days: []int{1, 1, 1}},
	}
	for _, c := range cases {
		result, out, err := s.handleExecute(context.Background(), &mcpsdk.CallToolRequest{}, ExecuteInput{
			FixedDeadlines14d:     c.FixedDeadlines14d,
			ActiveHighLoadDomains: c.ActiveHighLoadDomains,
			EnergyScoresLast3Days: c.EnergyScoresLast3Days,
			Action:                "send calendar invites",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result == nil || !result.IsError {
			t.Fatal("expected IsError result for execution")
		}
		if !out.Blocked {
			t.Fatal("expected blocked=true")
		}
		if !strings.Contains(out.Reason, "execution disabled") {
			t.Fatalf("unexpected reason %q", out.Reason)
		}
	}
}

func TestToolCallsAreJournaled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	s := newTestServer(t, path)
	ctx := context.Background()

	s.handleEvaluate(ctx, &mcpsdk.CallToolRequest{}, EvaluateInput{
		FixedDeadlines14d: 1, ActiveHighLoadDomains: 1, EnergyScoresLast3Days: []int{4, 4, 4},
	})
	s.handleExecute(ctx, &mcpsdk.CallToolRequest{}, ExecuteInput{
		FixedDeadlines14d: 1, ActiveHighLoadDomains: 1, EnergyScoresLast3Days: []int{4, 4, 4}, Action: "x",
	})
	s.Close()

	res, err := audit.Read(path, audit.Filter{Channel: audit.ChannelMCP})
	if err != nil {
		t.Fatal(err)
	}
	if res.Summary.Total != 2 {
		t.Fatalf("expected 2 journaled evaluations, got %d", res.Summary.Total)
	}
	if v := audit.Verify(path); !v.Valid {
		t.Fatalf("journal chain broken: %s", v.Error)
	}
}
