package mcp

import (
	"context"
	"errors"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/plo/internal/advisory"
	"github.com/ppiankov/plo/internal/core"
	"github.com/ppiankov/plo/internal/execution"
	"github.com/ppiankov/plo/internal/model"
	"github.com/ppiankov/plo/internal/report"
)

// --- Input/Output types ---

// EvaluateInput defines parameters for the plo_evaluate tool.
type EvaluateInput struct {
	FixedDeadlines14d     int   `json:"fixed_deadlines_14d" jsonschema:"fixed deadlines in the next 14 days"`
	ActiveHighLoadDomains int   `json:"active_high_load_domains" jsonschema:"number of active high-load domains"`
	EnergyScoresLast3Days []int `json:"energy_scores_last_3_days" jsonschema:"energy scores (1-5) for each of the last 3 days"`
}

// EvaluateOutput carries the decision and the rendered report.
type EvaluateOutput struct {
	State         string   `json:"state"`
	Reason        string   `json:"reason"`
	Planning      string   `json:"planning"`
	Execution     string   `json:"execution"`
	Mode          string   `json:"mode"`
	ActiveRules   []string `json:"active_rules"`
	RecoveryReady bool     `json:"recovery_ready"`
	Recovery      string   `json:"recovery"`
	Report        string   `json:"report"`
}

// AdviseInput defines parameters for the plo_advise tool.
type AdviseInput struct {
	FixedDeadlines14d     int             `json:"fixed_deadlines_14d" jsonschema:"fixed deadlines in the next 14 days"`
	ActiveHighLoadDomains int             `json:"active_high_load_domains" jsonschema:"number of active high-load domains"`
	EnergyScoresLast3Days []int           `json:"energy_scores_last_3_days" jsonschema:"energy scores (1-5) for each of the last 3 days"`
	Tasks                 []advisory.Task `json:"tasks" jsonschema:"tasks with name, deadline (YYYY-MM-DD) and category"`
	MaxParallelFocus      *int            `json:"max_parallel_focus,omitempty" jsonschema:"maximum tasks to focus on in parallel"`
	NoWorkAfter           string          `json:"no_work_after,omitempty" jsonschema:"daily cutoff as HH:MM"`
}

// AdviseOutput is the advisory result. Blocked is set, with no analysis,
// when the current state denies planning.
type AdviseOutput struct {
	State           string   `json:"state"`
	Blocked         bool     `json:"blocked"`
	Reason          string   `json:"reason"`
	BlockedBy       string   `json:"blocked_by,omitempty"`
	Observations    []string `json:"observations,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
	Report          string   `json:"report"`
}

// ExecuteInput defines parameters for the plo_execute tool.
type ExecuteInput struct {
	FixedDeadlines14d     int    `json:"fixed_deadlines_14d" jsonschema:"fixed deadlines in the next 14 days"`
	ActiveHighLoadDomains int    `json:"active_high_load_domains" jsonschema:"number of active high-load domains"`
	EnergyScoresLast3Days []int  `json:"energy_scores_last_3_days" jsonschema:"energy scores (1-5) for each of the last 3 days"`
	Action                string `json:"action" jsonschema:"description of the action to execute"`
}

// ExecuteOutput reports why execution did not happen.
type ExecuteOutput struct {
	Blocked bool   `json:"blocked"`
	State   string `json:"state"`
	Mode    string `json:"mode"`
	Reason  string `json:"reason"`
}

// --- Handlers ---

func metrics(deadlines, domains int, energy []int) model.Metrics {
	return model.Metrics{
		FixedDeadlines14d:     deadlines,
		ActiveHighLoadDomains: domains,
		EnergyScoresLast3Days: append([]int(nil), energy...),
	}
}

func (s *Server) handleEvaluate(ctx context.Context, req *mcpsdk.CallToolRequest, input EvaluateInput) (*mcpsdk.CallToolResult, EvaluateOutput, error) {
	e, err := core.Evaluate(metrics(input.FixedDeadlines14d, input.ActiveHighLoadDomains, input.EnergyScoresLast3Days), s.cfg)
	if err != nil {
		return nil, EvaluateOutput{}, err
	}
	s.recordAudit(e)

	a := e.Authority
	return nil, EvaluateOutput{
		State:         string(a.State()),
		Reason:        e.Classification.Explanation,
		Planning:      string(a.Planning()),
		Execution:     string(a.Execution()),
		Mode:          string(a.Mode()),
		ActiveRules:   a.ActiveRules(),
		RecoveryReady: e.Recovery.Ready,
		Recovery:      e.Recovery.Rationale,
		Report:        report.FormatText(e),
	}, nil
}

func (s *Server) handleAdvise(ctx context.Context, req *mcpsdk.CallToolRequest, input AdviseInput) (*mcpsdk.CallToolResult, AdviseOutput, error) {
	e, err := core.Evaluate(metrics(input.FixedDeadlines14d, input.ActiveHighLoadDomains, input.EnergyScoresLast3Days), s.cfg)
	if err != nil {
		return nil, AdviseOutput{}, err
	}
	s.recordAudit(e)

	adv, err := e.Advise(input.Tasks, advisory.Constraint{
		MaxParallelFocus: input.MaxParallelFocus,
		NoWorkAfter:      input.NoWorkAfter,
	})
	if err != nil {
		return nil, AdviseOutput{}, err
	}

	out := AdviseOutput{
		State:     string(e.Authority.State()),
		Blocked:   adv.Blocked,
		Reason:    adv.Reason,
		BlockedBy: adv.BlockedBy,
		Report:    report.FormatAdvisory(adv),
	}
	if adv.Output != nil {
		out.Observations = adv.Output.Observations
		out.Recommendations = adv.Output.Recommendations
		out.Warnings = adv.Output.Warnings
	}
	return nil, out, nil
}

func (s *Server) handleExecute(ctx context.Context, req *mcpsdk.CallToolRequest, input ExecuteInput) (*mcpsdk.CallToolResult, ExecuteOutput, error) {
	e, err := core.Evaluate(metrics(input.FixedDeadlines14d, input.ActiveHighLoadDomains, input.EnergyScoresLast3Days), s.cfg)
	if err != nil {
		return nil, ExecuteOutput{}, err
	}
	s.recordAudit(e)

	err = execution.Execute(input.Action, e.Authority)
	var disabled *execution.DisabledError
	if !errors.As(err, &disabled) {
		return nil, ExecuteOutput{}, err
	}
	out := ExecuteOutput{
		Blocked: true,
		State:   disabled.State,
		Mode:    disabled.Mode,
		Reason:  disabled.Error(),
	}
	return &mcpsdk.CallToolResult{IsError: true}, out, nil
}
