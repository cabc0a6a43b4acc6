// Package core composes the decision pipeline: classify, look up rules,
// derive authority, check recovery. Each call is independent; nothing is
// cached or shared between evaluations except the read-only Config.
package core

import (
	"fmt"

	"github.com/ppiankov/plo/internal/advisory"
	"github.com/ppiankov/plo/internal/authority"
	"github.com/ppiankov/plo/internal/classify"
	"github.com/ppiankov/plo/internal/config"
	"github.com/ppiankov/plo/internal/model"
	"github.com/ppiankov/plo/internal/recovery"
	"github.com/ppiankov/plo/internal/rules"
)

// Evaluation is the full outcome of one pass through the pipeline.
type Evaluation struct {
	Metrics        model.Metrics       `json:"metrics"`
	Classification classify.Result     `json:"classification"`
	Authority      authority.Authority `json:"authority"`
	Recovery       recovery.Result     `json:"recovery"`
}

// Evaluate runs the pipeline for m under cfg. Configuration and metrics
// problems are returned before any classification happens.
func Evaluate(m model.Metrics, cfg *config.Config) (Evaluation, error) {
	if cfg == nil {
		return Evaluation{}, &config.Error{Problem: "no configuration supplied"}
	}
	m = m.Clone()

	cls, err := classify.Classify(m, cfg)
	if err != nil {
		return Evaluation{}, err
	}

	auth := authority.Derive(cls.State, rules.For(cls.State, cfg))

	rec, err := recovery.Check(m, cls.State, cfg)
	if err != nil {
		return Evaluation{}, fmt.Errorf("recovery check: %w", err)
	}

	return Evaluation{
		Metrics:        m,
		Classification: cls,
		Authority:      auth,
		Recovery:       rec,
	}, nil
}

// Advise runs the advisory layer under the evaluation's authority.
func (e Evaluation) Advise(tasks []advisory.Task, c advisory.Constraint) (advisory.Result, error) {
	return advisory.Advise(tasks, c, e.Authority)
}
