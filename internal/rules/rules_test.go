package rules

import (
	"reflect"
	"testing"

	"github.com/ppiankov/plo/internal/config"
	"github.com/ppiankov/plo/internal/model"
)

func TestNormalHasNoRules(t *testing.T) {
	got := For(model.Normal, config.Default())
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", got)
	}
}

func TestNormalIgnoresConfiguredList(t *testing.T) {
	cfg, err := config.Parse([]byte(`
thresholds:
  overload: {fixed_deadlines_14d: 3, active_high_load_domains: 3, avg_energy_score: 2}
  recovery: {fixed_deadlines_14d: 1, active_high_load_domains: 1, avg_energy_score: 4}
downgrade_rules:
  OVERLOADED: ["a"]
  STRESSED: ["b"]
  NORMAL: ["should never appear"]
`))
	if err != nil {
		t.Fatal(err)
	}
	if got := For(model.Normal, cfg); len(got) != 0 {
		t.Errorf("NORMAL must have no rules, got %v", got)
	}
}

func TestRulesVerbatim(t *testing.T) {
	cfg := config.Default()
	want := []string{"No new commitments", "Pause technical tool development", "Defer every non-fixed deadline"}
	if got := For(model.Overloaded, cfg); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	want = []string{"Warning: approaching overload", "Discourage new projects"}
	if got := For(model.Stressed, cfg); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestEmptyConfiguredList(t *testing.T) {
	cfg, err := config.Parse([]byte(`
thresholds:
  overload: {fixed_deadlines_14d: 3, active_high_load_domains: 3, avg_energy_score: 2}
  recovery: {fixed_deadlines_14d: 1, active_high_load_domains: 1, avg_energy_score: 4}
downgrade_rules:
  OVERLOADED: []
  STRESSED: []
`))
	if err != nil {
		t.Fatal(err)
	}
	if got := For(model.Overloaded, cfg); got == nil || len(got) != 0 {
		t.Errorf("expected empty list, got %#v", got)
	}
}
