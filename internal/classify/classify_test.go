package classify

import (
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/plo/internal/config"
	"github.com/ppiankov/plo/internal/model"
)

func metrics(deadlines, domains int, energy ...int) model.Metrics {
	return model.Metrics{
		FixedDeadlines14d:     deadlines,
		ActiveHighLoadDomains: domains,
		EnergyScoresLast3Days: energy,
	}
}

func TestNormalScenario(t *testing.T) {
	r, err := Classify(metrics(1, 1, 4, 4, 5), config.Default())
	if err != nil {
		t.Fatal(err)
	}
	if r.State != model.Normal {
		t.Errorf("expected NORMAL, got %s", r.State)
	}
	if len(r.ConditionsMet) != 0 {
		t.Errorf("expected no conditions met, got %v", r.ConditionsMet)
	}
}

func TestOverloadedScenario(t *testing.T) {
	r, err := Classify(metrics(4, 3, 2, 2, 2), config.Default())
	if err != nil {
		t.Fatal(err)
	}
	if r.State != model.Overloaded {
		t.Errorf("expected OVERLOADED, got %s", r.State)
	}
	want := []string{
		"Fixed deadlines (4) >= threshold (3)",
		"High-load domains (3) >= threshold (3)",
		"Average energy (2) <= threshold (2)",
	}
	if len(r.ConditionsMet) != len(want) {
		t.Fatalf("expected 3 conditions, got %v", r.ConditionsMet)
	}
	for i := range want {
		if r.ConditionsMet[i] != want[i] {
			t.Errorf("condition %d: got %q, want %q", i, r.ConditionsMet[i], want[i])
		}
	}
}

func TestStressedScenario(t *testing.T) {
	r, err := Classify(metrics(3, 1, 3, 3, 3), config.Default())
	if err != nil {
		t.Fatal(err)
	}
	if r.State != model.Stressed {
		t.Errorf("expected STRESSED, got %s", r.State)
	}
	if len(r.ConditionsMet) != 1 || r.ConditionsMet[0] != "Fixed deadlines (3) >= threshold (3)" {
		t.Errorf("expected only the deadlines condition, got %v", r.ConditionsMet)
	}
}

func TestEnergyListTooShort(t *testing.T) {
	_, err := Classify(metrics(1, 1, 4, 4), config.Default())
	var merr *model.InvalidMetricsError
	if !errors.As(err, &merr) {
		t.Fatalf("expected InvalidMetricsError, got %v", err)
	}
	if merr.Field != model.FieldEnergy {
		t.Errorf("expected energy field, got %q", merr.Field)
	}
}

func TestOutOfRangeMetrics(t *testing.T) {
	cases := []struct {
		m     model.Metrics
		field string
	}{
		{metrics(-1, 0, 3, 3, 3), model.FieldDeadlines},
		{metrics(0, -2, 3, 3, 3), model.FieldDomains},
		{metrics(0, 0, 3, 6, 3), model.FieldEnergy + "[1]"},
		{metrics(0, 0, 0, 3, 3), model.FieldEnergy + "[0]"},
		{metrics(0, 0), model.FieldEnergy},
	}
	for _, c := range cases {
		_, err := Classify(c.m, config.Default())
		var merr *model.InvalidMetricsError
		if !errors.As(err, &merr) {
			t.Fatalf("%+v: expected InvalidMetricsError, got %v", c.m, err)
		}
		if merr.Field != c.field {
			t.Errorf("%+v: expected field %q, got %q", c.m, c.field, merr.Field)
		}
	}
}

func TestNilConfig(t *testing.T) {
	_, err := Classify(metrics(1, 1, 3, 3, 3), nil)
	var cerr *config.Error
	if !errors.As(err, &cerr) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestCountToStateMapping(t *testing.T) {
	want := map[int]model.OperatingState{0: model.Normal, 1: model.Stressed, 2: model.Overloaded, 3: model.Overloaded}
	for n, s := range want {
		if got := StateFor(n); got != s {
			t.Errorf("StateFor(%d) = %s, want %s", n, got, s)
		}
	}
}

// TestClassificationTotality walks every valid energy combination over a grid of
// counts and checks the count-to-state mapping holds at every boundary.
func TestClassificationTotality(t *testing.T) {
	cfg := config.Default()
	for deadlines := 0; deadlines <= 5; deadlines++ {
		for domains := 0; domains <= 5; domains++ {
			for a := model.MinEnergy; a <= model.MaxEnergy; a++ {
				for b := model.MinEnergy; b <= model.MaxEnergy; b++ {
					for c := model.MinEnergy; c <= model.MaxEnergy; c++ {
						m := metrics(deadlines, domains, a, b, c)
						r, err := Classify(m, cfg)
						if err != nil {
							t.Fatalf("%+v: %v", m, err)
						}
						met := 0
						if deadlines >= 3 {
							met++
						}
						if domains >= 3 {
							met++
						}
						if float64(a+b+c)/3 <= 2 {
							met++
						}
						if r.State != StateFor(met) {
							t.Fatalf("%+v: got %s, want %s", m, r.State, StateFor(met))
						}
						if len(r.ConditionsMet) != met {
							t.Fatalf("%+v: got %d conditions, want %d", m, len(r.ConditionsMet), met)
						}
					}
				}
			}
		}
	}
}

func TestExplanationNamesEveryCondition(t *testing.T) {
	r, err := Classify(metrics(3, 1, 3, 3, 4), config.Default())
	if err != nil {
		t.Fatal(err)
	}
	want := "1 of 3 overload conditions met\n" +
		"  [met]     Fixed deadlines (3) >= threshold (3)\n" +
		"  [not met] High-load domains (1) < threshold (3)\n" +
		"  [not met] Average energy (3.33) > threshold (2)"
	if r.Explanation != want {
		t.Errorf("explanation mismatch:\ngot:\n%s\nwant:\n%s", r.Explanation, want)
	}
}

func TestDeterministic(t *testing.T) {
	cfg := config.Default()
	m := metrics(4, 2, 2, 3, 2)
	first, err := Classify(m, cfg)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 50; i++ {
		r, _ := Classify(m, cfg)
		if r.Explanation != first.Explanation || r.State != first.State {
			t.Fatal("classification is not deterministic")
		}
	}
}

func TestFormatValue(t *testing.T) {
	cases := map[float64]string{2: "2", 7.0 / 3: "2.33", 14.0 / 3: "4.67", 2.5: "2.5"}
	for v, want := range cases {
		if got := FormatValue(v); got != want {
			t.Errorf("FormatValue(%v) = %q, want %q", v, got, want)
		}
	}
	if !strings.Contains(Condition{Name: "x", Value: 1, Threshold: 2, Operator: ">="}.String(), "<") {
		t.Error("unmet >= condition should render with <")
	}
}
