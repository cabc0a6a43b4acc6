package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/plo/internal/advisory"
	"github.com/ppiankov/plo/internal/audit"
	"github.com/ppiankov/plo/internal/config"
	"github.com/ppiankov/plo/internal/core"
	"github.com/ppiankov/plo/internal/intake"
	"github.com/ppiankov/plo/internal/model"
)

// metricFlags are the three metric inputs shared by evaluate and exec.
type metricFlags struct {
	deadlines int
	domains   int
	energy    string
}

func (f *metricFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.deadlines, "deadlines", 0, "Fixed deadlines in the next 14 days")
	cmd.Flags().IntVar(&f.domains, "domains", 0, "Active high-load domains")
	cmd.Flags().StringVar(&f.energy, "energy", "", "Energy scores for the last 3 days, 1-5 (e.g. 3,4,3)")
}

// metrics returns the flag values. ok is false when no metric flag was
// given; giving only some of them is an input error.
func (f *metricFlags) metrics(cmd *cobra.Command) (m model.Metrics, ok bool, err error) {
	set := 0
	for _, name := range []string{"deadlines", "domains", "energy"} {
		if cmd.Flags().Changed(name) {
			set++
		}
	}
	if set == 0 {
		return model.Metrics{}, false, nil
	}
	if set < 3 {
		return model.Metrics{}, false, dataError("all inputs (--deadlines, --domains, --energy) must be provided together")
	}
	scores, err := model.ParseEnergy(f.energy)
	if err != nil {
		return model.Metrics{}, false, err
	}
	return model.Metrics{
		FixedDeadlines14d:     f.deadlines,
		ActiveHighLoadDomains: f.domains,
		EnergyScoresLast3Days: scores,
	}, true, nil
}

// prompter asks for metrics on a terminal, repeating a question until the
// answer is usable.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(in), out: out}
}

func (p *prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", dataError("input ended before all metrics were entered")
	}
	return strings.TrimSpace(p.in.Text()), nil
}

func (p *prompter) count(question string) (int, error) {
	for {
		raw, err := p.ask(question)
		if err != nil {
			return 0, err
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			fmt.Fprintln(p.out, "Error: Must be a valid integer. Try again.")
			fmt.Fprintln(p.out)
			continue
		}
		if v < 0 {
			fmt.Fprintln(p.out, "Error: Must be a non-negative integer. Try again.")
			fmt.Fprintln(p.out)
			continue
		}
		return v, nil
	}
}

func (p *prompter) energy(question string) ([]int, error) {
	for {
		raw, err := p.ask(question)
		if err != nil {
			return nil, err
		}
		scores, err := model.ParseEnergy(raw)
		if err != nil {
			fmt.Fprintln(p.out, "Error: Must be valid integers. Try again.")
			fmt.Fprintln(p.out)
			continue
		}
		m := model.Metrics{EnergyScoresLast3Days: scores}
		if err := m.Validate(); err != nil {
			if len(scores) != model.EnergyDays {
				fmt.Fprintf(p.out, "Error: Must provide exactly %d scores. Try again.\n\n", model.EnergyDays)
			} else {
				fmt.Fprintf(p.out, "Error: All scores must be between %d and %d. Try again.\n\n", model.MinEnergy, model.MaxEnergy)
			}
			continue
		}
		return scores, nil
	}
}

// metrics runs the three prompts in order.
func (p *prompter) metrics() (model.Metrics, error) {
	fmt.Fprintln(p.out, "Please provide the following information:")
	fmt.Fprintln(p.out)

	deadlines, err := p.count("Number of fixed deadlines in next 14 days: ")
	if err != nil {
		return model.Metrics{}, err
	}
	domains, err := p.count("Number of active high-load domains: ")
	if err != nil {
		return model.Metrics{}, err
	}
	energy, err := p.energy("Energy scores for last 3 days (1-5, space or comma separated): ")
	if err != nil {
		return model.Metrics{}, err
	}
	fmt.Fprintln(p.out)
	return model.Metrics{
		FixedDeadlines14d:     deadlines,
		ActiveHighLoadDomains: domains,
		EnergyScoresLast3Days: energy,
	}, nil
}

// parseTaskFlag reads ';'-separated task lines.
func parseTaskFlag(raw string) []advisory.Task {
	return intake.ParseTasks(strings.ReplaceAll(raw, ";", "\n"))
}

// journal appends e to the audit log at path. An empty path disables it.
func journal(path string, e core.Evaluation, channel string, cfg *config.Config) error {
	if path == "" {
		return nil
	}
	log, err := audit.Open(path)
	if err != nil {
		return err
	}
	defer log.Close()
	return log.Record(audit.NewEntry(e, channel, cfg.Hash()))
}
