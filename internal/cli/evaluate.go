package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/plo/internal/advisory"
	"github.com/ppiankov/plo/internal/audit"
	"github.com/ppiankov/plo/internal/core"
	"github.com/ppiankov/plo/internal/report"
)

var (
	evalMetrics     metricFlags
	evalTasks       string
	evalMaxFocus    int
	evalNoWorkAfter string
	evalFormat      string
	evalAuditLog    string
)

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evalMetrics.register(evaluateCmd)
	evaluateCmd.Flags().StringVar(&evalTasks, "tasks", "", "Tasks for planning advice, ';'-separated (e.g. \"Essay 2026-03-02 [coursework]; Review 2026-03-04\")")
	evaluateCmd.Flags().IntVar(&evalMaxFocus, "max-focus", 0, "Maximum tasks to focus on in parallel (advice constraint)")
	evaluateCmd.Flags().StringVar(&evalNoWorkAfter, "no-work-after", "", "Daily cutoff as HH:MM (advice constraint)")
	evaluateCmd.Flags().StringVarP(&evalFormat, "format", "f", "text", "Output format (text|json)")
	evaluateCmd.Flags().StringVar(&evalAuditLog, "audit-log", "", "Append the evaluation to this hash-chained journal")
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Classify current load and print state, authority, rules and recovery status",
	Long: "Evaluates the three load metrics against the configured thresholds.\n\n" +
		"Pass all of --deadlines, --domains and --energy, or none of them to be\n" +
		"prompted. With --tasks, planning advice is appended when the current\n" +
		"state allows planning; otherwise the advice section reports it as blocked.",
	Example: "  plo evaluate --deadlines 4 --domains 3 --energy 2,2,2\n" +
		"  plo evaluate --deadlines 1 --domains 1 --energy 4,4,5 --tasks \"Essay 2026-03-02 [coursework]\"",
	RunE: runEvaluate,
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	if evalFormat != "text" && evalFormat != "json" {
		return dataError("unknown format %q: use text or json", evalFormat)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	m, ok, err := evalMetrics.metrics(cmd)
	if err != nil {
		return err
	}
	channel := audit.ChannelCLI
	if !ok {
		channel = audit.ChannelPrompt
		m, err = newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()).metrics()
		if err != nil {
			return err
		}
	}

	e, err := core.Evaluate(m, cfg)
	if err != nil {
		return err
	}

	var adv *advisory.Result
	if evalTasks != "" {
		c := advisory.Constraint{NoWorkAfter: evalNoWorkAfter}
		if cmd.Flags().Changed("max-focus") {
			focus := evalMaxFocus
			c.MaxParallelFocus = &focus
		}
		r, err := e.Advise(parseTaskFlag(evalTasks), c)
		if err != nil {
			return err
		}
		adv = &r
	}

	if err := journal(evalAuditLog, e, channel, cfg); err != nil {
		return fmt.Errorf("audit log: %w", err)
	}

	out := cmd.OutOrStdout()
	if evalFormat == "json" {
		s, err := report.FormatJSON(e, adv)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, s)
		return nil
	}
	fmt.Fprint(out, report.FormatFull(e, adv))
	return nil
}
