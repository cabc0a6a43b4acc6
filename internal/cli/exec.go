package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/plo/internal/core"
	"github.com/ppiankov/plo/internal/execution"
)

var execMetrics metricFlags

func init() {
	rootCmd.AddCommand(execCmd)
	execMetrics.register(execCmd)
}

var execCmd = &cobra.Command{
	Use:   "exec [flags] -- <action> [args...]",
	Short: "Request execution of an action (disabled in this version)",
	Long: "Evaluates current load and hands the action to the execution layer, which\n" +
		"is disabled: the action is never run. Exit code 69 indicates the block.",
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func runExec(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	m, ok, err := execMetrics.metrics(cmd)
	if err != nil {
		return err
	}
	if !ok {
		return dataError("exec needs --deadlines, --domains and --energy to derive authority")
	}

	e, err := core.Evaluate(m, cfg)
	if err != nil {
		return err
	}
	return execution.Execute(strings.Join(args, " "), e.Authority)
}
