package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/plo/internal/sim"
)

var (
	simTrace  string
	simFormat string
)

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().StringVar(&simTrace, "trace", "", "Path to evaluation journal (required)")
	simulateCmd.Flags().StringVarP(&simFormat, "format", "f", "text", "Output format (text|json)")
	simulateCmd.MarkFlagRequired("trace")
}

var simulateCmd = &cobra.Command{
	Use:   "simulate --trace <journal> --config <new-config>",
	Short: "Replay journaled metrics against a config and show state changes",
	Long: "Reads a recorded evaluation journal, re-evaluates each metric set against\n" +
		"the --config file, and shows which states and planning permissions changed.\n\n" +
		"Use this to preview threshold changes before adopting them.",
	RunE: runSimulate,
}

func runSimulate(cmd *cobra.Command, args []string) error {
	result, err := sim.Simulate(simTrace, configPath())
	if err != nil {
		return err
	}

	switch simFormat {
	case "json":
		out, err := sim.FormatJSON(result)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
	default:
		fmt.Fprint(cmd.OutOrStdout(), sim.FormatText(result))
	}

	return nil
}
