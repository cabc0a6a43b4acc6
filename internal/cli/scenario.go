package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/plo/internal/config"
	"github.com/ppiankov/plo/internal/integrity"
	"github.com/ppiankov/plo/internal/scenario"
	"github.com/ppiankov/plo/internal/watch"
)

// defaultScenarioDir is used when no scenario paths are given.
const defaultScenarioDir = "scenarios"

var (
	scenarioName    string
	scenarioFormat  string
	scenarioVerbose bool
)

func init() {
	rootCmd.AddCommand(scenarioCmd)
	scenarioCmd.AddCommand(scenarioRunCmd)
	scenarioCmd.AddCommand(scenarioRunAllCmd)
	scenarioCmd.AddCommand(scenarioValidateCmd)
	scenarioCmd.AddCommand(scenarioWatchCmd)

	scenarioRunCmd.Flags().StringVar(&scenarioName, "name", "", "Scenario name (required)")
	scenarioRunCmd.MarkFlagRequired("name")
	for _, c := range []*cobra.Command{scenarioRunAllCmd, scenarioWatchCmd} {
		c.Flags().StringVarP(&scenarioFormat, "format", "f", "text", "Output format (text|json)")
		c.Flags().BoolVarP(&scenarioVerbose, "verbose", "v", false, "Print the full report for every scenario")
	}
}

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Run and validate scenario files",
	Long: "Scenario files (.yaml, .yml, .json) hold named metric sets under 'scenarios'\n" +
		"and 'advisory_scenarios', with optional expected outcomes. Paths may be files\n" +
		"or directories; the default is ./" + defaultScenarioDir + ".",
}

var scenarioRunCmd = &cobra.Command{
	Use:   "run --name <name> [paths...]",
	Short: "Run one named scenario and print its report",
	RunE:  runScenarioRun,
}

var scenarioRunAllCmd = &cobra.Command{
	Use:   "run-all [paths...]",
	Short: "Run every scenario and check expected outcomes",
	Long:  "Runs every scenario in order, each with a fresh evaluation.\nExits 1 if any expectation does not hold.",
	RunE:  runScenarioRunAll,
}

var scenarioValidateCmd = &cobra.Command{
	Use:         "validate [paths...]",
	Short:       "Check scenario files for structural errors without running them",
	Annotations: noIntegrity,
	RunE:        runScenarioValidate,
}

var scenarioWatchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Re-run every scenario when a scenario file or the config changes",
	RunE:  runScenarioWatch,
}

func scenarioPaths(args []string) []string {
	if len(args) == 0 {
		return []string{defaultScenarioDir}
	}
	return args
}

func runScenarioRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sets, files, err := scenario.LoadAll(scenarioPaths(args))
	if err != nil {
		return err
	}

	for _, f := range files {
		s, ok := scenario.Find(sets[f], scenarioName)
		if !ok {
			continue
		}
		r := scenario.Run(s, cfg)
		out := cmd.OutOrStdout()
		fmt.Fprint(out, scenario.Describe(r))
		if s.Expected == nil {
			return nil
		}
		if r.Passed {
			fmt.Fprintf(out, "\nPASS  %s\n", r.Name)
			return nil
		}
		fmt.Fprintf(out, "\nFAIL  %s\n", r.Name)
		for _, m := range r.Mismatches {
			fmt.Fprintf(out, "  %-18s expected %s, got %s\n", m.Field, m.Expected, m.Actual)
		}
		return &exitError{code: exitFailure, err: fmt.Errorf("scenario %q failed", r.Name)}
	}
	return dataError("scenario %q not found in %d file(s)", scenarioName, len(files))
}

func runScenarioRunAll(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return runScenarios(cmd.OutOrStdout(), scenarioPaths(args), cfg)
}

// runScenarios runs every file under paths and prints the results.
func runScenarios(out io.Writer, paths []string, cfg *config.Config) error {
	sets, files, err := scenario.LoadAll(paths)
	if err != nil {
		return err
	}

	var results []*scenario.FileResult
	failed := 0
	for _, f := range files {
		fr := scenario.RunAll(f, sets[f], cfg)
		failed += fr.Failed
		results = append(results, fr)
	}

	if scenarioFormat == "json" {
		s, err := scenario.FormatJSON(results)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, s)
	} else {
		if scenarioVerbose {
			for _, fr := range results {
				for _, r := range fr.Results {
					fmt.Fprintln(out, scenario.Describe(r))
				}
			}
		}
		fmt.Fprint(out, scenario.FormatText(results))
	}

	if failed > 0 {
		return &exitError{code: exitFailure, err: fmt.Errorf("%d scenario(s) failed", failed)}
	}
	return nil
}

func runScenarioValidate(cmd *cobra.Command, args []string) error {
	sets, files, err := scenario.LoadAll(scenarioPaths(args))
	if err != nil {
		return err
	}
	total := 0
	for _, f := range files {
		fmt.Fprintf(cmd.OutOrStdout(), "OK  %s (%d scenarios)\n", f, len(sets[f]))
		total += len(sets[f])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d scenarios in %d file(s) are valid.\n", total, len(files))
	return nil
}

func runScenarioWatch(cmd *cobra.Command, args []string) error {
	paths := scenarioPaths(args)
	out := cmd.OutOrStdout()

	rerun := func() {
		err := integrity.Verify(configPath())
		if err == nil {
			var cfg *config.Config
			if cfg, err = loadConfig(); err == nil {
				err = runScenarios(out, paths, cfg)
			}
		}
		var exitErr *exitError
		if err != nil && !errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "scenario: %v\n", err)
		}
		fmt.Fprintln(out)
	}
	rerun()

	w, err := watch.New(append([]string{configPath()}, paths...), rerun)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fmt.Fprintf(os.Stderr, "Watching %d path(s) for changes (Ctrl-C to stop)\n", w.Watched())
	return w.Run(ctx)
}
