package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/plo/internal/config"
	"github.com/ppiankov/plo/internal/integrity"
	"github.com/ppiankov/plo/internal/scenario"
)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:         "doctor",
	Short:       "Check configuration, pin and scenarios, and report threshold warnings",
	Annotations: noIntegrity,
	RunE:        runDoctor,
}

type checkResult struct {
	label  string
	ok     bool
	warn   bool
	detail string
	fix    string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	return printChecks(cmd.OutOrStdout(), doctorChecks(configPath()))
}

func doctorChecks(path string) []checkResult {
	var checks []checkResult

	// 1. Binary location and version.
	execPath, _ := os.Executable()
	if execPath == "" {
		execPath = "unknown path"
	}
	checks = append(checks, checkResult{
		label:  "plo binary",
		ok:     true,
		detail: fmt.Sprintf("%s (v%s)", execPath, version),
	})

	// 2. Config file.
	cfg, err := config.Load(path)
	switch {
	case err == nil:
		checks = append(checks, checkResult{
			label:  "config",
			ok:     true,
			detail: fmt.Sprintf("%s (version %d)", path, cfg.Version),
		})
	case !fileExists(path):
		checks = append(checks, checkResult{
			label:  "config",
			detail: path + " missing",
			fix:    "plo init",
		})
	default:
		checks = append(checks, checkResult{
			label:  "config",
			detail: err.Error(),
		})
	}

	// 3. Threshold consistency. Warnings only.
	if cfg != nil {
		warnings := cfg.Consistency()
		if len(warnings) == 0 {
			checks = append(checks, checkResult{
				label:  "thresholds",
				ok:     true,
				detail: "recovery is stricter than overload",
			})
		}
		for _, w := range warnings {
			checks = append(checks, checkResult{
				label:  "thresholds",
				ok:     true,
				warn:   true,
				detail: w,
			})
		}
	}

	// 4. Pin.
	if fileExists(path) {
		st, err := integrity.Check(path)
		switch {
		case err != nil:
			checks = append(checks, checkResult{
				label:  "pin",
				detail: err.Error(),
				fix:    "plo pin",
			})
		case !st.Pinned:
			checks = append(checks, checkResult{
				label:  "pin",
				ok:     true,
				warn:   true,
				detail: "not pinned",
				fix:    "plo pin",
			})
		case st.Match:
			checks = append(checks, checkResult{
				label:  "pin",
				ok:     true,
				detail: st.Expected,
			})
		default:
			checks = append(checks, checkResult{
				label:  "pin",
				detail: fmt.Sprintf("config changed since pinned (expected %s, got %s)", st.Expected, st.Actual),
				fix:    "plo pin (only if the change was intended)",
			})
		}
	}

	// 5. Scenarios, when the default directory exists.
	if fileExists(defaultScenarioDir) {
		sets, files, err := scenario.LoadAll([]string{defaultScenarioDir})
		if err != nil {
			checks = append(checks, checkResult{
				label:  "scenarios",
				detail: err.Error(),
			})
		} else {
			total := 0
			for _, f := range files {
				total += len(sets[f])
			}
			checks = append(checks, checkResult{
				label:  "scenarios",
				ok:     true,
				detail: fmt.Sprintf("%d in %d file(s)", total, len(files)),
			})
		}
	}

	return checks
}

func printChecks(out io.Writer, checks []checkResult) error {
	hasFailures := false
	for _, c := range checks {
		mark := "\u2713" // ✓
		switch {
		case !c.ok:
			mark = "\u2717" // ✗
			hasFailures = true
		case c.warn:
			mark = "!"
		}
		line := fmt.Sprintf("%s %-20s %s", mark, c.label+":", c.detail)
		if (!c.ok || c.warn) && c.fix != "" {
			line += fmt.Sprintf("  ->  %s", c.fix)
		}
		fmt.Fprintln(out, line)
	}

	if hasFailures {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Some checks failed. Run the suggested commands to fix.")
		return fmt.Errorf("doctor found issues")
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "All checks passed.")
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
