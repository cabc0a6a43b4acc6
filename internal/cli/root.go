package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/plo/internal/advisory"
	"github.com/ppiankov/plo/internal/config"
	"github.com/ppiankov/plo/internal/execution"
	"github.com/ppiankov/plo/internal/intake"
	"github.com/ppiankov/plo/internal/integrity"
	"github.com/ppiankov/plo/internal/model"
	"github.com/ppiankov/plo/internal/scenario"
	"github.com/ppiankov/plo/internal/tui"
)

// Process exit codes (sysexits.h).
const (
	exitFailure     = 1
	exitDataErr     = 65 // EX_DATAERR
	exitUnavailable = 69 // EX_UNAVAILABLE
	exitConfig      = 78 // EX_CONFIG
)

// skipIntegrity marks commands that must run even when the pinned config
// does not match, or that never read it.
const skipIntegrity = "plo/skip-integrity"

var configFlag string

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config YAML (default $PLO_CONFIG, then "+config.DefaultPath+")")
}

var rootCmd = &cobra.Command{
	Use:   "plo",
	Short: "Personal load orchestrator: classify load, derive authority, contain planning",
	Long: "Classifies self-reported load into NORMAL, STRESSED or OVERLOADED, derives what\n" +
		"the system may do from that state, and gates planning advice behind it.\n" +
		"Execution is disabled in this version.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipIntegrity] != "" {
			return nil
		}
		return integrity.Verify(configPath())
	},
}

var noIntegrity = map[string]string{skipIntegrity: "true"}

// Execute runs the root command and exits with a code that reflects the
// kind of failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var parseErr *intake.ParseError
		if errors.As(err, &parseErr) {
			fmt.Fprintln(os.Stderr, parseErr.Error())
		} else {
			fmt.Fprintf(os.Stderr, "plo: %v\n", err)
		}
		os.Exit(exitCode(err))
	}
}

// configPath resolves --config, then PLO_CONFIG, then the default.
func configPath() string {
	if configFlag != "" {
		return configFlag
	}
	if env := os.Getenv("PLO_CONFIG"); env != "" {
		return env
	}
	return config.DefaultPath
}

// loadConfig loads the active config and prints consistency warnings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, err
	}
	for _, w := range cfg.Consistency() {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	return cfg, nil
}

// exitError carries an explicit exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func dataError(format string, args ...any) error {
	return &exitError{code: exitDataErr, err: fmt.Errorf(format, args...)}
}

func exitCode(err error) int {
	var (
		exitErr     *exitError
		cfgErr      *config.Error
		tamperErr   *integrity.TamperError
		metricsErr  *model.InvalidMetricsError
		adviseErr   *advisory.InputError
		parseErr    *intake.ParseError
		scenarioErr *scenario.Error
		formErr     *tui.InputError
	)
	switch {
	case errors.As(err, &exitErr):
		return exitErr.code
	case errors.Is(err, execution.ErrDisabled):
		return exitUnavailable
	case errors.As(err, &cfgErr), errors.As(err, &tamperErr):
		return exitConfig
	case errors.As(err, &metricsErr), errors.As(err, &adviseErr),
		errors.As(err, &parseErr), errors.As(err, &scenarioErr), errors.As(err, &formErr):
		return exitDataErr
	}
	return exitFailure
}
