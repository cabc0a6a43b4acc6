package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/plo/internal/audit"
	"github.com/ppiankov/plo/internal/intake"
	"github.com/ppiankov/plo/internal/tui"
)

var formAuditLog string

func init() {
	rootCmd.AddCommand(formCmd)
	formCmd.Flags().StringVar(&formAuditLog, "audit-log", "", "Append each submitted evaluation to this hash-chained journal")
}

var formCmd = &cobra.Command{
	Use:   "form",
	Short: "Fill in the load metrics in an interactive terminal form",
	RunE:  runForm,
}

func runForm(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	f := tui.New(cfg)
	f.OnEvaluate = func(r intake.Response) {
		if err := journal(formAuditLog, r.Evaluation, audit.ChannelForm, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "audit: %v\n", err)
		}
	}
	if err := f.Run(); err != nil {
		return fmt.Errorf("form error: %w", err)
	}

	if r, ok := f.Response(); ok {
		fmt.Fprint(cmd.OutOrStdout(), r.Text)
	}
	return nil
}
