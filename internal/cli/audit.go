package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/plo/internal/audit"
	"github.com/ppiankov/plo/internal/model"
)

var (
	tailLines   int
	tailChannel string
	tailState   string
	tailSince   string
	tailFormat  string
)

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditTailCmd)
	auditTailCmd.Flags().IntVarP(&tailLines, "lines", "n", 10, "Number of recent entries to show (0 for all)")
	auditTailCmd.Flags().StringVar(&tailChannel, "channel", "", "Only entries from this channel (cli, prompt, issue, form, mcp)")
	auditTailCmd.Flags().StringVar(&tailState, "state", "", "Only entries in this state (NORMAL, STRESSED, OVERLOADED)")
	auditTailCmd.Flags().StringVar(&tailSince, "since", "", "Only entries newer than this duration (e.g. 72h)")
	auditTailCmd.Flags().StringVarP(&tailFormat, "format", "f", "text", "Output format (text|json)")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Evaluation journal operations",
	Long:  "Commands for verifying and inspecting the hash-chained evaluation journal\nwritten by --audit-log.",
}

var auditVerifyCmd = &cobra.Command{
	Use:         "verify <path>",
	Short:       "Verify hash chain integrity of a journal",
	Long:        "Walks the JSONL journal and validates that every entry's prev_hash\nmatches the SHA-256 of the previous entry. Exits 0 if valid, 1 if tampered.",
	Args:        cobra.ExactArgs(1),
	Annotations: noIntegrity,
	RunE:        runAuditVerify,
}

var auditTailCmd = &cobra.Command{
	Use:         "tail <path>",
	Short:       "Show recent journal entries with a state summary",
	Args:        cobra.ExactArgs(1),
	Annotations: noIntegrity,
	RunE:        runAuditTail,
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	result := audit.Verify(args[0])
	if result.Valid {
		fmt.Fprintf(cmd.OutOrStdout(), "OK: %d entries verified\n", result.Lines)
		return nil
	}
	return fmt.Errorf("FAILED at line %d: %s", result.ErrorLine, result.Error)
}

func runAuditTail(cmd *cobra.Command, args []string) error {
	filter := audit.Filter{Channel: tailChannel, Last: tailLines}
	if tailState != "" {
		state, err := model.ParseState(tailState)
		if err != nil {
			return dataError("--state: %v", err)
		}
		filter.State = string(state)
	}
	if tailSince != "" {
		d, err := time.ParseDuration(tailSince)
		if err != nil {
			return dataError("--since: %v", err)
		}
		filter.From = time.Now().UTC().Add(-d)
	}

	result, err := audit.Read(args[0], filter)
	if err != nil {
		return err
	}

	if tailFormat == "json" {
		s, err := audit.FormatJSON(result)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), s)
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), audit.FormatTimeline(result))
	return nil
}
