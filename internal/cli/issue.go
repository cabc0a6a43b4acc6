package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/plo/internal/audit"
	"github.com/ppiankov/plo/internal/intake"
)

var (
	issueFile     string
	issueFence    bool
	issueAuditLog string
)

func init() {
	rootCmd.AddCommand(issueCmd)
	issueCmd.Flags().StringVar(&issueFile, "file", "", "Read the issue body from this file")
	issueCmd.Flags().BoolVar(&issueFence, "fence", false, "Wrap the reply in a code fence for posting as a comment")
	issueCmd.Flags().StringVar(&issueAuditLog, "audit-log", "", "Append the evaluation to this hash-chained journal")
}

var issueCmd = &cobra.Command{
	Use:   "issue [body]",
	Short: "Evaluate a templated issue body and print the reply",
	Long: "Reads an issue body with '### ' sections for deadlines, high-load domains,\n" +
		"energy and optional tasks, evaluates it, and prints the reply.\n\n" +
		"The body comes from the argument, --file, or stdin, in that order.",
	Args: cobra.MaximumNArgs(1),
	RunE: runIssue,
}

func runIssue(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	body, err := readIssueBody(cmd, args)
	if err != nil {
		return err
	}

	issue, err := intake.ParseIssue(body)
	if err != nil {
		return err
	}
	resp, err := intake.Respond(issue, cfg)
	if err != nil {
		return err
	}

	if err := journal(issueAuditLog, resp.Evaluation, audit.ChannelIssue, cfg); err != nil {
		return fmt.Errorf("audit log: %w", err)
	}

	out := resp.Text
	if issueFence {
		out = intake.FenceForIssue(out) + "\n"
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func readIssueBody(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if issueFile != "" {
		data, err := os.ReadFile(issueFile)
		if err != nil {
			return "", fmt.Errorf("read issue body: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read issue body: %w", err)
	}
	return string(data), nil
}
