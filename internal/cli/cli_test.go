package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ppiankov/plo/internal/audit"
	"github.com/ppiankov/plo/internal/authority"
	"github.com/ppiankov/plo/internal/config"
	"github.com/ppiankov/plo/internal/execution"
	"github.com/ppiankov/plo/internal/intake"
	"github.com/ppiankov/plo/internal/integrity"
	"github.com/ppiankov/plo/internal/model"
)

// resetFlags restores every flag in the tree to its default, since flag
// values are package state shared across Execute calls.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("PLO_CONFIG", "")
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEvaluateWithFlags(t *testing.T) {
	cfg := writeConfig(t, config.DefaultYAML())
	out, err := runCLI(t, "", "evaluate", "--config", cfg, "--deadlines", "4", "--domains", "3", "--energy", "2,2,2")
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	for _, want := range []string{
		"=== Personal Load Orchestrator ===",
		"Current State: OVERLOADED",
		"Planning Permission: DENIED",
		"Execution Permission: DENIED",
		"Authority Mode: CONTAINMENT",
		"  - No new commitments",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEvaluatePartialFlags(t *testing.T) {
	cfg := writeConfig(t, config.DefaultYAML())
	_, err := runCLI(t, "", "evaluate", "--config", cfg, "--deadlines", "4")
	if err == nil {
		t.Fatal("expected error for partial flags")
	}
	if code := exitCode(err); code != exitDataErr {
		t.Fatalf("expected exit %d, got %d", exitDataErr, code)
	}
}

func TestEvaluateInvalidEnergy(t *testing.T) {
	cfg := writeConfig(t, config.DefaultYAML())
	_, err := runCLI(t, "", "evaluate", "--config", cfg, "--deadlines", "1", "--domains", "1", "--energy", "4,6,4")
	var invalid *model.InvalidMetricsError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidMetricsError, got %v", err)
	}
	if code := exitCode(err); code != exitDataErr {
		t.Fatalf("expected exit %d, got %d", exitDataErr, code)
	}
}

func TestEvaluatePrompts(t *testing.T) {
	cfg := writeConfig(t, config.DefaultYAML())
	stdin := "abc\n4\n-1\n3\n2 2\n2 2 7\n2 2 2\n"
	out, err := runCLI(t, stdin, "evaluate", "--config", cfg)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	for _, want := range []string{
		"Must be a valid integer",
		"Must be a non-negative integer",
		"Must provide exactly 3 scores",
		"All scores must be between 1 and 5",
		"Current State: OVERLOADED",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEvaluatePromptsEndOfInput(t *testing.T) {
	cfg := writeConfig(t, config.DefaultYAML())
	_, err := runCLI(t, "3\n", "evaluate", "--config", cfg)
	if code := exitCode(err); code != exitDataErr {
		t.Fatalf("expected exit %d on short input, got %d (%v)", exitDataErr, code, err)
	}
}

func TestEvaluateJSONWithTasks(t *testing.T) {
	cfg := writeConfig(t, config.DefaultYAML())
	out, err := runCLI(t, "", "evaluate", "--config", cfg,
		"--deadlines", "1", "--domains", "1", "--energy", "4,4,5",
		"--tasks", "Essay 2026-03-02 [coursework]; Review 2026-03-02 [work]",
		"--max-focus", "1", "--format", "json")
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	adv, ok := doc["advisory"].(map[string]any)
	if !ok {
		t.Fatalf("missing advisory section: %s", out)
	}
	if adv["blocked"] != false {
		t.Fatalf("advice should be allowed in NORMAL: %v", adv)
	}
}

func TestEvaluateTasksBlockedUnderContainment(t *testing.T) {
	cfg := writeConfig(t, config.DefaultYAML())
	out, err := runCLI(t, "", "evaluate", "--config", cfg,
		"--deadlines", "3", "--domains", "1", "--energy", "3,3,3",
		"--tasks", "Essay 2026-03-02")
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if !strings.Contains(out, "ADVICE BLOCKED\nReason: Planning forbidden by Decision Core") {
		t.Fatalf("expected blocked advice:\n%s", out)
	}
}

func TestEvaluateAuditLog(t *testing.T) {
	cfg := writeConfig(t, config.DefaultYAML())
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")
	for i := 0; i < 2; i++ {
		if _, err := runCLI(t, "", "evaluate", "--config", cfg, "--audit-log", logPath,
			"--deadlines", "1", "--domains", "1", "--energy", "4,4,4"); err != nil {
			t.Fatal(err)
		}
	}
	if v := audit.Verify(logPath); !v.Valid || v.Lines != 2 {
		t.Fatalf("expected 2 verified entries, got %+v", v)
	}

	out, err := runCLI(t, "", "audit", "verify", logPath)
	if err != nil || !strings.Contains(out, "OK: 2 entries verified") {
		t.Fatalf("audit verify: %v\n%s", err, out)
	}

	out, err = runCLI(t, "", "audit", "tail", logPath, "--channel", "cli", "--state", "NORMAL")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Contained: 0 of 2") {
		t.Fatalf("unexpected timeline:\n%s", out)
	}
}

func TestExecAlwaysBlocked(t *testing.T) {
	cfg := writeConfig(t, config.DefaultYAML())
	_, err := runCLI(t, "", "exec", "--config", cfg, "--deadlines", "0", "--domains", "0", "--energy", "5,5,5", "--", "send", "invites")
	if !errors.Is(err, execution.ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
	if code := exitCode(err); code != exitUnavailable {
		t.Fatalf("expected exit %d, got %d", exitUnavailable, code)
	}
	if !strings.Contains(err.Error(), "action=send invites") {
		t.Fatalf("error should name the action: %v", err)
	}
}

func TestIssueSuppressedUnderContainment(t *testing.T) {
	cfg := writeConfig(t, config.DefaultYAML())
	body := "### Non-movable deadlines\n4\n\n### Active high-load domains\n3\n\n### Energy\n2,2,2\n\n### Tasks\nEssay due 2026-03-02 [coursework]\n"
	out, err := runCLI(t, "", "issue", "--config", cfg, "--fence", body)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if !strings.HasPrefix(out, "```\n") || !strings.Contains(out, intake.SuppressedNotice) {
		t.Fatalf("unexpected reply:\n%s", out)
	}
}

func TestIssueFromStdin(t *testing.T) {
	cfg := writeConfig(t, config.DefaultYAML())
	body := "### Deadlines\n1\n### Domains\n1\n### Energy\n4,4,4\n"
	out, err := runCLI(t, body, "issue", "--config", cfg)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if !strings.Contains(out, "Current State: NORMAL") {
		t.Fatalf("unexpected reply:\n%s", out)
	}
}

func TestIssueParseError(t *testing.T) {
	cfg := writeConfig(t, config.DefaultYAML())
	_, err := runCLI(t, "", "issue", "--config", cfg, "### Deadlines\nmany\n")
	var parseErr *intake.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if code := exitCode(err); code != exitDataErr {
		t.Fatalf("expected exit %d, got %d", exitDataErr, code)
	}
}

func TestMissingConfig(t *testing.T) {
	_, err := runCLI(t, "", "evaluate", "--config", filepath.Join(t.TempDir(), "none.yaml"),
		"--deadlines", "1", "--domains", "1", "--energy", "4,4,4")
	var cfgErr *config.Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected config.Error, got %v", err)
	}
	if code := exitCode(err); code != exitConfig {
		t.Fatalf("expected exit %d, got %d", exitConfig, code)
	}
}

func TestConfigFromEnvironment(t *testing.T) {
	cfg := writeConfig(t, config.DefaultYAML())
	resetFlags(rootCmd)
	t.Setenv("PLO_CONFIG", cfg)
	if got := configPath(); got != cfg {
		t.Fatalf("expected %s, got %s", cfg, got)
	}
}

func TestInitPinAndTamper(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plo", "config.yaml")
	integrity.TamperLogDir = ""

	out, err := runCLI(t, "", "init", "--config", path)
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if !strings.Contains(out, "plo init complete.") {
		t.Fatalf("unexpected init output:\n%s", out)
	}
	if _, err := os.Stat(integrity.SidecarPath(path)); err != nil {
		t.Fatalf("sidecar not written: %v", err)
	}

	out, err = runCLI(t, "", "init", "--config", path)
	if err != nil || !strings.Contains(out, "already exists") {
		t.Fatalf("second init should not overwrite: %v\n%s", err, out)
	}

	evalArgs := []string{"evaluate", "--config", path, "--deadlines", "1", "--domains", "1", "--energy", "4,4,4"}
	if _, err := runCLI(t, "", evalArgs...); err != nil {
		t.Fatalf("evaluate with pinned config failed: %v", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("\n# edited\n")
	f.Close()

	_, err = runCLI(t, "", evalArgs...)
	var tamper *integrity.TamperError
	if !errors.As(err, &tamper) {
		t.Fatalf("expected TamperError, got %v", err)
	}
	if code := exitCode(err); code != exitConfig {
		t.Fatalf("expected exit %d, got %d", exitConfig, code)
	}

	// doctor still runs and reports the mismatch
	out, err = runCLI(t, "", "doctor", "--config", path)
	if err == nil || !strings.Contains(out, "config changed since pinned") {
		t.Fatalf("doctor should report the mismatch: %v\n%s", err, out)
	}

	if _, err := runCLI(t, "", "pin", "--config", path); err != nil {
		t.Fatalf("pin failed: %v", err)
	}
	if _, err := runCLI(t, "", evalArgs...); err != nil {
		t.Fatalf("evaluate after re-pin failed: %v", err)
	}
}

func TestPinRejectsInvalidConfig(t *testing.T) {
	path := writeConfig(t, "version: 1\n")
	_, err := runCLI(t, "", "pin", "--config", path)
	var cfgErr *config.Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected config.Error, got %v", err)
	}
	if _, err := os.Stat(integrity.SidecarPath(path)); !os.IsNotExist(err) {
		t.Fatal("invalid config must not be pinned")
	}
}

func TestDoctorHealthyConfig(t *testing.T) {
	cfg := writeConfig(t, config.DefaultYAML())
	if _, err := integrity.Pin(cfg); err != nil {
		t.Fatal(err)
	}
	out, err := runCLI(t, "", "doctor", "--config", cfg)
	if err != nil {
		t.Fatalf("doctor failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "All checks passed.") {
		t.Fatalf("unexpected doctor output:\n%s", out)
	}
}

func TestDoctorWarnsOnLooseRecovery(t *testing.T) {
	loose := strings.Replace(config.DefaultYAML(), "    avg_energy_score: 4", "    avg_energy_score: 2", 1)
	cfg := writeConfig(t, loose)
	out, err := runCLI(t, "", "doctor", "--config", cfg)
	if err != nil {
		t.Fatalf("warnings must not fail doctor: %v\n%s", err, out)
	}
	if !strings.Contains(out, "! thresholds:") || !strings.Contains(out, "avg_energy_score") {
		t.Fatalf("expected a threshold warning:\n%s", out)
	}
}

func TestScenarioCommands(t *testing.T) {
	cfg := writeConfig(t, config.DefaultYAML())
	dir := filepath.Join("..", "..", "scenarios")

	out, err := runCLI(t, "", "scenario", "run-all", "--config", cfg, dir)
	if err != nil {
		t.Fatalf("bundled scenarios should pass: %v\n%s", err, out)
	}
	if !strings.Contains(out, "scenarios passed.") {
		t.Fatalf("unexpected run-all output:\n%s", out)
	}

	out, err = runCLI(t, "", "scenario", "run", "--config", cfg, "--name", "exam crunch", dir)
	if err != nil {
		t.Fatalf("run --name failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "--- Scenario: exam crunch ---") || !strings.Contains(out, "PASS  exam crunch") {
		t.Fatalf("unexpected run output:\n%s", out)
	}

	_, err = runCLI(t, "", "scenario", "run", "--config", cfg, "--name", "no such scenario", dir)
	if code := exitCode(err); code != exitDataErr {
		t.Fatalf("expected exit %d for unknown scenario, got %d", exitDataErr, code)
	}

	out, err = runCLI(t, "", "scenario", "validate", dir)
	if err != nil || !strings.Contains(out, "are valid.") {
		t.Fatalf("validate failed: %v\n%s", err, out)
	}
}

func TestScenarioRunAllReportsFailure(t *testing.T) {
	cfg := writeConfig(t, config.DefaultYAML())
	file := filepath.Join(t.TempDir(), "wrong.yaml")
	content := `scenarios:
  - name: wrong expectation
    inputs:
      fixed_deadlines_14d: 0
      active_high_load_domains: 0
      energy_scores_last_3_days: [5, 5, 5]
    expected:
      state: OVERLOADED
      planning: DENIED
      execution: DENIED
      mode: CONTAINMENT
`
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	out, err := runCLI(t, "", "scenario", "run-all", "--config", cfg, file)
	if err == nil {
		t.Fatal("expected failure")
	}
	if code := exitCode(err); code != exitFailure {
		t.Fatalf("expected exit %d, got %d", exitFailure, code)
	}
	if !strings.Contains(out, "FAIL  wrong expectation") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestSimulateAgainstStricterConfig(t *testing.T) {
	cfg := writeConfig(t, config.DefaultYAML())
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")
	if _, err := runCLI(t, "", "evaluate", "--config", cfg, "--audit-log", logPath,
		"--deadlines", "2", "--domains", "1", "--energy", "4,4,4"); err != nil {
		t.Fatal(err)
	}

	strict := writeConfig(t, strings.Replace(config.DefaultYAML(), "    fixed_deadlines_14d: 3", "    fixed_deadlines_14d: 2", 1))
	out, err := runCLI(t, "", "simulate", "--trace", logPath, "--config", strict)
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}
	if !strings.Contains(out, "NORMAL/ALLOWED -> STRESSED/DENIED") || !strings.Contains(out, "1 newly contained") {
		t.Fatalf("unexpected simulate output:\n%s", out)
	}
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"name": "plo"`) {
		t.Fatalf("unexpected version output: %s", out)
	}
}

func TestExitCodes(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{errors.New("boom"), exitFailure},
		{&config.Error{Problem: "x"}, exitConfig},
		{&integrity.TamperError{}, exitConfig},
		{&model.InvalidMetricsError{}, exitDataErr},
		{&intake.ParseError{}, exitDataErr},
		{fmt.Errorf("exec: %w", execution.Execute("x", authority.Derive(model.Normal, nil))), exitUnavailable},
		{dataError("bad"), exitDataErr},
	}
	for _, c := range cases {
		if got := exitCode(c.err); got != c.code {
			t.Errorf("exitCode(%v) = %d, want %d", c.err, got, c.code)
		}
	}
}
